package registry

import "errors"

// Sentinel errors surfaced by registry operations. All are returned
// directly to the caller; no operation retries internally, and a failed
// operation leaves no partial state behind.
var (
	// ErrBadSignature means the recovered signer does not match the
	// designated authority, or the signature components are malformed.
	ErrBadSignature = errors.New("signature not produced by designated authority")

	// ErrReplayedNonce means the nonce was already consumed by an
	// earlier successful mint.
	ErrReplayedNonce = errors.New("nonce already consumed")

	// ErrUnauthorized means the caller lacks the required capability.
	ErrUnauthorized = errors.New("caller lacks required capability")

	// ErrInvalidBatchInput means the batch mint arrays are mismatched
	// or too small.
	ErrInvalidBatchInput = errors.New("batch arrays must be equal length and longer than one")

	// ErrTransfersDisabled means a transfer was attempted while the
	// global transfer flag is off.
	ErrTransfersDisabled = errors.New("transfers are disabled")

	// ErrPaused means a state-changing operation was attempted while
	// the registry is paused.
	ErrPaused = errors.New("registry is paused")

	// ErrNullAuthority rejects a zero designated authority address at
	// construction or rotation.
	ErrNullAuthority = errors.New("designated authority must not be the zero address")

	// ErrZeroRecipient rejects minting or transferring to the zero address.
	ErrZeroRecipient = errors.New("recipient must not be the zero address")

	// ErrNotFound means the credential or guild does not exist.
	ErrNotFound = errors.New("not found")

	// ErrGuildRegistryFull means the 16-bit guild counter is exhausted.
	ErrGuildRegistryFull = errors.New("guild registry full")
)
