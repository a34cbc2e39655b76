package registry

import (
	"encoding/binary"
	"fmt"

	"github.com/guildcred/guildcred/internal/storage"
	"github.com/guildcred/guildcred/pkg/crypto"
)

// The mint authorization gate. The gateway (the designated authority)
// hands out single-use nonces signed with its key; a holder of a valid
// (nonce, signature) pair may direct one mint to any recipient. The
// signature covers the nonce only, not the recipient or metadata;
// distribution of signed nonces is the gateway's trust boundary.

func nonceKey(nonce string) []byte {
	key := make([]byte, 0, len(prefixNonce)+len(nonce))
	key = append(key, prefixNonce...)
	key = append(key, nonce...)
	return key
}

// authorize checks a signed nonce against the designated authority and
// stages its consumption into batch. Callers hold the write lock.
//
// Order matters: the signature is verified before the replay lookup, and
// the only mutation is the staged nonce insertion. It becomes durable
// together with the rest of the mint, so a mint that fails downstream
// leaves the nonce unconsumed and retryable.
func (r *Registry) authorize(batch storage.Batch, nonce string, signature []byte) error {
	if !crypto.VerifyMessage([]byte(nonce), r.authority, signature) {
		return ErrBadSignature
	}

	consumed, err := r.db.Has(nonceKey(nonce))
	if err != nil {
		return fmt.Errorf("nonce lookup: %w", err)
	}
	if consumed {
		return ErrReplayedNonce
	}

	var consumedAt [8]byte
	binary.BigEndian.PutUint64(consumedAt[:], uint64(r.clock().Unix()))
	return batch.Put(nonceKey(nonce), consumedAt[:])
}

// NonceConsumed reports whether a nonce has already been used.
func (r *Registry) NonceConsumed(nonce string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	consumed, err := r.db.Has(nonceKey(nonce))
	return err == nil && consumed
}
