package rpc

import (
	"errors"

	"github.com/guildcred/guildcred/internal/registry"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Application codes.
	CodeNotFound          = -32000
	CodeUnauthorized      = -32001
	CodeBadSignature      = -32002
	CodeReplayedNonce     = -32003
	CodeTransfersDisabled = -32004
	CodePaused            = -32005
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// registryError maps a registry error to a JSON-RPC error object.
func registryError(err error) *Error {
	code := CodeInternalError
	switch {
	case errors.Is(err, registry.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, registry.ErrUnauthorized):
		code = CodeUnauthorized
	case errors.Is(err, registry.ErrBadSignature):
		code = CodeBadSignature
	case errors.Is(err, registry.ErrReplayedNonce):
		code = CodeReplayedNonce
	case errors.Is(err, registry.ErrTransfersDisabled):
		code = CodeTransfersDisabled
	case errors.Is(err, registry.ErrPaused):
		code = CodePaused
	case errors.Is(err, registry.ErrInvalidBatchInput),
		errors.Is(err, registry.ErrZeroRecipient),
		errors.Is(err, registry.ErrNullAuthority):
		code = CodeInvalidParams
	}
	return &Error{Code: code, Message: err.Error()}
}

// ── Param types ─────────────────────────────────────────────────────────

// IDParam is used by endpoints that take a credential ID.
type IDParam struct {
	ID uint64 `json:"id"`
}

// AddressParam is used by endpoints that take a single address.
type AddressParam struct {
	Address string `json:"address"`
}

// MintWithSignatureParam is used by cred_mintWithSignature.
type MintWithSignatureParam struct {
	Recipient  string `json:"recipient"`
	URI        string `json:"uri"`
	CeramicURI string `json:"ceramic_uri"`
	Nonce      string `json:"nonce"`
	Signature  string `json:"signature"` // hex-encoded 65 bytes
}

// AdminMintParam is used by cred_adminMint.
type AdminMintParam struct {
	Caller     string `json:"caller"`
	Recipient  string `json:"recipient"`
	URI        string `json:"uri"`
	CeramicURI string `json:"ceramic_uri"`
}

// BatchAdminMintParam is used by cred_batchAdminMint.
type BatchAdminMintParam struct {
	Caller      string   `json:"caller"`
	Recipients  []string `json:"recipients"`
	URIs        []string `json:"uris"`
	CeramicURIs []string `json:"ceramic_uris"`
}

// TransferParam is used by cred_transfer.
type TransferParam struct {
	Caller string `json:"caller"`
	From   string `json:"from"`
	To     string `json:"to"`
	ID     uint64 `json:"id"`
	Safe   bool   `json:"safe,omitempty"` // Apply recipient guards.
}

// BurnParam is used by cred_burn.
type BurnParam struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

// GuildAddParam is used by guild_add.
type GuildAddParam struct {
	Caller string   `json:"caller"`
	Name   string   `json:"name"`
	Admins []string `json:"admins,omitempty"`
}

// GuildGetParam is used by guild_get.
type GuildGetParam struct {
	Index uint16 `json:"index"`
}

// AdminIDParam is used by admin_toggleValidity.
type AdminIDParam struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

// CallerParam is used by caller-only admin endpoints.
type CallerParam struct {
	Caller string `json:"caller"`
}

// RoleParam is used by admin_grantRole and admin_revokeRole.
type RoleParam struct {
	Caller  string `json:"caller"`
	Role    string `json:"role"`
	Address string `json:"address"`
}

// SetAuthorityParam is used by admin_setAuthority.
type SetAuthorityParam struct {
	Caller    string `json:"caller"`
	Authority string `json:"authority"`
}

// ── Result types ────────────────────────────────────────────────────────

// MintResult is returned by the mint endpoints.
type MintResult struct {
	ID uint64 `json:"id"`
}

// BatchMintResult is returned by cred_batchAdminMint.
type BatchMintResult struct {
	IDs []uint64 `json:"ids"`
}

// CredentialResult is returned by cred_get.
type CredentialResult struct {
	ID         uint64 `json:"id"`
	Owner      string `json:"owner"`
	URI        string `json:"uri"`
	CeramicURI string `json:"ceramic_uri"`
	CreatedAt  int64  `json:"created_at"`
	Valid      bool   `json:"valid"`
}

// BalanceResult is returned by cred_balanceOf.
type BalanceResult struct {
	Address string   `json:"address"`
	Balance int      `json:"balance"`
	IDs     []uint64 `json:"ids"`
}

// GuildResult is returned by guild_add and guild_get.
type GuildResult struct {
	ID     uint16   `json:"id"`
	Name   string   `json:"name"`
	Admins []string `json:"admins"`
}

// ToggleResult is returned by the toggle endpoints.
type ToggleResult struct {
	Enabled bool `json:"enabled"`
}

// RegistryInfoResult is returned by registry_getInfo.
type RegistryInfoResult struct {
	Network          string `json:"network"`
	Authority        string `json:"authority"`
	TotalMinted      uint64 `json:"total_minted"`
	GuildCount       uint16 `json:"guild_count"`
	TransfersEnabled bool   `json:"transfers_enabled"`
	Paused           bool   `json:"paused"`
	GatewayEnabled   bool   `json:"gateway_enabled"`
}

// VoucherResult is returned by gateway_issueVoucher.
type VoucherResult struct {
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"` // hex-encoded
}
