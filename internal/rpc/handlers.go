package rpc

import (
	"encoding/hex"
	"fmt"

	"github.com/guildcred/guildcred/internal/registry"
	"github.com/guildcred/guildcred/pkg/types"
)

// parseAddr decodes a prefixed address param.
func parseAddr(field, value string) (types.Address, *Error) {
	if value == "" {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: field + " is required"}
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return addr, nil
}

func parseAddrList(field string, values []string) ([]types.Address, *Error) {
	addrs := make([]types.Address, len(values))
	for i, v := range values {
		addr, rpcErr := parseAddr(fmt.Sprintf("%s[%d]", field, i), v)
		if rpcErr != nil {
			return nil, rpcErr
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// ── Mint endpoints ──────────────────────────────────────────────────────

func (s *Server) handleMintWithSignature(req *Request) (interface{}, *Error) {
	var params MintWithSignatureParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	recipient, rpcErr := parseAddr("recipient", params.Recipient)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if params.Nonce == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "nonce is required"}
	}
	sig, err := hex.DecodeString(params.Signature)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid signature: must be hex"}
	}

	id, err := s.registry.MintWithSignature(recipient, params.URI, params.CeramicURI, params.Nonce, sig)
	if err != nil {
		return nil, registryError(err)
	}
	return &MintResult{ID: id}, nil
}

func (s *Server) handleAdminMint(req *Request) (interface{}, *Error) {
	var params AdminMintParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, rpcErr := parseAddr("recipient", params.Recipient)
	if rpcErr != nil {
		return nil, rpcErr
	}

	id, err := s.registry.AdminMint(caller, recipient, params.URI, params.CeramicURI)
	if err != nil {
		return nil, registryError(err)
	}
	return &MintResult{ID: id}, nil
}

func (s *Server) handleBatchAdminMint(req *Request) (interface{}, *Error) {
	var params BatchAdminMintParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipients, rpcErr := parseAddrList("recipients", params.Recipients)
	if rpcErr != nil {
		return nil, rpcErr
	}

	ids, err := s.registry.BatchAdminMint(caller, recipients, params.URIs, params.CeramicURIs)
	if err != nil {
		return nil, registryError(err)
	}
	return &BatchMintResult{IDs: ids}, nil
}

// ── Credential queries ──────────────────────────────────────────────────

func credentialResult(c *registry.Credential) *CredentialResult {
	return &CredentialResult{
		ID:         c.ID,
		Owner:      c.Owner.String(),
		URI:        c.URI,
		CeramicURI: c.CeramicURI,
		CreatedAt:  c.CreatedAt,
		Valid:      c.Valid,
	}
}

func (s *Server) handleCredGet(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	c, err := s.registry.Get(params.ID)
	if err != nil {
		return nil, registryError(err)
	}
	return credentialResult(c), nil
}

func (s *Server) handleCredURI(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	uri, err := s.registry.URI(params.ID)
	if err != nil {
		return nil, registryError(err)
	}
	return uri, nil
}

func (s *Server) handleCredCeramicURI(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	uri, err := s.registry.CeramicURI(params.ID)
	if err != nil {
		return nil, registryError(err)
	}
	return uri, nil
}

func (s *Server) handleCredIsValid(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	valid, err := s.registry.IsValid(params.ID)
	if err != nil {
		return nil, registryError(err)
	}
	return valid, nil
}

func (s *Server) handleCredCreationDate(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	ts, err := s.registry.CreationDate(params.ID)
	if err != nil {
		return nil, registryError(err)
	}
	return ts, nil
}

func (s *Server) handleCredOwnerOf(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, err := s.registry.OwnerOf(params.ID)
	if err != nil {
		return nil, registryError(err)
	}
	return owner.String(), nil
}

func (s *Server) handleCredBalanceOf(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddr("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	ids, err := s.registry.CredentialsOf(addr)
	if err != nil {
		return nil, registryError(err)
	}
	return &BalanceResult{
		Address: addr.String(),
		Balance: len(ids),
		IDs:     ids,
	}, nil
}

func (s *Server) handleCredTotalMinted(req *Request) (interface{}, *Error) {
	return s.registry.TotalMinted(), nil
}

// ── Transfer endpoints ──────────────────────────────────────────────────

func (s *Server) handleCredTransfer(req *Request) (interface{}, *Error) {
	var params TransferParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAddr("from", params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddr("to", params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var err error
	if params.Safe {
		err = s.registry.SafeTransfer(caller, from, to, params.ID)
	} else {
		err = s.registry.Transfer(caller, from, to, params.ID)
	}
	if err != nil {
		return nil, registryError(err)
	}
	return true, nil
}

func (s *Server) handleCredBurn(req *Request) (interface{}, *Error) {
	var params BurnParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.registry.Burn(caller, params.ID); err != nil {
		return nil, registryError(err)
	}
	return true, nil
}

// ── Guild endpoints ─────────────────────────────────────────────────────

func guildResult(g *registry.Guild) *GuildResult {
	admins := make([]string, len(g.Admins))
	for i, a := range g.Admins {
		admins[i] = a.String()
	}
	return &GuildResult{ID: g.ID, Name: g.Name, Admins: admins}
}

func (s *Server) handleGuildAdd(req *Request) (interface{}, *Error) {
	var params GuildAddParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	admins, rpcErr := parseAddrList("admins", params.Admins)
	if rpcErr != nil {
		return nil, rpcErr
	}

	id, err := s.registry.AddGuild(caller, params.Name, admins)
	if err != nil {
		return nil, registryError(err)
	}
	return &GuildResult{ID: id, Name: params.Name, Admins: params.Admins}, nil
}

func (s *Server) handleGuildGet(req *Request) (interface{}, *Error) {
	var params GuildGetParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	g, err := s.registry.Guild(params.Index)
	if err != nil {
		return nil, registryError(err)
	}
	return guildResult(g), nil
}

func (s *Server) handleGuildCount(req *Request) (interface{}, *Error) {
	return s.registry.GuildCount(), nil
}

// ── Admin endpoints ─────────────────────────────────────────────────────

func (s *Server) handleToggleValidity(req *Request) (interface{}, *Error) {
	var params AdminIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	valid, err := s.registry.ToggleValidity(caller, params.ID)
	if err != nil {
		return nil, registryError(err)
	}
	return &ToggleResult{Enabled: valid}, nil
}

func (s *Server) handleToggleTransfers(req *Request) (interface{}, *Error) {
	var params CallerParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	enabled, err := s.registry.ToggleTransferability(caller)
	if err != nil {
		return nil, registryError(err)
	}
	return &ToggleResult{Enabled: enabled}, nil
}

func (s *Server) handlePause(req *Request) (interface{}, *Error) {
	return s.handleSetPaused(req, true)
}

func (s *Server) handleUnpause(req *Request) (interface{}, *Error) {
	return s.handleSetPaused(req, false)
}

func (s *Server) handleSetPaused(req *Request, paused bool) (interface{}, *Error) {
	var params CallerParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var err error
	if paused {
		err = s.registry.Pause(caller)
	} else {
		err = s.registry.Unpause(caller)
	}
	if err != nil {
		return nil, registryError(err)
	}
	return true, nil
}

func (s *Server) handleGrantRole(req *Request) (interface{}, *Error) {
	return s.handleRoleChange(req, true)
}

func (s *Server) handleRevokeRole(req *Request) (interface{}, *Error) {
	return s.handleRoleChange(req, false)
}

func (s *Server) handleRoleChange(req *Request, grant bool) (interface{}, *Error) {
	var params RoleParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddr("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var err error
	if grant {
		err = s.registry.GrantRole(caller, registry.Role(params.Role), addr)
	} else {
		err = s.registry.RevokeRole(caller, registry.Role(params.Role), addr)
	}
	if err != nil {
		return nil, registryError(err)
	}
	return true, nil
}

func (s *Server) handleSetAuthority(req *Request) (interface{}, *Error) {
	var params SetAuthorityParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	authority, rpcErr := parseAddr("authority", params.Authority)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.registry.SetAuthority(caller, authority); err != nil {
		return nil, registryError(err)
	}
	return true, nil
}

// ── Info and gateway endpoints ──────────────────────────────────────────

func (s *Server) handleRegistryGetInfo(req *Request) (interface{}, *Error) {
	return &RegistryInfoResult{
		Network:          s.network,
		Authority:        s.registry.Authority().String(),
		TotalMinted:      s.registry.TotalMinted(),
		GuildCount:       s.registry.GuildCount(),
		TransfersEnabled: s.registry.TransfersEnabled(),
		Paused:           s.registry.Paused(),
		GatewayEnabled:   s.signer != nil,
	}, nil
}

func (s *Server) handleIssueVoucher(req *Request) (interface{}, *Error) {
	if s.signer == nil {
		return nil, &Error{Code: CodeMethodNotFound, Message: "gateway is not enabled on this daemon"}
	}
	v, err := s.signer.Issue()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &VoucherResult{
		Nonce:     v.Nonce,
		Signature: hex.EncodeToString(v.Signature),
	}, nil
}
