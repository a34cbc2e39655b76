package registry

import (
	"fmt"

	"github.com/guildcred/guildcred/pkg/types"
)

// Role is a capability held by an address.
type Role string

// Capabilities recognized by the registry.
const (
	// RoleAdmin may toggle flags, manage guilds and validity, rotate
	// the authority, and grant or revoke roles.
	RoleAdmin Role = "admin"

	// RoleMinter may mint without a gateway signature.
	RoleMinter Role = "minter"
)

func validRole(role Role) bool {
	return role == RoleAdmin || role == RoleMinter
}

func roleKey(role Role, addr types.Address) []byte {
	key := make([]byte, 0, len(prefixRole)+len(role)+1+types.AddressSize)
	key = append(key, prefixRole...)
	key = append(key, role...)
	key = append(key, '/')
	key = append(key, addr[:]...)
	return key
}

// HasRole reports whether addr holds the given capability.
func (r *Registry) HasRole(addr types.Address, role Role) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasRole(addr, role)
}

// hasRole is the lock-free variant used inside guarded operations.
func (r *Registry) hasRole(addr types.Address, role Role) bool {
	has, err := r.db.Has(roleKey(role, addr))
	return err == nil && has
}

// requireRole is the guard invoked at the top of every capability-gated
// operation. Callers hold the write lock.
func (r *Registry) requireRole(caller types.Address, role Role) error {
	if !r.hasRole(caller, role) {
		return fmt.Errorf("%w: %s requires %s", ErrUnauthorized, caller, role)
	}
	return nil
}

// GrantRole gives addr the capability. Admin-gated.
func (r *Registry) GrantRole(caller types.Address, role Role, addr types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	if !validRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	if addr.IsZero() {
		return ErrZeroRecipient
	}

	batch := r.db.NewBatch()
	if err := batch.Put(roleKey(role, addr), []byte{1}); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}

	r.logger.Info().
		Str("role", string(role)).
		Str("address", addr.String()).
		Msg("Role granted")
	return nil
}

// RevokeRole removes the capability from addr. Admin-gated.
func (r *Registry) RevokeRole(caller types.Address, role Role, addr types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	if !validRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	batch := r.db.NewBatch()
	if err := batch.Delete(roleKey(role, addr)); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}

	r.logger.Info().
		Str("role", string(role)).
		Str("address", addr.String()).
		Msg("Role revoked")
	return nil
}
