package registry

import (
	"fmt"

	"github.com/guildcred/guildcred/internal/events"
	"github.com/guildcred/guildcred/pkg/types"
)

// TransferredEvent is published on every successful transfer.
type TransferredEvent struct {
	ID   uint64        `json:"id"`
	From types.Address `json:"from"`
	To   types.Address `json:"to"`
}

// BurnedEvent is published when a credential is destroyed.
type BurnedEvent struct {
	ID    uint64        `json:"id"`
	Owner types.Address `json:"owner"`
}

// checkTransferable runs the ordered pre-transfer checks shared by both
// transfer entry points: paused first, then the global transfer flag.
func (r *Registry) checkTransferable() error {
	if r.paused {
		return ErrPaused
	}
	if !r.transfersEnabled {
		return ErrTransfersDisabled
	}
	return nil
}

// Transfer moves a credential from from to to. The caller must be the
// current owner or an admin; from must match the record's owner.
func (r *Registry) Transfer(caller, from, to types.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transfer(caller, from, to, id)
}

// SafeTransfer is Transfer with recipient guards: the zero address and
// self-transfers are rejected before any state is touched.
func (r *Registry) SafeTransfer(caller, from, to types.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if to.IsZero() {
		return ErrZeroRecipient
	}
	if to == from {
		return fmt.Errorf("transfer to self")
	}
	return r.transfer(caller, from, to, id)
}

func (r *Registry) transfer(caller, from, to types.Address, id uint64) error {
	if err := r.checkTransferable(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrZeroRecipient
	}

	c, err := r.getCredential(id)
	if err != nil {
		return err
	}
	if c.Owner != from {
		return fmt.Errorf("%w: %s does not own credential %d", ErrUnauthorized, from, id)
	}
	if caller != from && !r.hasRole(caller, RoleAdmin) {
		return fmt.Errorf("%w: caller is neither owner nor admin", ErrUnauthorized)
	}

	c.Owner = to
	batch := r.db.NewBatch()
	if err := putCredential(batch, c); err != nil {
		return err
	}
	if err := batch.Delete(ownerIdxKey(from, id)); err != nil {
		return err
	}
	if err := batch.Put(ownerIdxKey(to, id), []byte{1}); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("transfer commit: %w", err)
	}

	r.bus.Publish(events.TypeCredentialTransferred, TransferredEvent{ID: id, From: from, To: to})
	r.logger.Info().
		Uint64("id", id).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Credential transferred")
	return nil
}

// Burn destroys a credential. The caller must be the owner or an admin.
// The ID is never reassigned: the issuance counter is untouched.
func (r *Registry) Burn(caller types.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return ErrPaused
	}

	c, err := r.getCredential(id)
	if err != nil {
		return err
	}
	if caller != c.Owner && !r.hasRole(caller, RoleAdmin) {
		return fmt.Errorf("%w: caller is neither owner nor admin", ErrUnauthorized)
	}

	batch := r.db.NewBatch()
	if err := batch.Delete(credKey(id)); err != nil {
		return err
	}
	if err := batch.Delete(ownerIdxKey(c.Owner, id)); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("burn commit: %w", err)
	}

	r.bus.Publish(events.TypeCredentialBurned, BurnedEvent{ID: id, Owner: c.Owner})
	r.logger.Info().Uint64("id", id).Str("owner", c.Owner.String()).Msg("Credential burned")
	return nil
}
