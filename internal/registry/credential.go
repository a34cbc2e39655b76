package registry

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/guildcred/guildcred/internal/events"
	"github.com/guildcred/guildcred/internal/storage"
	"github.com/guildcred/guildcred/pkg/types"
)

// Credential is one issued contributor credential.
type Credential struct {
	ID         uint64        `json:"id"`
	Owner      types.Address `json:"owner"`
	URI        string        `json:"uri"`
	CeramicURI string        `json:"ceramic_uri"`
	CreatedAt  int64         `json:"created_at"` // Unix seconds at mint time.
	Valid      bool          `json:"valid"`      // Toggleable; defaults to false.
}

func credKey(id uint64) []byte {
	key := make([]byte, len(prefixCred)+8)
	copy(key, prefixCred)
	binary.BigEndian.PutUint64(key[len(prefixCred):], id)
	return key
}

func ownerIdxKey(owner types.Address, id uint64) []byte {
	key := make([]byte, len(prefixOwnerIdx)+types.AddressSize+8)
	copy(key, prefixOwnerIdx)
	copy(key[len(prefixOwnerIdx):], owner[:])
	binary.BigEndian.PutUint64(key[len(prefixOwnerIdx)+types.AddressSize:], id)
	return key
}

// getCredential loads a record. Callers hold at least the read lock.
func (r *Registry) getCredential(id uint64) (*Credential, error) {
	raw, err := r.db.Get(credKey(id))
	if err != nil {
		return nil, fmt.Errorf("credential %d: %w", id, ErrNotFound)
	}
	var c Credential
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("credential %d unmarshal: %w", id, err)
	}
	return &c, nil
}

// putCredential stages a record write. Callers hold the write lock.
func putCredential(batch storage.Batch, c *Credential) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("credential marshal: %w", err)
	}
	return batch.Put(credKey(c.ID), raw)
}

// Get returns the credential record for id.
func (r *Registry) Get(id uint64) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getCredential(id)
}

// URI returns the metadata URI of a credential.
func (r *Registry) URI(id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.getCredential(id)
	if err != nil {
		return "", err
	}
	return c.URI, nil
}

// CeramicURI returns the ceramic stream pointer of a credential.
func (r *Registry) CeramicURI(id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.getCredential(id)
	if err != nil {
		return "", err
	}
	return c.CeramicURI, nil
}

// IsValid returns the validity flag of a credential.
func (r *Registry) IsValid(id uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.getCredential(id)
	if err != nil {
		return false, err
	}
	return c.Valid, nil
}

// CreationDate returns the mint timestamp (Unix seconds) of a credential.
func (r *Registry) CreationDate(id uint64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.getCredential(id)
	if err != nil {
		return 0, err
	}
	return c.CreatedAt, nil
}

// OwnerOf returns the current owner of a credential.
func (r *Registry) OwnerOf(id uint64) (types.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.getCredential(id)
	if err != nil {
		return types.Address{}, err
	}
	return c.Owner, nil
}

// BalanceOf returns the number of credentials held by owner.
func (r *Registry) BalanceOf(owner types.Address) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := make([]byte, len(prefixOwnerIdx)+types.AddressSize)
	copy(prefix, prefixOwnerIdx)
	copy(prefix[len(prefixOwnerIdx):], owner[:])

	count := 0
	err := r.db.ForEach(prefix, func(_, _ []byte) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("balance scan: %w", err)
	}
	return count, nil
}

// CredentialsOf returns the IDs of all credentials held by owner, in
// ascending order.
func (r *Registry) CredentialsOf(owner types.Address) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := make([]byte, len(prefixOwnerIdx)+types.AddressSize)
	copy(prefix, prefixOwnerIdx)
	copy(prefix[len(prefixOwnerIdx):], owner[:])

	ids := []uint64{}
	err := r.db.ForEach(prefix, func(key, _ []byte) error {
		if len(key) < len(prefix)+8 {
			return nil // Malformed key, skip.
		}
		ids = append(ids, binary.BigEndian.Uint64(key[len(prefix):]))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("owner scan: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// ToggleValidity flips the validity flag of a credential without
// touching the rest of the record. Admin-gated.
func (r *Registry) ToggleValidity(caller types.Address, id uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleAdmin); err != nil {
		return false, err
	}

	c, err := r.getCredential(id)
	if err != nil {
		return false, err
	}
	c.Valid = !c.Valid

	batch := r.db.NewBatch()
	if err := putCredential(batch, c); err != nil {
		return false, err
	}
	if err := batch.Commit(); err != nil {
		return false, fmt.Errorf("toggle validity: %w", err)
	}

	r.bus.Publish(events.TypeValidityToggled, ValidityToggledEvent{ID: id, Valid: c.Valid})
	r.logger.Info().Uint64("id", id).Bool("valid", c.Valid).Msg("Validity toggled")
	return c.Valid, nil
}
