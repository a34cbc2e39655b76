package registry

import (
	"fmt"

	"github.com/guildcred/guildcred/internal/events"
	"github.com/guildcred/guildcred/internal/storage"
	"github.com/guildcred/guildcred/pkg/types"
)

// MintedEvent is published for every successful mint, on both pathways.
type MintedEvent struct {
	ID        uint64        `json:"id"`
	Owner     types.Address `json:"owner"`
	URI       string        `json:"uri"`
	Gated     bool          `json:"gated"` // true for the signature-gated path
	CreatedAt int64         `json:"created_at"`
}

// ValidityToggledEvent is published when a credential's validity flips.
type ValidityToggledEvent struct {
	ID    uint64 `json:"id"`
	Valid bool   `json:"valid"`
}

// MintWithSignature mints a credential on the signature-gated pathway.
// Any caller holding a (nonce, signature) pair issued by the gateway may
// mint; no capability is required. The nonce is consumed in the same
// atomic unit as the issuance, so a failed mint never burns the nonce.
func (r *Registry) MintWithSignature(recipient types.Address, uri, ceramicURI, nonce string, signature []byte) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := r.db.NewBatch()
	if err := r.authorize(batch, nonce, signature); err != nil {
		return 0, err
	}

	c, err := r.issue(batch, r.nextID, recipient, uri, ceramicURI)
	if err != nil {
		return 0, err
	}
	if err := batch.Put(keyNextID, encodeUint64(r.nextID+1)); err != nil {
		return 0, err
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("mint commit: %w", err)
	}

	r.nextID++
	r.emitMinted(c, true)
	return c.ID, nil
}

// AdminMint mints a credential without a gateway signature. Requires the
// minter capability; entirely independent of the signature-gated path.
func (r *Registry) AdminMint(caller, recipient types.Address, uri, ceramicURI string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleMinter); err != nil {
		return 0, err
	}

	batch := r.db.NewBatch()
	c, err := r.issue(batch, r.nextID, recipient, uri, ceramicURI)
	if err != nil {
		return 0, err
	}
	if err := batch.Put(keyNextID, encodeUint64(r.nextID+1)); err != nil {
		return 0, err
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("mint commit: %w", err)
	}

	r.nextID++
	r.emitMinted(c, false)
	return c.ID, nil
}

// BatchAdminMint mints one credential per recipient in a single atomic
// unit. All three slices must be the same length and longer than one;
// otherwise ErrInvalidBatchInput and nothing is issued.
func (r *Registry) BatchAdminMint(caller types.Address, recipients []types.Address, uris, ceramicURIs []string) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleMinter); err != nil {
		return nil, err
	}
	if len(recipients) <= 1 || len(uris) != len(recipients) || len(ceramicURIs) != len(recipients) {
		return nil, ErrInvalidBatchInput
	}

	batch := r.db.NewBatch()
	minted := make([]*Credential, 0, len(recipients))
	for i, recipient := range recipients {
		c, err := r.issue(batch, r.nextID+uint64(i), recipient, uris[i], ceramicURIs[i])
		if err != nil {
			return nil, err
		}
		minted = append(minted, c)
	}
	if err := batch.Put(keyNextID, encodeUint64(r.nextID+uint64(len(recipients)))); err != nil {
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("batch mint commit: %w", err)
	}

	r.nextID += uint64(len(minted))
	ids := make([]uint64, len(minted))
	for i, c := range minted {
		ids[i] = c.ID
		r.emitMinted(c, false)
	}
	return ids, nil
}

// issue stages one credential record and its owner-index entry. The
// validity flag starts false; the timestamp is the registry clock at
// mint time. Callers hold the write lock and commit the batch.
func (r *Registry) issue(batch storage.Batch, id uint64, recipient types.Address, uri, ceramicURI string) (*Credential, error) {
	if recipient.IsZero() {
		return nil, ErrZeroRecipient
	}

	c := &Credential{
		ID:         id,
		Owner:      recipient,
		URI:        uri,
		CeramicURI: ceramicURI,
		CreatedAt:  r.clock().Unix(),
		Valid:      false,
	}
	if err := putCredential(batch, c); err != nil {
		return nil, err
	}
	if err := batch.Put(ownerIdxKey(recipient, id), []byte{1}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Registry) emitMinted(c *Credential, gated bool) {
	r.bus.Publish(events.TypeCredentialMinted, MintedEvent{
		ID:        c.ID,
		Owner:     c.Owner,
		URI:       c.URI,
		Gated:     gated,
		CreatedAt: c.CreatedAt,
	})
	r.logger.Info().
		Uint64("id", c.ID).
		Str("owner", c.Owner.String()).
		Bool("gated", gated).
		Msg("Credential minted")
}
