// Package registry implements the contributor credential ledger: the
// signature-gated mint authorization gate, credential issuance and
// ownership, the guild registry, and the capability model.
//
// All mutating operations are serialized by a single write lock and
// stage every key write into one storage batch committed at the end of
// the operation, so an operation either applies completely or not at
// all. Queries run under the read lock and never observe a half-applied
// mutation.
package registry

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guildcred/guildcred/internal/events"
	"github.com/guildcred/guildcred/internal/storage"
	"github.com/guildcred/guildcred/pkg/types"
)

// Key layout. A single DB holds every record family, namespaced by
// prefix the same way the credential and nonce families are kept apart
// on a ledger.
var (
	keyAuthority    = []byte("m/authority")     // 20-byte authority address
	keyNextID       = []byte("m/next_cred")     // uint64 BE
	keyNextGuild    = []byte("m/next_guild")    // uint16 BE
	keyTransfers    = []byte("m/transfers")     // 1 byte flag
	keyPaused       = []byte("m/paused")        // 1 byte flag
	prefixNonce     = []byte("n/")              // n/<nonce> -> consumed-at unix
	prefixCred      = []byte("c/")              // c/<id(8)> -> Credential JSON
	prefixOwnerIdx  = []byte("o/")              // o/<addr(20)><id(8)> -> empty
	prefixGuild     = []byte("g/")              // g/<id(2)> -> Guild JSON
	prefixRole      = []byte("r/")              // r/<role>/<addr(20)> -> empty
)

// Params configures a Registry at open time.
//
// Authority, Admins, Minters, and TransfersEnabled are bootstrap values:
// they seed the ledger the first time it is opened and are ignored on
// reopen, where the persisted state wins (the authority may have been
// rotated, roles granted or revoked, flags toggled).
type Params struct {
	Authority        types.Address
	Admins           []types.Address
	Minters          []types.Address
	TransfersEnabled bool

	// Clock supplies mint timestamps. Defaults to time.Now.
	Clock func() time.Time

	Logger zerolog.Logger
	Bus    *events.Bus
}

// Registry is the ledger-resident credential registry instance.
type Registry struct {
	mu sync.RWMutex

	db     storage.DB
	bus    *events.Bus
	logger zerolog.Logger
	clock  func() time.Time

	// Cached ledger state, updated only after a successful commit.
	authority        types.Address
	nextID           uint64
	nextGuild        uint16
	transfersEnabled bool
	paused           bool
}

// Open loads or bootstraps a credential registry on top of db.
// A fresh database requires a non-zero authority; ErrNullAuthority
// otherwise.
func Open(db storage.DB, params Params) (*Registry, error) {
	if params.Clock == nil {
		params.Clock = time.Now
	}
	if params.Bus == nil {
		params.Bus = events.NewBus(zerolog.Nop())
	}

	r := &Registry{
		db:     db,
		bus:    params.Bus,
		logger: params.Logger,
		clock:  params.Clock,
	}

	initialized, err := db.Has(keyAuthority)
	if err != nil {
		return nil, fmt.Errorf("check registry state: %w", err)
	}
	if initialized {
		if err := r.load(); err != nil {
			return nil, err
		}
		r.logger.Info().
			Str("authority", r.authority.String()).
			Uint64("credentials", r.nextID).
			Uint16("guilds", r.nextGuild).
			Msg("Registry loaded")
		return r, nil
	}

	if err := r.bootstrap(params); err != nil {
		return nil, err
	}
	r.logger.Info().
		Str("authority", r.authority.String()).
		Int("admins", len(params.Admins)).
		Int("minters", len(params.Minters)).
		Msg("Registry initialized")
	return r, nil
}

// load restores cached state from a previously initialized database.
func (r *Registry) load() error {
	raw, err := r.db.Get(keyAuthority)
	if err != nil {
		return fmt.Errorf("load authority: %w", err)
	}
	if len(raw) != types.AddressSize {
		return fmt.Errorf("corrupt authority record: %d bytes", len(raw))
	}
	copy(r.authority[:], raw)

	if r.nextID, err = r.getUint64(keyNextID); err != nil {
		return fmt.Errorf("load credential counter: %w", err)
	}
	nextGuild, err := r.getUint64(keyNextGuild)
	if err != nil {
		return fmt.Errorf("load guild counter: %w", err)
	}
	r.nextGuild = uint16(nextGuild)

	if r.transfersEnabled, err = r.getFlag(keyTransfers); err != nil {
		return fmt.Errorf("load transfer flag: %w", err)
	}
	if r.paused, err = r.getFlag(keyPaused); err != nil {
		return fmt.Errorf("load pause flag: %w", err)
	}
	return nil
}

// bootstrap writes the initial ledger state in one batch.
func (r *Registry) bootstrap(params Params) error {
	if params.Authority.IsZero() {
		return ErrNullAuthority
	}

	batch := r.db.NewBatch()
	if err := batch.Put(keyAuthority, params.Authority.Bytes()); err != nil {
		return err
	}
	if err := batch.Put(keyNextID, encodeUint64(0)); err != nil {
		return err
	}
	if err := batch.Put(keyNextGuild, encodeUint64(0)); err != nil {
		return err
	}
	if err := batch.Put(keyTransfers, encodeFlag(params.TransfersEnabled)); err != nil {
		return err
	}
	if err := batch.Put(keyPaused, encodeFlag(false)); err != nil {
		return err
	}
	for _, addr := range params.Admins {
		if err := batch.Put(roleKey(RoleAdmin, addr), []byte{1}); err != nil {
			return err
		}
	}
	for _, addr := range params.Minters {
		if err := batch.Put(roleKey(RoleMinter, addr), []byte{1}); err != nil {
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("bootstrap registry: %w", err)
	}

	r.authority = params.Authority
	r.transfersEnabled = params.TransfersEnabled
	return nil
}

// Authority returns the currently designated mint authority.
func (r *Registry) Authority() types.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.authority
}

// SetAuthority rotates the designated authority. Admin-gated; exactly
// one address is authoritative at any instant.
func (r *Registry) SetAuthority(caller, authority types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	if authority.IsZero() {
		return ErrNullAuthority
	}

	batch := r.db.NewBatch()
	if err := batch.Put(keyAuthority, authority.Bytes()); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("set authority: %w", err)
	}

	old := r.authority
	r.authority = authority
	r.logger.Info().
		Str("old", old.String()).
		Str("new", authority.String()).
		Msg("Authority rotated")
	return nil
}

// TransfersEnabled reports the global transfer flag.
func (r *Registry) TransfersEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transfersEnabled
}

// Paused reports whether the registry is paused.
func (r *Registry) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// ToggleTransferability flips the global transfer flag. Admin-gated.
func (r *Registry) ToggleTransferability(caller types.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleAdmin); err != nil {
		return false, err
	}

	next := !r.transfersEnabled
	batch := r.db.NewBatch()
	if err := batch.Put(keyTransfers, encodeFlag(next)); err != nil {
		return false, err
	}
	if err := batch.Commit(); err != nil {
		return false, fmt.Errorf("toggle transfers: %w", err)
	}

	r.transfersEnabled = next
	r.logger.Info().Bool("enabled", next).Msg("Transfer flag toggled")
	return next, nil
}

// Pause stops transfers and burns until Unpause. Admin-gated.
func (r *Registry) Pause(caller types.Address) error {
	return r.setPaused(caller, true)
}

// Unpause lifts a pause. Admin-gated.
func (r *Registry) Unpause(caller types.Address) error {
	return r.setPaused(caller, false)
}

func (r *Registry) setPaused(caller types.Address, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleAdmin); err != nil {
		return err
	}

	batch := r.db.NewBatch()
	if err := batch.Put(keyPaused, encodeFlag(paused)); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("set paused: %w", err)
	}

	r.paused = paused
	r.logger.Info().Bool("paused", paused).Msg("Pause flag changed")
	return nil
}

// TotalMinted returns the number of credentials ever issued. Burned
// credentials still count: IDs are never reused.
func (r *Registry) TotalMinted() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextID
}

func encodeUint64(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func encodeFlag(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func (r *Registry) getUint64(key []byte) (uint64, error) {
	raw, err := r.db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("corrupt counter record: %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (r *Registry) getFlag(key []byte) (bool, error) {
	raw, err := r.db.Get(key)
	if err != nil {
		return false, err
	}
	return len(raw) == 1 && raw[0] == 1, nil
}
