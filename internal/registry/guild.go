package registry

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/guildcred/guildcred/internal/events"
	"github.com/guildcred/guildcred/pkg/types"
)

// Guild is an administrative grouping. The registry is append-only:
// guilds are never removed and their identifiers never reused.
type Guild struct {
	ID     uint16          `json:"id"`
	Name   string          `json:"name"`
	Admins []types.Address `json:"admins"`
}

// GuildAddedEvent is published when a guild is registered.
type GuildAddedEvent struct {
	ID   uint16 `json:"id"`
	Name string `json:"name"`
}

func guildKey(id uint16) []byte {
	key := make([]byte, len(prefixGuild)+2)
	copy(key, prefixGuild)
	binary.BigEndian.PutUint16(key[len(prefixGuild):], id)
	return key
}

// AddGuild registers a new guild with sequential 16-bit ID. Admin-gated.
func (r *Registry) AddGuild(caller types.Address, name string, admins []types.Address) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireRole(caller, RoleAdmin); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, fmt.Errorf("guild name must not be empty")
	}
	if r.nextGuild == ^uint16(0) {
		return 0, ErrGuildRegistryFull
	}

	g := &Guild{
		ID:     r.nextGuild,
		Name:   name,
		Admins: admins,
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return 0, fmt.Errorf("guild marshal: %w", err)
	}

	batch := r.db.NewBatch()
	if err := batch.Put(guildKey(g.ID), raw); err != nil {
		return 0, err
	}
	if err := batch.Put(keyNextGuild, encodeUint64(uint64(g.ID)+1)); err != nil {
		return 0, err
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("add guild: %w", err)
	}

	r.nextGuild++
	r.bus.Publish(events.TypeGuildAdded, GuildAddedEvent{ID: g.ID, Name: g.Name})
	r.logger.Info().Uint16("id", g.ID).Str("name", g.Name).Msg("Guild added")
	return g.ID, nil
}

// Guild returns the guild registered at index.
func (r *Registry) Guild(index uint16) (*Guild, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, err := r.db.Get(guildKey(index))
	if err != nil {
		return nil, fmt.Errorf("guild %d: %w", index, ErrNotFound)
	}
	var g Guild
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("guild %d unmarshal: %w", index, err)
	}
	return &g, nil
}

// GuildCount returns the number of registered guilds.
func (r *Registry) GuildCount() uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextGuild
}
