package registry

import (
	"errors"
	"testing"

	"github.com/guildcred/guildcred/pkg/types"
)

func TestAddGuild(t *testing.T) {
	env := newTestEnv(t)

	id0, err := env.reg.AddGuild(env.admin, "builders", []types.Address{env.admin})
	if err != nil {
		t.Fatalf("add guild: %v", err)
	}
	id1, err := env.reg.AddGuild(env.admin, "writers", nil)
	if err != nil {
		t.Fatalf("add guild: %v", err)
	}
	if id0 != 0 || id1 != 1 {
		t.Errorf("ids = %d, %d, want 0, 1", id0, id1)
	}
	if got := env.reg.GuildCount(); got != 2 {
		t.Errorf("GuildCount = %d, want 2", got)
	}

	g, err := env.reg.Guild(0)
	if err != nil {
		t.Fatalf("guild lookup: %v", err)
	}
	if g.Name != "builders" || len(g.Admins) != 1 || g.Admins[0] != env.admin {
		t.Errorf("guild = %+v", g)
	}

	// Duplicate names are allowed; guilds are index-addressed.
	id2, err := env.reg.AddGuild(env.admin, "builders", nil)
	if err != nil {
		t.Fatalf("duplicate name: %v", err)
	}
	if id2 != 2 {
		t.Errorf("id = %d, want 2", id2)
	}
}

func TestAddGuild_Guards(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.reg.AddGuild(env.alice, "builders", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := env.reg.AddGuild(env.admin, "", nil); err == nil {
		t.Fatal("empty name accepted")
	}
	if _, err := env.reg.Guild(0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
