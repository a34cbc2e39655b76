package registry

import (
	"errors"
	"testing"

	"github.com/guildcred/guildcred/pkg/types"
)

func TestTransfer_GatedByFlag(t *testing.T) {
	env := newTestEnv(t) // transfers start disabled

	id, err := env.reg.AdminMint(env.minter, env.alice, "u", "c")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := env.reg.Transfer(env.alice, env.alice, env.bob, id); !errors.Is(err, ErrTransfersDisabled) {
		t.Fatalf("err = %v, want ErrTransfersDisabled", err)
	}
	if owner, _ := env.reg.OwnerOf(id); owner != env.alice {
		t.Fatal("rejected transfer moved the credential")
	}

	// Enable and retry the identical transfer.
	enabled, err := env.reg.ToggleTransferability(env.admin)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !enabled {
		t.Fatal("toggle should enable transfers")
	}
	if err := env.reg.Transfer(env.alice, env.alice, env.bob, id); err != nil {
		t.Fatalf("transfer after enable: %v", err)
	}

	if owner, _ := env.reg.OwnerOf(id); owner != env.bob {
		t.Errorf("owner = %s, want %s", owner, env.bob)
	}
	if n, _ := env.reg.BalanceOf(env.alice); n != 0 {
		t.Errorf("alice balance = %d, want 0", n)
	}
	if n, _ := env.reg.BalanceOf(env.bob); n != 1 {
		t.Errorf("bob balance = %d, want 1", n)
	}
}

func TestTransfer_Authorization(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.reg.ToggleTransferability(env.admin); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	id, err := env.reg.AdminMint(env.minter, env.alice, "u", "c")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	// A stranger may not move alice's credential.
	if err := env.reg.Transfer(env.bob, env.alice, env.bob, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	// from must match the actual owner.
	if err := env.reg.Transfer(env.bob, env.bob, env.alice, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	// An admin may move on the owner's behalf.
	if err := env.reg.Transfer(env.admin, env.alice, env.bob, id); err != nil {
		t.Fatalf("admin transfer: %v", err)
	}
	if owner, _ := env.reg.OwnerOf(id); owner != env.bob {
		t.Errorf("owner = %s, want %s", owner, env.bob)
	}
}

func TestSafeTransfer_RecipientGuards(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.reg.ToggleTransferability(env.admin); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	id, err := env.reg.AdminMint(env.minter, env.alice, "u", "c")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := env.reg.SafeTransfer(env.alice, env.alice, types.Address{}, id); !errors.Is(err, ErrZeroRecipient) {
		t.Fatalf("err = %v, want ErrZeroRecipient", err)
	}
	if err := env.reg.SafeTransfer(env.alice, env.alice, env.alice, id); err == nil {
		t.Fatal("self-transfer accepted")
	}
	if err := env.reg.SafeTransfer(env.alice, env.alice, env.bob, id); err != nil {
		t.Fatalf("safe transfer: %v", err)
	}
}

func TestPause_BlocksTransfersAndBurns(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.reg.ToggleTransferability(env.admin); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	id, err := env.reg.AdminMint(env.minter, env.alice, "u", "c")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := env.reg.Pause(env.alice); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if err := env.reg.Pause(env.admin); err != nil {
		t.Fatalf("pause: %v", err)
	}

	// Pause takes precedence over the transfer flag.
	if err := env.reg.Transfer(env.alice, env.alice, env.bob, id); !errors.Is(err, ErrPaused) {
		t.Fatalf("transfer err = %v, want ErrPaused", err)
	}
	if err := env.reg.Burn(env.alice, id); !errors.Is(err, ErrPaused) {
		t.Fatalf("burn err = %v, want ErrPaused", err)
	}

	if err := env.reg.Unpause(env.admin); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := env.reg.Transfer(env.alice, env.alice, env.bob, id); err != nil {
		t.Fatalf("transfer after unpause: %v", err)
	}
}

// Burning never frees an ID for reuse.
func TestBurn_IDsNotReused(t *testing.T) {
	env := newTestEnv(t)

	id0, err := env.reg.AdminMint(env.minter, env.alice, "u0", "c0")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := env.reg.Burn(env.alice, id0); err != nil {
		t.Fatalf("burn: %v", err)
	}

	if _, err := env.reg.Get(id0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("burned credential still readable: %v", err)
	}
	if n, _ := env.reg.BalanceOf(env.alice); n != 0 {
		t.Errorf("alice balance = %d, want 0", n)
	}

	id1, err := env.reg.AdminMint(env.minter, env.bob, "u1", "c1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if id1 != 1 {
		t.Errorf("id after burn = %d, want 1", id1)
	}
	if got := env.reg.TotalMinted(); got != 2 {
		t.Errorf("TotalMinted = %d, want 2", got)
	}
}

func TestBurn_Authorization(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.reg.AdminMint(env.minter, env.alice, "u", "c")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := env.reg.Burn(env.bob, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if err := env.reg.Burn(env.admin, id); err != nil {
		t.Fatalf("admin burn: %v", err)
	}
	if err := env.reg.Burn(env.admin, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double burn err = %v, want ErrNotFound", err)
	}
}
