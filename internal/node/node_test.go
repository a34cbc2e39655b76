package node

import (
	"path/filepath"
	"testing"

	"github.com/guildcred/guildcred/config"
	"github.com/guildcred/guildcred/internal/events"
	"github.com/guildcred/guildcred/pkg/crypto"
	"github.com/guildcred/guildcred/pkg/types"
)

func testConfig(t *testing.T) (*config.Config, types.Address) {
	t.Helper()

	authority, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	admin := types.Address{0xAD}

	cfg := config.DefaultTestnet()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.RPC.Addr = "127.0.0.1"
	cfg.RPC.Port = 0 // random port
	cfg.RPC.AllowedIPs = nil
	cfg.Registry.Authority = authority.Address().String()
	cfg.Registry.Admins = []string{admin.String()}
	cfg.Registry.Minters = []string{admin.String()}
	cfg.Log.Level = "error"
	if err := config.EnsureDataDirs(cfg); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	return cfg, admin
}

func TestNode_Lifecycle(t *testing.T) {
	// Prefix must be set before the authority address is rendered.
	types.SetAddressPrefix(types.TestnetPrefix)
	cfg, admin := testConfig(t)

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if n.RPCAddr() == "" {
		t.Error("RPC should be listening")
	}

	// Ledger state flows through the node and survives restart.
	id, err := n.Registry().AdminMint(admin, types.Address{0xA1}, "u", "c")
	if err != nil {
		t.Fatalf("mint via node registry: %v", err)
	}
	n.Stop()

	n2, err := New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer n2.Stop()

	if got := n2.Registry().TotalMinted(); got != 1 {
		t.Errorf("TotalMinted after restart = %d, want 1", got)
	}
	if _, err := n2.Registry().Get(id); err != nil {
		t.Errorf("credential lost across restart: %v", err)
	}
}

func TestNode_FreshLedgerRequiresAuthority(t *testing.T) {
	types.SetAddressPrefix(types.TestnetPrefix)
	cfg, _ := testConfig(t)
	cfg.Registry.Authority = ""

	if _, err := New(cfg); err == nil {
		t.Fatal("fresh ledger without authority should fail")
	}
}

func TestNode_BusDelivery(t *testing.T) {
	types.SetAddressPrefix(types.TestnetPrefix)
	cfg, admin := testConfig(t)
	cfg.RPC.Enabled = false

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer n.Stop()

	_, ch := n.Bus().Subscribe(events.TypeCredentialMinted)
	if _, err := n.Registry().AdminMint(admin, types.Address{0xA1}, "u", "c"); err != nil {
		t.Fatalf("mint: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Type != events.TypeCredentialMinted {
			t.Errorf("event type = %q", evt.Type)
		}
	default:
		t.Error("mint event not delivered")
	}
}
