package registry

import (
	"errors"
	"testing"

	"github.com/guildcred/guildcred/pkg/types"
)

func TestAdminMint(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.reg.AdminMint(env.minter, env.alice, "ipfs://m", "ceramic://s")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0", id)
	}

	// No capability, no mint.
	if _, err := env.reg.AdminMint(env.alice, env.alice, "u", "c"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := env.reg.AdminMint(env.minter, types.Address{}, "u", "c"); !errors.Is(err, ErrZeroRecipient) {
		t.Fatalf("err = %v, want ErrZeroRecipient", err)
	}
}

// Both mint pathways draw from the same counter, and the direct pathway
// neither requires nor touches the nonce ledger.
func TestMintPathwaysShareCounter(t *testing.T) {
	env := newTestEnv(t)

	sig := env.signNonce(t, "n-0")
	id0, err := env.reg.MintWithSignature(env.alice, "u0", "c0", "n-0", sig)
	if err != nil {
		t.Fatalf("gated mint: %v", err)
	}
	id1, err := env.reg.AdminMint(env.minter, env.bob, "u1", "c1")
	if err != nil {
		t.Fatalf("direct mint: %v", err)
	}
	sig2 := env.signNonce(t, "n-2")
	id2, err := env.reg.MintWithSignature(env.bob, "u2", "c2", "n-2", sig2)
	if err != nil {
		t.Fatalf("gated mint: %v", err)
	}

	if id0 != 0 || id1 != 1 || id2 != 2 {
		t.Errorf("ids = %d, %d, %d, want 0, 1, 2", id0, id1, id2)
	}
	if got := env.reg.TotalMinted(); got != 3 {
		t.Errorf("TotalMinted = %d, want 3", got)
	}
}

func TestBatchAdminMint(t *testing.T) {
	env := newTestEnv(t)

	recipients := []types.Address{env.alice, env.bob, env.alice}
	uris := []string{"u0", "u1", "u2"}
	streams := []string{"c0", "c1", "c2"}

	ids, err := env.reg.BatchAdminMint(env.minter, recipients, uris, streams)
	if err != nil {
		t.Fatalf("batch mint: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d, want 3", len(ids))
	}
	for i, id := range ids {
		if id != uint64(i) {
			t.Errorf("ids[%d] = %d, want %d", i, id, i)
		}
		c, err := env.reg.Get(id)
		if err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
		if c.Owner != recipients[i] || c.URI != uris[i] || c.CeramicURI != streams[i] {
			t.Errorf("credential %d = %+v", id, c)
		}
	}

	aliceIDs, err := env.reg.CredentialsOf(env.alice)
	if err != nil {
		t.Fatalf("credentials of: %v", err)
	}
	if len(aliceIDs) != 2 || aliceIDs[0] != 0 || aliceIDs[1] != 2 {
		t.Errorf("alice ids = %v, want [0 2]", aliceIDs)
	}
}

func TestBatchAdminMint_Validation(t *testing.T) {
	env := newTestEnv(t)

	one := []types.Address{env.alice}
	two := []types.Address{env.alice, env.bob}

	cases := []struct {
		name       string
		recipients []types.Address
		uris       []string
		streams    []string
	}{
		{"empty", nil, nil, nil},
		{"single element", one, []string{"u"}, []string{"c"}},
		{"uri length mismatch", two, []string{"u"}, []string{"c0", "c1"}},
		{"stream length mismatch", two, []string{"u0", "u1"}, []string{"c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.reg.BatchAdminMint(env.minter, tc.recipients, tc.uris, tc.streams)
			if !errors.Is(err, ErrInvalidBatchInput) {
				t.Fatalf("err = %v, want ErrInvalidBatchInput", err)
			}
		})
	}

	if _, err := env.reg.BatchAdminMint(env.alice, two, []string{"u0", "u1"}, []string{"c0", "c1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	if got := env.reg.TotalMinted(); got != 0 {
		t.Errorf("TotalMinted = %d, want 0 after rejected batches", got)
	}
}

// A zero recipient in the middle of a batch aborts the whole batch.
func TestBatchAdminMint_Atomic(t *testing.T) {
	env := newTestEnv(t)

	recipients := []types.Address{env.alice, {}, env.bob}
	uris := []string{"u0", "u1", "u2"}
	streams := []string{"c0", "c1", "c2"}

	if _, err := env.reg.BatchAdminMint(env.minter, recipients, uris, streams); !errors.Is(err, ErrZeroRecipient) {
		t.Fatalf("err = %v, want ErrZeroRecipient", err)
	}
	if got := env.reg.TotalMinted(); got != 0 {
		t.Errorf("TotalMinted = %d, want 0", got)
	}
	if n, err := env.reg.BalanceOf(env.alice); err != nil || n != 0 {
		t.Errorf("alice balance = %d (%v), want 0", n, err)
	}
}

func TestToggleValidity(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.reg.AdminMint(env.minter, env.alice, "u", "c")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := env.reg.ToggleValidity(env.alice, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	valid, err := env.reg.ToggleValidity(env.admin, id)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !valid {
		t.Error("first toggle should validate")
	}
	// The toggle must not clobber the rest of the record.
	c, err := env.reg.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.URI != "u" || c.Owner != env.alice || c.CreatedAt != env.now {
		t.Errorf("record disturbed: %+v", c)
	}

	valid, err = env.reg.ToggleValidity(env.admin, id)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if valid {
		t.Error("second toggle should invalidate")
	}

	if _, err := env.reg.ToggleValidity(env.admin, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCredentialQueries_NotFound(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.reg.Get(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v, want ErrNotFound", err)
	}
	if _, err := env.reg.OwnerOf(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("OwnerOf err = %v, want ErrNotFound", err)
	}
	if _, err := env.reg.URI(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("URI err = %v, want ErrNotFound", err)
	}
	if _, err := env.reg.IsValid(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("IsValid err = %v, want ErrNotFound", err)
	}
	if _, err := env.reg.CreationDate(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreationDate err = %v, want ErrNotFound", err)
	}
}
