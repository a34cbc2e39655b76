package registry

import (
	"errors"
	"testing"

	"github.com/guildcred/guildcred/pkg/crypto"
	"github.com/guildcred/guildcred/pkg/types"
)

func TestMintWithSignature(t *testing.T) {
	env := newTestEnv(t)

	sig := env.signNonce(t, "nonce-1")
	id, err := env.reg.MintWithSignature(env.alice, "ipfs://meta/1", "ceramic://stream/1", "nonce-1", sig)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if id != 0 {
		t.Errorf("first ID = %d, want 0", id)
	}

	c, err := env.reg.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Owner != env.alice {
		t.Errorf("owner = %s, want %s", c.Owner, env.alice)
	}
	if c.URI != "ipfs://meta/1" {
		t.Errorf("uri = %q", c.URI)
	}
	if c.CeramicURI != "ceramic://stream/1" {
		t.Errorf("ceramic uri = %q", c.CeramicURI)
	}
	if c.Valid {
		t.Error("freshly minted credential must start invalid")
	}
	if c.CreatedAt != env.now {
		t.Errorf("created at = %d, want %d", c.CreatedAt, env.now)
	}
	if !env.reg.NonceConsumed("nonce-1") {
		t.Error("nonce not consumed")
	}
}

func TestMintWithSignature_Replay(t *testing.T) {
	env := newTestEnv(t)

	sig := env.signNonce(t, "nonce-r")
	if _, err := env.reg.MintWithSignature(env.alice, "u", "c", "nonce-r", sig); err != nil {
		t.Fatalf("first mint: %v", err)
	}

	// Same pair again, and the same nonce redirected to another
	// recipient. Both must be rejected as replays.
	if _, err := env.reg.MintWithSignature(env.alice, "u", "c", "nonce-r", sig); !errors.Is(err, ErrReplayedNonce) {
		t.Fatalf("replay err = %v, want ErrReplayedNonce", err)
	}
	if _, err := env.reg.MintWithSignature(env.bob, "u2", "c2", "nonce-r", sig); !errors.Is(err, ErrReplayedNonce) {
		t.Fatalf("redirected replay err = %v, want ErrReplayedNonce", err)
	}
	if got := env.reg.TotalMinted(); got != 1 {
		t.Errorf("TotalMinted = %d, want 1", got)
	}
}

func TestMintWithSignature_BadSignature(t *testing.T) {
	env := newTestEnv(t)

	intruder, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	intruderSig, err := intruder.SignMessage([]byte("nonce-x"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	goodSig := env.signNonce(t, "nonce-x")
	flipped := append([]byte(nil), goodSig...)
	flipped[40] ^= 0x01

	cases := []struct {
		name  string
		nonce string
		sig   []byte
	}{
		{"wrong key", "nonce-x", intruderSig},
		{"wrong nonce", "nonce-y", goodSig},
		{"corrupted signature", "nonce-x", flipped},
		{"truncated signature", "nonce-x", goodSig[:40]},
		{"empty signature", "nonce-x", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.reg.MintWithSignature(env.alice, "u", "c", tc.nonce, tc.sig)
			if !errors.Is(err, ErrBadSignature) {
				t.Fatalf("err = %v, want ErrBadSignature", err)
			}
		})
	}

	if env.reg.NonceConsumed("nonce-x") {
		t.Error("rejected attempts must not consume the nonce")
	}
	if got := env.reg.TotalMinted(); got != 0 {
		t.Errorf("TotalMinted = %d, want 0", got)
	}
}

// A mint that carries a valid signature but fails downstream must leave
// the nonce unconsumed so the holder can retry.
func TestMintWithSignature_FailureLeavesNonceRetryable(t *testing.T) {
	env := newTestEnv(t)

	sig := env.signNonce(t, "nonce-a")
	if _, err := env.reg.MintWithSignature(types.Address{}, "u", "c", "nonce-a", sig); !errors.Is(err, ErrZeroRecipient) {
		t.Fatalf("err = %v, want ErrZeroRecipient", err)
	}
	if env.reg.NonceConsumed("nonce-a") {
		t.Fatal("failed mint consumed the nonce")
	}

	// Retry with a usable recipient succeeds.
	id, err := env.reg.MintWithSignature(env.alice, "u", "c", "nonce-a", sig)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0", id)
	}
}
