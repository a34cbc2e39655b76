package crypto

import (
	"testing"

	"github.com/guildcred/guildcred/pkg/types"
)

func TestHash_Deterministic(t *testing.T) {
	data := []byte("deterministic test input")
	h1 := Hash(data)
	h2 := Hash(data)
	if h1 != h2 {
		t.Errorf("Hash is not deterministic: %x != %x", h1, h2)
	}
}

func TestHash_DifferentInputs(t *testing.T) {
	h1 := Hash([]byte("input A"))
	h2 := Hash([]byte("input B"))
	if h1 == h2 {
		t.Error("different inputs produced the same hash")
	}
}

func TestDoubleHash_NotSameAsHash(t *testing.T) {
	data := []byte("test data")
	single := Hash(data)
	double := DoubleHash(data)
	if single == double {
		t.Error("DoubleHash should not equal single Hash")
	}
}

func TestMessageDigest_Deterministic(t *testing.T) {
	d1 := MessageDigest([]byte("nonce-1"))
	d2 := MessageDigest([]byte("nonce-1"))
	if d1 != d2 {
		t.Errorf("MessageDigest is not deterministic: %x != %x", d1, d2)
	}
}

func TestMessageDigest_DomainSeparated(t *testing.T) {
	msg := []byte("nonce-1")

	// The digest must differ from a plain hash of the message: the
	// prefix and length byte make raw-data signatures unreplayable.
	if MessageDigest(msg) == Hash(msg) {
		t.Error("MessageDigest equals plain Hash; prefix not applied")
	}
	if MessageDigest(msg) == DoubleHash(msg) {
		t.Error("MessageDigest equals plain DoubleHash; prefix not applied")
	}
}

func TestMessageDigest_LengthMatters(t *testing.T) {
	// "a" + "bc" and "ab" + "c" concatenate identically; the embedded
	// length keeps digests of different messages distinct.
	d1 := MessageDigest([]byte("abc"))
	d2 := MessageDigest([]byte("abcd"))
	if d1 == d2 {
		t.Error("digests for different messages collide")
	}

	empty := MessageDigest(nil)
	if empty == (types.Hash{}) {
		t.Error("digest of empty message is zero")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	addr := AddressFromPubKey(key.PublicKey())
	if addr.IsZero() {
		t.Error("derived address is zero")
	}

	again := AddressFromPubKey(key.PublicKey())
	if addr != again {
		t.Error("address derivation is not deterministic")
	}

	other, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if AddressFromPubKey(other.PublicKey()) == addr {
		t.Error("different keys derived the same address")
	}
}
