package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/guildcred/guildcred/pkg/crypto"
	"github.com/guildcred/guildcred/pkg/types"
)

// BIP-44 derivation path constants for the authority key.
// Full path: m/44'/7341'/0'/0/0
const (
	purposeBIP44  = bip32.FirstHardenedChild + 44
	coinGuildcred = bip32.FirstHardenedChild + 7341
)

// NonceSize is the byte length of generated mint nonces.
const NonceSize = 16

// Voucher is a single-use mint authorization: a nonce and the
// authority's signature over it. Whoever presents it to the registry
// directs one mint.
type Voucher struct {
	Nonce     string `json:"nonce"`
	Signature []byte `json:"signature"`
}

// Signer holds the decrypted authority key and issues vouchers.
type Signer struct {
	key *crypto.PrivateKey
}

// NewSigner derives the authority key from a keystore seed at
// m/44'/7341'/0'/0/0.
func NewSigner(seed []byte) (*Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	node, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, idx := range []uint32{purposeBIP44, coinGuildcred, bip32.FirstHardenedChild, 0, 0} {
		if node, err = node.NewChildKey(idx); err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}

	// bip32 private key material is 33 bytes with a leading 0x00.
	raw := node.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("authority key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address returns the authority address registered on the ledger.
func (s *Signer) Address() types.Address {
	return s.key.Address()
}

// NewNonce returns a fresh random nonce.
func NewNonce() (string, error) {
	var buf [NonceSize]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

// SignNonce signs an externally supplied nonce.
func (s *Signer) SignNonce(nonce string) ([]byte, error) {
	if nonce == "" {
		return nil, fmt.Errorf("empty nonce")
	}
	return s.key.SignMessage([]byte(nonce))
}

// Issue mints a voucher: a fresh nonce plus the signature over it.
func (s *Signer) Issue() (*Voucher, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}
	sig, err := s.SignNonce(nonce)
	if err != nil {
		return nil, fmt.Errorf("sign nonce: %w", err)
	}
	return &Voucher{Nonce: nonce, Signature: sig}, nil
}

// Zero wipes the in-memory authority key.
func (s *Signer) Zero() {
	s.key.Zero()
}
