package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/guildcred/guildcred/pkg/types"
)

// SignatureSize is the length of a compact recoverable signature:
// 1 byte recovery code followed by the 32-byte R and S components.
const SignatureSize = 65

// PrivateKey wraps a secp256k1 private key for compact ECDSA signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// SignMessage signs an arbitrary message with the domain-separation prefix,
// producing a 65-byte compact recoverable signature.
func (pk *PrivateKey) SignMessage(msg []byte) ([]byte, error) {
	digest := MessageDigest(msg)
	return pk.SignDigest(digest)
}

// SignDigest signs a precomputed 32-byte digest.
func (pk *PrivateKey) SignDigest(digest types.Hash) ([]byte, error) {
	return ecdsa.SignCompact(pk.key, digest[:], true), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Address returns the address derived from the public key.
func (pk *PrivateKey) Address() types.Address {
	return AddressFromPubKey(pk.PublicKey())
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// RecoverAddress recovers the signer address from a 32-byte digest and a
// 65-byte compact signature. Malformed signatures (wrong length, invalid
// recovery code, out-of-range R/S) return an error, never panic.
func RecoverAddress(digest types.Hash, signature []byte) (types.Address, error) {
	if len(signature) != SignatureSize {
		return types.Address{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(signature))
	}
	pubKey, _, err := ecdsa.RecoverCompact(signature, digest[:])
	if err != nil {
		return types.Address{}, fmt.Errorf("recover pubkey: %w", err)
	}
	return AddressFromPubKey(pubKey.SerializeCompressed()), nil
}

// VerifyMessage checks that signature was produced by claimed over msg
// (prefixed per MessageDigest). Returns false on any recovery failure;
// the comparison against claimed is byte-exact.
func VerifyMessage(msg []byte, claimed types.Address, signature []byte) bool {
	recovered, err := RecoverAddress(MessageDigest(msg), signature)
	if err != nil {
		return false
	}
	return recovered == claimed
}
