// Package crypto provides cryptographic primitives for Guildcred.
package crypto

import (
	"strconv"

	"github.com/guildcred/guildcred/pkg/types"
	"github.com/zeebo/blake3"
)

// signedMessagePrefix is the domain-separation prefix for signed messages.
// The canonical signing payload is prefix || decimal(len(msg)) || msg,
// so a signature over a message can never be replayed as a signature over
// raw protocol data.
const signedMessagePrefix = "\x19Guildcred Signed Message:\n"

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// DoubleHash computes Hash(Hash(data)).
func DoubleHash(data []byte) types.Hash {
	first := Hash(data)
	return Hash(first[:])
}

// MessageDigest computes the digest that is actually signed for a message:
// DoubleHash(prefix || decimal(len(msg)) || msg).
func MessageDigest(msg []byte) types.Hash {
	payload := make([]byte, 0, len(signedMessagePrefix)+20+len(msg))
	payload = append(payload, signedMessagePrefix...)
	payload = strconv.AppendInt(payload, int64(len(msg)), 10)
	payload = append(payload, msg...)
	return DoubleHash(payload)
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
