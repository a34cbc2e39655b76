// Package types defines core primitive types for the Guildcred ledger.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// Address prefix constants for string encoding.
const (
	MainnetPrefix = "gcr:"
	TestnetPrefix = "tgcr:"
)

// activePrefix is the address prefix used by String() and MarshalJSON().
// Set once at startup via SetAddressPrefix(). Default is mainnet.
var activePrefix = MainnetPrefix

// SetAddressPrefix sets the active address prefix (call once at startup).
func SetAddressPrefix(prefix string) {
	switch prefix {
	case TestnetPrefix:
		activePrefix = TestnetPrefix
	default:
		activePrefix = MainnetPrefix
	}
}

// GetAddressPrefix returns the currently active address prefix.
func GetAddressPrefix() string {
	return activePrefix
}

// Address represents a 160-bit address (public key hash).
type Address [AddressSize]byte

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the prefixed hex-encoded address (e.g. "gcr:ab12...").
func (a Address) String() string {
	return activePrefix + hex.EncodeToString(a[:])
}

// Hex returns the raw hex-encoded address without prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as a prefixed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a prefixed or raw hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses an address string.
// Accepts prefixed hex ("gcr:<hex>", "tgcr:<hex>") or raw 40-char hex
// (for config/internal use).
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	hexStr := s
	if strings.HasPrefix(s, MainnetPrefix) {
		hexStr = s[len(MainnetPrefix):]
	} else if strings.HasPrefix(s, TestnetPrefix) {
		hexStr = s[len(TestnetPrefix):]
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	if len(decoded) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(decoded))
	}
	var a Address
	copy(a[:], decoded)
	return a, nil
}

// HexToAddress converts a raw hex string to an Address.
// Returns an error if the string is not exactly 40 hex characters.
func HexToAddress(s string) (Address, error) {
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address hex: %w", err)
	}
	if len(decoded) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(decoded))
	}
	var a Address
	copy(a[:], decoded)
	return a, nil
}
