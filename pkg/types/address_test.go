package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseAddress_Prefixed(t *testing.T) {
	hexStr := "0102030405060708090a0b0c0d0e0f1011121314"

	tests := []struct {
		name  string
		input string
	}{
		{"mainnet prefix", MainnetPrefix + hexStr},
		{"testnet prefix", TestnetPrefix + hexStr},
		{"raw hex", hexStr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.input, err)
			}
			if addr.Hex() != hexStr {
				t.Errorf("Hex() = %q, want %q", addr.Hex(), hexStr)
			}
		})
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not hex", "gcr:zzzz"},
		{"too short", "gcr:0102"},
		{"too long", "gcr:" + strings.Repeat("ab", 21)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAddress(tt.input); err == nil {
				t.Errorf("ParseAddress(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestAddress_StringRoundTrip(t *testing.T) {
	var addr Address
	for i := range addr {
		addr[i] = byte(i + 1)
	}

	parsed, err := ParseAddress(addr.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != addr {
		t.Errorf("round trip mismatch: %s != %s", parsed, addr)
	}
}

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero address should report IsZero")
	}

	nonzero := Address{0x01}
	if nonzero.IsZero() {
		t.Error("non-zero address should not report IsZero")
	}
}

func TestAddress_JSONRoundTrip(t *testing.T) {
	addr := Address{0xAB, 0xCD}

	data, err := json.Marshal(addr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != addr {
		t.Errorf("JSON round trip mismatch: %s != %s", decoded, addr)
	}
}

func TestSetAddressPrefix(t *testing.T) {
	defer SetAddressPrefix(MainnetPrefix)

	SetAddressPrefix(TestnetPrefix)
	addr := Address{0x01}
	if !strings.HasPrefix(addr.String(), TestnetPrefix) {
		t.Errorf("String() = %q, want %q prefix", addr.String(), TestnetPrefix)
	}

	SetAddressPrefix(MainnetPrefix)
	if !strings.HasPrefix(addr.String(), MainnetPrefix) {
		t.Errorf("String() = %q, want %q prefix", addr.String(), MainnetPrefix)
	}
}
