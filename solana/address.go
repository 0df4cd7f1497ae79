// Package solana implements the minimal address handling this core
// needs: base58 account addresses and program-derived-address lookup
// for matching withdrawal requests to local notes.
package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the raw byte length of an account address
// (an ed25519 public key).
const AddressLength = 32

// Address is a 32-byte account address.
type Address [AddressLength]byte

// DecodeAddress parses a base58-encoded account address.
func DecodeAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("invalid base58 address %q: %w", s, err)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("invalid address length %d for %q", len(raw), s)
	}
	copy(a[:], raw)
	return a, nil
}

// MustDecodeAddress is DecodeAddress for hardcoded addresses; it
// panics on malformed input.
func MustDecodeAddress(s string) Address {
	a, err := DecodeAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the base58 form of the address.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is all zeroes (the system
// program / native mint sentinel).
func (a Address) IsZero() bool {
	for _, b := range a {
		if b != 0 {
			return false
		}
	}
	return true
}
