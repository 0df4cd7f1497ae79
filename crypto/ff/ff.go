// Package ff centralizes every field-element conversion used by the
// proving pipeline: modular reduction into the BN254 scalar field,
// bytes-to-field truncations and the fixed-width byte encodings the
// on-chain verifier expects. No other package reimplements byte
// reversal or reduction.
package ff

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// q is the BN254 scalar field order, taken from gnark-crypto rather
// than a hand-typed constant:
// 21888242871839275222246405745257275088548364400416034343698204186575808495617
var q = fr.Modulus()

// Modulus returns a copy of the field order.
func Modulus() *big.Int {
	return new(big.Int).Set(q)
}

// Reduce returns v mod q as a new non-negative big.Int. Negative
// values wrap around: Reduce(-x) == q - x. This is the only signed
// representation the field has, so callers must never rely on
// two's-complement semantics.
func Reduce(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, q)
}

// FromBytes interprets b as a big-endian unsigned integer reduced
// into the field.
func FromBytes(b []byte) *big.Int {
	return Reduce(new(big.Int).SetBytes(b))
}

// FromFirstBytes interprets the first n bytes of b (or all of b if
// shorter) as a big-endian unsigned integer reduced into the field.
// Truncating to 31 bytes keeps the value under the 254-bit modulus
// without reduction collisions; 16 bytes is used for the encrypted
// output bindings.
func FromFirstBytes(b []byte, n int) *big.Int {
	if len(b) > n {
		b = b[:n]
	}
	return FromBytes(b)
}

// ParseDecimal parses a base-10 field element string. The value must
// already be in [0, q).
func ParseDecimal(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal field element %q", s)
	}
	if v.Sign() < 0 || v.Cmp(q) >= 0 {
		return nil, fmt.Errorf("field element %s out of range", v)
	}
	return v, nil
}

// Bytes32LE returns v as a 32-byte little-endian buffer. v must be a
// reduced field element.
func Bytes32LE(v *big.Int) [32]byte {
	var out [32]byte
	v.FillBytes(out[:])
	reverse(out[:])
	return out
}

// Bytes32BE returns v as a 32-byte big-endian buffer: the little-endian
// form with its byte order reversed, which is the on-chain encoding of
// G1 coordinates and public signals.
func Bytes32BE(v *big.Int) [32]byte {
	le := Bytes32LE(v)
	reverse(le[:])
	return le
}

// Reversed returns a copy of b with its byte order reversed.
func Reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
