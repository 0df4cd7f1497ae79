// Package prover runs the Groth16 proving pipeline for the transaction
// circuit and renders the resulting proof into the fixed byte layout
// the on-chain verifier consumes.
package prover

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	rapidsnark "github.com/iden3/go-rapidsnark/types"
)

// G1Point is an affine point on the proof curve, coordinates in the
// base field.
type G1Point struct {
	X *big.Int
	Y *big.Int
}

// G2Point is an affine point on the twist; each coordinate is a pair
// of base field elements in (c0, c1) order as emitted by the prover.
type G2Point struct {
	X [2]*big.Int
	Y [2]*big.Int
}

// Proof is a parsed Groth16 proof.
type Proof struct {
	A G1Point
	B G2Point
	C G1Point
}

// ProofBytes is the proof in the exact layout the on-chain verifier
// expects: 64 bytes per G1 point and 128 bytes for the G2 point.
type ProofBytes struct {
	ProofA [64]byte
	ProofB [128]byte
	ProofC [64]byte
}

// ProofFromRapidsnark parses the prover's decimal-string proof into
// big integers, checking the projective shape on the way: rapidsnark
// emits three coordinates per point and the third must be the identity
// ("1" for G1, ["1","0"] for G2).
func ProofFromRapidsnark(p *rapidsnark.ProofData) (*Proof, error) {
	if p == nil {
		return nil, fmt.Errorf("nil proof data")
	}
	if p.Protocol != "" && p.Protocol != "groth16" {
		return nil, fmt.Errorf("unexpected proof protocol %q", p.Protocol)
	}
	a, err := parseG1(p.A, "pi_a")
	if err != nil {
		return nil, err
	}
	b, err := parseG2(p.B, "pi_b")
	if err != nil {
		return nil, err
	}
	c, err := parseG1(p.C, "pi_c")
	if err != nil {
		return nil, err
	}
	return &Proof{A: *a, B: *b, C: *c}, nil
}

func parseG1(coords []string, name string) (*G1Point, error) {
	if len(coords) != 3 {
		return nil, fmt.Errorf("%s has %d coordinates, want 3", name, len(coords))
	}
	if coords[2] != "1" {
		return nil, fmt.Errorf("%s is not in affine form: z = %q", name, coords[2])
	}
	x, err := parseBaseField(coords[0], name)
	if err != nil {
		return nil, err
	}
	y, err := parseBaseField(coords[1], name)
	if err != nil {
		return nil, err
	}
	return &G1Point{X: x, Y: y}, nil
}

func parseG2(coords [][]string, name string) (*G2Point, error) {
	if len(coords) != 3 {
		return nil, fmt.Errorf("%s has %d coordinate pairs, want 3", name, len(coords))
	}
	for i, pair := range coords {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%s coordinate %d has %d components, want 2", name, i, len(pair))
		}
	}
	if coords[2][0] != "1" || coords[2][1] != "0" {
		return nil, fmt.Errorf("%s is not in affine form: z = [%q, %q]", name, coords[2][0], coords[2][1])
	}
	p := &G2Point{}
	for i := 0; i < 2; i++ {
		x, err := parseBaseField(coords[0][i], name)
		if err != nil {
			return nil, err
		}
		y, err := parseBaseField(coords[1][i], name)
		if err != nil {
			return nil, err
		}
		p.X[i] = x
		p.Y[i] = y
	}
	return p, nil
}

// parseBaseField parses a decimal base field coordinate and rejects
// values outside [0, p).
func parseBaseField(s, name string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%s coordinate %q is not a decimal number", name, s)
	}
	if v.Sign() < 0 || v.Cmp(fp.Modulus()) >= 0 {
		return nil, fmt.Errorf("%s coordinate out of the base field range", name)
	}
	return v, nil
}
