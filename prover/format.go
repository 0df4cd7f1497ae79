package prover

import (
	"fmt"
	"math/big"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
)

// FormatProof renders a parsed proof into the verifier's byte layout.
//
// G1 points serialize as the 32-byte little-endian form of each
// coordinate reversed into big-endian, x then y. The G2 point
// serializes from its two 64-byte little-endian halves
// (x.c0||x.c1 and y.c0||y.c1), each reversed as a whole and emitted
// y-half first. The function is pure: the same proof always yields the
// same bytes.
func FormatProof(p *Proof) (*ProofBytes, error) {
	if p == nil {
		return nil, fmt.Errorf("nil proof")
	}
	for _, coord := range []*big.Int{p.A.X, p.A.Y, p.C.X, p.C.Y,
		p.B.X[0], p.B.X[1], p.B.Y[0], p.B.Y[1]} {
		if coord == nil {
			return nil, fmt.Errorf("proof has missing coordinates")
		}
	}
	out := &ProofBytes{}
	formatG1(&p.A, out.ProofA[:])
	formatG2(&p.B, out.ProofB[:])
	formatG1(&p.C, out.ProofC[:])
	return out, nil
}

// FormatPublicSignals renders each public signal as its 32-byte
// little-endian form reversed into big-endian.
func FormatPublicSignals(signals []*big.Int) ([][32]byte, error) {
	out := make([][32]byte, len(signals))
	for i, s := range signals {
		if s == nil {
			return nil, fmt.Errorf("public signal %d is nil", i)
		}
		if s.Sign() < 0 || s.Cmp(ff.Modulus()) >= 0 {
			return nil, fmt.Errorf("public signal %d out of the field range", i)
		}
		out[i] = ff.Bytes32BE(s)
	}
	return out, nil
}

func formatG1(p *G1Point, dst []byte) {
	x := ff.Bytes32LE(p.X)
	y := ff.Bytes32LE(p.Y)
	copy(dst[:32], ff.Reversed(x[:]))
	copy(dst[32:], ff.Reversed(y[:]))
}

func formatG2(p *G2Point, dst []byte) {
	half := make([]byte, 64)

	x0 := ff.Bytes32LE(p.X[0])
	x1 := ff.Bytes32LE(p.X[1])
	copy(half[:32], x0[:])
	copy(half[32:], x1[:])
	copy(dst[64:], ff.Reversed(half))

	y0 := ff.Bytes32LE(p.Y[0])
	y1 := ff.Bytes32LE(p.Y[1])
	copy(half[:32], y0[:])
	copy(half[32:], y1[:])
	copy(dst[:64], ff.Reversed(half))
}
