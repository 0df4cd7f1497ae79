package ff

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

const fieldSizeDecimal = "21888242871839275222246405745257275088548364400416034343698204186575808495617"

func TestModulusMatchesVerifier(t *testing.T) {
	c := qt.New(t)
	c.Assert(Modulus().String(), qt.Equals, fieldSizeDecimal)
}

func TestReduceNegativeWrapsAround(t *testing.T) {
	c := qt.New(t)
	// a withdrawal of 1,000,000 lamports becomes q - 1,000,000
	got := Reduce(big.NewInt(-1_000_000))
	want := new(big.Int).Sub(Modulus(), big.NewInt(1_000_000))
	c.Assert(got.Cmp(want), qt.Equals, 0)
	c.Assert(got.Sign() > 0, qt.IsTrue)

	// positive values below q pass through
	c.Assert(Reduce(big.NewInt(1_500_000_000)).String(), qt.Equals, "1500000000")
	// q itself reduces to zero
	c.Assert(Reduce(Modulus()).Sign(), qt.Equals, 0)
}

func TestFromFirstBytes(t *testing.T) {
	c := qt.New(t)
	addr := make([]byte, 32)
	for i := range addr {
		addr[i] = 0xff
	}
	v := FromFirstBytes(addr, 31)
	c.Assert(v.Cmp(Modulus()) < 0, qt.IsTrue)
	c.Assert(v.BitLen() <= 248, qt.IsTrue)

	// only the first 31 bytes matter
	addr2 := append([]byte{}, addr...)
	addr2[31] = 0x00
	c.Assert(FromFirstBytes(addr2, 31).Cmp(v), qt.Equals, 0)

	// short input is taken whole
	c.Assert(FromFirstBytes([]byte{0x01, 0x00}, 31).Int64(), qt.Equals, int64(256))
}

func TestParseDecimal(t *testing.T) {
	c := qt.New(t)
	v, err := ParseDecimal("42")
	c.Assert(err, qt.IsNil)
	c.Assert(v.Int64(), qt.Equals, int64(42))

	_, err = ParseDecimal("not-a-number")
	c.Assert(err, qt.IsNotNil)
	_, err = ParseDecimal("-5")
	c.Assert(err, qt.IsNotNil)
	_, err = ParseDecimal(fieldSizeDecimal)
	c.Assert(err, qt.IsNotNil)
}

func TestByteEncodings(t *testing.T) {
	c := qt.New(t)
	v := big.NewInt(0x0102)

	le := Bytes32LE(v)
	c.Assert(le[0], qt.Equals, byte(0x02))
	c.Assert(le[1], qt.Equals, byte(0x01))
	c.Assert(le[31], qt.Equals, byte(0x00))

	be := Bytes32BE(v)
	c.Assert(be[30], qt.Equals, byte(0x01))
	c.Assert(be[31], qt.Equals, byte(0x02))

	c.Assert(Reversed(le[:]), qt.DeepEquals, be[:])
}
