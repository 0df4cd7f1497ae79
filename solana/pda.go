package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
)

// pdaMarker is appended to the seed material by the runtime's
// program-derived-address construction.
var pdaMarker = []byte("ProgramDerivedAddress")

const maxSeedLength = 32

// depositSeed is the seed prefix of user deposit accounts in the pool
// program: the deposit PDA is derived from
// ["deposit", vault, commitment].
var depositSeed = []byte("deposit")

// CreateProgramAddress derives the address for the given seeds and
// program, failing if the result lands on the ed25519 curve (such an
// address would have a private key, which PDAs must not).
func CreateProgramAddress(seeds [][]byte, programID Address) (Address, error) {
	var addr Address
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return addr, fmt.Errorf("seed of %d bytes exceeds the %d byte limit", len(seed), maxSeedLength)
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(pdaMarker)
	copy(addr[:], h.Sum(nil))
	if isOnCurve(addr) {
		return Address{}, fmt.Errorf("derived address is on the ed25519 curve")
	}
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 downwards for the
// first off-curve derivation, mirroring the runtime's lookup.
func FindProgramAddress(seeds [][]byte, programID Address) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateProgramAddress(append(seeds, []byte{byte(bump)}), programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return Address{}, 0, fmt.Errorf("no viable bump seed found")
}

// DeriveDepositAddress returns the user deposit PDA for a note
// commitment, the address a withdrawal request references through its
// userDeposit field.
func DeriveDepositAddress(vault Address, commitment [32]byte, programID Address) (Address, uint8, error) {
	return FindProgramAddress([][]byte{depositSeed, vault[:], commitment[:]}, programID)
}

func isOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}
