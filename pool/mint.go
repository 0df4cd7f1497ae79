package pool

import (
	"fmt"
	"math/big"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/solana"
	"github.com/spectre-protocol/spectre-shield/types"
)

// MintField maps an asset mint address to the field element hashed
// into commitments.
//
// The native sentinel address is all zero bytes, whose base58 form is
// a run of '1' characters that happens to also be a valid decimal
// number; it enters the circuit as that number, unmodified. Any other
// mint is the big-endian integer of the first 31 bytes of its raw
// encoding: 248 bits fits safely under the 254-bit modulus, while the
// full 32 bytes could exceed it and collide after reduction.
func MintField(mintAddress string) (*big.Int, error) {
	if mintAddress == "" {
		mintAddress = types.NativeMint
	}
	if mintAddress == types.NativeMint {
		v, ok := new(big.Int).SetString(types.NativeMint, 10)
		if !ok {
			return nil, fmt.Errorf("native mint sentinel is not decimal")
		}
		return v, nil
	}
	addr, err := solana.DecodeAddress(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}
	return ff.FromFirstBytes(addr.Bytes(), 31), nil
}
