// Package poseidon exposes the Poseidon hash as a capability with two
// interchangeable backends: a native Go implementation and a WASM one
// driven by the same circom-generated module browsers run. Both must
// produce bit-identical output, since commitments computed on one side
// are verified against proofs generated on the other; the shared
// vectors under testdata/ are the conformance fixture for that
// contract.
//
// Inputs are trusted to be reduced into the field already. The hasher
// does not re-validate ranges, matching the circuit's own lack of
// range checks on these wires.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// maxInputs caps a single hash invocation; wider inputs are hashed in
// chunks of chunkSize and folded once.
const (
	maxInputs = 256
	chunkSize = 16
)

// Hasher is the hashing capability shared by keypairs, notes and the
// ext-data binder. Implementations must be safe for concurrent use
// after construction.
type Hasher interface {
	Hash(inputs []*big.Int) (*big.Int, error)
}

// Native computes Poseidon in-process. The zero value is ready to use.
type Native struct{}

// NewNative returns the native backend.
func NewNative() *Native { return &Native{} }

// Hash hashes the ordered inputs into one field element. Inputs wider
// than a single permutation are chunked and folded.
func (n *Native) Hash(inputs []*big.Int) (*big.Int, error) {
	switch {
	case len(inputs) == 0:
		return nil, fmt.Errorf("no inputs provided")
	case len(inputs) > maxInputs:
		return nil, fmt.Errorf("too many inputs: %d > %d", len(inputs), maxInputs)
	case len(inputs) <= chunkSize:
		return poseidon.Hash(inputs)
	}
	hashes := []*big.Int{}
	for start := 0; start < len(inputs); start += chunkSize {
		end := min(start+chunkSize, len(inputs))
		hash, err := poseidon.Hash(inputs[start:end])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return poseidon.Hash(hashes)
}
