// Package circuits assembles the named-signal input object for the
// transaction circuit and loads the binary artifacts (witness
// generator and proving key) the prover consumes.
package circuits

import (
	"fmt"
	"math/big"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/crypto/hash/poseidon"
	"github.com/spectre-protocol/spectre-shield/pool"
	"github.com/spectre-protocol/spectre-shield/types"
)

// Operation is the transaction direction.
type Operation string

const (
	OperationDeposit  Operation = "deposit"
	OperationWithdraw Operation = "withdraw"
)

// Valid reports whether the operation is a known variant.
func (o Operation) Valid() bool {
	return o == OperationDeposit || o == OperationWithdraw
}

// Assembly carries everything needed to build the circuit input for
// one transaction.
type Assembly struct {
	Operation Operation
	// Inputs are the notes being spent (1 or 2); missing slots are
	// padded with dummy notes owned by the first input's keypair.
	Inputs []*pool.Utxo
	// Outputs are the notes being created (1 or 2), padded likewise.
	Outputs []*pool.Utxo
	// Root is the commitment tree root the inclusion paths open
	// against.
	Root *big.Int
	// MerklePaths holds one sibling path per real input, each with
	// exactly types.MerkleTreeLevels elements. Dummy inputs get
	// zero-filled paths.
	MerklePaths [][]*big.Int
	// MerklePathIndices holds the leaf index per real input.
	MerklePathIndices []uint64
	// ExtData binds the externally visible metadata.
	ExtData *pool.ExtData
}

// CircuitInput is the flat signal-name to decimal-string mapping fed
// to the witness generator. It contains private key material: it must
// never be logged and is dropped after the single proving call.
type CircuitInput struct {
	Root             string     `json:"root"`
	InputNullifier   []string   `json:"inputNullifier"`
	OutputCommitment []string   `json:"outputCommitment"`
	PublicAmount     string     `json:"publicAmount"`
	ExtDataHash      string     `json:"extDataHash"`
	InAmount         []string   `json:"inAmount"`
	InPrivateKey     []string   `json:"inPrivateKey"`
	InBlinding       []string   `json:"inBlinding"`
	InPathIndices    []string   `json:"inPathIndices"`
	InPathElements   [][]string `json:"inPathElements"`
	OutAmount        []string   `json:"outAmount"`
	OutBlinding      []string   `json:"outBlinding"`
	OutPubkey        []string   `json:"outPubkey"`
	MintAddress      string     `json:"mintAddress"`
}

// BuildInputs assembles the full circuit input from a transaction's
// notes, inclusion paths and external data. Stages later in the
// pipeline consume its output as-is; all field arithmetic (including
// the modular wraparound of negative external amounts) happens here.
func BuildInputs(h poseidon.Hasher, a *Assembly) (*CircuitInput, error) {
	if !a.Operation.Valid() {
		return nil, fmt.Errorf("unknown operation %q", a.Operation)
	}
	if len(a.Inputs) == 0 || len(a.Inputs) > types.NInputs {
		return nil, fmt.Errorf("expected 1 to %d inputs, got %d", types.NInputs, len(a.Inputs))
	}
	if len(a.Outputs) == 0 || len(a.Outputs) > types.NOutputs {
		return nil, fmt.Errorf("expected 1 to %d outputs, got %d", types.NOutputs, len(a.Outputs))
	}
	if a.Root == nil {
		return nil, fmt.Errorf("missing merkle root")
	}
	if a.ExtData == nil {
		return nil, fmt.Errorf("missing ext data")
	}
	if len(a.MerklePaths) != len(a.Inputs) || len(a.MerklePathIndices) != len(a.Inputs) {
		return nil, fmt.Errorf("merkle path count %d does not match input count %d",
			len(a.MerklePaths), len(a.Inputs))
	}
	for i, path := range a.MerklePaths {
		if len(path) != types.MerkleTreeLevels {
			return nil, fmt.Errorf("merkle path %d has %d elements, want %d",
				i, len(path), types.MerkleTreeLevels)
		}
	}

	inputs, paths, indices, err := padInputs(a)
	if err != nil {
		return nil, err
	}
	outputs, err := padOutputs(a)
	if err != nil {
		return nil, err
	}
	if err := checkSameMint(inputs, outputs); err != nil {
		return nil, err
	}

	extDataHash, err := a.ExtData.Hash(h)
	if err != nil {
		return nil, fmt.Errorf("cannot hash ext data: %w", err)
	}
	mint, err := pool.MintField(inputs[0].MintAddress)
	if err != nil {
		return nil, err
	}

	ci := &CircuitInput{
		Root:         ff.Reduce(a.Root).String(),
		PublicAmount: a.ExtData.PublicAmount().String(),
		ExtDataHash:  extDataHash.String(),
		MintAddress:  mint.String(),
	}
	for i, in := range inputs {
		nullifier, err := in.Nullifier()
		if err != nil {
			return nil, fmt.Errorf("cannot compute nullifier for input %d: %w", i, err)
		}
		ci.InputNullifier = append(ci.InputNullifier, nullifier.String())
		ci.InAmount = append(ci.InAmount, in.Amount.String())
		ci.InPrivateKey = append(ci.InPrivateKey, in.Keypair.PrivateKey().String())
		ci.InBlinding = append(ci.InBlinding, in.Blinding.String())
		ci.InPathIndices = append(ci.InPathIndices, new(big.Int).SetUint64(indices[i]).String())
		elements := make([]string, types.MerkleTreeLevels)
		for level, sibling := range paths[i] {
			elements[level] = sibling.String()
		}
		ci.InPathElements = append(ci.InPathElements, elements)
	}
	for i, out := range outputs {
		commitment, err := out.Commitment()
		if err != nil {
			return nil, fmt.Errorf("cannot compute commitment for output %d: %w", i, err)
		}
		ci.OutputCommitment = append(ci.OutputCommitment, commitment.String())
		ci.OutAmount = append(ci.OutAmount, out.Amount.String())
		ci.OutBlinding = append(ci.OutBlinding, out.Blinding.String())
		ci.OutPubkey = append(ci.OutPubkey, out.Keypair.PublicKey.String())
	}
	return ci, nil
}

// padInputs extends the spent notes to the circuit arity with dummy
// notes and zero-filled paths.
func padInputs(a *Assembly) ([]*pool.Utxo, [][]*big.Int, []uint64, error) {
	inputs := append([]*pool.Utxo{}, a.Inputs...)
	paths := append([][]*big.Int{}, a.MerklePaths...)
	indices := append([]uint64{}, a.MerklePathIndices...)
	for len(inputs) < types.NInputs {
		dummy, err := pool.NewDummyUtxo(a.Inputs[0].Keypair, a.Inputs[0].MintAddress)
		if err != nil {
			return nil, nil, nil, err
		}
		inputs = append(inputs, dummy)
		paths = append(paths, zeroPath())
		indices = append(indices, 0)
	}
	return inputs, paths, indices, nil
}

func padOutputs(a *Assembly) ([]*pool.Utxo, error) {
	outputs := append([]*pool.Utxo{}, a.Outputs...)
	for len(outputs) < types.NOutputs {
		dummy, err := pool.NewDummyUtxo(a.Outputs[0].Keypair, a.Outputs[0].MintAddress)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, dummy)
	}
	return outputs, nil
}

// checkSameMint requires every note, dummies included, to carry the
// transaction's mint: the circuit has a single mint signal shared by
// all commitment recomputations.
func checkSameMint(inputs, outputs []*pool.Utxo) error {
	mint := inputs[0].MintAddress
	for _, u := range append(append([]*pool.Utxo{}, inputs...), outputs...) {
		if u.MintAddress != mint {
			return fmt.Errorf("mixed mints in one transaction: %s and %s", mint, u.MintAddress)
		}
	}
	return nil
}

func zeroPath() []*big.Int {
	path := make([]*big.Int, types.MerkleTreeLevels)
	for i := range path {
		path[i] = big.NewInt(0)
	}
	return path
}
