// Package tree maintains the local replica of the on-chain commitment
// tree and produces the inclusion paths the circuit consumes.
package tree

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/types"
	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
)

// maxKeyLen is the byte length of a leaf index key.
var maxKeyLen = int(math.Ceil(float64(types.MerkleTreeLevels) / float64(8)))

var dbKeyNextIndex = []byte("nextIndex")

// Tree is an append-only Poseidon Merkle tree of commitments, keyed by
// leaf index. Leaves are never removed; spending a note only publishes
// its nullifier.
type Tree struct {
	mu        sync.Mutex
	tree      *arbo.Tree
	db        db.Database
	nextIndex uint64
}

// New opens (or creates) the commitment tree over the given database.
func New(database db.Database) (*Tree, error) {
	mt, err := arbo.NewTree(arbo.Config{
		Database:     database,
		MaxLevels:    types.MerkleTreeLevels,
		HashFunction: arbo.HashFunctionPoseidon,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open commitment tree: %w", err)
	}
	t := &Tree{tree: mt, db: database}
	if b, err := database.Get(dbKeyNextIndex); err == nil {
		t.nextIndex = binary.LittleEndian.Uint64(b)
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, fmt.Errorf("cannot read next leaf index: %w", err)
	}
	return t, nil
}

// Add appends a commitment as the next leaf and returns its index.
func (t *Tree) Add(commitment *big.Int) (uint64, error) {
	if commitment == nil {
		return 0, fmt.Errorf("nil commitment")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	index := t.nextIndex
	key := arbo.BigIntToBytes(maxKeyLen, new(big.Int).SetUint64(index))
	value := arbo.BigIntToBytes(32, ff.Reduce(commitment))
	if err := t.tree.Add(key, value); err != nil {
		return 0, fmt.Errorf("cannot add commitment at index %d: %w", index, err)
	}
	t.nextIndex = index + 1
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, t.nextIndex)
	wTx := t.db.WriteTx()
	if err := wTx.Set(dbKeyNextIndex, b); err != nil {
		wTx.Discard()
		return 0, fmt.Errorf("cannot persist next leaf index: %w", err)
	}
	if err := wTx.Commit(); err != nil {
		return 0, fmt.Errorf("cannot persist next leaf index: %w", err)
	}
	return index, nil
}

// Root returns the current tree root as a field element.
func (t *Tree) Root() (*big.Int, error) {
	root, err := t.tree.Root()
	if err != nil {
		return nil, fmt.Errorf("cannot get tree root: %w", err)
	}
	return arbo.BytesToBigInt(root), nil
}

// Size returns the number of leaves in the tree.
func (t *Tree) Size() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextIndex
}

// GenerateProof produces the sibling path of the leaf at the given
// index, zero-padded to the full tree depth as the circuit expects.
// It also returns the leaf commitment.
func (t *Tree) GenerateProof(index uint64) ([]*big.Int, *big.Int, error) {
	key := arbo.BigIntToBytes(maxKeyLen, new(big.Int).SetUint64(index))
	_, value, packedSiblings, existence, err := t.tree.GenProof(key)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot generate proof for leaf %d: %w", index, err)
	}
	if !existence {
		return nil, nil, fmt.Errorf("leaf %d is not in the tree", index)
	}
	unpacked, err := arbo.UnpackSiblings(arbo.HashFunctionPoseidon, packedSiblings)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot unpack siblings: %w", err)
	}
	if len(unpacked) > types.MerkleTreeLevels {
		return nil, nil, fmt.Errorf("got %d siblings for a depth %d tree",
			len(unpacked), types.MerkleTreeLevels)
	}
	siblings := make([]*big.Int, types.MerkleTreeLevels)
	for i := range siblings {
		if i < len(unpacked) {
			siblings[i] = arbo.BytesToBigInt(unpacked[i])
		} else {
			siblings[i] = big.NewInt(0)
		}
	}
	return siblings, arbo.BytesToBigInt(value), nil
}
