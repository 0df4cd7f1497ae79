package tree

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/spectre-protocol/spectre-shield/types"
	"go.vocdoni.io/dvote/db/metadb"
)

func TestTreeAdd(t *testing.T) {
	c := qt.New(t)
	tr, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)

	emptyRoot, err := tr.Root()
	c.Assert(err, qt.IsNil)

	idx, err := tr.Add(big.NewInt(1111))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint64(0))

	idx, err = tr.Add(big.NewInt(2222))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint64(1))
	c.Assert(tr.Size(), qt.Equals, uint64(2))

	root, err := tr.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root.Cmp(emptyRoot) == 0, qt.IsFalse)

	_, err = tr.Add(nil)
	c.Assert(err, qt.ErrorMatches, `nil commitment`)
}

func TestTreeGenerateProof(t *testing.T) {
	c := qt.New(t)
	tr, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)

	commitments := []*big.Int{big.NewInt(1111), big.NewInt(2222), big.NewInt(3333)}
	for _, cm := range commitments {
		_, err := tr.Add(cm)
		c.Assert(err, qt.IsNil)
	}

	for i, cm := range commitments {
		siblings, leaf, err := tr.GenerateProof(uint64(i))
		c.Assert(err, qt.IsNil)
		// always padded to the circuit depth
		c.Assert(siblings, qt.HasLen, types.MerkleTreeLevels)
		c.Assert(leaf.Cmp(cm), qt.Equals, 0)
		for _, s := range siblings {
			c.Assert(s, qt.IsNotNil)
		}
	}

	_, _, err = tr.GenerateProof(99)
	c.Assert(err, qt.ErrorMatches, `leaf 99 is not in the tree`)
}

func TestTreeRootDeterminism(t *testing.T) {
	c := qt.New(t)

	build := func() *big.Int {
		tr, err := New(metadb.NewTest(t))
		qt.Assert(t, err, qt.IsNil)
		for _, v := range []int64{10, 20, 30} {
			_, err := tr.Add(big.NewInt(v))
			qt.Assert(t, err, qt.IsNil)
		}
		root, err := tr.Root()
		qt.Assert(t, err, qt.IsNil)
		return root
	}
	c.Assert(build().Cmp(build()), qt.Equals, 0)
}

func TestTreePersistence(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)

	tr, err := New(database)
	c.Assert(err, qt.IsNil)
	_, err = tr.Add(big.NewInt(1111))
	c.Assert(err, qt.IsNil)
	_, err = tr.Add(big.NewInt(2222))
	c.Assert(err, qt.IsNil)
	root, err := tr.Root()
	c.Assert(err, qt.IsNil)

	// reopening continues from the persisted state
	reopened, err := New(database)
	c.Assert(err, qt.IsNil)
	c.Assert(reopened.Size(), qt.Equals, uint64(2))
	reopenedRoot, err := reopened.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(reopenedRoot.Cmp(root), qt.Equals, 0)

	idx, err := reopened.Add(big.NewInt(3333))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint64(2))
}
