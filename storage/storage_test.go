package storage

import (
	"math/big"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/types"
	"go.vocdoni.io/dvote/db/metadb"
)

func bi(v int64) *types.BigInt {
	return (*types.BigInt)(big.NewInt(v))
}

func testNote(id string, commitment int64, createdAt time.Time) *types.StoredNote {
	return &types.StoredNote{
		ID:         id,
		Commitment: bi(commitment),
		Amount:     1_500_000_000,
		TokenType:  types.NativeMint,
		CreatedAt:  createdAt,
	}
}

func TestNotes(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	now := time.Now()
	first := testNote("note-1", 1111, now.Add(-time.Hour))
	second := testNote("note-2", 2222, now)

	c.Assert(stg.SetNote(second), qt.IsNil)
	c.Assert(stg.SetNote(first), qt.IsNil)

	got, err := stg.Note(first.Commitment)
	c.Assert(err, qt.IsNil)
	c.Assert(got.ID, qt.Equals, "note-1")
	c.Assert(got.Amount, qt.Equals, uint64(1_500_000_000))
	c.Assert(got.Commitment.MathBigInt().Int64(), qt.Equals, int64(1111))
	c.Assert(got.Spent, qt.IsFalse)

	// listed in creation order regardless of insertion order
	notes, err := stg.ListNotes()
	c.Assert(err, qt.IsNil)
	c.Assert(notes, qt.HasLen, 2)
	c.Assert(notes[0].ID, qt.Equals, "note-1")
	c.Assert(notes[1].ID, qt.Equals, "note-2")

	_, err = stg.Note(bi(9999))
	c.Assert(err, qt.Equals, ErrNotFound)
}

func TestMarkNoteSpent(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	note := testNote("note-1", 1111, time.Now())
	c.Assert(stg.SetNote(note), qt.IsNil)

	c.Assert(stg.MarkNoteSpent(note.Commitment), qt.IsNil)
	got, err := stg.Note(note.Commitment)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Spent, qt.IsTrue)

	// idempotent
	c.Assert(stg.MarkNoteSpent(note.Commitment), qt.IsNil)

	unspent, err := stg.UnspentNotes()
	c.Assert(err, qt.IsNil)
	c.Assert(unspent, qt.HasLen, 0)

	err = stg.MarkNoteSpent(bi(9999))
	c.Assert(err, qt.Equals, ErrNotFound)
}

func TestNoteCommitmentRange(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	// a commitment wider than the 32-byte key must be rejected, not
	// fixed into the buffer
	oversized := (*types.BigInt)(new(big.Int).Lsh(big.NewInt(1), 300))
	note := testNote("note-1", 0, time.Now())
	note.Commitment = oversized
	c.Assert(stg.SetNote(note), qt.ErrorIs, ErrInvalidCommitment)

	// values at or above the modulus are not field elements either
	note.Commitment = (*types.BigInt)(ff.Modulus())
	c.Assert(stg.SetNote(note), qt.ErrorIs, ErrInvalidCommitment)

	note.Commitment = bi(-5)
	c.Assert(stg.SetNote(note), qt.ErrorIs, ErrInvalidCommitment)

	_, err := stg.Note(oversized)
	c.Assert(err, qt.ErrorIs, ErrInvalidCommitment)
	c.Assert(stg.MarkNoteSpent(oversized), qt.ErrorIs, ErrInvalidCommitment)
	c.Assert(stg.DeleteNote(oversized), qt.ErrorIs, ErrInvalidCommitment)

	// the largest reduced field element still round-trips
	note.Commitment = (*types.BigInt)(new(big.Int).Sub(ff.Modulus(), big.NewInt(1)))
	c.Assert(stg.SetNote(note), qt.IsNil)
	got, err := stg.Note(note.Commitment)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Commitment.MathBigInt().Cmp(note.Commitment.MathBigInt()), qt.Equals, 0)
}

func TestDeleteNote(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	note := testNote("note-1", 1111, time.Now())
	c.Assert(stg.SetNote(note), qt.IsNil)
	c.Assert(stg.DeleteNote(note.Commitment), qt.IsNil)

	_, err := stg.Note(note.Commitment)
	c.Assert(err, qt.Equals, ErrNotFound)
	c.Assert(stg.DeleteNote(note.Commitment), qt.Equals, ErrNotFound)
}

func testWithdrawal(pda string, status types.WithdrawalStatus, createdAt time.Time) *types.PendingWithdrawal {
	return &types.PendingWithdrawal{
		PDA:         pda,
		UserDeposit: "4Nd1mYvM3kjkJ1mCcWkVmvcZjZ5DdwCqW3W8o2g7qyVb",
		Requester:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Vault:       "So11111111111111111111111111111111111111112",
		Amount:      1_000_000,
		Recipient:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestWithdrawals(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	now := time.Now()
	c.Assert(stg.SetWithdrawal(testWithdrawal("pda-1", types.WithdrawalRequested, now.Add(-time.Minute))), qt.IsNil)
	c.Assert(stg.SetWithdrawal(testWithdrawal("pda-2", types.WithdrawalCompleted, now)), qt.IsNil)
	c.Assert(stg.SetWithdrawal(testWithdrawal("pda-3", types.WithdrawalApproved, now.Add(time.Minute))), qt.IsNil)

	got, err := stg.Withdrawal("pda-1")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Status, qt.Equals, types.WithdrawalRequested)
	c.Assert(got.Amount, qt.Equals, uint64(1_000_000))

	// completed requests are not pending
	pending, err := stg.PendingWithdrawals()
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.HasLen, 2)
	c.Assert(pending[0].PDA, qt.Equals, "pda-1")
	c.Assert(pending[1].PDA, qt.Equals, "pda-3")

	_, err = stg.Withdrawal("unknown")
	c.Assert(err, qt.Equals, ErrNotFound)

	err = stg.SetWithdrawal(&types.PendingWithdrawal{})
	c.Assert(err, qt.ErrorMatches, `withdrawal has no request account`)
}

func TestSetWithdrawalStatus(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	w := testWithdrawal("pda-1", types.WithdrawalRequested, time.Now().Add(-time.Hour))
	c.Assert(stg.SetWithdrawal(w), qt.IsNil)

	c.Assert(stg.SetWithdrawalStatus("pda-1", types.WithdrawalCompleted), qt.IsNil)
	got, err := stg.Withdrawal("pda-1")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Status, qt.Equals, types.WithdrawalCompleted)
	c.Assert(got.UpdatedAt.After(got.CreatedAt), qt.IsTrue)

	err = stg.SetWithdrawalStatus("unknown", types.WithdrawalExpired)
	c.Assert(err, qt.Equals, ErrNotFound)
}
