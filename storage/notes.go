package storage

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/types"
)

// ErrInvalidCommitment is returned when a commitment is missing,
// negative or not below the field modulus. Commitments come from
// clients as unbounded decimal strings, so the range must be checked
// before the value is fixed into a 32-byte key.
var ErrInvalidCommitment = errors.New("commitment is not a reduced field element")

// noteKey derives the storage key of a note from its commitment.
func noteKey(commitment *types.BigInt) ([]byte, error) {
	if commitment == nil {
		return nil, fmt.Errorf("%w: nil commitment", ErrInvalidCommitment)
	}
	v := commitment.MathBigInt()
	if v.Sign() < 0 || v.Cmp(ff.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCommitment, v.String())
	}
	key := make([]byte, 32)
	v.FillBytes(key)
	return key, nil
}

// SetNote stores a note keyed by its commitment, overwriting any
// previous version.
func (s *Storage) SetNote(note *types.StoredNote) error {
	if note == nil {
		return fmt.Errorf("nil note")
	}
	key, err := noteKey(note.Commitment)
	if err != nil {
		return err
	}
	return s.setArtifact(notePrefix, key, note)
}

// Note retrieves the note with the given commitment. Returns
// ErrNotFound if it does not exist.
func (s *Storage) Note(commitment *types.BigInt) (*types.StoredNote, error) {
	key, err := noteKey(commitment)
	if err != nil {
		return nil, err
	}
	note := &types.StoredNote{}
	if err := s.getArtifact(notePrefix, key, note); err != nil {
		return nil, err
	}
	return note, nil
}

// ListNotes returns every stored note ordered by creation time.
func (s *Storage) ListNotes() ([]*types.StoredNote, error) {
	var notes []*types.StoredNote
	var decodeErr error
	err := s.iterateArtifacts(notePrefix, func(_, value []byte) bool {
		note := &types.StoredNote{}
		if decodeErr = decodeArtifact(value, note); decodeErr != nil {
			return false
		}
		notes = append(notes, note)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
	return notes, nil
}

// UnspentNotes returns the stored notes not yet marked spent, ordered
// by creation time.
func (s *Storage) UnspentNotes() ([]*types.StoredNote, error) {
	notes, err := s.ListNotes()
	if err != nil {
		return nil, err
	}
	unspent := notes[:0]
	for _, n := range notes {
		if !n.Spent {
			unspent = append(unspent, n)
		}
	}
	return unspent, nil
}

// MarkNoteSpent flags the note with the given commitment as spent.
// Returns ErrNotFound if the note does not exist. Marking an already
// spent note is a no-op.
func (s *Storage) MarkNoteSpent(commitment *types.BigInt) error {
	note, err := s.Note(commitment)
	if err != nil {
		return err
	}
	if note.Spent {
		return nil
	}
	note.Spent = true
	return s.SetNote(note)
}

// DeleteNote removes the note with the given commitment. Returns
// ErrNotFound if it does not exist.
func (s *Storage) DeleteNote(commitment *types.BigInt) error {
	key, err := noteKey(commitment)
	if err != nil {
		return err
	}
	return s.deleteArtifact(notePrefix, key)
}
