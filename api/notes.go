package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spectre-protocol/spectre-shield/log"
	"github.com/spectre-protocol/spectre-shield/storage"
	"github.com/spectre-protocol/spectre-shield/types"
	"github.com/spectre-protocol/spectre-shield/util"
)

// listNotes returns the stored notes, optionally filtered by token
// type with the tokenType query parameter.
func (a *API) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := a.service.Storage().ListNotes()
	if err != nil {
		ErrStorageFailure.WithErr(err).Write(w)
		return
	}
	if tokenType := r.URL.Query().Get("tokenType"); tokenType != "" {
		filtered := notes[:0]
		for _, n := range notes {
			if n.TokenType == tokenType {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}
	if notes == nil {
		notes = []*types.StoredNote{}
	}
	httpWriteJSON(w, notes)
}

// addNote stores a note recovered or created by the client and mirrors
// its commitment into the local tree.
func (a *API) addNote(w http.ResponseWriter, r *http.Request) {
	note := &types.StoredNote{}
	if err := json.NewDecoder(r.Body).Decode(note); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if note.Commitment == nil {
		ErrMalformedCommitment.Withf("missing commitment").Write(w)
		return
	}
	if note.ID == "" {
		note.ID = util.RandomHex(16)
	}
	if note.TokenType == "" {
		note.TokenType = types.NativeMint
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	if err := a.service.Storage().SetNote(note); err != nil {
		if errors.Is(err, storage.ErrInvalidCommitment) {
			ErrMalformedCommitment.WithErr(err).Write(w)
			return
		}
		ErrStorageFailure.WithErr(err).Write(w)
		return
	}
	if tr := a.service.Tree(); tr != nil {
		index, err := tr.Add(note.Commitment.MathBigInt())
		if err != nil {
			log.Warnw("failed to mirror commitment into the local tree",
				"note", note.ID, "error", err.Error())
		} else {
			log.Debugw("commitment added to the local tree", "note", note.ID, "index", index)
		}
	}
	httpWriteJSON(w, note)
}

// markNoteSpent flips the spent flag of the note with the commitment
// in the URL.
func (a *API) markNoteSpent(w http.ResponseWriter, r *http.Request) {
	commitment, err := types.BigIntFromString(chi.URLParam(r, CommitmentURLParam))
	if err != nil {
		ErrMalformedCommitment.WithErr(err).Write(w)
		return
	}
	if err := a.service.Storage().MarkNoteSpent(commitment); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			ErrNoteNotFound.Write(w)
		case errors.Is(err, storage.ErrInvalidCommitment):
			ErrMalformedCommitment.WithErr(err).Write(w)
		default:
			ErrStorageFailure.WithErr(err).Write(w)
		}
		return
	}
	httpWriteOK(w)
}
