package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spectre-protocol/spectre-shield/storage"
	"github.com/spectre-protocol/spectre-shield/types"
	"github.com/spectre-protocol/spectre-shield/withdraw"
)

// pendingWithdrawals lists the withdrawal requests still waiting to be
// finalized.
func (a *API) pendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	pending, err := a.coordinator.Pending()
	if err != nil {
		ErrStorageFailure.WithErr(err).Write(w)
		return
	}
	if pending == nil {
		pending = []*types.PendingWithdrawal{}
	}
	httpWriteJSON(w, pending)
}

// completeWithdrawal finalizes the withdrawal request in the URL and
// returns the transaction signature.
func (a *API) completeWithdrawal(w http.ResponseWriter, r *http.Request) {
	pda := chi.URLParam(r, WithdrawalURLParam)
	signature, err := a.coordinator.Complete(r.Context(), pda)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			ErrWithdrawalNotFound.Write(w)
		case errors.Is(err, withdraw.ErrNotCompletable):
			ErrWithdrawalNotReady.WithErr(err).Write(w)
		case errors.Is(err, withdraw.ErrNoMatchingNote):
			ErrNoteNotFound.WithErr(err).Write(w)
		default:
			ErrGenericInternalServerError.WithErr(err).Write(w)
		}
		return
	}
	httpWriteJSON(w, map[string]string{"signature": signature})
}
