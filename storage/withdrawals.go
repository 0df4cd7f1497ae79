package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/spectre-protocol/spectre-shield/types"
)

// SetWithdrawal stores a withdrawal request keyed by its request
// account address, overwriting any previous version.
func (s *Storage) SetWithdrawal(w *types.PendingWithdrawal) error {
	if w == nil {
		return fmt.Errorf("nil withdrawal")
	}
	if w.PDA == "" {
		return fmt.Errorf("withdrawal has no request account")
	}
	return s.setArtifact(withdrawalPrefix, []byte(w.PDA), w)
}

// Withdrawal retrieves the withdrawal request stored under the given
// request account address. Returns ErrNotFound if it does not exist.
func (s *Storage) Withdrawal(pda string) (*types.PendingWithdrawal, error) {
	w := &types.PendingWithdrawal{}
	if err := s.getArtifact(withdrawalPrefix, []byte(pda), w); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWithdrawals returns every stored withdrawal request ordered by
// creation time.
func (s *Storage) ListWithdrawals() ([]*types.PendingWithdrawal, error) {
	var withdrawals []*types.PendingWithdrawal
	var decodeErr error
	err := s.iterateArtifacts(withdrawalPrefix, func(_, value []byte) bool {
		w := &types.PendingWithdrawal{}
		if decodeErr = decodeArtifact(value, w); decodeErr != nil {
			return false
		}
		withdrawals = append(withdrawals, w)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	sort.Slice(withdrawals, func(i, j int) bool {
		return withdrawals[i].CreatedAt.Before(withdrawals[j].CreatedAt)
	})
	return withdrawals, nil
}

// PendingWithdrawals returns the withdrawal requests still waiting to
// be finalized, ordered by creation time.
func (s *Storage) PendingWithdrawals() ([]*types.PendingWithdrawal, error) {
	all, err := s.ListWithdrawals()
	if err != nil {
		return nil, err
	}
	pending := all[:0]
	for _, w := range all {
		if w.Status == types.WithdrawalRequested || w.Status == types.WithdrawalApproved {
			pending = append(pending, w)
		}
	}
	return pending, nil
}

// SetWithdrawalStatus updates the status of the withdrawal stored
// under the given request account address and bumps its update time.
// Returns ErrNotFound if it does not exist.
func (s *Storage) SetWithdrawalStatus(pda string, status types.WithdrawalStatus) error {
	w, err := s.Withdrawal(pda)
	if err != nil {
		return err
	}
	if w.Status == status {
		return nil
	}
	w.Status = status
	w.UpdatedAt = time.Now()
	return s.SetWithdrawal(w)
}

// DeleteWithdrawal removes the withdrawal stored under the given
// request account address. Returns ErrNotFound if it does not exist.
func (s *Storage) DeleteWithdrawal(pda string) error {
	return s.deleteArtifact(withdrawalPrefix, []byte(pda))
}
