// Package withdraw tracks withdrawal request accounts observed on
// chain and matches them back to locally known notes for completion.
package withdraw

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spectre-protocol/spectre-shield/log"
	"github.com/spectre-protocol/spectre-shield/solana"
	"github.com/spectre-protocol/spectre-shield/storage"
	"github.com/spectre-protocol/spectre-shield/types"
)

var (
	// ErrNotCompletable is returned when a withdrawal is not in a
	// completable state.
	ErrNotCompletable = errors.New("withdrawal not completable")
	// ErrNoMatchingNote is returned when no local note corresponds to
	// a withdrawal's deposit account.
	ErrNoMatchingNote = errors.New("no local note matches the deposit account")
)

// RelayerClient fetches the withdrawal request accounts currently
// pending on chain.
type RelayerClient interface {
	FetchPending(ctx context.Context) ([]*types.PendingWithdrawal, error)
}

// Submitter finalizes a withdrawal on chain and returns the
// transaction signature.
type Submitter interface {
	Complete(ctx context.Context, w *types.PendingWithdrawal) (string, error)
}

// Coordinator mirrors the on-chain withdrawal requests into local
// storage and drives them through their lifecycle:
// requested -> completed | expired.
type Coordinator struct {
	relayer   RelayerClient
	submitter Submitter
	storage   *storage.Storage
	programID solana.Address
	interval  time.Duration
	expiry    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Config carries the dependencies of a Coordinator.
type Config struct {
	Relayer   RelayerClient
	Submitter Submitter
	Storage   *storage.Storage
	ProgramID solana.Address
	// Interval between relayer polls. Defaults to 30 seconds.
	Interval time.Duration
	// Expiry is how long a request may stay unfinalized before it is
	// marked expired. Defaults to 24 hours.
	Expiry time.Duration
}

// New creates a Coordinator from its dependencies.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Relayer == nil {
		return nil, fmt.Errorf("missing relayer client")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("missing storage")
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}
	expiry := cfg.Expiry
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &Coordinator{
		relayer:   cfg.Relayer,
		submitter: cfg.Submitter,
		storage:   cfg.Storage,
		programID: cfg.ProgramID,
		interval:  interval,
		expiry:    expiry,
	}, nil
}

// Start begins the periodic sync loop. It returns an error if the
// coordinator is already running.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return fmt.Errorf("service already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(ctx)
	return nil
}

// Stop halts the sync loop.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		if err := c.Sync(ctx); err != nil {
			log.Warnw("withdrawal sync failed", "error", err.Error())
		}
		if err := c.ExpireStale(time.Now()); err != nil {
			log.Warnw("withdrawal expiry sweep failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sync fetches the pending withdrawal requests from the relayer and
// stores the ones not seen before. Requests already tracked keep their
// local status.
func (c *Coordinator) Sync(ctx context.Context) error {
	pending, err := c.relayer.FetchPending(ctx)
	if err != nil {
		return fmt.Errorf("cannot fetch pending withdrawals: %w", err)
	}
	for _, w := range pending {
		if w == nil || w.PDA == "" {
			continue
		}
		if _, err := c.storage.Withdrawal(w.PDA); err == nil {
			continue
		}
		record := *w
		if record.Status == "" {
			record.Status = types.WithdrawalRequested
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}
		record.UpdatedAt = record.CreatedAt
		log.Debugw("new withdrawal request", "pda", record.PDA, "amount", record.Amount)
		if err := c.storage.SetWithdrawal(&record); err != nil {
			log.Warnw("failed to store withdrawal", "pda", record.PDA, "error", err.Error())
		}
	}
	return nil
}

// MatchNote finds the local note a withdrawal request refers to by
// deriving each note's deposit account address and comparing it to the
// request's userDeposit. Address correlation, never value equality.
func (c *Coordinator) MatchNote(w *types.PendingWithdrawal) (*types.StoredNote, error) {
	vault, err := solana.DecodeAddress(w.Vault)
	if err != nil {
		return nil, fmt.Errorf("invalid vault address: %w", err)
	}
	notes, err := c.storage.UnspentNotes()
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		if note.Commitment == nil {
			continue
		}
		var commitment [32]byte
		note.Commitment.MathBigInt().FillBytes(commitment[:])
		addr, _, err := solana.DeriveDepositAddress(vault, commitment, c.programID)
		if err != nil {
			return nil, fmt.Errorf("cannot derive deposit address for note %s: %w", note.ID, err)
		}
		if addr.String() == w.UserDeposit {
			return note, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoMatchingNote, w.UserDeposit)
}

// Complete finalizes the withdrawal stored under the given request
// account: it matches the request to a local note, submits the
// completion transaction and flips the note to spent. Returns the
// transaction signature.
func (c *Coordinator) Complete(ctx context.Context, pda string) (string, error) {
	if c.submitter == nil {
		return "", fmt.Errorf("no submitter configured")
	}
	w, err := c.storage.Withdrawal(pda)
	if err != nil {
		return "", err
	}
	if w.Status != types.WithdrawalRequested && w.Status != types.WithdrawalApproved {
		return "", fmt.Errorf("%w: withdrawal %s is %s", ErrNotCompletable, pda, w.Status)
	}
	note, err := c.MatchNote(w)
	if err != nil {
		return "", err
	}
	signature, err := c.submitter.Complete(ctx, w)
	if err != nil {
		return "", fmt.Errorf("cannot complete withdrawal %s: %w", pda, err)
	}
	if err := c.storage.SetWithdrawalStatus(pda, types.WithdrawalCompleted); err != nil {
		return "", err
	}
	if err := c.storage.MarkNoteSpent(note.Commitment); err != nil {
		return "", err
	}
	log.Infow("withdrawal completed", "pda", pda, "note", note.ID, "signature", signature)
	return signature, nil
}

// Pending returns the withdrawal requests still waiting to be
// finalized.
func (c *Coordinator) Pending() ([]*types.PendingWithdrawal, error) {
	return c.storage.PendingWithdrawals()
}

// ExpireStale marks requests older than the expiry window as expired.
func (c *Coordinator) ExpireStale(now time.Time) error {
	pending, err := c.storage.PendingWithdrawals()
	if err != nil {
		return err
	}
	for _, w := range pending {
		if now.Sub(w.CreatedAt) > c.expiry {
			log.Debugw("withdrawal expired", "pda", w.PDA, "age", now.Sub(w.CreatedAt).String())
			if err := c.storage.SetWithdrawalStatus(w.PDA, types.WithdrawalExpired); err != nil {
				return err
			}
		}
	}
	return nil
}
