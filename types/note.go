package types

import "time"

// StoredNote is the persistence-facing projection of a note. It never
// contains key material: the commitment plus the wallet-derived secret
// are enough to respend, so only public fields are stored.
type StoredNote struct {
	ID               string    `json:"id" cbor:"1,keyasint"`
	Commitment       *BigInt   `json:"commitment" cbor:"2,keyasint"`
	Amount           uint64    `json:"amount" cbor:"3,keyasint"`
	TokenType        string    `json:"tokenType" cbor:"4,keyasint"`
	CreatedAt        time.Time `json:"createdAt" cbor:"5,keyasint"`
	Spent            bool      `json:"spent" cbor:"6,keyasint"`
	DepositSignature string    `json:"depositSignature,omitempty" cbor:"7,keyasint,omitempty"`
}

// WithdrawalStatus is the lifecycle state of a withdrawal request
// account observed on chain.
type WithdrawalStatus string

const (
	WithdrawalRequested WithdrawalStatus = "requested"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalExpired   WithdrawalStatus = "expired"
)

// PendingWithdrawal is a withdrawal request account as observed on
// chain, not yet finalized. It is matched against local notes through
// the UserDeposit address, never by value equality.
type PendingWithdrawal struct {
	PDA         string           `json:"pda" cbor:"1,keyasint"`
	UserDeposit string           `json:"userDeposit" cbor:"2,keyasint"`
	Requester   string           `json:"requester" cbor:"3,keyasint"`
	Vault       string           `json:"vault" cbor:"4,keyasint"`
	Amount      uint64           `json:"amount" cbor:"5,keyasint"`
	Recipient   string           `json:"recipient" cbor:"6,keyasint"`
	Status      WithdrawalStatus `json:"status" cbor:"7,keyasint"`
	CreatedAt   time.Time        `json:"createdAt" cbor:"8,keyasint"`
	UpdatedAt   time.Time        `json:"updatedAt" cbor:"9,keyasint"`
}
