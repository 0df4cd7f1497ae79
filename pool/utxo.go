package pool

import (
	"fmt"
	"math/big"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/types"
	"github.com/spectre-protocol/spectre-shield/util"
)

// Utxo is an unspent note in the pool. Commitment and nullifier are
// pure functions of its fields: recomputing them from identical inputs
// must reproduce identical values, which is what the on-chain
// double-spend check relies on.
type Utxo struct {
	// Amount in the asset's smallest unit (lamport-equivalent).
	Amount *big.Int
	// Blinding is the commitment randomness, a field element.
	Blinding *big.Int
	// Keypair owns the note.
	Keypair *Keypair
	// Index is the Merkle leaf index (or logical slot for unspent
	// outputs). It domain-separates nullifiers of otherwise identical
	// notes.
	Index uint64
	// MintAddress identifies the asset; empty means the native mint.
	MintAddress string
}

// NewUtxo builds a note from its raw fields. The blinding is reduced
// into the field; the amount must be non-negative.
func NewUtxo(amount, blinding *big.Int, keypair *Keypair, index uint64, mintAddress string) (*Utxo, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid note amount")
	}
	if blinding == nil {
		return nil, fmt.Errorf("missing blinding factor")
	}
	if keypair == nil {
		return nil, fmt.Errorf("missing keypair")
	}
	if mintAddress == "" {
		mintAddress = types.NativeMint
	}
	return &Utxo{
		Amount:      new(big.Int).Set(amount),
		Blinding:    ff.Reduce(blinding),
		Keypair:     keypair,
		Index:       index,
		MintAddress: mintAddress,
	}, nil
}

// NewDummyUtxo builds a zero-amount note with fresh random blinding
// and index 0, used to pad transactions to the circuit's fixed
// 2-in/2-out arity. It is owned by the caller's own keypair, so the
// slot stays spendable without leaking that it is unused. The mint
// must be the transaction's mint: the circuit carries a single mint
// signal, so a dummy hashed with a different mint field would not
// match the in-circuit recomputation of its commitment.
func NewDummyUtxo(keypair *Keypair, mintAddress string) (*Utxo, error) {
	// 31 random bytes stay under the modulus without reduction bias
	blinding := new(big.Int).SetBytes(util.RandomBytes(31))
	return NewUtxo(big.NewInt(0), blinding, keypair, 0, mintAddress)
}

// Commitment returns Poseidon([amount, publicKey, blinding, mintField]).
func (u *Utxo) Commitment() (*big.Int, error) {
	mint, err := MintField(u.MintAddress)
	if err != nil {
		return nil, err
	}
	return u.Keypair.hasher.Hash([]*big.Int{
		u.Amount,
		u.Keypair.PublicKey,
		u.Blinding,
		mint,
	})
}

// Nullifier returns Poseidon([commitment, index, signature]) where the
// signature is the owner's Sign(commitment, index). Two notes that
// differ only in index produce different nullifiers.
func (u *Utxo) Nullifier() (*big.Int, error) {
	commitment, err := u.Commitment()
	if err != nil {
		return nil, err
	}
	index := new(big.Int).SetUint64(u.Index)
	signature, err := u.Keypair.Sign(commitment, index)
	if err != nil {
		return nil, err
	}
	return u.Keypair.hasher.Hash([]*big.Int{commitment, index, signature})
}
