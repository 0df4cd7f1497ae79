package pool

import (
	"fmt"
	"math/big"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/crypto/hash/poseidon"
	"github.com/spectre-protocol/spectre-shield/solana"
)

// ExtData is the externally visible transaction metadata bound into
// the proof through extDataHash. Tampering with any field on the way
// to the chain invalidates the proof.
type ExtData struct {
	// Recipient receives the withdrawn funds (or is the depositor).
	Recipient string
	// ExtAmount is the net external value: positive for deposits,
	// negative for withdrawals.
	ExtAmount *big.Int
	// EncryptedOutput1 and EncryptedOutput2 are the new notes
	// encrypted to their owners; opaque bytes at this layer.
	EncryptedOutput1 []byte
	EncryptedOutput2 []byte
	// Fee in smallest units, paid to the relayer.
	Fee uint64
	// FeeRecipient is the optional relayer fee account.
	FeeRecipient string
}

// Hash folds the metadata into a single field element:
// Poseidon([recipient, extAmount, enc1, enc2, fee]), where each
// encrypted output enters as the big-endian integer of its first 16
// bytes and the amount wraps modularly when negative.
func (e *ExtData) Hash(h poseidon.Hasher) (*big.Int, error) {
	if e.ExtAmount == nil {
		return nil, fmt.Errorf("missing ext amount")
	}
	recipient, err := solana.DecodeAddress(e.Recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	return h.Hash([]*big.Int{
		ff.FromBytes(recipient.Bytes()),
		ff.Reduce(e.ExtAmount),
		ff.FromFirstBytes(e.EncryptedOutput1, 16),
		ff.FromFirstBytes(e.EncryptedOutput2, 16),
		new(big.Int).SetUint64(e.Fee),
	})
}

// PublicAmount returns the field representation of the net external
// amount: the value itself for deposits, q-|v| for withdrawals. The
// wraparound is explicit; the field has no other encoding of negative
// numbers.
func (e *ExtData) PublicAmount() *big.Int {
	return ff.Reduce(e.ExtAmount)
}
