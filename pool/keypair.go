// Package pool implements the shielded pool note model: spending
// keypairs, UTXO notes with their Poseidon commitments and nullifiers,
// the per-asset mint field and the external-data binding hashed into
// every proof.
//
// All values entering a hash are reduced into the BN254 scalar field
// first; the hasher itself does not re-check ranges.
package pool

import (
	"fmt"
	"math/big"

	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/crypto/hash/poseidon"
)

// Keypair holds a spending key and its Poseidon-derived public key.
// The private key never crosses the proof-verification boundary; it
// only enters circuit inputs, which are dropped after proving.
type Keypair struct {
	privateKey *big.Int
	PublicKey  *big.Int

	hasher poseidon.Hasher
}

// NewKeypair derives a keypair from a raw secret scalar. The secret is
// reduced into the field, so any two keypairs derived from the same
// secret are indistinguishable.
func NewKeypair(secret *big.Int, h poseidon.Hasher) (*Keypair, error) {
	if secret == nil {
		return nil, fmt.Errorf("missing secret")
	}
	privateKey := ff.Reduce(secret)
	publicKey, err := h.Hash([]*big.Int{privateKey})
	if err != nil {
		return nil, fmt.Errorf("cannot derive public key: %w", err)
	}
	return &Keypair{
		privateKey: privateKey,
		PublicKey:  publicKey,
		hasher:     h,
	}, nil
}

// NewKeypairFromSeed derives a keypair from opaque secret bytes, such
// as a wallet signature over a fixed derivation message.
func NewKeypairFromSeed(seed []byte, h poseidon.Hasher) (*Keypair, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("empty seed")
	}
	return NewKeypair(new(big.Int).SetBytes(seed), h)
}

// Sign returns Poseidon([privateKey, commitment, index]), the note
// ownership signature folded into the nullifier.
func (k *Keypair) Sign(commitment, index *big.Int) (*big.Int, error) {
	return k.hasher.Hash([]*big.Int{k.privateKey, commitment, index})
}

// PrivateKey returns the spending key. Callers must not log or persist
// it.
func (k *Keypair) PrivateKey() *big.Int {
	return k.privateKey
}
