package service

import (
	"github.com/spectre-protocol/spectre-shield/types"
)

// NoteInput is one note being spent, as submitted by the client. The
// private key travels with the input because each spent note may be
// owned by a different keypair.
type NoteInput struct {
	Amount      *types.BigInt `json:"amount"`
	Blinding    *types.BigInt `json:"blinding"`
	PrivateKey  *types.BigInt `json:"privateKey"`
	Index       uint64        `json:"index"`
	MintAddress string        `json:"mintAddress,omitempty"`
}

// NoteOutput is one note being created. Outputs are always owned by
// the requester's keypair, derived from the request's utxoPrivateKey.
type NoteOutput struct {
	Amount   *types.BigInt `json:"amount"`
	Blinding *types.BigInt `json:"blinding"`
	Index    uint64        `json:"index"`
}

// ExtDataRequest is the externally visible metadata of the
// transaction, bound into the proof through its hash.
type ExtDataRequest struct {
	Recipient        string         `json:"recipient"`
	ExtAmount        *types.BigInt  `json:"extAmount"`
	EncryptedOutput1 types.HexBytes `json:"encryptedOutput1"`
	EncryptedOutput2 types.HexBytes `json:"encryptedOutput2"`
	Fee              uint64         `json:"fee"`
	FeeRecipient     string         `json:"feeRecipient,omitempty"`
}

// ProofRequest is the proof-generation request boundary.
type ProofRequest struct {
	Operation              string          `json:"operation"`
	Inputs                 []NoteInput     `json:"inputs"`
	Outputs                []NoteOutput    `json:"outputs"`
	Root                   string          `json:"root"`
	InputMerklePaths       [][]string      `json:"inputMerklePaths"`
	InputMerklePathIndices []uint64        `json:"inputMerklePathIndices"`
	ExtData                *ExtDataRequest `json:"extData"`
	PublicAmount           string          `json:"publicAmount,omitempty"`
	UtxoPrivateKey         *types.BigInt   `json:"utxoPrivateKey"`
}

// ProofJSON is the circom proof shape as emitted by the prover.
type ProofJSON struct {
	PiA []string   `json:"pi_a"`
	PiB [][]string `json:"pi_b"`
	PiC []string   `json:"pi_c"`
}

// ProofBytesJSON is the on-chain byte layout of the proof.
type ProofBytesJSON struct {
	ProofA types.HexBytes `json:"proofA"`
	ProofB types.HexBytes `json:"proofB"`
	ProofC types.HexBytes `json:"proofC"`
}

// ProofResponse is the proof-generation response: the raw proof, the
// public signals and both rendered into the verifier's byte layout.
type ProofResponse struct {
	Proof             ProofJSON        `json:"proof"`
	PublicSignals     []string         `json:"publicSignals"`
	ProofBytes        ProofBytesJSON   `json:"proofBytes"`
	PublicInputsBytes []types.HexBytes `json:"publicInputsBytes"`
}
