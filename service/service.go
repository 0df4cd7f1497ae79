// Package service orchestrates the proving pipeline: request
// validation, artifact loading, hasher initialization, circuit input
// assembly, Groth16 proving and byte formatting, in that strict order.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	rapidsnark "github.com/iden3/go-rapidsnark/types"
	"github.com/spectre-protocol/spectre-shield/circuits"
	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/crypto/hash/poseidon"
	"github.com/spectre-protocol/spectre-shield/log"
	"github.com/spectre-protocol/spectre-shield/pool"
	"github.com/spectre-protocol/spectre-shield/prover"
	"github.com/spectre-protocol/spectre-shield/storage"
	"github.com/spectre-protocol/spectre-shield/tree"
	"github.com/spectre-protocol/spectre-shield/types"
)

// Config carries the dependencies of a Service.
type Config struct {
	Artifacts *circuits.ArtifactSet
	Storage   *storage.Storage
	Tree      *tree.Tree
	// OnProgress receives artifact load progress. May be nil.
	OnProgress circuits.ProgressFunc
	// NewHasher builds the process-wide hasher on first use. Defaults
	// to the native Poseidon backend.
	NewHasher func() (poseidon.Hasher, error)
}

// Service runs proof requests end to end. The artifact set and the
// hasher are shared across requests; everything else is built fresh
// per request.
type Service struct {
	artifacts  *circuits.ArtifactSet
	storage    *storage.Storage
	tree       *tree.Tree
	onProgress circuits.ProgressFunc
	newHasher  func() (poseidon.Hasher, error)

	hasherMu sync.Mutex
	hasher   poseidon.Hasher
}

// New creates a Service from its dependencies.
func New(cfg Config) *Service {
	newHasher := cfg.NewHasher
	if newHasher == nil {
		newHasher = func() (poseidon.Hasher, error) {
			return poseidon.NewNative(), nil
		}
	}
	return &Service{
		artifacts:  cfg.Artifacts,
		storage:    cfg.Storage,
		tree:       cfg.Tree,
		onProgress: cfg.OnProgress,
		newHasher:  newHasher,
	}
}

// Storage returns the note store.
func (s *Service) Storage() *storage.Storage {
	return s.storage
}

// Tree returns the local commitment tree.
func (s *Service) Tree() *tree.Tree {
	return s.tree
}

// Hasher returns the shared hasher, initializing it on first use.
// Initialization failure leaves the singleton unset so a later call
// retries.
func (s *Service) Hasher() (poseidon.Hasher, error) {
	s.hasherMu.Lock()
	defer s.hasherMu.Unlock()
	if s.hasher != nil {
		return s.hasher, nil
	}
	h, err := s.newHasher()
	if err != nil {
		return nil, &StageError{Stage: StageHashInit, Err: err}
	}
	s.hasher = h
	return h, nil
}

// DownloadArtifacts resolves the circuit artifacts ahead of the first
// proof request. It is optional; Prove loads them on demand.
func (s *Service) DownloadArtifacts(ctx context.Context) error {
	if err := s.artifacts.Load(ctx, s.onProgress); err != nil {
		return &StageError{Stage: StageArtifacts, Err: err}
	}
	return nil
}

// Prove runs the full pipeline for one request and returns the proof
// in both its raw and on-chain byte forms. Failures are stage-tagged;
// no partial proof is ever returned.
func (s *Service) Prove(ctx context.Context, req *ProofRequest) (*ProofResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := s.artifacts.Load(ctx, s.onProgress); err != nil {
		return nil, &StageError{Stage: StageArtifacts, Err: err}
	}
	h, err := s.Hasher()
	if err != nil {
		return nil, err
	}
	assembly, err := buildAssembly(h, req)
	if err != nil {
		return nil, &StageError{Stage: StageValidation, Err: err}
	}
	input, err := circuits.BuildInputs(h, assembly)
	if err != nil {
		return nil, &StageError{Stage: StageValidation, Err: err}
	}
	// the client-side computation of the public amount must agree with
	// ours before any proving work starts
	if req.PublicAmount != "" && req.PublicAmount != input.PublicAmount {
		return nil, stageError(StageValidation,
			"publicAmount mismatch: request says %s, computed %s", req.PublicAmount, input.PublicAmount)
	}

	log.Infow("generating proof", "operation", req.Operation,
		"inputs", len(req.Inputs), "outputs", len(req.Outputs))
	out, err := prover.Groth16Prove(ctx, s.artifacts.WitnessBytes(), s.artifacts.ProvingKeyBytes(), input)
	if err != nil {
		return nil, &StageError{Stage: StageProving, Err: err}
	}
	proofBytes, signalBytes, err := out.Format()
	if err != nil {
		return nil, &StageError{Stage: StageFormatting, Err: err}
	}
	return buildResponse(out, proofBytes, signalBytes)
}

// ValidateRequest rejects malformed requests before any hashing or
// proving work begins.
func ValidateRequest(req *ProofRequest) error {
	if req == nil {
		return stageError(StageValidation, "nil request")
	}
	op := circuits.Operation(req.Operation)
	if !op.Valid() {
		return stageError(StageValidation, "unknown operation %q", req.Operation)
	}
	if len(req.Inputs) == 0 {
		return stageError(StageValidation, "missing inputs")
	}
	if len(req.Inputs) > types.NInputs {
		return stageError(StageValidation, "too many inputs: %d", len(req.Inputs))
	}
	if len(req.Outputs) == 0 {
		return stageError(StageValidation, "missing outputs")
	}
	if len(req.Outputs) > types.NOutputs {
		return stageError(StageValidation, "too many outputs: %d", len(req.Outputs))
	}
	if req.UtxoPrivateKey == nil {
		return stageError(StageValidation, "missing utxoPrivateKey")
	}
	if req.ExtData == nil {
		return stageError(StageValidation, "missing extData")
	}
	if req.ExtData.ExtAmount == nil {
		return stageError(StageValidation, "missing extData.extAmount")
	}
	if req.Root == "" {
		return stageError(StageValidation, "missing root")
	}
	extAmount := req.ExtData.ExtAmount.MathBigInt()
	switch op {
	case circuits.OperationDeposit:
		if extAmount.Sign() <= 0 {
			return stageError(StageValidation, "deposit extAmount must be positive")
		}
		if isNativeDeposit(req) {
			if extAmount.Cmp(big.NewInt(types.MinDepositLamports)) < 0 {
				return stageError(StageValidation, "deposit below the minimum of %d lamports", types.MinDepositLamports)
			}
			if extAmount.Cmp(big.NewInt(types.MaxDepositLamports)) > 0 {
				return stageError(StageValidation, "deposit above the maximum of %d lamports", types.MaxDepositLamports)
			}
		}
	case circuits.OperationWithdraw:
		if extAmount.Sign() >= 0 {
			return stageError(StageValidation, "withdrawal extAmount must be negative")
		}
	}
	return nil
}

func isNativeDeposit(req *ProofRequest) bool {
	for _, in := range req.Inputs {
		if in.MintAddress != "" && in.MintAddress != types.NativeMint {
			return false
		}
	}
	return true
}

// buildAssembly turns the wire request into domain notes and paths.
func buildAssembly(h poseidon.Hasher, req *ProofRequest) (*circuits.Assembly, error) {
	root, err := ff.ParseDecimal(req.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	if len(req.InputMerklePaths) != len(req.Inputs) {
		return nil, fmt.Errorf("got %d merkle paths for %d inputs",
			len(req.InputMerklePaths), len(req.Inputs))
	}
	if len(req.InputMerklePathIndices) != len(req.Inputs) {
		return nil, fmt.Errorf("got %d merkle path indices for %d inputs",
			len(req.InputMerklePathIndices), len(req.Inputs))
	}

	inputs := make([]*pool.Utxo, len(req.Inputs))
	for i, in := range req.Inputs {
		if in.PrivateKey == nil {
			return nil, fmt.Errorf("input %d has no private key", i)
		}
		if in.Amount == nil || in.Blinding == nil {
			return nil, fmt.Errorf("input %d has missing fields", i)
		}
		kp, err := pool.NewKeypair(in.PrivateKey.MathBigInt(), h)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i], err = pool.NewUtxo(in.Amount.MathBigInt(), in.Blinding.MathBigInt(), kp, in.Index, in.MintAddress)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	outKeypair, err := pool.NewKeypair(req.UtxoPrivateKey.MathBigInt(), h)
	if err != nil {
		return nil, fmt.Errorf("invalid utxoPrivateKey: %w", err)
	}
	mint := req.Inputs[0].MintAddress
	outputs := make([]*pool.Utxo, len(req.Outputs))
	for i, out := range req.Outputs {
		if out.Amount == nil || out.Blinding == nil {
			return nil, fmt.Errorf("output %d has missing fields", i)
		}
		outputs[i], err = pool.NewUtxo(out.Amount.MathBigInt(), out.Blinding.MathBigInt(), outKeypair, out.Index, mint)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}

	paths := make([][]*big.Int, len(req.InputMerklePaths))
	for i, path := range req.InputMerklePaths {
		paths[i] = make([]*big.Int, len(path))
		for level, sibling := range path {
			v, err := ff.ParseDecimal(sibling)
			if err != nil {
				return nil, fmt.Errorf("merkle path %d level %d: %w", i, level, err)
			}
			paths[i][level] = v
		}
	}

	return &circuits.Assembly{
		Operation:         circuits.Operation(req.Operation),
		Inputs:            inputs,
		Outputs:           outputs,
		Root:              root,
		MerklePaths:       paths,
		MerklePathIndices: req.InputMerklePathIndices,
		ExtData: &pool.ExtData{
			Recipient:        req.ExtData.Recipient,
			ExtAmount:        req.ExtData.ExtAmount.MathBigInt(),
			EncryptedOutput1: req.ExtData.EncryptedOutput1,
			EncryptedOutput2: req.ExtData.EncryptedOutput2,
			Fee:              req.ExtData.Fee,
			FeeRecipient:     req.ExtData.FeeRecipient,
		},
	}, nil
}

func buildResponse(out *prover.Output, proofBytes *prover.ProofBytes, signalBytes [][32]byte) (*ProofResponse, error) {
	var proofData rapidsnark.ProofData
	if err := json.Unmarshal([]byte(out.RawProof), &proofData); err != nil {
		return nil, &StageError{Stage: StageFormatting, Err: fmt.Errorf("cannot decode proof: %w", err)}
	}
	signals := make([]string, len(out.PublicSignals))
	for i, sig := range out.PublicSignals {
		signals[i] = sig.String()
	}
	inputsBytes := make([]types.HexBytes, len(signalBytes))
	for i := range signalBytes {
		inputsBytes[i] = append(types.HexBytes{}, signalBytes[i][:]...)
	}
	return &ProofResponse{
		Proof: ProofJSON{
			PiA: proofData.A,
			PiB: proofData.B,
			PiC: proofData.C,
		},
		PublicSignals: signals,
		ProofBytes: ProofBytesJSON{
			ProofA: append(types.HexBytes{}, proofBytes.ProofA[:]...),
			ProofB: append(types.HexBytes{}, proofBytes.ProofB[:]...),
			ProofC: append(types.HexBytes{}, proofBytes.ProofC[:]...),
		},
		PublicInputsBytes: inputsBytes,
	}, nil
}
