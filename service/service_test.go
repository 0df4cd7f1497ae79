package service

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/spectre-protocol/spectre-shield/circuits"
	"github.com/spectre-protocol/spectre-shield/crypto/hash/poseidon"
	"github.com/spectre-protocol/spectre-shield/types"
)

const testRecipient = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func bi(v int64) *types.BigInt {
	return (*types.BigInt)(big.NewInt(v))
}

func zeroPathStrings() []string {
	path := make([]string, types.MerkleTreeLevels)
	for i := range path {
		path[i] = "0"
	}
	return path
}

func validDepositRequest() *ProofRequest {
	return &ProofRequest{
		Operation: "deposit",
		Inputs: []NoteInput{
			{Amount: bi(0), Blinding: bi(777), PrivateKey: bi(12345), Index: 0},
		},
		Outputs: []NoteOutput{
			{Amount: bi(1_500_000_000), Blinding: bi(888), Index: 0},
		},
		Root:                   "111222333",
		InputMerklePaths:       [][]string{zeroPathStrings()},
		InputMerklePathIndices: []uint64{0},
		ExtData: &ExtDataRequest{
			Recipient:        testRecipient,
			ExtAmount:        bi(1_500_000_000),
			EncryptedOutput1: make(types.HexBytes, 120),
			EncryptedOutput2: make(types.HexBytes, 120),
			Fee:              5000,
		},
		UtxoPrivateKey: bi(12345),
	}
}

// testArtifactSet builds an artifact set backed by small local files:
// a structurally valid wasm header and an opaque key blob. Enough for
// the loading stage; proving against them fails.
func testArtifactSet(t *testing.T) *circuits.ArtifactSet {
	t.Helper()
	dir := t.TempDir()
	wasmPath := filepath.Join(dir, "c.wasm")
	zkeyPath := filepath.Join(dir, "c.zkey")
	err := os.WriteFile(wasmPath, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, 0o644)
	qt.Assert(t, err, qt.IsNil)
	err = os.WriteFile(zkeyPath, []byte("not a real proving key"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	return circuits.NewArtifactSet(
		&circuits.Artifact{Name: "c.wasm", LocalPaths: []string{wasmPath}, WasmHeader: true},
		&circuits.Artifact{Name: "c.zkey", LocalPaths: []string{zkeyPath}},
	)
}

func TestValidateRequest(t *testing.T) {
	c := qt.New(t)

	c.Assert(ValidateRequest(validDepositRequest()), qt.IsNil)

	req := validDepositRequest()
	req.Operation = "transfer"
	err := ValidateRequest(req)
	c.Assert(FailedStage(err), qt.Equals, StageValidation)
	c.Assert(err, qt.ErrorMatches, `validation: unknown operation "transfer"`)

	req = validDepositRequest()
	req.Inputs = nil
	err = ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: missing inputs`)

	req = validDepositRequest()
	req.Outputs = nil
	err = ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: missing outputs`)

	req = validDepositRequest()
	req.UtxoPrivateKey = nil
	err = ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: missing utxoPrivateKey`)

	req = validDepositRequest()
	req.ExtData = nil
	err = ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: missing extData`)

	req = validDepositRequest()
	req.Root = ""
	err = ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: missing root`)
}

func TestValidateRequestDepositBounds(t *testing.T) {
	c := qt.New(t)

	req := validDepositRequest()
	req.ExtData.ExtAmount = bi(999_999)
	err := ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: deposit below the minimum of 1000000 lamports`)

	req = validDepositRequest()
	req.ExtData.ExtAmount = bi(2_000_000_000_000)
	err = ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: deposit above the maximum of 1000000000000 lamports`)

	// token deposits are not lamport-bounded
	req = validDepositRequest()
	req.Inputs[0].MintAddress = testRecipient
	req.ExtData.ExtAmount = bi(10)
	c.Assert(ValidateRequest(req), qt.IsNil)

	req = validDepositRequest()
	req.ExtData.ExtAmount = bi(-5)
	err = ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: deposit extAmount must be positive`)
}

func TestValidateRequestWithdrawal(t *testing.T) {
	c := qt.New(t)

	req := validDepositRequest()
	req.Operation = "withdraw"
	req.ExtData.ExtAmount = bi(-1_000_000)
	c.Assert(ValidateRequest(req), qt.IsNil)

	req.ExtData.ExtAmount = bi(1_000_000)
	err := ValidateRequest(req)
	c.Assert(err, qt.ErrorMatches, `validation: withdrawal extAmount must be negative`)
}

func TestBuildAssembly(t *testing.T) {
	c := qt.New(t)
	h := poseidon.NewNative()
	req := validDepositRequest()

	assembly, err := buildAssembly(h, req)
	c.Assert(err, qt.IsNil)
	c.Assert(assembly.Inputs, qt.HasLen, 1)
	c.Assert(assembly.Outputs, qt.HasLen, 1)
	c.Assert(assembly.Root.String(), qt.Equals, "111222333")

	input, err := circuits.BuildInputs(h, assembly)
	c.Assert(err, qt.IsNil)
	c.Assert(input.PublicAmount, qt.Equals, "1500000000")
	c.Assert(input.InputNullifier, qt.HasLen, types.NInputs)
	c.Assert(input.OutputCommitment, qt.HasLen, types.NOutputs)

	req.InputMerklePaths = [][]string{{"0", "not-decimal"}}
	_, err = buildAssembly(h, req)
	c.Assert(err, qt.ErrorMatches, `merkle path 0 level 1: .*`)
}

func TestProveStageOrdering(t *testing.T) {
	c := qt.New(t)
	svc := New(Config{Artifacts: testArtifactSet(t)})

	// validation failures stop the pipeline before artifacts load
	req := validDepositRequest()
	req.UtxoPrivateKey = nil
	_, err := svc.Prove(context.Background(), req)
	c.Assert(FailedStage(err), qt.Equals, StageValidation)

	// a client publicAmount that disagrees with ours is rejected
	// before proving
	req = validDepositRequest()
	req.PublicAmount = "42"
	_, err = svc.Prove(context.Background(), req)
	c.Assert(FailedStage(err), qt.Equals, StageValidation)
	c.Assert(err, qt.ErrorMatches, `validation: publicAmount mismatch.*`)

	// with a hollow wasm artifact the failure surfaces at the proving
	// stage, after every earlier stage passed
	req = validDepositRequest()
	_, err = svc.Prove(context.Background(), req)
	c.Assert(FailedStage(err), qt.Equals, StageProving)
}

func TestProveArtifactStage(t *testing.T) {
	c := qt.New(t)
	missing := filepath.Join(t.TempDir(), "nope.wasm")
	svc := New(Config{Artifacts: circuits.NewArtifactSet(
		&circuits.Artifact{Name: "nope.wasm", LocalPaths: []string{missing}, WasmHeader: true},
		&circuits.Artifact{Name: "nope.zkey", LocalPaths: []string{missing}},
	)})

	_, err := svc.Prove(context.Background(), validDepositRequest())
	c.Assert(FailedStage(err), qt.Equals, StageArtifacts)
}

func TestHasherSingleton(t *testing.T) {
	c := qt.New(t)

	calls := 0
	svc := New(Config{NewHasher: func() (poseidon.Hasher, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("backend unavailable")
		}
		return poseidon.NewNative(), nil
	}})

	// first init fails and is not cached
	_, err := svc.Hasher()
	c.Assert(FailedStage(err), qt.Equals, StageHashInit)

	// retry re-initializes, then the instance is reused
	h1, err := svc.Hasher()
	c.Assert(err, qt.IsNil)
	h2, err := svc.Hasher()
	c.Assert(err, qt.IsNil)
	c.Assert(h1, qt.Equals, h2)
	c.Assert(calls, qt.Equals, 2)
}
