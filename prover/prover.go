package prover

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	rsprover "github.com/iden3/go-rapidsnark/prover"
	rapidsnark "github.com/iden3/go-rapidsnark/types"
	"github.com/iden3/go-rapidsnark/witness"
	"github.com/spectre-protocol/spectre-shield/circuits"
	"github.com/spectre-protocol/spectre-shield/crypto/ff"
	"github.com/spectre-protocol/spectre-shield/log"
)

// Output is the result of one proving run: the parsed proof, the
// circuit's public signals in emission order and the raw prover JSON
// for external verification tools.
type Output struct {
	Proof            *Proof
	PublicSignals    []*big.Int
	RawProof         string
	RawPublicSignals string
}

// Groth16Prove computes the witness for the given circuit input and
// produces a Groth16 proof with the proving key. The circuit input is
// used for the single witness computation and not retained. The context
// is honored up to the point proving starts; the rapidsnark call itself
// cannot be cancelled.
func Groth16Prove(ctx context.Context, wasmBytes, provingKey []byte, input *circuits.CircuitInput) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(wasmBytes) == 0 {
		return nil, fmt.Errorf("missing witness generator")
	}
	if len(provingKey) == 0 {
		return nil, fmt.Errorf("missing proving key")
	}
	if input == nil {
		return nil, fmt.Errorf("missing circuit input")
	}
	encoded, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("cannot encode circuit input: %w", err)
	}
	parsedInputs, err := witness.ParseInputs(encoded)
	if err != nil {
		return nil, fmt.Errorf("cannot parse circuit input: %w", err)
	}
	calc, err := witness.NewCircom2WitnessCalculator(wasmBytes, true)
	if err != nil {
		return nil, fmt.Errorf("cannot instance witness calculator: %w", err)
	}
	start := time.Now()
	wtns, err := calc.CalculateWTNSBin(parsedInputs, true)
	if err != nil {
		return nil, fmt.Errorf("cannot calculate witness: %w", err)
	}
	log.Debugw("witness calculated", "took", time.Since(start).String())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	proofJSON, pubSignalsJSON, err := rsprover.Groth16ProverRaw(provingKey, wtns)
	if err != nil {
		return nil, fmt.Errorf("cannot generate proof: %w", err)
	}
	log.Debugw("proof generated", "took", time.Since(start).String())

	var proofData rapidsnark.ProofData
	if err := json.Unmarshal([]byte(proofJSON), &proofData); err != nil {
		return nil, fmt.Errorf("cannot decode proof: %w", err)
	}
	proof, err := ProofFromRapidsnark(&proofData)
	if err != nil {
		return nil, err
	}
	signals, err := parsePublicSignals(pubSignalsJSON)
	if err != nil {
		return nil, err
	}
	return &Output{
		Proof:            proof,
		PublicSignals:    signals,
		RawProof:         proofJSON,
		RawPublicSignals: pubSignalsJSON,
	}, nil
}

// Format renders the output into the on-chain byte layout.
func (o *Output) Format() (*ProofBytes, [][32]byte, error) {
	pb, err := FormatProof(o.Proof)
	if err != nil {
		return nil, nil, err
	}
	signals, err := FormatPublicSignals(o.PublicSignals)
	if err != nil {
		return nil, nil, err
	}
	return pb, signals, nil
}

func parsePublicSignals(raw string) ([]*big.Int, error) {
	var decimals []string
	if err := json.Unmarshal([]byte(raw), &decimals); err != nil {
		return nil, fmt.Errorf("cannot decode public signals: %w", err)
	}
	signals := make([]*big.Int, len(decimals))
	for i, s := range decimals {
		v, err := ff.ParseDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("public signal %d: %w", i, err)
		}
		signals[i] = v
	}
	return signals, nil
}
