package prover

import (
	"encoding/json"
	"fmt"

	rapidsnark "github.com/iden3/go-rapidsnark/types"
	"github.com/iden3/go-rapidsnark/verifier"
	"github.com/vocdoni/circom2gnark/parser"
)

// Verify checks a raw proof against a snarkjs-style verification key
// using the rapidsnark verifier.
func Verify(verificationKey []byte, o *Output) error {
	if o == nil {
		return fmt.Errorf("nil proving output")
	}
	var proofData rapidsnark.ProofData
	if err := json.Unmarshal([]byte(o.RawProof), &proofData); err != nil {
		return fmt.Errorf("cannot decode proof: %w", err)
	}
	var pubSignals []string
	if err := json.Unmarshal([]byte(o.RawPublicSignals), &pubSignals); err != nil {
		return fmt.Errorf("cannot decode public signals: %w", err)
	}
	return verifier.VerifyGroth16(rapidsnark.ZKProof{
		Proof:      &proofData,
		PubSignals: pubSignals,
	}, verificationKey)
}

// VerifyWithGnark converts the circom proof to the gnark format and
// verifies it there, as an independent cross-check of the rapidsnark
// verifier.
func VerifyWithGnark(verificationKey []byte, o *Output) error {
	if o == nil {
		return fmt.Errorf("nil proving output")
	}
	proofData, err := parser.UnmarshalCircomProofJSON([]byte(o.RawProof))
	if err != nil {
		return fmt.Errorf("cannot parse proof: %w", err)
	}
	pubSignals, err := parser.UnmarshalCircomPublicSignalsJSON([]byte(o.RawPublicSignals))
	if err != nil {
		return fmt.Errorf("cannot parse public signals: %w", err)
	}
	vkey, err := parser.UnmarshalCircomVerificationKeyJSON(verificationKey)
	if err != nil {
		return fmt.Errorf("cannot parse verification key: %w", err)
	}
	gnarkProof, err := parser.ConvertCircomToGnark(proofData, vkey, pubSignals)
	if err != nil {
		return fmt.Errorf("cannot convert proof to gnark format: %w", err)
	}
	if ok, err := parser.VerifyProof(gnarkProof); !ok || err != nil {
		return fmt.Errorf("proof verification failed: %v", err)
	}
	return nil
}
