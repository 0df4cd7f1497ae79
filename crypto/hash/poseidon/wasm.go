package poseidon

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/iden3/go-rapidsnark/witness"
)

// Wasm evaluates Poseidon through a circom-generated witness
// calculator, the same module the browser hasher executes. The circuit
// takes a fixed-arity "inputs" signal and exposes the digest as its
// single public output, so the hash is the first witness element after
// the constant wire.
//
// Construction pays the one-time WASM instantiation cost; the instance
// is reusable afterwards. The calculator itself is not reentrant, so
// calls are serialized with a mutex.
type Wasm struct {
	mu    sync.Mutex
	calc  *witness.Circom2WitnessCalculator
	arity int
}

// NewWasm instantiates the calculator from the module bytes. arity is
// the circuit's fixed input width; hashing any other width is an
// error, since a circom Poseidon of different arity is a different
// function.
func NewWasm(wasmBytes []byte, arity int) (*Wasm, error) {
	if arity <= 0 || arity > chunkSize {
		return nil, fmt.Errorf("unsupported poseidon arity %d", arity)
	}
	calc, err := witness.NewCircom2WitnessCalculator(wasmBytes, true)
	if err != nil {
		return nil, fmt.Errorf("cannot instantiate poseidon wasm module: %w", err)
	}
	return &Wasm{calc: calc, arity: arity}, nil
}

// Hash computes Poseidon over exactly w.arity inputs.
func (w *Wasm) Hash(inputs []*big.Int) (*big.Int, error) {
	if len(inputs) != w.arity {
		return nil, fmt.Errorf("poseidon wasm module expects %d inputs, got %d", w.arity, len(inputs))
	}
	signals := make([]interface{}, len(inputs))
	for i, v := range inputs {
		signals[i] = v
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	wtns, err := w.calc.CalculateWitness(map[string]interface{}{
		"inputs": signals,
	}, true)
	if err != nil {
		return nil, fmt.Errorf("poseidon wasm witness calculation failed: %w", err)
	}
	if len(wtns) < 2 {
		return nil, fmt.Errorf("poseidon wasm witness too short: %d elements", len(wtns))
	}
	// wtns[0] is the constant 1 wire, wtns[1] the public output
	return wtns[1], nil
}
