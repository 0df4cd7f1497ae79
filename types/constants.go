package types

const (
	// MerkleTreeLevels is the depth of the on-chain commitment tree.
	// Inclusion paths fed to the circuit carry exactly this many
	// sibling hashes.
	MerkleTreeLevels = 26
	// NInputs is the fixed number of input notes per transaction in
	// the circuit. Unused slots are filled with dummy notes.
	NInputs = 2
	// NOutputs is the fixed number of output notes per transaction.
	NOutputs = 2
	// NativeMint is the sentinel mint address of the native asset
	// (the system program address). Its base58 form is also a valid
	// decimal number, which is how it enters the circuit unmodified.
	NativeMint = "11111111111111111111111111111111"
	// LamportsPerSol is the number of smallest units per native token.
	LamportsPerSol = 1_000_000_000
	// MinDepositLamports is the minimum shield amount accepted by the
	// on-chain program (0.001 SOL).
	MinDepositLamports = 1_000_000
	// MaxDepositLamports is the maximum shield amount (1000 SOL).
	MaxDepositLamports = 1_000_000_000_000
)
