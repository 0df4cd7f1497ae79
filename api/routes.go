package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// ProofsEndpoint is the endpoint for generating a proof
	ProofsEndpoint = "/proofs"
	// NotesEndpoint is the endpoint for listing and storing notes
	NotesEndpoint = "/notes"
	// CommitmentURLParam is the URL parameter carrying a note commitment
	CommitmentURLParam = "commitment"
	// NoteSpentEndpoint is the endpoint for marking a note spent
	NoteSpentEndpoint = "/notes/{" + CommitmentURLParam + "}/spent"
	// TreeRootEndpoint is the endpoint for the local commitment tree
	// root and size
	TreeRootEndpoint = "/tree/root"
	// LeafIndexURLParam is the URL parameter carrying a tree leaf index
	LeafIndexURLParam = "index"
	// TreeProofEndpoint is the endpoint for the inclusion path of a
	// leaf in the local commitment tree
	TreeProofEndpoint = "/tree/proof/{" + LeafIndexURLParam + "}"
	// PendingWithdrawalsEndpoint is the endpoint for listing the
	// withdrawal requests not yet finalized
	PendingWithdrawalsEndpoint = "/withdrawals/pending"
	// WithdrawalURLParam is the URL parameter carrying a withdrawal
	// request account address
	WithdrawalURLParam = "pda"
	// WithdrawalCompleteEndpoint is the endpoint for finalizing a
	// withdrawal request
	WithdrawalCompleteEndpoint = "/withdrawals/{" + WithdrawalURLParam + "}/complete"
)
