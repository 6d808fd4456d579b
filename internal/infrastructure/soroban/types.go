package soroban

// GetLedgerEntriesResponse is the result of getLedgerEntries
type GetLedgerEntriesResponse struct {
	Entries      []LedgerEntryResult `json:"entries"`
	LatestLedger uint32              `json:"latestLedger"`
}

// LedgerEntryResult is one entry of getLedgerEntries
type LedgerEntryResult struct {
	Key                   string `json:"key"`
	XDR                   string `json:"xdr"`
	LastModifiedLedgerSeq uint32 `json:"lastModifiedLedgerSeq"`
}

// SimulateHostFunctionResult is one invocation result of simulateTransaction
type SimulateHostFunctionResult struct {
	Auth []string `json:"auth"`
	XDR  string   `json:"xdr"`
}

// SimulateTransactionResponse is the result of simulateTransaction
type SimulateTransactionResponse struct {
	Error           string                       `json:"error,omitempty"`
	TransactionData string                       `json:"transactionData"`
	MinResourceFee  int64                        `json:"minResourceFee,string"`
	Results         []SimulateHostFunctionResult `json:"results,omitempty"`
	LatestLedger    uint32                       `json:"latestLedger"`
}

// Send statuses returned by sendTransaction
const (
	SendStatusPending       = "PENDING"
	SendStatusDuplicate     = "DUPLICATE"
	SendStatusTryAgainLater = "TRY_AGAIN_LATER"
	SendStatusError         = "ERROR"
)

// SendTransactionResponse is the result of sendTransaction
type SendTransactionResponse struct {
	Status         string `json:"status"`
	Hash           string `json:"hash"`
	ErrorResultXDR string `json:"errorResultXdr,omitempty"`
	LatestLedger   uint32 `json:"latestLedger"`
}

// GetTransactionResponse is the result of getTransaction
type GetTransactionResponse struct {
	Status        string `json:"status"`
	Ledger        uint32 `json:"ledger,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	ResultXDR     string `json:"resultXdr,omitempty"`
	ResultMetaXDR string `json:"resultMetaXdr,omitempty"`
	// ReturnValue is filled by servers that decode it themselves
	ReturnValue  string `json:"returnValue,omitempty"`
	LatestLedger uint32 `json:"latestLedger"`
}

// GetLatestLedgerResponse is the result of getLatestLedger
type GetLatestLedgerResponse struct {
	ID              string `json:"id"`
	ProtocolVersion int    `json:"protocolVersion"`
	Sequence        uint32 `json:"sequence"`
}
