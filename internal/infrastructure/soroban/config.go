package soroban

import "time"

// ThrowawayAccount is the all-zero account used as the source of read-only
// simulations. It never signs anything.
const ThrowawayAccount = "GAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAWHF"

// Config holds the settings for talking to the ledger RPC endpoint
type Config struct {
	RPCURL            string
	NetworkPassphrase string
	// BaseFee is the inclusion fee bid in stroops before resource fees are added
	BaseFee int64
	// TxTimeout bounds the validity window of every envelope
	TxTimeout time.Duration
	// PollInterval is the pause between two getTransaction calls
	PollInterval time.Duration
	// PollAttempts is how many getTransaction calls are made before giving up
	PollAttempts int
	// RequestTimeout bounds a single RPC round trip
	RequestTimeout time.Duration
	// RequestsPerSecond throttles outgoing RPC calls; 0 disables throttling
	RequestsPerSecond float64
	Burst             int
}

// ContractsConfig names the deployed contracts the coordinator calls
type ContractsConfig struct {
	Marketplace string
	Escrow      string
	USDC        string
	// ApprovalExpirationLedger is the ledger sequence at which a payment
	// allowance granted to the marketplace expires
	ApprovalExpirationLedger uint32
}

// DefaultConfig returns the values the marketplace runs with on testnet
func DefaultConfig() Config {
	return Config{
		RPCURL:            "https://soroban-testnet.stellar.org",
		NetworkPassphrase: "Test SDF Network ; September 2015",
		BaseFee:           1000000,
		TxTimeout:         300 * time.Second,
		PollInterval:      time.Second,
		PollAttempts:      30,
		RequestTimeout:    30 * time.Second,
		RequestsPerSecond: 20,
		Burst:             40,
	}
}

// DefaultApprovalExpirationLedger is roughly one year of ledgers at 6s each
const DefaultApprovalExpirationLedger uint32 = 5256000
