package logger

import (
	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

// TxHash tags a log line with a ledger transaction hash
func TxHash(hash string) zap.Field {
	return zap.String("tx_hash", hash)
}

// Address tags a log line with a public ledger address
func Address(key, address string) zap.Field {
	return zap.String(key, address)
}

// Secret logs a placeholder in place of a signing secret. Secrets are
// request-scoped inputs and never reach a log sink.
func Secret(key string, _ string) zap.Field {
	return zap.String(key, redacted)
}

// Amount tags a log line with a human-unit token amount
func Amount(key string, amount interface{ String() string }) zap.Field {
	return zap.Stringer(key, amount)
}
