package ledger

import (
	"errors"
	"fmt"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
)

// Submission stages reported by TxSubmissionError
const (
	StageAccount   = "account"
	StagePrepare   = "prepare"
	StageSign      = "sign"
	StageSend      = "send"
	StageExecution = "execution"
)

// SimulationError means a read-only call produced no decodable result. It
// usually means the record does not exist on the ledger.
type SimulationError struct {
	ContractID string
	Method     string
	Reason     string
}

func (e *SimulationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("simulation of %s on %s returned no result", e.Method, e.ContractID)
	}
	return fmt.Sprintf("simulation of %s on %s failed: %s", e.Method, e.ContractID, e.Reason)
}

// TxSubmissionError means the network rejected the transaction outright, or
// executed it and reported failure. It is never retried automatically.
type TxSubmissionError struct {
	Stage  string
	Method string
	Hash   string
	Status string
	Detail string
	Err    error
}

func (e *TxSubmissionError) Error() string {
	msg := fmt.Sprintf("%s transaction rejected at %s stage", e.Method, e.Stage)
	if e.Status != "" {
		msg += " with status " + e.Status
	}
	if e.Hash != "" {
		msg += " (hash " + e.Hash + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TxSubmissionError) Unwrap() error {
	return e.Err
}

// TxTimeoutError means polling ended before a terminal status was observed.
// The outcome is unknown: the transaction may still confirm.
type TxTimeoutError struct {
	Method   string
	Hash     string
	Attempts int
	Err      error
}

func (e *TxTimeoutError) Error() string {
	msg := fmt.Sprintf("%s transaction %s not confirmed after %d status checks", e.Method, e.Hash, e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TxTimeoutError) Unwrap() error {
	return e.Err
}

// IsSimulationError reports whether err wraps a SimulationError
func IsSimulationError(err error) bool {
	var simErr *SimulationError
	return errors.As(err, &simErr)
}

// TimeoutHash returns the pending hash carried by a TxTimeoutError
func TimeoutHash(err error) (string, bool) {
	var timeoutErr *TxTimeoutError
	if errors.As(err, &timeoutErr) && timeoutErr.Hash != "" {
		return timeoutErr.Hash, true
	}
	return "", false
}

// ToDomainError converts ledger errors into domain errors carrying a
// human-readable cause. Other errors are returned unchanged.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	var (
		simErr     *SimulationError
		submitErr  *TxSubmissionError
		timeoutErr *TxTimeoutError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return shared.NewDomainError(shared.CodeLedgerTimeout,
			fmt.Sprintf("Ledger did not confirm transaction %s in time; it may still succeed, reconcile before retrying", timeoutErr.Hash))
	case errors.As(err, &submitErr):
		return shared.NewDomainError(shared.CodeSubmissionFailed, submitErr.Error())
	case errors.As(err, &simErr):
		return shared.NewDomainError(shared.CodeSimulationFailed, simErr.Error())
	}
	return err
}

// NotFoundOnSimulation turns a SimulationError into shared.ErrNotFound with
// the given message and converts everything else with ToDomainError
func NotFoundOnSimulation(err error, message string) error {
	if IsSimulationError(err) {
		return shared.ErrNotFound.WithMessage(message)
	}
	return ToDomainError(err)
}
