package soroban

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "github.com/RobertoIsraelFloresReza/BLOKI-sub001/soroban"

// Invocation is one encoded contract call: (contractId, method, args...)
type Invocation struct {
	ContractID string
	Method     string
	Args       []xdr.ScVal
	address    xdr.ScAddress
}

// operation builds a fresh InvokeHostFunction operation for the call.
// A new value is returned on every call because preparing mutates it.
func (inv Invocation) operation() *txnbuild.InvokeHostFunction {
	args := make([]xdr.ScVal, len(inv.Args))
	copy(args, inv.Args)
	return &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: inv.address,
				FunctionName:    xdr.ScSymbol(inv.Method),
				Args:            args,
			},
		},
	}
}

// Observer receives ledger call measurements
type Observer interface {
	ObserveSubmission(ctx context.Context, method, outcome string, attempts int, elapsed time.Duration)
	ObserveSimulation(ctx context.Context, method, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(context.Context, string, string, int, time.Duration) {}
func (nopObserver) ObserveSimulation(context.Context, string, string)                   {}

// Adapter encodes contract calls and runs read-only simulations
type Adapter struct {
	rpc      RPC
	cfg      Config
	logger   *zap.Logger
	observer Observer
}

// NewAdapter creates an Adapter
func NewAdapter(rpc RPC, cfg Config, logger *zap.Logger) *Adapter {
	return &Adapter{
		rpc:      rpc,
		cfg:      cfg,
		logger:   logger.Named("soroban-adapter"),
		observer: nopObserver{},
	}
}

// SetObserver installs a metrics observer
func (a *Adapter) SetObserver(o Observer) {
	if o != nil {
		a.observer = o
	}
}

// EncodeCall validates the contract id and packs the call
func (a *Adapter) EncodeCall(contractID, method string, args ...xdr.ScVal) (Invocation, error) {
	if contractID == "" {
		return Invocation{}, fmt.Errorf("soroban: contract id is empty for %s", method)
	}
	if method == "" {
		return Invocation{}, fmt.Errorf("soroban: method name is empty")
	}
	address, err := ParseScAddress(contractID)
	if err != nil {
		return Invocation{}, err
	}
	if address.Type != xdr.ScAddressTypeScAddressTypeContract {
		return Invocation{}, fmt.Errorf("soroban: %s is not a contract address", contractID)
	}
	return Invocation{
		ContractID: contractID,
		Method:     method,
		Args:       args,
		address:    address,
	}, nil
}

// buildTransaction assembles an envelope for source at sequence seq.
// NewTransaction increments the account sequence, so each build gets its own
// SimpleAccount.
func (a *Adapter) buildTransaction(source string, seq int64, baseFee int64, op *txnbuild.InvokeHostFunction) (*txnbuild.Transaction, error) {
	timeout := int64(a.cfg.TxTimeout / time.Second)
	if timeout <= 0 {
		timeout = 300
	}
	if baseFee < txnbuild.MinBaseFee {
		baseFee = txnbuild.MinBaseFee
	}
	account := &txnbuild.SimpleAccount{AccountID: source, Sequence: seq}
	return txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        account,
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              baseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(timeout),
		},
	})
}

// prepare simulates an envelope and applies the footprint, resource data and
// authorization entries the network returned. It returns the rebuilt
// transaction and the raw simulation response.
func (a *Adapter) prepare(ctx context.Context, source string, seq int64, inv Invocation) (*txnbuild.Transaction, *SimulateTransactionResponse, error) {
	op := inv.operation()
	draft, err := a.buildTransaction(source, seq, a.cfg.BaseFee, op)
	if err != nil {
		return nil, nil, fmt.Errorf("soroban: build %s: %w", inv.Method, err)
	}
	envelope, err := draft.Base64()
	if err != nil {
		return nil, nil, fmt.Errorf("soroban: encode %s: %w", inv.Method, err)
	}

	sim, err := a.rpc.SimulateTransaction(ctx, envelope)
	if err != nil {
		return nil, nil, err
	}
	if sim.Error != "" {
		return nil, sim, errors.New(sim.Error)
	}

	var sorobanData xdr.SorobanTransactionData
	if err := xdr.SafeUnmarshalBase64(sim.TransactionData, &sorobanData); err != nil {
		return nil, sim, fmt.Errorf("soroban: decode transaction data: %w", err)
	}

	prepared := inv.operation()
	prepared.Ext = xdr.TransactionExt{V: 1, SorobanData: &sorobanData}
	if len(sim.Results) > 0 {
		for _, rawAuth := range sim.Results[0].Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(rawAuth, &entry); err != nil {
				return nil, sim, fmt.Errorf("soroban: decode auth entry: %w", err)
			}
			prepared.Auth = append(prepared.Auth, entry)
		}
	}

	tx, err := a.buildTransaction(source, seq, a.cfg.BaseFee+sim.MinResourceFee, prepared)
	if err != nil {
		return nil, sim, fmt.Errorf("soroban: rebuild %s: %w", inv.Method, err)
	}
	return tx, sim, nil
}

// Simulate runs a read-only call from the throwaway account and decodes the
// return value. A call that returns nothing fails with ledger.SimulationError.
func (a *Adapter) Simulate(ctx context.Context, inv Invocation) (xdr.ScVal, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "soroban.simulate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.contract", inv.ContractID),
		attribute.String("ledger.method", inv.Method),
	)

	seq, err := a.rpc.GetAccountSequence(ctx, ThrowawayAccount)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		a.observer.ObserveSimulation(ctx, inv.Method, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return xdr.ScVal{}, err
	}

	tx, err := a.buildTransaction(ThrowawayAccount, seq, a.cfg.BaseFee, inv.operation())
	if err != nil {
		return xdr.ScVal{}, fmt.Errorf("soroban: build %s: %w", inv.Method, err)
	}
	envelope, err := tx.Base64()
	if err != nil {
		return xdr.ScVal{}, fmt.Errorf("soroban: encode %s: %w", inv.Method, err)
	}

	sim, err := a.rpc.SimulateTransaction(ctx, envelope)
	if err != nil {
		a.observer.ObserveSimulation(ctx, inv.Method, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return xdr.ScVal{}, err
	}

	if sim.Error != "" || len(sim.Results) == 0 || sim.Results[0].XDR == "" {
		simErr := &ledger.SimulationError{
			ContractID: inv.ContractID,
			Method:     inv.Method,
			Reason:     sim.Error,
		}
		a.observer.ObserveSimulation(ctx, inv.Method, "empty")
		a.logger.Debug("simulation returned no value",
			zap.String("contract", inv.ContractID),
			zap.String("method", inv.Method),
			zap.String("reason", sim.Error),
		)
		span.SetStatus(codes.Error, simErr.Error())
		return xdr.ScVal{}, simErr
	}

	var result xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(sim.Results[0].XDR, &result); err != nil {
		a.observer.ObserveSimulation(ctx, inv.Method, "error")
		return xdr.ScVal{}, &ledger.SimulationError{
			ContractID: inv.ContractID,
			Method:     inv.Method,
			Reason:     "undecodable return value: " + err.Error(),
		}
	}
	if result.Type == xdr.ScValTypeScvVoid {
		a.observer.ObserveSimulation(ctx, inv.Method, "empty")
		return xdr.ScVal{}, &ledger.SimulationError{ContractID: inv.ContractID, Method: inv.Method}
	}

	a.observer.ObserveSimulation(ctx, inv.Method, "ok")
	return result, nil
}
