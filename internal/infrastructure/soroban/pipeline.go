package soroban

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/logger"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Submission outcomes reported to the Observer
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
)

// SubmitResult is a confirmed transaction with its decoded return value
type SubmitResult struct {
	Hash        string
	Ledger      uint32
	ReturnValue *xdr.ScVal
}

// Pipeline signs, submits and polls contract calls
type Pipeline struct {
	rpc     RPC
	adapter *Adapter
	cfg     Config
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewPipeline creates a Pipeline sharing the adapter's RPC client and config
func NewPipeline(adapter *Adapter, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		rpc:     adapter.rpc,
		adapter: adapter,
		cfg:     adapter.cfg,
		logger:  logger.Named("soroban-pipeline"),
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) pollAttempts() int {
	if p.cfg.PollAttempts <= 0 {
		return 30
	}
	return p.cfg.PollAttempts
}

func (p *Pipeline) pollInterval() time.Duration {
	if p.cfg.PollInterval <= 0 {
		return time.Second
	}
	return p.cfg.PollInterval
}

// Submit runs one contract call signed by signerSecret through
// account fetch, prepare, sign, send and confirmation polling.
//
// The secret is only parsed into a keypair on this stack; it is never
// logged or stored. A rejected envelope is not resent: a retry needs a new
// sequence number and therefore a new call to Submit.
func (p *Pipeline) Submit(ctx context.Context, signerSecret string, inv Invocation) (*SubmitResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "soroban.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.contract", inv.ContractID),
		attribute.String("ledger.method", inv.Method),
	)

	start := time.Now()
	result, attempts, err := p.submit(ctx, signerSecret, inv)

	outcome := OutcomeSuccess
	var (
		submitErr  *ledger.TxSubmissionError
		timeoutErr *ledger.TxTimeoutError
	)
	switch {
	case errors.As(err, &timeoutErr):
		outcome = OutcomeTimeout
	case errors.As(err, &submitErr) && submitErr.Stage == ledger.StageExecution:
		outcome = OutcomeFailed
	case err != nil:
		outcome = OutcomeRejected
	}
	p.adapter.observer.ObserveSubmission(ctx, inv.Method, outcome, attempts, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("ledger.tx_hash", result.Hash))
	return result, nil
}

func (p *Pipeline) submit(ctx context.Context, signerSecret string, inv Invocation) (*SubmitResult, int, error) {
	kp, err := keypair.ParseFull(signerSecret)
	if err != nil {
		p.logger.Warn("unparsable signer key", zap.String("method", inv.Method), logger.Secret("signer", signerSecret))
		return nil, 0, &ledger.TxSubmissionError{Stage: ledger.StageSign, Method: inv.Method, Detail: "invalid secret key"}
	}
	source := kp.Address()

	seq, err := p.rpc.GetAccountSequence(ctx, source)
	if err != nil {
		return nil, 0, &ledger.TxSubmissionError{Stage: ledger.StageAccount, Method: inv.Method, Err: err}
	}

	tx, _, err := p.adapter.prepare(ctx, source, seq, inv)
	if err != nil {
		return nil, 0, &ledger.TxSubmissionError{Stage: ledger.StagePrepare, Method: inv.Method, Err: err}
	}

	tx, err = tx.Sign(p.cfg.NetworkPassphrase, kp)
	if err != nil {
		return nil, 0, &ledger.TxSubmissionError{Stage: ledger.StageSign, Method: inv.Method, Err: err}
	}
	envelope, err := tx.Base64()
	if err != nil {
		return nil, 0, &ledger.TxSubmissionError{Stage: ledger.StageSign, Method: inv.Method, Err: err}
	}

	sent, err := p.rpc.SendTransaction(ctx, envelope)
	if err != nil {
		return nil, 0, &ledger.TxSubmissionError{Stage: ledger.StageSend, Method: inv.Method, Err: err}
	}
	switch sent.Status {
	case SendStatusPending, SendStatusDuplicate:
	default:
		return nil, 0, &ledger.TxSubmissionError{
			Stage:  ledger.StageSend,
			Method: inv.Method,
			Hash:   sent.Hash,
			Status: sent.Status,
			Detail: sent.ErrorResultXDR,
		}
	}

	p.logger.Info("transaction submitted",
		zap.String("method", inv.Method),
		zap.String("contract", inv.ContractID),
		logger.Address("source", source),
		logger.TxHash(sent.Hash),
	)

	return p.await(ctx, inv.Method, sent.Hash)
}

// await polls getTransaction until a terminal status or the attempt budget
// runs out
func (p *Pipeline) await(ctx context.Context, method, hash string) (*SubmitResult, int, error) {
	maxAttempts := p.pollAttempts()
	interval := p.pollInterval()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := p.sleep(ctx, interval); err != nil {
			return nil, attempt - 1, &ledger.TxTimeoutError{Method: method, Hash: hash, Attempts: attempt - 1, Err: err}
		}

		resp, err := p.rpc.GetTransaction(ctx, hash)
		if err != nil {
			// A failed status check says nothing about the transaction itself
			p.logger.Warn("status check failed",
				logger.TxHash(hash),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		switch ledger.TxStatus(resp.Status) {
		case ledger.TxStatusSuccess:
			result := &SubmitResult{Hash: hash, Ledger: resp.Ledger}
			rv, err := decodeReturnValue(resp)
			if err != nil {
				p.logger.Warn("could not decode return value", logger.TxHash(hash), zap.Error(err))
			}
			result.ReturnValue = rv
			p.logger.Info("transaction confirmed",
				zap.String("method", method),
				logger.TxHash(hash),
				zap.Uint32("ledger", resp.Ledger),
				zap.Int("attempts", attempt),
			)
			return result, attempt, nil
		case ledger.TxStatusNotFound:
			continue
		default:
			return nil, attempt, &ledger.TxSubmissionError{
				Stage:  ledger.StageExecution,
				Method: method,
				Hash:   hash,
				Status: resp.Status,
				Detail: resp.ResultXDR,
			}
		}
	}

	p.logger.Warn("transaction not confirmed within poll budget",
		zap.String("method", method),
		logger.TxHash(hash),
		zap.Int("attempts", maxAttempts),
	)
	return nil, maxAttempts, &ledger.TxTimeoutError{Method: method, Hash: hash, Attempts: maxAttempts}
}

// TransactionStatus performs one status check for hash. A u64 return value
// is decoded into Outcome.ResultID.
func (p *Pipeline) TransactionStatus(ctx context.Context, hash string) (*ledger.Outcome, error) {
	resp, err := p.rpc.GetTransaction(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("soroban: status of %s: %w", hash, err)
	}
	outcome := &ledger.Outcome{
		TxHash: hash,
		Status: ledger.TxStatus(resp.Status),
		Ledger: resp.Ledger,
	}
	if outcome.Status == ledger.TxStatusSuccess {
		if rv, err := decodeReturnValue(resp); err == nil && rv != nil {
			if id, err := DecodeU64(*rv); err == nil {
				outcome.ResultID = &id
			}
		}
	}
	return outcome, nil
}

// decodeReturnValue extracts the contract's return value from a successful
// getTransaction response. Servers that do not fill returnValue are handled
// by reading the Soroban section of the transaction meta.
func decodeReturnValue(resp *GetTransactionResponse) (*xdr.ScVal, error) {
	if resp.ReturnValue != "" {
		var rv xdr.ScVal
		if err := xdr.SafeUnmarshalBase64(resp.ReturnValue, &rv); err != nil {
			return nil, fmt.Errorf("decode returnValue: %w", err)
		}
		return &rv, nil
	}
	if resp.ResultMetaXDR == "" {
		return nil, nil
	}
	var meta xdr.TransactionMeta
	if err := xdr.SafeUnmarshalBase64(resp.ResultMetaXDR, &meta); err != nil {
		return nil, fmt.Errorf("decode result meta: %w", err)
	}
	if meta.V3 == nil || meta.V3.SorobanMeta == nil {
		return nil, nil
	}
	rv := meta.V3.SorobanMeta.ReturnValue
	if rv.Type == xdr.ScValTypeScvVoid {
		return nil, nil
	}
	return &rv, nil
}

var _ ledger.StatusChecker = (*Pipeline)(nil)
