package soroban

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/stellar/go/xdr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxRPCResponseSize = 8 << 20

// ErrAccountNotFound is returned when the ledger has no entry for an account
var ErrAccountNotFound = errors.New("soroban: account not found")

// RPC is the subset of the Soroban JSON-RPC surface the coordinator uses
type RPC interface {
	GetAccountSequence(ctx context.Context, address string) (int64, error)
	SimulateTransaction(ctx context.Context, envelope string) (*SimulateTransactionResponse, error)
	SendTransaction(ctx context.Context, envelope string) (*SendTransactionResponse, error)
	GetTransaction(ctx context.Context, hash string) (*GetTransactionResponse, error)
	GetLatestLedger(ctx context.Context) (*GetLatestLedgerResponse, error)
}

// RPCError is a JSON-RPC level error object
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("soroban rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Client is a JSON-RPC 2.0 client for a Soroban RPC server
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	nextID     atomic.Uint64
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for cfg.RPCURL
func NewClient(cfg Config, logger *zap.Logger, opts ...ClientOption) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	c := &Client{
		url:        cfg.RPCURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.Named("soroban-rpc"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("soroban: rate limiter: %w", err)
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("soroban: failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("soroban: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("soroban: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRPCResponseSize))
	if err != nil {
		return fmt.Errorf("soroban: failed to read %s response: %w", method, err)
	}

	c.logger.Debug("rpc call",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("soroban: %s returned HTTP %d", method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("soroban: failed to decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("soroban: failed to decode %s result: %w", method, err)
	}
	return nil
}

// GetAccountSequence fetches the current sequence number of an account
// through getLedgerEntries
func (c *Client) GetAccountSequence(ctx context.Context, address string) (int64, error) {
	accountID, err := xdr.AddressToAccountId(address)
	if err != nil {
		return 0, fmt.Errorf("soroban: invalid account address: %w", err)
	}
	key := xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: accountID},
	}
	encodedKey, err := xdr.MarshalBase64(key)
	if err != nil {
		return 0, fmt.Errorf("soroban: failed to encode ledger key: %w", err)
	}

	var result GetLedgerEntriesResponse
	if err := c.call(ctx, "getLedgerEntries", map[string]any{"keys": []string{encodedKey}}, &result); err != nil {
		return 0, err
	}
	if len(result.Entries) == 0 {
		return 0, ErrAccountNotFound
	}

	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(result.Entries[0].XDR, &data); err != nil {
		return 0, fmt.Errorf("soroban: failed to decode account entry: %w", err)
	}
	if data.Account == nil {
		return 0, ErrAccountNotFound
	}
	return int64(data.Account.SeqNum), nil
}

// SimulateTransaction runs an unsigned envelope without applying it
func (c *Client) SimulateTransaction(ctx context.Context, envelope string) (*SimulateTransactionResponse, error) {
	var result SimulateTransactionResponse
	if err := c.call(ctx, "simulateTransaction", map[string]any{"transaction": envelope}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendTransaction submits a signed envelope
func (c *Client) SendTransaction(ctx context.Context, envelope string) (*SendTransactionResponse, error) {
	var result SendTransactionResponse
	if err := c.call(ctx, "sendTransaction", map[string]any{"transaction": envelope}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTransaction fetches the status of a submitted hash
func (c *Client) GetTransaction(ctx context.Context, hash string) (*GetTransactionResponse, error) {
	var result GetTransactionResponse
	if err := c.call(ctx, "getTransaction", map[string]any{"hash": hash}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLatestLedger reports the newest ledger the server knows about
func (c *Client) GetLatestLedger(ctx context.Context) (*GetLatestLedgerResponse, error) {
	var result GetLatestLedgerResponse
	if err := c.call(ctx, "getLatestLedger", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var _ RPC = (*Client)(nil)
