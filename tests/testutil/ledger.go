package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/escrow"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/keypair"
)

// Contract method names understood by FailNext and TimeoutNext
const (
	MethodListProperty  = "list_property"
	MethodBuyTokens     = "buy_tokens"
	MethodCancelListing = "cancel_listing"
	MethodApprove       = "approve"
	MethodLockFunds     = "lock_funds"
	MethodReleaseFunds  = "release_funds"
	MethodRefund        = "refund"
)

// FakeLedger is an in-memory stand-in for the marketplace, payment token,
// property token and escrow contracts. Every write confirms immediately in
// a new ledger unless a failure or timeout was queued for its method.
type FakeLedger struct {
	mu sync.Mutex

	ledgerSeq   uint32
	nextListing uint64
	nextEscrow  uint64

	listings  map[uint64]*ledger.ListingInfo
	escrows   map[uint64]*escrow.Record
	balances  map[string]decimal.Decimal // token|owner
	tokens    map[string]*ledger.TokenInfo
	outcomes  map[string]*ledger.Outcome
	failures  map[string]error
	timeouts  map[string]bool
	calls     map[string]int
	approvals map[string]decimal.Decimal
}

// NewFakeLedger creates an empty FakeLedger
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		ledgerSeq: 1000,
		listings:  make(map[uint64]*ledger.ListingInfo),
		escrows:   make(map[uint64]*escrow.Record),
		balances:  make(map[string]decimal.Decimal),
		tokens:    make(map[string]*ledger.TokenInfo),
		outcomes:  make(map[string]*ledger.Outcome),
		failures:  make(map[string]error),
		timeouts:  make(map[string]bool),
		calls:     make(map[string]int),
		approvals: make(map[string]decimal.Decimal),
	}
}

// FailNext makes the next call of method return err without effect
func (f *FakeLedger) FailNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

// TimeoutNext makes the next call of method take effect on the ledger but
// report a TxTimeoutError, as if polling gave up before the ledger closed
func (f *FakeLedger) TimeoutNext(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts[method] = true
}

// Calls returns how many times method was invoked
func (f *FakeLedger) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// SetToken registers a property token contract
func (f *FakeLedger) SetToken(contractID string, info ledger.TokenInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[contractID] = &info
}

// SetBalance sets owner's balance of a property token
func (f *FakeLedger) SetBalance(contractID, owner string, amount decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[balanceKey(contractID, owner)] = amount
}

// Approval returns the last allowance granted by owner
func (f *FakeLedger) Approval(owner string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.approvals[owner]
}

// ListProperty implements ledger.MarketplaceGateway
func (f *FakeLedger) ListProperty(_ context.Context, sellerSecret, tokenContract string, amount, pricePerToken decimal.Decimal) (uint64, ledger.Receipt, error) {
	seller, err := addressOf(sellerSecret)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodListProperty); err != nil {
		return 0, ledger.Receipt{}, err
	}
	key := balanceKey(tokenContract, seller)
	if f.balances[key].LessThan(amount) {
		return 0, ledger.Receipt{}, f.rejected(MethodListProperty, "insufficient token balance")
	}

	f.nextListing++
	id := f.nextListing
	f.balances[key] = f.balances[key].Sub(amount)
	f.listings[id] = &ledger.ListingInfo{
		ListingID:     id,
		Seller:        seller,
		TokenContract: tokenContract,
		Amount:        amount,
		PricePerToken: pricePerToken,
		ExpiresAt:     time.Now().Add(30 * 24 * time.Hour),
		Status:        "Active",
	}

	receipt, err := f.confirm(MethodListProperty, &id)
	return id, receipt, err
}

// BuyTokens implements ledger.MarketplaceGateway
func (f *FakeLedger) BuyTokens(_ context.Context, buyerSecret string, listingID uint64, amount decimal.Decimal) (ledger.Receipt, error) {
	buyer, err := addressOf(buyerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodBuyTokens); err != nil {
		return ledger.Receipt{}, err
	}
	listing, ok := f.listings[listingID]
	if !ok || listing.Status != "Active" {
		return ledger.Receipt{}, f.rejected(MethodBuyTokens, "listing not active")
	}
	if listing.Amount.LessThan(amount) {
		return ledger.Receipt{}, f.rejected(MethodBuyTokens, "insufficient listing amount")
	}
	if f.approvals[buyer].LessThan(amount.Mul(listing.PricePerToken)) {
		return ledger.Receipt{}, f.rejected(MethodBuyTokens, "insufficient allowance")
	}

	listing.Amount = listing.Amount.Sub(amount)
	if listing.Amount.IsZero() {
		listing.Status = "Sold"
	}
	key := balanceKey(listing.TokenContract, buyer)
	f.balances[key] = f.balances[key].Add(amount)
	f.approvals[buyer] = f.approvals[buyer].Sub(amount.Mul(listing.PricePerToken))

	return f.confirm(MethodBuyTokens, nil)
}

// CancelListing implements ledger.MarketplaceGateway
func (f *FakeLedger) CancelListing(_ context.Context, sellerSecret string, listingID uint64) (ledger.Receipt, error) {
	seller, err := addressOf(sellerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodCancelListing); err != nil {
		return ledger.Receipt{}, err
	}
	listing, ok := f.listings[listingID]
	if !ok || listing.Status != "Active" {
		return ledger.Receipt{}, f.rejected(MethodCancelListing, "listing not active")
	}
	if listing.Seller != seller {
		return ledger.Receipt{}, f.rejected(MethodCancelListing, "caller is not the seller")
	}

	listing.Status = "Cancelled"
	key := balanceKey(listing.TokenContract, seller)
	f.balances[key] = f.balances[key].Add(listing.Amount)

	return f.confirm(MethodCancelListing, nil)
}

// GetListing implements ledger.MarketplaceGateway
func (f *FakeLedger) GetListing(_ context.Context, listingID uint64) (*ledger.ListingInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[listingID]
	if !ok {
		return nil, &ledger.SimulationError{ContractID: "marketplace", Method: "get_listing"}
	}
	out := *listing
	return &out, nil
}

// ApproveMarketplace implements ledger.PaymentGateway
func (f *FakeLedger) ApproveMarketplace(_ context.Context, ownerSecret string, amount decimal.Decimal) (ledger.Receipt, error) {
	owner, err := addressOf(ownerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodApprove); err != nil {
		return ledger.Receipt{}, err
	}
	f.approvals[owner] = amount
	return f.confirm(MethodApprove, nil)
}

// Balance implements ledger.TokenGateway
func (f *FakeLedger) Balance(_ context.Context, tokenContract, owner string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[tokenContract]; !ok {
		return decimal.Zero, &ledger.SimulationError{ContractID: tokenContract, Method: "balance"}
	}
	return f.balances[balanceKey(tokenContract, owner)], nil
}

// Info implements ledger.TokenGateway
func (f *FakeLedger) Info(_ context.Context, tokenContract string) (*ledger.TokenInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.tokens[tokenContract]
	if !ok {
		return nil, &ledger.SimulationError{ContractID: tokenContract, Method: "total_supply"}
	}
	out := *info
	return &out, nil
}

// LockFunds implements ledger.EscrowGateway
func (f *FakeLedger) LockFunds(_ context.Context, buyerSecret, seller string, amount decimal.Decimal, unlockTime time.Time) (uint64, ledger.Receipt, error) {
	buyer, err := addressOf(buyerSecret)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodLockFunds); err != nil {
		return 0, ledger.Receipt{}, err
	}

	f.nextEscrow++
	id := f.nextEscrow
	f.escrows[id] = &escrow.Record{
		EscrowID:   id,
		Buyer:      buyer,
		Seller:     seller,
		Amount:     amount,
		UnlockTime: unlockTime,
		Status:     escrow.StatusLocked,
	}

	receipt, err := f.confirm(MethodLockFunds, &id)
	return id, receipt, err
}

// ReleaseFunds implements ledger.EscrowGateway
func (f *FakeLedger) ReleaseFunds(_ context.Context, buyerSecret string, escrowID uint64) (ledger.Receipt, error) {
	buyer, err := addressOf(buyerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodReleaseFunds); err != nil {
		return ledger.Receipt{}, err
	}
	record, ok := f.escrows[escrowID]
	if !ok || record.Status != escrow.StatusLocked {
		return ledger.Receipt{}, f.rejected(MethodReleaseFunds, "escrow not locked")
	}
	if record.Buyer != buyer {
		return ledger.Receipt{}, f.rejected(MethodReleaseFunds, "caller is not the buyer")
	}
	record.Status = escrow.StatusReleased
	return f.confirm(MethodReleaseFunds, nil)
}

// Refund implements ledger.EscrowGateway
func (f *FakeLedger) Refund(_ context.Context, sellerSecret string, escrowID uint64) (ledger.Receipt, error) {
	seller, err := addressOf(sellerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodRefund); err != nil {
		return ledger.Receipt{}, err
	}
	record, ok := f.escrows[escrowID]
	if !ok || record.Status != escrow.StatusLocked {
		return ledger.Receipt{}, f.rejected(MethodRefund, "escrow not locked")
	}
	if record.Seller != seller {
		return ledger.Receipt{}, f.rejected(MethodRefund, "caller is not the seller")
	}
	if time.Now().Before(record.UnlockTime) {
		return ledger.Receipt{}, f.rejected(MethodRefund, "escrow still time-locked")
	}
	record.Status = escrow.StatusRefunded
	return f.confirm(MethodRefund, nil)
}

// GetEscrow implements ledger.EscrowGateway
func (f *FakeLedger) GetEscrow(_ context.Context, escrowID uint64) (*escrow.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.escrows[escrowID]
	if !ok {
		return nil, &ledger.SimulationError{ContractID: "escrow", Method: "get_escrow"}
	}
	out := *record
	return &out, nil
}

// TransactionStatus implements ledger.StatusChecker
func (f *FakeLedger) TransactionStatus(_ context.Context, txHash string) (*ledger.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome, ok := f.outcomes[txHash]
	if !ok {
		return &ledger.Outcome{TxHash: txHash, Status: ledger.TxStatusNotFound}, nil
	}
	out := *outcome
	return &out, nil
}

// begin counts the call and consumes a queued failure. Callers hold f.mu.
func (f *FakeLedger) begin(method string) error {
	f.calls[method]++
	if err, ok := f.failures[method]; ok {
		delete(f.failures, method)
		return err
	}
	return nil
}

// confirm closes a ledger holding the call and records its outcome. A queued
// timeout hides the receipt behind a TxTimeoutError. Callers hold f.mu.
func (f *FakeLedger) confirm(method string, resultID *uint64) (ledger.Receipt, error) {
	f.ledgerSeq++
	hash := fakeHash(method, f.ledgerSeq)
	f.outcomes[hash] = &ledger.Outcome{
		TxHash:   hash,
		Status:   ledger.TxStatusSuccess,
		Ledger:   f.ledgerSeq,
		ResultID: resultID,
	}

	if f.timeouts[method] {
		delete(f.timeouts, method)
		return ledger.Receipt{}, &ledger.TxTimeoutError{Method: method, Hash: hash, Attempts: 1}
	}
	return ledger.Receipt{TxHash: hash, Ledger: f.ledgerSeq}, nil
}

// rejected records a FAILED outcome and returns the submission error
func (f *FakeLedger) rejected(method, detail string) error {
	f.ledgerSeq++
	hash := fakeHash(method, f.ledgerSeq)
	f.outcomes[hash] = &ledger.Outcome{TxHash: hash, Status: ledger.TxStatusFailed, Ledger: f.ledgerSeq}
	return &ledger.TxSubmissionError{
		Stage:  ledger.StageExecution,
		Method: method,
		Hash:   hash,
		Status: string(ledger.TxStatusFailed),
		Detail: detail,
	}
}

func fakeHash(method string, seq uint32) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", method, seq)))
	return hex.EncodeToString(sum[:])
}

func balanceKey(contractID, owner string) string {
	return contractID + "|" + owner
}

func addressOf(secret string) (string, error) {
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return "", &ledger.TxSubmissionError{Stage: ledger.StageSign, Err: err}
	}
	return kp.Address(), nil
}
