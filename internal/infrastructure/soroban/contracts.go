package soroban

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/escrow"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"
)

// Contracts exposes typed wrappers over the marketplace, escrow, payment and
// property token contracts. Every amount crosses this boundary in human units
// and is scaled here.
type Contracts struct {
	adapter  *Adapter
	pipeline *Pipeline
	cfg      ContractsConfig
}

// NewContracts creates the typed contract clients
func NewContracts(adapter *Adapter, pipeline *Pipeline, cfg ContractsConfig) *Contracts {
	if cfg.ApprovalExpirationLedger == 0 {
		cfg.ApprovalExpirationLedger = DefaultApprovalExpirationLedger
	}
	return &Contracts{
		adapter:  adapter,
		pipeline: pipeline,
		cfg:      cfg,
	}
}

func addressOfSecret(secret string) (string, error) {
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return "", &ledger.TxSubmissionError{Stage: ledger.StageSign, Detail: "invalid secret key"}
	}
	return kp.Address(), nil
}

func (c *Contracts) invoke(ctx context.Context, secret, contractID, method string, args ...xdr.ScVal) (*SubmitResult, error) {
	inv, err := c.adapter.EncodeCall(contractID, method, args...)
	if err != nil {
		return nil, err
	}
	return c.pipeline.Submit(ctx, secret, inv)
}

func (c *Contracts) simulate(ctx context.Context, contractID, method string, args ...xdr.ScVal) (xdr.ScVal, error) {
	inv, err := c.adapter.EncodeCall(contractID, method, args...)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return c.adapter.Simulate(ctx, inv)
}

func receiptOf(r *SubmitResult) ledger.Receipt {
	return ledger.Receipt{TxHash: r.Hash, Ledger: r.Ledger}
}

func returnedID(r *SubmitResult, method string) (uint64, error) {
	if r.ReturnValue == nil {
		return 0, fmt.Errorf("soroban: %s confirmed in %s without a return value", method, r.Hash)
	}
	id, err := DecodeU64(*r.ReturnValue)
	if err != nil {
		return 0, fmt.Errorf("soroban: %s return value: %w", method, err)
	}
	return id, nil
}

// ListProperty calls list_property(seller, token, amount, price) and returns
// the ledger-issued listing id
func (c *Contracts) ListProperty(ctx context.Context, sellerSecret, tokenContract string, amount, pricePerToken decimal.Decimal) (uint64, ledger.Receipt, error) {
	seller, err := addressOfSecret(sellerSecret)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	sellerArg, err := AddressArg(seller)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	tokenArg, err := AddressArg(tokenContract)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	amountArg, err := AmountArg(amount)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	priceArg, err := AmountArg(pricePerToken)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}

	res, err := c.invoke(ctx, sellerSecret, c.cfg.Marketplace, "list_property", sellerArg, tokenArg, amountArg, priceArg)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	id, err := returnedID(res, "list_property")
	if err != nil {
		return 0, receiptOf(res), err
	}
	return id, receiptOf(res), nil
}

// BuyTokens calls buy_tokens(buyer, listingId, amount, usdc)
func (c *Contracts) BuyTokens(ctx context.Context, buyerSecret string, listingID uint64, amount decimal.Decimal) (ledger.Receipt, error) {
	buyer, err := addressOfSecret(buyerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}
	buyerArg, err := AddressArg(buyer)
	if err != nil {
		return ledger.Receipt{}, err
	}
	amountArg, err := AmountArg(amount)
	if err != nil {
		return ledger.Receipt{}, err
	}
	usdcArg, err := AddressArg(c.cfg.USDC)
	if err != nil {
		return ledger.Receipt{}, err
	}

	res, err := c.invoke(ctx, buyerSecret, c.cfg.Marketplace, "buy_tokens", buyerArg, U64Arg(listingID), amountArg, usdcArg)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptOf(res), nil
}

// CancelListing calls cancel_listing(seller, listingId)
func (c *Contracts) CancelListing(ctx context.Context, sellerSecret string, listingID uint64) (ledger.Receipt, error) {
	seller, err := addressOfSecret(sellerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}
	sellerArg, err := AddressArg(seller)
	if err != nil {
		return ledger.Receipt{}, err
	}
	res, err := c.invoke(ctx, sellerSecret, c.cfg.Marketplace, "cancel_listing", sellerArg, U64Arg(listingID))
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptOf(res), nil
}

// GetListing simulates get_listing(listingId)
func (c *Contracts) GetListing(ctx context.Context, listingID uint64) (*ledger.ListingInfo, error) {
	v, err := c.simulate(ctx, c.cfg.Marketplace, "get_listing", U64Arg(listingID))
	if err != nil {
		return nil, err
	}
	fields, err := DecodeStruct(v)
	if err != nil {
		return nil, err
	}

	info := &ledger.ListingInfo{ListingID: listingID}
	if f, err := fields.Field("seller"); err == nil {
		if info.Seller, err = DecodeAddress(f); err != nil {
			return nil, err
		}
	}
	if f, err := fields.Field("token_contract"); err == nil {
		if info.TokenContract, err = DecodeAddress(f); err != nil {
			return nil, err
		}
	}
	if f, err := fields.Field("amount"); err == nil {
		if info.Amount, err = DecodeAmount(f); err != nil {
			return nil, err
		}
	}
	if f, err := fields.Field("price_per_token"); err == nil {
		if info.PricePerToken, err = DecodeAmount(f); err != nil {
			return nil, err
		}
	}
	if f, err := fields.Field("expires_at"); err == nil {
		secs, err := DecodeU64(f)
		if err != nil {
			return nil, err
		}
		info.ExpiresAt = time.Unix(int64(secs), 0).UTC()
	}
	if f, err := fields.Field("status"); err == nil {
		if info.Status, err = DecodeText(f); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// ApproveMarketplace calls approve(owner, marketplace, amount, expiration)
// on the payment token contract
func (c *Contracts) ApproveMarketplace(ctx context.Context, ownerSecret string, amount decimal.Decimal) (ledger.Receipt, error) {
	owner, err := addressOfSecret(ownerSecret)
	if err != nil {
		return ledger.Receipt{}, err
	}
	ownerArg, err := AddressArg(owner)
	if err != nil {
		return ledger.Receipt{}, err
	}
	spenderArg, err := AddressArg(c.cfg.Marketplace)
	if err != nil {
		return ledger.Receipt{}, err
	}
	amountArg, err := AmountArg(amount)
	if err != nil {
		return ledger.Receipt{}, err
	}

	res, err := c.invoke(ctx, ownerSecret, c.cfg.USDC, "approve", ownerArg, spenderArg, amountArg, U32Arg(c.cfg.ApprovalExpirationLedger))
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptOf(res), nil
}

// Balance simulates balance(owner) on a property token contract
func (c *Contracts) Balance(ctx context.Context, tokenContract, owner string) (decimal.Decimal, error) {
	ownerArg, err := AddressArg(owner)
	if err != nil {
		return decimal.Zero, err
	}
	v, err := c.simulate(ctx, tokenContract, "balance", ownerArg)
	if err != nil {
		return decimal.Zero, err
	}
	return DecodeAmount(v)
}

// Info simulates get_info() on a property token contract
func (c *Contracts) Info(ctx context.Context, tokenContract string) (*ledger.TokenInfo, error) {
	v, err := c.simulate(ctx, tokenContract, "get_info")
	if err != nil {
		return nil, err
	}
	fields, err := DecodeStruct(v)
	if err != nil {
		return nil, err
	}

	info := &ledger.TokenInfo{Decimals: AmountDecimals}
	if f, err := fields.Field("name"); err == nil {
		info.Name, _ = DecodeText(f)
	}
	if f, err := fields.Field("symbol"); err == nil {
		info.Symbol, _ = DecodeText(f)
	}
	f, err := fields.Field("total_supply")
	if err != nil {
		return nil, err
	}
	if info.TotalSupply, err = DecodeAmount(f); err != nil {
		return nil, err
	}
	if f, err := fields.Field("decimals"); err == nil {
		if d, err := DecodeInteger(f); err == nil && d.IsUint64() {
			info.Decimals = uint32(d.Uint64())
		}
	}
	return info, nil
}

// LockFunds calls lock_funds(buyer, seller, amount, unlockTime) and returns
// the ledger-issued escrow id
func (c *Contracts) LockFunds(ctx context.Context, buyerSecret, seller string, amount decimal.Decimal, unlockTime time.Time) (uint64, ledger.Receipt, error) {
	buyer, err := addressOfSecret(buyerSecret)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	buyerArg, err := AddressArg(buyer)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	sellerArg, err := AddressArg(seller)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	amountArg, err := AmountArg(amount)
	if err != nil {
		return 0, ledger.Receipt{}, err
	}

	res, err := c.invoke(ctx, buyerSecret, c.cfg.Escrow, "lock_funds", buyerArg, sellerArg, amountArg, U64Arg(uint64(unlockTime.Unix())))
	if err != nil {
		return 0, ledger.Receipt{}, err
	}
	id, err := returnedID(res, "lock_funds")
	if err != nil {
		return 0, receiptOf(res), err
	}
	return id, receiptOf(res), nil
}

// ReleaseFunds calls release_funds(buyer, escrowId)
func (c *Contracts) ReleaseFunds(ctx context.Context, buyerSecret string, escrowID uint64) (ledger.Receipt, error) {
	return c.escrowAction(ctx, buyerSecret, "release_funds", escrowID)
}

// Refund calls refund(seller, escrowId)
func (c *Contracts) Refund(ctx context.Context, sellerSecret string, escrowID uint64) (ledger.Receipt, error) {
	return c.escrowAction(ctx, sellerSecret, "refund", escrowID)
}

func (c *Contracts) escrowAction(ctx context.Context, secret, method string, escrowID uint64) (ledger.Receipt, error) {
	caller, err := addressOfSecret(secret)
	if err != nil {
		return ledger.Receipt{}, err
	}
	callerArg, err := AddressArg(caller)
	if err != nil {
		return ledger.Receipt{}, err
	}
	res, err := c.invoke(ctx, secret, c.cfg.Escrow, method, callerArg, U64Arg(escrowID))
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptOf(res), nil
}

// GetEscrow simulates get_escrow(escrowId)
func (c *Contracts) GetEscrow(ctx context.Context, escrowID uint64) (*escrow.Record, error) {
	v, err := c.simulate(ctx, c.cfg.Escrow, "get_escrow", U64Arg(escrowID))
	if err != nil {
		return nil, err
	}
	return decodeEscrow(escrowID, v)
}

func decodeEscrow(escrowID uint64, v xdr.ScVal) (*escrow.Record, error) {
	fields, err := DecodeStruct(v)
	if err != nil {
		return nil, err
	}
	rec := &escrow.Record{EscrowID: escrowID}

	f, err := fields.Field("buyer")
	if err != nil {
		return nil, err
	}
	if rec.Buyer, err = DecodeAddress(f); err != nil {
		return nil, err
	}
	if f, err = fields.Field("seller"); err != nil {
		return nil, err
	}
	if rec.Seller, err = DecodeAddress(f); err != nil {
		return nil, err
	}
	if f, err = fields.Field("amount"); err != nil {
		return nil, err
	}
	if rec.Amount, err = DecodeAmount(f); err != nil {
		return nil, err
	}
	if f, err = fields.Field("unlock_time"); err != nil {
		return nil, err
	}
	unlock, err := DecodeInteger(f)
	if err != nil {
		return nil, err
	}
	if !unlock.IsInt64() || unlock.Cmp(big.NewInt(0)) < 0 {
		return nil, fmt.Errorf("soroban: unlock_time %s out of range", unlock.String())
	}
	rec.UnlockTime = time.Unix(unlock.Int64(), 0).UTC()

	if f, err = fields.Field("status"); err != nil {
		return nil, err
	}
	raw, err := DecodeText(f)
	if err != nil {
		return nil, err
	}
	if rec.Status, err = escrow.ParseStatus(raw); err != nil {
		return nil, err
	}
	return rec, nil
}

var (
	_ ledger.MarketplaceGateway = (*Contracts)(nil)
	_ ledger.PaymentGateway     = (*Contracts)(nil)
	_ ledger.TokenGateway       = (*Contracts)(nil)
	_ ledger.EscrowGateway      = (*Contracts)(nil)
	_ ledger.KeyResolver        = KeyResolver{}
)
