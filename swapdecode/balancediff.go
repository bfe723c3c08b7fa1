package swapdecode

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// TradeDirection is the trader's action, not the pool's: the pool's quote
// balance rising means the trader paid quote in, which is a buy of the asset.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

// ErrMissingBalances reports a transaction record without the balance
// snapshots the classifier needs, a structural defect of the input.
var ErrMissingBalances = errors.New("transaction record has no token balance snapshots")

// BalanceDiff is the classifier's verdict for one transaction.
type BalanceDiff struct {
	Direction TradeDirection

	// Mint is the non-quote asset held by the pool authority.
	Mint      solana.PublicKey
	QuoteMint solana.PublicKey

	// Absolute balance deltas on the pool side, in decimal units.
	AssetAmount decimal.Decimal
	QuoteAmount decimal.Decimal

	// Price is the post-trade quote/asset reserve ratio, a spot-price
	// approximation rather than the trade's marginal price. Unresolved
	// when the post-trade asset reserve is zero.
	Price decimal.NullDecimal
}

// ClassifyBalanceDiff infers a trade's direction and size purely from the
// pool authority's balance snapshots, with no instruction decoding at all.
// It finds the authority's quote-asset balance and its non-quote balance
// before and after the transaction; which way the quote balance moved decides
// buy or sell, and the absolute deltas are the swapped quantities.
//
// A nil result with a nil error means no account in the snapshots belongs to
// the pool authority holding a non-quote asset: the transaction did not touch
// a pool this classifier recognizes, and the caller should move on.
func ClassifyBalanceDiff(rec *TransactionRecord, poolAuthority, quoteMint solana.PublicKey) (*BalanceDiff, error) {
	if rec.PreTokenBalances == nil || rec.PostTokenBalances == nil {
		return nil, ErrMissingBalances
	}

	var (
		mint                   solana.PublicKey
		preQuote, preAsset     decimal.Decimal
		postQuote, postAsset   decimal.Decimal
		foundAsset, foundQuote bool
	)

	scan := func(balances []TokenBalance, quote, asset *decimal.Decimal) {
		for _, b := range balances {
			if !b.Owner.Equals(poolAuthority) {
				continue
			}
			amount, ok := b.UIAmountDecimal()
			if !ok {
				continue
			}
			if b.Mint.Equals(quoteMint) {
				*quote = amount
				foundQuote = true
			} else {
				mint = b.Mint
				*asset = amount
				foundAsset = true
			}
		}
	}

	scan(rec.PreTokenBalances, &preQuote, &preAsset)
	scan(rec.PostTokenBalances, &postQuote, &postAsset)

	if !foundAsset || !foundQuote {
		return nil, nil
	}

	diff := &BalanceDiff{
		Mint:      mint,
		QuoteMint: quoteMint,
	}

	if postQuote.GreaterThan(preQuote) {
		diff.Direction = DirectionBuy
		diff.QuoteAmount = postQuote.Sub(preQuote)
		diff.AssetAmount = preAsset.Sub(postAsset)
	} else {
		diff.Direction = DirectionSell
		diff.QuoteAmount = preQuote.Sub(postQuote)
		diff.AssetAmount = postAsset.Sub(preAsset)
	}

	if !postAsset.IsZero() {
		diff.Price = decimal.NewNullDecimal(postQuote.Div(postAsset))
	}

	return diff, nil
}
