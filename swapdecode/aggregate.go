package swapdecode

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// AssetInfoProvider supplies the per-asset scale factor and USD unit price.
// Either lookup may come back unresolved (ok=false); the aggregator carries
// that through as an unresolved field rather than failing the decode or,
// worse, defaulting to zero.
type AssetInfoProvider interface {
	Decimals(ctx context.Context, mint solana.PublicKey) (uint8, bool)
	UnitPriceUSD(ctx context.Context, mint solana.PublicKey) (decimal.Decimal, bool)
}

// LegVolume is one route hop with its amounts resolved to decimal units and
// USD where possible.
type LegVolume struct {
	Amm solana.PublicKey

	InMint          solana.PublicKey
	InAmount        uint64
	InAmountDecimal decimal.NullDecimal
	InAmountUSD     decimal.NullDecimal

	OutMint          solana.PublicKey
	OutAmount        uint64
	OutAmountDecimal decimal.NullDecimal
	OutAmountUSD     decimal.NullDecimal
}

// SideTotal aggregates one side (entry or exit) of the whole trade.
type SideTotal struct {
	Mint          solana.PublicKey
	Amount        uint64
	AmountDecimal decimal.NullDecimal
	AmountUSD     decimal.NullDecimal
}

// SwapTotals is the aggregated outcome of a route: per-leg volumes, entry and
// exit totals, and the trade's USD volume.
type SwapTotals struct {
	Legs      []LegVolume
	In        SideTotal
	Out       SideTotal
	VolumeUSD decimal.NullDecimal
}

// AggregateAmounts converts every leg's raw amounts to decimal units and USD,
// then sums the entry and exit sets into the trade totals. This is the single
// boundary where raw integer amounts become decimals; nothing upstream or
// downstream converts again.
//
// Entry legs are filtered to the first entry leg's input asset and exit legs
// to the first exit leg's output asset: parallel legs in a different asset are
// not merged into the total. The USD volume is the lesser of the two resolved
// side totals, under-counting fees and slippage rather than over-counting.
func AggregateAmounts(ctx context.Context, legs []SwapLegEvent, entry, exit []int, provider AssetInfoProvider) *SwapTotals {
	totals := &SwapTotals{Legs: make([]LegVolume, len(legs))}

	for i, leg := range legs {
		vol := LegVolume{
			Amm:       leg.Amm,
			InMint:    leg.InputMint,
			InAmount:  leg.InputAmount,
			OutMint:   leg.OutputMint,
			OutAmount: leg.OutputAmount,
		}
		vol.InAmountDecimal, vol.InAmountUSD = resolveVolume(ctx, provider, leg.InputMint, leg.InputAmount)
		vol.OutAmountDecimal, vol.OutAmountUSD = resolveVolume(ctx, provider, leg.OutputMint, leg.OutputAmount)
		totals.Legs[i] = vol
	}

	totals.In = sumSide(totals.Legs, entry, true)
	totals.Out = sumSide(totals.Legs, exit, false)
	totals.VolumeUSD = lesserUSD(totals.In.AmountUSD, totals.Out.AmountUSD)

	return totals
}

// resolveVolume turns a raw amount into decimal units and a USD value. The
// scale factor comes from decoded mint account state, never from a trusted
// side-channel; a missing scale leaves both fields unresolved, a missing
// price leaves only the USD value unresolved.
func resolveVolume(ctx context.Context, provider AssetInfoProvider, mint solana.PublicKey, amount uint64) (amountDec, amountUSD decimal.NullDecimal) {
	decimals, ok := provider.Decimals(ctx, mint)
	if !ok {
		return
	}
	amountDec = decimal.NewNullDecimal(decimal.NewFromUint64(amount).Shift(-int32(decimals)))

	price, ok := provider.UnitPriceUSD(ctx, mint)
	if !ok {
		return
	}
	amountUSD = decimal.NewNullDecimal(amountDec.Decimal.Mul(price))
	return
}

// sumSide totals the legs at the given positions, filtered to the first
// position's asset. The decimal and USD totals resolve only when every
// contributing leg resolved; a partial sum would silently understate the
// side.
func sumSide(legs []LegVolume, positions []int, input bool) SideTotal {
	var total SideTotal

	var contributing []LegVolume
	for _, pos := range positions {
		if pos < 0 || pos >= len(legs) {
			continue
		}
		contributing = append(contributing, legs[pos])
	}
	if len(contributing) == 0 {
		return total
	}

	pick := func(leg LegVolume) (solana.PublicKey, uint64, decimal.NullDecimal, decimal.NullDecimal) {
		if input {
			return leg.InMint, leg.InAmount, leg.InAmountDecimal, leg.InAmountUSD
		}
		return leg.OutMint, leg.OutAmount, leg.OutAmountDecimal, leg.OutAmountUSD
	}

	firstMint, _, _, _ := pick(contributing[0])
	total.Mint = firstMint

	sumDec := decimal.Zero
	sumUSD := decimal.Zero
	decOK, usdOK := true, true

	for _, leg := range contributing {
		mint, amount, amountDec, amountUSD := pick(leg)
		if !mint.Equals(firstMint) {
			continue
		}
		total.Amount += amount
		if amountDec.Valid {
			sumDec = sumDec.Add(amountDec.Decimal)
		} else {
			decOK = false
		}
		if amountUSD.Valid {
			sumUSD = sumUSD.Add(amountUSD.Decimal)
		} else {
			usdOK = false
		}
	}

	if decOK {
		total.AmountDecimal = decimal.NewNullDecimal(sumDec)
	}
	if decOK && usdOK {
		total.AmountUSD = decimal.NewNullDecimal(sumUSD)
	}
	return total
}

// lesserUSD picks the smaller of two resolved USD values, or whichever one
// resolved, or stays unresolved.
func lesserUSD(a, b decimal.NullDecimal) decimal.NullDecimal {
	switch {
	case a.Valid && b.Valid:
		if a.Decimal.LessThan(b.Decimal) {
			return a
		}
		return b
	case a.Valid:
		return a
	case b.Valid:
		return b
	}
	return decimal.NullDecimal{}
}

// proportionalQuoteUSD derives the USD value of a quoted (declared) amount
// from the actual amount's USD value: quoted / actual × actualUSD.
func proportionalQuoteUSD(quoted, actual uint64, actualUSD decimal.NullDecimal) decimal.NullDecimal {
	if !actualUSD.Valid || actual == 0 {
		return decimal.NullDecimal{}
	}
	ratio := decimal.NewFromUint64(quoted).Div(decimal.NewFromUint64(actual))
	return decimal.NewNullDecimal(ratio.Mul(actualUSD.Decimal))
}
