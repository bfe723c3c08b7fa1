package swapdecode

import (
	"context"
	"errors"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrNoSwapFound reports a transaction that neither pipeline recognizes as a
// trade. It is a skip signal, not a failure: the caller keeps processing
// subsequent transactions.
var ErrNoSwapFound = errors.New("no swap found in transaction")

// FeeRecord is the platform fee attached to a swap, resolved to decimal
// units and USD where possible.
type FeeRecord struct {
	Account       solana.PublicKey
	Owner         solana.PublicKey
	Mint          solana.PublicKey
	Amount        uint64
	AmountDecimal decimal.NullDecimal
	AmountUSD     decimal.NullDecimal
}

// SwapRecord is the terminal artifact of one decode: the reconstructed
// economic meaning of a trade. It is assembled once and never mutated.
type SwapRecord struct {
	Owner     solana.PublicKey
	ProgramID solana.PublicKey
	Signature solana.Signature
	Timestamp time.Time

	// Instruction-path fields. Instruction is the routing instruction
	// name; TransferAuthority and TrackingAccount come from documented
	// account positions of that instruction.
	Instruction       string
	TransferAuthority solana.PublicKey
	TrackingAccount   solana.PublicKey

	LegCount  int
	Legs      []LegVolume
	VolumeUSD decimal.NullDecimal

	InMint          solana.PublicKey
	InAmount        uint64
	InAmountDecimal decimal.NullDecimal
	InAmountUSD     decimal.NullDecimal

	OutMint          solana.PublicKey
	OutAmount        uint64
	OutAmountDecimal decimal.NullDecimal
	OutAmountUSD     decimal.NullDecimal

	// Quoted target amounts, present only when the routing instruction
	// declared one.
	ExactInAmount     *uint64
	ExactInAmountUSD  decimal.NullDecimal
	ExactOutAmount    *uint64
	ExactOutAmountUSD decimal.NullDecimal

	Fee *FeeRecord

	// Balance-diff-path fields. Direction is set only when the record was
	// produced by the classifier; ExecutionPrice is its spot-price
	// approximation.
	Direction      TradeDirection
	ExecutionPrice decimal.NullDecimal

	BalanceChanges []BalanceChange
	SolChange      int64
}

// Decoder turns transaction records into swap records. It holds only the
// schema, the IDs of the programs it understands, and its collaborators; it
// keeps no state across calls and one transaction's decode never touches
// another's.
type Decoder struct {
	schema        *Schema
	program       solana.PublicKey
	poolAuthority solana.PublicKey
	quoteMint     solana.PublicKey
	provider      AssetInfoProvider
	log           *logrus.Logger
}

func NewDecoder(provider AssetInfoProvider, log *logrus.Logger) *Decoder {
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	}

	return &Decoder{
		schema:        NewJupiterSchema(),
		program:       JUPITER_V6_PROGRAM_ID,
		poolAuthority: RAYDIUM_AUTHORITY,
		quoteMint:     WSOL_MINT,
		provider:      provider,
		log:           log,
	}
}

// DecodeSwap runs the instruction pipeline and, when that yields nothing,
// the balance-diff pipeline. ErrNoSwapFound means neither path recognized a
// trade; any other error is a per-transaction decode failure.
func (d *Decoder) DecodeSwap(ctx context.Context, rec *TransactionRecord) (*SwapRecord, error) {
	events := DecodeEvents(rec, d.schema, d.program, d.log)
	if len(events.Swaps) > 0 {
		return d.assembleFromEvents(ctx, rec, events)
	}

	d.log.Debugf("no %s swap events in %s, trying balance diff", d.program, rec.Signature)
	return d.assembleFromBalanceDiff(rec)
}

func (d *Decoder) assembleFromEvents(ctx context.Context, rec *TransactionRecord, events *DecodedEvents) (*SwapRecord, error) {
	instructions := ExtractInstructions(rec, d.program)

	name, args, accounts := d.firstRoutingInstruction(instructions)
	plan := routePlanOf(args)

	var entry, exit []int
	if len(plan) > 0 {
		entry, exit = AnalyzeRoutePlan(plan)
	} else {
		// No decodable routing instruction: fall back to treating the
		// event stream itself as a linear route.
		entry, exit = []int{0}, []int{len(events.Swaps) - 1}
	}
	entry = clampPositions(entry, len(events.Swaps))
	exit = clampPositions(exit, len(events.Swaps))
	if len(entry) == 0 {
		entry = []int{0}
	}
	if len(exit) == 0 {
		exit = []int{len(events.Swaps) - 1}
	}

	totals := AggregateAmounts(ctx, events.Swaps, entry, exit, d.provider)

	record := &SwapRecord{
		Owner:       rec.Signer(),
		ProgramID:   d.program,
		Signature:   rec.Signature,
		Timestamp:   rec.BlockTime,
		Instruction: name,
		LegCount:    len(events.Swaps),
		Legs:        totals.Legs,
		VolumeUSD:   totals.VolumeUSD,

		InMint:          totals.In.Mint,
		InAmount:        totals.In.Amount,
		InAmountDecimal: totals.In.AmountDecimal,
		InAmountUSD:     totals.In.AmountUSD,

		OutMint:          totals.Out.Mint,
		OutAmount:        totals.Out.Amount,
		OutAmountDecimal: totals.Out.AmountDecimal,
		OutAmountUSD:     totals.Out.AmountUSD,

		BalanceChanges: rec.TokenBalanceChanges(),
	}

	if change, ok := rec.SolChange(); ok {
		record.SolChange = change
	}

	if name != "" {
		if pos := transferAuthorityPosition(name); pos < len(accounts) {
			record.TransferAuthority = accounts[pos]
		}
		if pos := trackingAccountPosition(accounts); pos >= 0 {
			record.TrackingAccount = accounts[pos]
		}
	}

	if quoted, ok := quotedAmountOf(args); ok {
		if isExactInInstruction(name) {
			record.ExactOutAmount = pointer.ToUint64(quoted)
			record.ExactOutAmountUSD = proportionalQuoteUSD(quoted, totals.Out.Amount, totals.Out.AmountUSD)
		} else {
			record.ExactInAmount = pointer.ToUint64(quoted)
			record.ExactInAmountUSD = proportionalQuoteUSD(quoted, totals.In.Amount, totals.In.AmountUSD)
		}
	}

	if events.Fee != nil {
		record.Fee = d.resolveFee(ctx, rec, events.Fee)
	}

	return record, nil
}

// firstRoutingInstruction finds the first extracted instruction that decodes
// to a routing variant. Instructions with unknown discriminators (the
// program's own event CPIs among them) are skipped, not failed.
func (d *Decoder) firstRoutingInstruction(instructions []InstructionDescriptor) (string, interface{}, solana.PublicKeySlice) {
	for _, ix := range instructions {
		name, args, err := d.schema.DecodeInstruction(ix.Data)
		if err != nil {
			if !errors.Is(err, ErrUnknownDiscriminator) {
				d.log.Warnf("undecodable %s instruction: %v", d.program, err)
			}
			continue
		}
		if isRoutingInstruction(name) {
			return name, args, ix.Accounts
		}
	}
	return "", nil, nil
}

func (d *Decoder) resolveFee(ctx context.Context, rec *TransactionRecord, event *FeeEvent) *FeeRecord {
	fee := &FeeRecord{
		Account: event.Account,
		Mint:    event.Mint,
		Amount:  event.Amount,
	}
	fee.AmountDecimal, fee.AmountUSD = resolveVolume(ctx, d.provider, event.Mint, event.Amount)

	// The fee account's owner is read from the post-trade snapshots when
	// the account was touched; no extra account fetch.
	for _, b := range rec.PostTokenBalances {
		if key, ok := rec.accountAt(b.AccountIndex); ok && key.Equals(event.Account) {
			fee.Owner = b.Owner
			break
		}
	}
	return fee
}

func (d *Decoder) assembleFromBalanceDiff(rec *TransactionRecord) (*SwapRecord, error) {
	diff, err := ClassifyBalanceDiff(rec, d.poolAuthority, d.quoteMint)
	if err != nil {
		return nil, err
	}
	if diff == nil {
		return nil, ErrNoSwapFound
	}

	record := &SwapRecord{
		Owner:          rec.Signer(),
		ProgramID:      RAYDIUM_V4_PROGRAM_ID,
		Signature:      rec.Signature,
		Timestamp:      rec.BlockTime,
		LegCount:       1,
		Direction:      diff.Direction,
		ExecutionPrice: diff.Price,
		BalanceChanges: rec.TokenBalanceChanges(),
	}

	if change, ok := rec.SolChange(); ok {
		record.SolChange = change
	}

	// The classifier works in decimal units; the in/out sides are laid out
	// from the trader's perspective.
	if diff.Direction == DirectionBuy {
		record.InMint = diff.QuoteMint
		record.InAmountDecimal = decimal.NewNullDecimal(diff.QuoteAmount)
		record.OutMint = diff.Mint
		record.OutAmountDecimal = decimal.NewNullDecimal(diff.AssetAmount)
	} else {
		record.InMint = diff.Mint
		record.InAmountDecimal = decimal.NewNullDecimal(diff.AssetAmount)
		record.OutMint = diff.QuoteMint
		record.OutAmountDecimal = decimal.NewNullDecimal(diff.QuoteAmount)
	}

	return record, nil
}

func clampPositions(positions []int, n int) []int {
	var out []int
	for _, p := range positions {
		if p >= 0 && p < n {
			out = append(out, p)
		}
	}
	return out
}
