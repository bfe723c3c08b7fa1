package swapdecode

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// TokenBalance is one pre- or post-transaction token account snapshot,
// normalized from whichever upstream feed delivered it.
type TokenBalance struct {
	AccountIndex uint16
	Mint         solana.PublicKey
	Owner        solana.PublicKey
	Amount       string // raw base units, decimal string
	Decimals     uint8
	UIAmount     *float64
}

// UIAmountDecimal returns the human-readable balance as an exact decimal,
// preferring the raw amount + decimals over the lossy float the feed carries.
func (b TokenBalance) UIAmountDecimal() (decimal.Decimal, bool) {
	if raw, err := decimal.NewFromString(b.Amount); err == nil {
		return raw.Shift(-int32(b.Decimals)), true
	}
	if b.UIAmount != nil {
		return decimal.NewFromFloat(*b.UIAmount), true
	}
	return decimal.Decimal{}, false
}

// InnerInstructionSet is the nested instruction list invoked by the top-level
// instruction at Index, in execution order.
type InnerInstructionSet struct {
	Index        uint16
	Instructions []solana.CompiledInstruction
}

// TransactionRecord is the single internal transaction shape every component
// of this package reads. It is constructed once by one of the NewRecordFrom*
// converters and never mutated afterwards.
type TransactionRecord struct {
	Signature   solana.Signature
	Slot        uint64
	BlockTime   time.Time
	Failed      bool
	AccountKeys solana.PublicKeySlice

	Instructions []solana.CompiledInstruction
	Inner        []InnerInstructionSet

	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance

	// Lamport balances per account-key position.
	PreBalances  []uint64
	PostBalances []uint64
}

// NewRecordFromRPC converts a batch-query result (getTransaction) into the
// internal record shape.
func NewRecordFromRPC(res *rpc.GetTransactionResult) (*TransactionRecord, error) {
	if res == nil || res.Meta == nil {
		return nil, fmt.Errorf("transaction result has no meta")
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var blockTime time.Time
	if res.BlockTime != nil {
		blockTime = res.BlockTime.Time()
	}

	return NewRecordFromParts(tx, res.Meta, res.Slot, blockTime)
}

// NewRecordFromParts converts an already-deserialized transaction plus meta
// (the shape a live-subscription feed hands over) into the internal record.
func NewRecordFromParts(tx *solana.Transaction, meta *rpc.TransactionMeta, slot uint64, blockTime time.Time) (*TransactionRecord, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}
	if meta == nil {
		return nil, fmt.Errorf("transaction meta is nil")
	}

	allAccountKeys := append(solana.PublicKeySlice{}, tx.Message.AccountKeys...)
	allAccountKeys = append(allAccountKeys, meta.LoadedAddresses.Writable...)
	allAccountKeys = append(allAccountKeys, meta.LoadedAddresses.ReadOnly...)

	rec := &TransactionRecord{
		Slot:         slot,
		BlockTime:    blockTime,
		Failed:       meta.Err != nil,
		AccountKeys:  allAccountKeys,
		Instructions: tx.Message.Instructions,
		PreBalances:  meta.PreBalances,
		PostBalances: meta.PostBalances,
	}

	if len(tx.Signatures) > 0 {
		rec.Signature = tx.Signatures[0]
	}

	for _, inner := range meta.InnerInstructions {
		instructions := make([]solana.CompiledInstruction, 0, len(inner.Instructions))
		for _, in := range inner.Instructions {
			instructions = append(instructions, solana.CompiledInstruction{
				ProgramIDIndex: in.ProgramIDIndex,
				Accounts:       in.Accounts,
				Data:           in.Data,
			})
		}
		rec.Inner = append(rec.Inner, InnerInstructionSet{
			Index:        inner.Index,
			Instructions: instructions,
		})
	}

	rec.PreTokenBalances = convertTokenBalances(meta.PreTokenBalances)
	rec.PostTokenBalances = convertTokenBalances(meta.PostTokenBalances)

	return rec, nil
}

func convertTokenBalances(balances []rpc.TokenBalance) []TokenBalance {
	out := make([]TokenBalance, 0, len(balances))
	for _, b := range balances {
		if b.UiTokenAmount == nil {
			continue
		}
		tb := TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint,
			Amount:       b.UiTokenAmount.Amount,
			Decimals:     uint8(b.UiTokenAmount.Decimals),
			UIAmount:     b.UiTokenAmount.UiAmount,
		}
		if b.Owner != nil {
			tb.Owner = *b.Owner
		}
		out = append(out, tb)
	}
	return out
}

// accountAt resolves an account-key index defensively.
func (r *TransactionRecord) accountAt(idx uint16) (solana.PublicKey, bool) {
	if int(idx) >= len(r.AccountKeys) {
		return solana.PublicKey{}, false
	}
	return r.AccountKeys[idx], true
}

// Signer returns the fee payer, the first account of the message.
func (r *TransactionRecord) Signer() solana.PublicKey {
	if len(r.AccountKeys) == 0 {
		return solana.PublicKey{}
	}
	return r.AccountKeys[0]
}

// BalanceChange is one row of the per-account token balance report.
type BalanceChange struct {
	Account solana.PublicKey
	Owner   solana.PublicKey
	Mint    solana.PublicKey
	Before  decimal.Decimal
	After   decimal.Decimal
	Delta   decimal.Decimal
}

// TokenBalanceChanges reports every token account whose balance moved,
// matching pre and post snapshots by account index.
func (r *TransactionRecord) TokenBalanceChanges() []BalanceChange {
	pre := make(map[uint16]TokenBalance, len(r.PreTokenBalances))
	for _, b := range r.PreTokenBalances {
		pre[b.AccountIndex] = b
	}

	var changes []BalanceChange
	for _, post := range r.PostTokenBalances {
		// Accounts created during the transaction have no pre snapshot.
		beforeAmt := decimal.Zero
		if before, ok := pre[post.AccountIndex]; ok {
			amt, okB := before.UIAmountDecimal()
			if !okB {
				continue
			}
			beforeAmt = amt
		}
		afterAmt, okA := post.UIAmountDecimal()
		if !okA {
			continue
		}
		delta := afterAmt.Sub(beforeAmt)
		if delta.IsZero() {
			continue
		}
		change := BalanceChange{
			Owner:  post.Owner,
			Mint:   post.Mint,
			Before: beforeAmt,
			After:  afterAmt,
			Delta:  delta,
		}
		if key, ok := r.accountAt(post.AccountIndex); ok {
			change.Account = key
		}
		changes = append(changes, change)
	}
	return changes
}

// SolChange returns the fee payer's lamport delta across the transaction.
func (r *TransactionRecord) SolChange() (int64, bool) {
	if len(r.PreBalances) == 0 || len(r.PostBalances) == 0 {
		return 0, false
	}
	return int64(r.PostBalances[0]) - int64(r.PreBalances[0]), true
}
