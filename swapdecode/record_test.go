package swapdecode

import (
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordFromPartsMergesLoadedAddresses(t *testing.T) {
	static := solana.PublicKeySlice{
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	}
	writable := solana.NewWallet().PublicKey()
	readonly := solana.NewWallet().PublicKey()

	tx := &solana.Transaction{
		Signatures: []solana.Signature{{1, 2, 3}},
		Message: solana.Message{
			AccountKeys: static,
			Instructions: []solana.CompiledInstruction{
				ix(0, []byte{1}),
			},
		},
	}
	meta := &rpc.TransactionMeta{
		PreBalances:  []uint64{5_000_000_000, 0},
		PostBalances: []uint64{3_000_000_000, 0},
		LoadedAddresses: rpc.LoadedAddresses{
			Writable: solana.PublicKeySlice{writable},
			ReadOnly: solana.PublicKeySlice{readonly},
		},
		InnerInstructions: []rpc.InnerInstruction{
			{Index: 0, Instructions: []rpc.CompiledInstruction{{ProgramIDIndex: 1, Data: []byte{2}}}},
		},
	}

	blockTime := time.Unix(1_700_000_000, 0)
	rec, err := NewRecordFromParts(tx, meta, 250_000_000, blockTime)
	require.NoError(t, err)

	// Lookup-table keys extend the static table, writable before readonly,
	// so compiled indices keep resolving.
	require.Len(t, rec.AccountKeys, 4)
	assert.Equal(t, static[0], rec.AccountKeys[0])
	assert.Equal(t, writable, rec.AccountKeys[2])
	assert.Equal(t, readonly, rec.AccountKeys[3])

	assert.Equal(t, solana.Signature{1, 2, 3}, rec.Signature)
	assert.Equal(t, uint64(250_000_000), rec.Slot)
	assert.Equal(t, blockTime, rec.BlockTime)
	assert.False(t, rec.Failed)
	assert.Equal(t, static[0], rec.Signer())

	require.Len(t, rec.Inner, 1)
	assert.Equal(t, uint16(0), rec.Inner[0].Index)

	delta, ok := rec.SolChange()
	require.True(t, ok)
	assert.Equal(t, int64(-2_000_000_000), delta)
}

func TestNewRecordFromPartsNilInputs(t *testing.T) {
	_, err := NewRecordFromParts(nil, &rpc.TransactionMeta{}, 0, time.Time{})
	assert.Error(t, err)

	_, err = NewRecordFromParts(&solana.Transaction{}, nil, 0, time.Time{})
	assert.Error(t, err)
}

func TestUIAmountDecimalPrefersRawAmount(t *testing.T) {
	b := TokenBalance{Amount: "1500000123", Decimals: 9, UIAmount: pointer.ToFloat64(1.5)}
	got, ok := b.UIAmountDecimal()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("1.500000123").Equal(got))

	// Only the lossy float is available.
	b = TokenBalance{Amount: "", UIAmount: pointer.ToFloat64(2.25)}
	got, ok = b.UIAmountDecimal()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("2.25").Equal(got))

	b = TokenBalance{}
	_, ok = b.UIAmountDecimal()
	assert.False(t, ok)
}

func TestTokenBalanceChanges(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	account := solana.NewWallet().PublicKey()

	rec := &TransactionRecord{
		AccountKeys: solana.PublicKeySlice{solana.NewWallet().PublicKey(), account, solana.NewWallet().PublicKey()},
		PreTokenBalances: []TokenBalance{
			{AccountIndex: 1, Mint: mint, Owner: owner, Amount: "1000", Decimals: 2},
			{AccountIndex: 2, Mint: mint, Owner: owner, Amount: "77", Decimals: 2}, // unchanged
		},
		PostTokenBalances: []TokenBalance{
			{AccountIndex: 1, Mint: mint, Owner: owner, Amount: "400", Decimals: 2},
			{AccountIndex: 2, Mint: mint, Owner: owner, Amount: "77", Decimals: 2},
		},
	}

	changes := rec.TokenBalanceChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, account, changes[0].Account)
	assert.Equal(t, owner, changes[0].Owner)
	assert.Equal(t, mint, changes[0].Mint)
	assert.True(t, decimal.RequireFromString("10").Equal(changes[0].Before))
	assert.True(t, decimal.RequireFromString("4").Equal(changes[0].After))
	assert.True(t, decimal.RequireFromString("-6").Equal(changes[0].Delta))
}

func TestTokenBalanceChangesAccountCreatedMidTransaction(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	rec := &TransactionRecord{
		AccountKeys: solana.PublicKeySlice{solana.NewWallet().PublicKey()},
		PostTokenBalances: []TokenBalance{
			{AccountIndex: 0, Mint: mint, Owner: owner, Amount: "2500000", Decimals: 6},
		},
	}

	changes := rec.TokenBalanceChanges()
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Before.IsZero())
	assert.True(t, decimal.RequireFromString("2.5").Equal(changes[0].Delta))
}

func TestConvertTokenBalancesHandlesMissingFields(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	in := []rpc.TokenBalance{
		{AccountIndex: 1, Mint: WSOL_MINT}, // no amounts at all, dropped
		{
			AccountIndex:  2,
			Mint:          USDC_MINT,
			Owner:         &owner,
			UiTokenAmount: &rpc.UiTokenAmount{Amount: "100", Decimals: 6, UiAmount: pointer.ToFloat64(0.0001)},
		},
		{
			AccountIndex:  3,
			Mint:          USDC_MINT, // no owner on legacy feeds
			UiTokenAmount: &rpc.UiTokenAmount{Amount: "5", Decimals: 6},
		},
	}

	out := convertTokenBalances(in)
	require.Len(t, out, 2)
	assert.Equal(t, owner, out[0].Owner)
	assert.Equal(t, "100", out[0].Amount)
	assert.True(t, out[1].Owner.IsZero())
}

func TestSolChangeNoBalances(t *testing.T) {
	rec := &TransactionRecord{}
	_, ok := rec.SolChange()
	assert.False(t, ok)
}
