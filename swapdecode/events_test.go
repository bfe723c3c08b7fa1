package swapdecode

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecord wraps encoded event payloads in a minimal transaction whose
// inner instructions all invoke the given program.
func eventRecord(t *testing.T, program solana.PublicKey, payloads ...[]byte) *TransactionRecord {
	t.Helper()

	instructions := make([]solana.CompiledInstruction, 0, len(payloads))
	for _, p := range payloads {
		instructions = append(instructions, ix(0, p))
	}
	return &TransactionRecord{
		AccountKeys: solana.PublicKeySlice{program},
		Inner:       []InnerInstructionSet{{Index: 0, Instructions: instructions}},
	}
}

func TestDecodeEventsCollectsSwapLegsInOrder(t *testing.T) {
	schema := NewJupiterSchema()
	program := solana.NewWallet().PublicKey()

	first := SwapLegEvent{
		Amm:          solana.NewWallet().PublicKey(),
		InputMint:    WSOL_MINT,
		InputAmount:  100,
		OutputMint:   USDC_MINT,
		OutputAmount: 200,
	}
	second := SwapLegEvent{
		Amm:          solana.NewWallet().PublicKey(),
		InputMint:    USDC_MINT,
		InputAmount:  200,
		OutputMint:   USDT_MINT,
		OutputAmount: 199,
	}

	p1, err := schema.EncodeEvent(EventSwap, &first)
	require.NoError(t, err)
	p2, err := schema.EncodeEvent(EventSwap, &second)
	require.NoError(t, err)

	events := DecodeEvents(eventRecord(t, program, p1, p2), schema, program, nil)
	require.Len(t, events.Swaps, 2)
	assert.Equal(t, first, events.Swaps[0])
	assert.Equal(t, second, events.Swaps[1])
	assert.Nil(t, events.Fee)
}

func TestDecodeEventsFirstFeeWins(t *testing.T) {
	schema := NewJupiterSchema()
	program := solana.NewWallet().PublicKey()

	f1 := FeeEvent{Account: solana.NewWallet().PublicKey(), Mint: USDC_MINT, Amount: 10}
	f2 := FeeEvent{Account: solana.NewWallet().PublicKey(), Mint: USDC_MINT, Amount: 99}

	p1, err := schema.EncodeEvent(EventFee, &f1)
	require.NoError(t, err)
	p2, err := schema.EncodeEvent(EventFee, &f2)
	require.NoError(t, err)

	events := DecodeEvents(eventRecord(t, program, p1, p2), schema, program, nil)
	require.NotNil(t, events.Fee)
	assert.Equal(t, f1, *events.Fee)
}

func TestDecodeEventsSkipsForeignPayloads(t *testing.T) {
	schema := NewJupiterSchema()
	program := solana.NewWallet().PublicKey()

	// Unknown discriminators, truncated payloads, and empty data are all
	// routine inner-instruction content, none of them abort the walk.
	leg := SwapLegEvent{InputAmount: 1, OutputAmount: 2}
	valid, err := schema.EncodeEvent(EventSwap, &leg)
	require.NoError(t, err)

	events := DecodeEvents(eventRecord(t, program,
		[]byte{1, 2, 3},
		nil,
		append(append([]byte{}, EventSentinel[:]...), 9, 9, 9, 9, 9, 9, 9, 9),
		valid,
	), schema, program, nil)

	require.Len(t, events.Swaps, 1)
	assert.Equal(t, leg, events.Swaps[0])
}

func TestDecodeEventsIgnoresOtherPrograms(t *testing.T) {
	schema := NewJupiterSchema()
	program := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	payload, err := schema.EncodeEvent(EventSwap, &SwapLegEvent{InputAmount: 1})
	require.NoError(t, err)

	rec := &TransactionRecord{
		AccountKeys: solana.PublicKeySlice{other},
		Inner: []InnerInstructionSet{{Index: 0, Instructions: []solana.CompiledInstruction{
			ix(0, payload),
		}}},
	}

	events := DecodeEvents(rec, schema, program, nil)
	assert.Empty(t, events.Swaps)
}

func TestDecodeEventsIgnoresTopLevelInstructions(t *testing.T) {
	schema := NewJupiterSchema()
	program := solana.NewWallet().PublicKey()

	payload, err := schema.EncodeEvent(EventSwap, &SwapLegEvent{InputAmount: 1})
	require.NoError(t, err)

	// Event CPIs only ever appear nested; a top-level payload that happens
	// to match the shape is not an event.
	rec := &TransactionRecord{
		AccountKeys:  solana.PublicKeySlice{program},
		Instructions: []solana.CompiledInstruction{ix(0, payload)},
	}

	events := DecodeEvents(rec, schema, program, nil)
	assert.Empty(t, events.Swaps)
}
