package swapdecode

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// DecodedEvents collects the typed events one transaction emitted through the
// target program, grouped by kind.
type DecodedEvents struct {
	Swaps []SwapLegEvent
	Fee   *FeeEvent
}

// DecodeEvents applies the schema to every nested instruction belonging to
// program, in execution order. Payloads with unknown discriminators are
// dropped silently: the program's instruction stream interleaves routing
// instructions, other cross-program calls, and the event CPIs this function
// is after.
//
// Zero decoded swap events is not an error; it means this transaction holds
// no trade performed by the program, and the caller should short-circuit.
func DecodeEvents(rec *TransactionRecord, schema *Schema, program solana.PublicKey, log *logrus.Logger) *DecodedEvents {
	events := &DecodedEvents{}

	for _, inner := range rec.Inner {
		for _, ix := range inner.Instructions {
			progID, ok := rec.accountAt(ix.ProgramIDIndex)
			if !ok || !progID.Equals(program) {
				continue
			}
			if len(ix.Data) == 0 {
				continue
			}

			name, payload, err := schema.DecodeEvent(ix.Data)
			if err != nil {
				if !errors.Is(err, ErrUnknownDiscriminator) && log != nil {
					log.Warnf("failed to decode %s event payload: %v", program, err)
				}
				continue
			}

			switch name {
			case EventSwap:
				events.Swaps = append(events.Swaps, *payload.(*SwapLegEvent))
			case EventFee:
				if events.Fee == nil {
					events.Fee = payload.(*FeeEvent)
				}
			}
		}
	}

	return events
}
