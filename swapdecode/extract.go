package swapdecode

import "github.com/gagliardetto/solana-go"

// InstructionDescriptor is one resolved instruction: program identity, opaque
// payload, referenced accounts in instruction order.
type InstructionDescriptor struct {
	ProgramID solana.PublicKey
	Data      []byte
	Accounts  solana.PublicKeySlice
}

// ExtractInstructions returns every instruction of the target program, in
// execution order: each top-level instruction as it appears in the message,
// immediately followed by the nested (cross-program invocation) list it
// produced. The extractor only filters; it never reorders.
//
// Instructions without a byte payload are skipped, not failed: some upstream
// feeds pre-decode well-known instruction kinds and strip the raw data.
func ExtractInstructions(rec *TransactionRecord, target solana.PublicKey) []InstructionDescriptor {
	var out []InstructionDescriptor

	appendIfTarget := func(ix solana.CompiledInstruction) {
		progID, ok := rec.accountAt(ix.ProgramIDIndex)
		if !ok || !progID.Equals(target) {
			return
		}
		if len(ix.Data) == 0 {
			return
		}
		out = append(out, InstructionDescriptor{
			ProgramID: progID,
			Data:      ix.Data,
			Accounts:  resolveAccounts(rec, ix.Accounts),
		})
	}

	nested := make(map[uint16][]solana.CompiledInstruction, len(rec.Inner))
	for _, inner := range rec.Inner {
		nested[inner.Index] = append(nested[inner.Index], inner.Instructions...)
	}

	for i, ix := range rec.Instructions {
		appendIfTarget(ix)
		for _, inner := range nested[uint16(i)] {
			appendIfTarget(inner)
		}
	}

	return out
}

func resolveAccounts(rec *TransactionRecord, indices []uint16) solana.PublicKeySlice {
	accounts := make(solana.PublicKeySlice, 0, len(indices))
	for _, idx := range indices {
		key, ok := rec.accountAt(idx)
		if !ok {
			continue
		}
		accounts = append(accounts, key)
	}
	return accounts
}
