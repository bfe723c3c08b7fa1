package swapdecode

import "github.com/gagliardetto/solana-go"

var (
	JUPITER_V6_PROGRAM_ID  = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")
	JUPITER_DCA_PROGRAM_ID = solana.MustPublicKeyFromBase58("DCAK36VfExkPdAkYUQg6ewgxyinvcEyPLyHjRbmveKFw")
	RAYDIUM_V4_PROGRAM_ID  = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	// RAYDIUM_AUTHORITY holds every Raydium V4 pool's reserves. Balance
	// changes on this owner reveal trade direction without decoding a
	// single instruction.
	RAYDIUM_AUTHORITY = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")

	WSOL_MINT = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDC_MINT = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	USDT_MINT = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
)

// Routing instruction names, anchor snake_case as hashed into the
// discriminators.
const (
	IxRoute                              = "route"
	IxRouteWithTokenLedger               = "route_with_token_ledger"
	IxSharedAccountsRoute                = "shared_accounts_route"
	IxSharedAccountsRouteWithTokenLedger = "shared_accounts_route_with_token_ledger"
	IxExactOutRoute                      = "exact_out_route"
	IxSharedAccountsExactOutRoute        = "shared_accounts_exact_out_route"
)

func isRoutingInstruction(name string) bool {
	return isExactInInstruction(name) || isExactOutInstruction(name)
}

// Exact-in instructions declare a quoted OUT amount; exact-out instructions
// declare a quoted IN amount.
func isExactInInstruction(name string) bool {
	switch name {
	case IxRoute, IxRouteWithTokenLedger, IxSharedAccountsRoute, IxSharedAccountsRouteWithTokenLedger:
		return true
	}
	return false
}

func isExactOutInstruction(name string) bool {
	return name == IxExactOutRoute || name == IxSharedAccountsExactOutRoute
}

// transferAuthorityPosition is the documented account-list position of the
// transfer authority for each routing instruction variant. The shared-accounts
// variants put the program authority first, pushing the transfer authority one
// slot further down.
func transferAuthorityPosition(name string) int {
	switch name {
	case IxSharedAccountsRoute, IxSharedAccountsRouteWithTokenLedger, IxSharedAccountsExactOutRoute:
		return 2
	default:
		return 1
	}
}

// The last account of a routing instruction is, by convention, a tracking
// account appended by integrators. There is no way to verify it; it is
// surfaced as-is on the SwapRecord.
func trackingAccountPosition(accounts []solana.PublicKey) int {
	return len(accounts) - 1
}
