package swapdecode

import (
	"fmt"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Venue identifies the AMM behind one route hop, the variant index of the
// route plan's swap enum.
type Venue uint8

const (
	VenueSaber        Venue = 0
	VenueTokenSwap    Venue = 3
	VenueRaydium      Venue = 7
	VenueCrema        Venue = 8
	VenueLifinity     Venue = 9
	VenueMercurial    Venue = 10
	VenueSerum        Venue = 12
	VenueAldrin       Venue = 15
	VenueAldrinV2     Venue = 16
	VenueWhirlpool    Venue = 17
	VenueMeteora      Venue = 19
	VenueLifinityV2   Venue = 25
	VenueRaydiumClmm  Venue = 26
	VenueOpenbook     Venue = 27
	VenuePhoenix      Venue = 28
	VenueMeteoraDlmm  Venue = 38
	VenueOpenbookV2   Venue = 39
	VenueRaydiumClmm2 Venue = 40
	VenueRaydiumCP    Venue = 46
	VenueWhirlpoolV2  Venue = 47
	VenueSolFi        Venue = 61
)

var venueNames = map[Venue]string{
	VenueSaber:        "Saber",
	VenueTokenSwap:    "TokenSwap",
	VenueRaydium:      "Raydium",
	VenueCrema:        "Crema",
	VenueLifinity:     "Lifinity",
	VenueMercurial:    "Mercurial",
	VenueSerum:        "Serum",
	VenueAldrin:       "Aldrin",
	VenueAldrinV2:     "AldrinV2",
	VenueWhirlpool:    "Whirlpool",
	VenueMeteora:      "Meteora",
	VenueLifinityV2:   "LifinityV2",
	VenueRaydiumClmm:  "RaydiumClmm",
	VenueOpenbook:     "Openbook",
	VenuePhoenix:      "Phoenix",
	VenueMeteoraDlmm:  "MeteoraDlmm",
	VenueOpenbookV2:   "OpenbookV2",
	VenueRaydiumClmm2: "RaydiumClmmV2",
	VenueRaydiumCP:    "RaydiumCP",
	VenueWhirlpoolV2:  "WhirlpoolV2",
	VenueSolFi:        "SolFi",
}

func (v Venue) String() string {
	if name, ok := venueNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Venue(%d)", uint8(v))
}

// venuePayloadSize gives the Borsh payload width of each enum variant that
// carries one. Order-book venues carry a side byte, concentrated-liquidity
// venues a direction byte; everything else is empty. A variant outside this
// table and outside the named set cannot be skipped safely, so decoding fails
// rather than silently misaligning the rest of the stream.
var venuePayloadSize = map[Venue]int{
	VenueCrema:        1, // a_to_b
	VenueSerum:        1, // side
	VenueAldrin:       1, // side
	VenueAldrinV2:     1, // side
	VenueWhirlpool:    1, // a_to_b
	VenueOpenbook:     1, // side
	VenuePhoenix:      1, // side
	VenueOpenbookV2:   1, // side
	VenueWhirlpoolV2:  1, // a_to_b
	VenueSolFi:        1, // is_quote_to_base
}

// VenueSelector is the route step's swap enum on the wire: a u8 variant index
// followed by that variant's payload.
type VenueSelector struct {
	Venue   Venue
	Payload []byte
}

func (v *VenueSelector) UnmarshalWithDecoder(dec *ag_binary.Decoder) error {
	idx, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	v.Venue = Venue(idx)

	size, hasPayload := venuePayloadSize[v.Venue]
	if !hasPayload {
		if _, known := venueNames[v.Venue]; !known {
			return fmt.Errorf("unsupported venue variant %d", idx)
		}
		v.Payload = nil
		return nil
	}

	v.Payload = make([]byte, size)
	for i := range v.Payload {
		b, err := dec.ReadUint8()
		if err != nil {
			return err
		}
		v.Payload[i] = b
	}
	return nil
}

func (v VenueSelector) MarshalWithEncoder(enc *ag_binary.Encoder) error {
	if err := enc.WriteUint8(uint8(v.Venue)); err != nil {
		return err
	}
	if size := venuePayloadSize[v.Venue]; size > 0 {
		if len(v.Payload) != size {
			return fmt.Errorf("venue %s requires a %d-byte payload", v.Venue, size)
		}
		return enc.WriteBytes(v.Payload, false)
	}
	return nil
}

// RoutePlanStep is one hop of a route plan. InputIndex and OutputIndex are
// positions in the route-wide numbering scheme shared by every step of one
// plan: 0 is the external entry, len(plan) the external exit.
type RoutePlanStep struct {
	Swap        VenueSelector
	Percent     uint8
	InputIndex  uint8
	OutputIndex uint8
}

// RouteArgs are the decoded args of route and route_with_token_ledger.
type RouteArgs struct {
	RoutePlan       []RoutePlanStep
	InAmount        uint64
	QuotedOutAmount uint64
	SlippageBps     uint16
	PlatformFeeBps  uint8
}

// SharedAccountsRouteArgs adds the shared-accounts authority id in front.
type SharedAccountsRouteArgs struct {
	ID              uint8
	RoutePlan       []RoutePlanStep
	InAmount        uint64
	QuotedOutAmount uint64
	SlippageBps     uint16
	PlatformFeeBps  uint8
}

type ExactOutRouteArgs struct {
	RoutePlan      []RoutePlanStep
	OutAmount      uint64
	QuotedInAmount uint64
	SlippageBps    uint16
	PlatformFeeBps uint8
}

type SharedAccountsExactOutRouteArgs struct {
	ID             uint8
	RoutePlan      []RoutePlanStep
	OutAmount      uint64
	QuotedInAmount uint64
	SlippageBps    uint16
	PlatformFeeBps uint8
}

// SwapLegEvent is one decoded swap-leg event, one per executed route hop.
type SwapLegEvent struct {
	Amm          solana.PublicKey
	InputMint    solana.PublicKey
	InputAmount  uint64
	OutputMint   solana.PublicKey
	OutputAmount uint64
}

// FeeEvent is the platform fee taken by the route, at most one per
// transaction.
type FeeEvent struct {
	Account solana.PublicKey
	Mint    solana.PublicKey
	Amount  uint64
}

const (
	EventSwap = "SwapEvent"
	EventFee  = "FeeEvent"
)

// NewJupiterSchema describes the Jupiter v6 routing instructions and the
// events they emit through self-CPI.
func NewJupiterSchema() *Schema {
	s := NewSchema()

	s.RegisterInstruction(IxRoute, func() interface{} { return new(RouteArgs) })
	s.RegisterInstruction(IxRouteWithTokenLedger, func() interface{} { return new(RouteArgs) })
	s.RegisterInstruction(IxSharedAccountsRoute, func() interface{} { return new(SharedAccountsRouteArgs) })
	s.RegisterInstruction(IxSharedAccountsRouteWithTokenLedger, func() interface{} { return new(SharedAccountsRouteArgs) })
	s.RegisterInstruction(IxExactOutRoute, func() interface{} { return new(ExactOutRouteArgs) })
	s.RegisterInstruction(IxSharedAccountsExactOutRoute, func() interface{} { return new(SharedAccountsExactOutRouteArgs) })

	s.RegisterEvent(EventSwap, func() interface{} { return new(SwapLegEvent) })
	s.RegisterEvent(EventFee, func() interface{} { return new(FeeEvent) })

	return s
}

// routePlanOf pulls the route plan out of whichever routing args variant was
// decoded.
func routePlanOf(args interface{}) []RoutePlanStep {
	switch a := args.(type) {
	case *RouteArgs:
		return a.RoutePlan
	case *SharedAccountsRouteArgs:
		return a.RoutePlan
	case *ExactOutRouteArgs:
		return a.RoutePlan
	case *SharedAccountsExactOutRouteArgs:
		return a.RoutePlan
	}
	return nil
}

// quotedAmountOf returns the declared quote of a routing instruction:
// the quoted out amount for exact-in variants, the quoted in amount for
// exact-out variants.
func quotedAmountOf(args interface{}) (uint64, bool) {
	switch a := args.(type) {
	case *RouteArgs:
		return a.QuotedOutAmount, true
	case *SharedAccountsRouteArgs:
		return a.QuotedOutAmount, true
	case *ExactOutRouteArgs:
		return a.QuotedInAmount, true
	case *SharedAccountsExactOutRouteArgs:
		return a.QuotedInAmount, true
	}
	return 0, false
}
