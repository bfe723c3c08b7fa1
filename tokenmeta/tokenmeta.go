// Package tokenmeta resolves per-mint metadata the decoding pipeline cannot
// read off the transaction itself: the mint's scale factor from its on-chain
// account state, and a USD unit price from a price API.
package tokenmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	priceDefaultBase = "https://api.jup.ag"
	pricePath        = "/price/v2"

	// Prices move; decimals never do.
	priceTTL = 30 * time.Second
)

// Service caches mint decimals indefinitely and prices for a short window.
// All lookups degrade to (zero, false) rather than failing: an unresolvable
// mint leaves the corresponding record fields unresolved upstream.
type Service struct {
	rpcClient *rpc.Client
	http      *http.Client
	priceBase string
	log       *logrus.Logger

	mu       sync.RWMutex
	decimals map[solana.PublicKey]uint8
	prices   map[solana.PublicKey]pricePoint
}

type pricePoint struct {
	price   decimal.Decimal
	fetched time.Time
}

func NewService(rpcClient *rpc.Client, log *logrus.Logger) *Service {
	base := os.Getenv("PRICE_API_BASE")
	if base == "" {
		base = priceDefaultBase
	}
	if log == nil {
		log = logrus.New()
	}

	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   8 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     60 * time.Second,
		MaxIdleConnsPerHost: 16,
	}

	s := &Service{
		rpcClient: rpcClient,
		http:      &http.Client{Timeout: 10 * time.Second, Transport: tr},
		priceBase: base,
		log:       log,
		decimals:  make(map[solana.PublicKey]uint8),
		prices:    make(map[solana.PublicKey]pricePoint),
	}

	// Wrapped SOL never changes.
	s.decimals[solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")] = 9

	return s
}

// Decimals reads the mint account and decodes its scale factor, caching
// forever on success.
func (s *Service) Decimals(ctx context.Context, mint solana.PublicKey) (uint8, bool) {
	s.mu.RLock()
	d, ok := s.decimals[mint]
	s.mu.RUnlock()
	if ok {
		return d, true
	}

	if s.rpcClient == nil {
		return 0, false
	}

	info, err := s.rpcClient.GetAccountInfo(ctx, mint)
	if err != nil || info.Value == nil {
		s.log.Warnf("failed to fetch mint account %s: %v", mint, err)
		return 0, false
	}

	var mintState token.Mint
	if err := ag_binary.NewBinDecoder(info.Value.Data.GetBinary()).Decode(&mintState); err != nil {
		s.log.Warnf("failed to decode mint account %s: %v", mint, err)
		return 0, false
	}

	s.mu.Lock()
	s.decimals[mint] = mintState.Decimals
	s.mu.Unlock()
	return mintState.Decimals, true
}

// UnitPriceUSD returns the cached price when fresh, otherwise fetches it.
func (s *Service) UnitPriceUSD(ctx context.Context, mint solana.PublicKey) (decimal.Decimal, bool) {
	s.mu.RLock()
	point, ok := s.prices[mint]
	s.mu.RUnlock()
	if ok && time.Since(point.fetched) < priceTTL {
		return point.price, true
	}

	price, err := s.fetchPrice(ctx, mint)
	if err != nil {
		s.log.Warnf("failed to fetch price for %s: %v", mint, err)
		// Serve a stale point over nothing at all.
		if ok {
			return point.price, true
		}
		return decimal.Decimal{}, false
	}

	s.mu.Lock()
	s.prices[mint] = pricePoint{price: price, fetched: time.Now()}
	s.mu.Unlock()
	return price, true
}

// priceResponse is the price API's shape: a map keyed by mint, prices as
// decimal strings.
type priceResponse struct {
	Data map[string]struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
}

func (s *Service) fetchPrice(ctx context.Context, mint solana.PublicKey) (decimal.Decimal, error) {
	u, err := url.Parse(s.priceBase)
	if err != nil {
		return decimal.Decimal{}, err
	}
	u.Path = pricePath
	q := u.Query()
	q.Set("ids", mint.String())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("price api returned %d", resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, err
	}

	entry, ok := body.Data[mint.String()]
	if !ok || entry.Price == "" {
		return decimal.Decimal{}, fmt.Errorf("no price for %s", mint)
	}
	return decimal.NewFromString(entry.Price)
}

// SeedDecimals preloads known scale factors, skipping the account fetch for
// mints the caller already trusts.
func (s *Service) SeedDecimals(seed map[solana.PublicKey]uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for mint, d := range seed {
		s.decimals[mint] = d
	}
}
