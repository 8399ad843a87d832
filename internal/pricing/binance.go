// Package pricing quotes carbon credit prices. The quote tracks the BTC
// spot price on Binance with a damped correlation factor, anchored to a
// configured base carbon price.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// btcAnchor is the reference BTC price the correlation is measured from
	btcAnchor = 43000.0
	// correlationFactor damps how much of a BTC move reaches the carbon price
	correlationFactor = 0.2
)

// Source quotes the current carbon credit unit price
type Source interface {
	UnitPrice(ctx context.Context) (float64, error)
}

// MarketData is a point-in-time snapshot of the carbon market
type MarketData struct {
	CurrentPrice     float64   `json:"current_price"`
	PriceChange24h   float64   `json:"price_change_24h"`
	High24h          float64   `json:"high_24h"`
	Low24h           float64   `json:"low_24h"`
	MarketSentiment  string    `json:"market_sentiment"`
	DemandLevel      string    `json:"demand_level"`
	BTCPrice         float64   `json:"btc_price"`
	BTCChangePercent float64   `json:"btc_change_percent"`
	LastUpdated      time.Time `json:"last_updated"`
}

// BinanceSource derives carbon prices from the Binance BTCUSDT ticker.
// The last good BTC price is cached so a transient outage degrades to a
// slightly stale quote; with nothing cached, quoting fails rather than
// fabricating a price.
type BinanceSource struct {
	baseURL   string
	basePrice float64
	client    *http.Client
	logger    *zap.Logger

	mu          sync.RWMutex
	cachedBTC   float64
	lastUpdated time.Time
}

// NewBinanceSource creates a Binance-backed price source
func NewBinanceSource(baseURL string, basePrice float64, timeout time.Duration, logger *zap.Logger) *BinanceSource {
	return &BinanceSource{
		baseURL:   baseURL,
		basePrice: basePrice,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (s *BinanceSource) fetchBTC(ctx context.Context) (float64, error) {
	endpoint := fmt.Sprintf("%s/ticker/price?%s", s.baseURL,
		url.Values{"symbol": {"BTCUSDT"}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach binance: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("binance returned status %d", resp.StatusCode)
	}

	var ticker tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("failed to decode ticker: %w", err)
	}
	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid ticker price %q", ticker.Price)
	}
	return price, nil
}

// btcPrice returns a fresh BTC price, falling back to the cache on failure
func (s *BinanceSource) btcPrice(ctx context.Context) (float64, error) {
	price, err := s.fetchBTC(ctx)
	if err == nil {
		s.mu.Lock()
		s.cachedBTC = price
		s.lastUpdated = time.Now().UTC()
		s.mu.Unlock()
		return price, nil
	}

	s.mu.RLock()
	cached := s.cachedBTC
	s.mu.RUnlock()
	if cached > 0 {
		s.logger.Warn("using cached btc price", zap.Error(err))
		return cached, nil
	}
	return 0, err
}

func (s *BinanceSource) carbonPrice(btc float64) (price, changePercent float64) {
	btcChange := (btc - btcAnchor) / btcAnchor * 100
	changePercent = btcChange * correlationFactor
	return s.basePrice * (1 + changePercent/100), changePercent
}

// UnitPrice quotes the current carbon credit price in USD
func (s *BinanceSource) UnitPrice(ctx context.Context) (float64, error) {
	btc, err := s.btcPrice(ctx)
	if err != nil {
		return 0, err
	}
	price, _ := s.carbonPrice(btc)
	return price, nil
}

// MarketData returns the full market snapshot
func (s *BinanceSource) MarketData(ctx context.Context) (*MarketData, error) {
	btc, err := s.btcPrice(ctx)
	if err != nil {
		return nil, err
	}
	price, change := s.carbonPrice(btc)

	var sentiment, demand string
	switch {
	case change > 2:
		sentiment, demand = "Bullish", "High"
	case change > 0:
		sentiment, demand = "Positive", "Medium"
	case change > -2:
		sentiment, demand = "Neutral", "Medium"
	default:
		sentiment, demand = "Bearish", "Low"
	}

	return &MarketData{
		CurrentPrice:     price,
		PriceChange24h:   change,
		High24h:          price * 1.05,
		Low24h:           price * 0.95,
		MarketSentiment:  sentiment,
		DemandLevel:      demand,
		BTCPrice:         btc,
		BTCChangePercent: (btc - btcAnchor) / btcAnchor * 100,
		LastUpdated:      time.Now().UTC(),
	}, nil
}

// Refresh warms the BTC cache; run on a schedule so quotes stay live
// even when Binance hiccups.
func (s *BinanceSource) Refresh(ctx context.Context) {
	if _, err := s.btcPrice(ctx); err != nil {
		s.logger.Warn("price refresh failed", zap.Error(err))
	}
}

// LastUpdated reports when the cache was last filled
func (s *BinanceSource) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}
