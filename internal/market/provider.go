//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package market fetches live crypto prices and fiat exchange rates.
//
// Both fetchers are guaranteed non-throwing to the caller: any transport
// or decoding failure yields fixed fallback values so that a market-data
// outage never stops the pipeline. Callers receive no freshness flag;
// downstream generation treats live and fallback data identically.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rampworks/rampgen/internal/logging"
)

// Snapshot bundles one consistent view of market data for a batch.
type Snapshot struct {
	// CryptoPrices maps token identifier to USD price.
	CryptoPrices map[string]float64

	// FXRates maps currency code to its USD rate. To convert an amount to
	// USD, divide by the rate (100 EUR / 0.92 = ~108.70 USD).
	FXRates map[string]float64
}

// Provider supplies current market data.
type Provider interface {
	CryptoPrices(ctx context.Context) map[string]float64
	FXRates(ctx context.Context) map[string]float64
}

// Fallback values returned when the live sources are unreachable or
// return garbage. Approximate levels as of design time.
var (
	FallbackCryptoPrices = map[string]float64{
		"bitcoin":  65000.0,
		"ethereum": 3500.0,
		"solana":   140.0,
		"tether":   1.0,
	}

	FallbackFXRates = map[string]float64{
		"USD": 1.0,
		"EUR": 0.92,
		"GBP": 0.79,
		"CAD": 1.35,
	}
)

// Client fetches market data over HTTP with fallback behavior.
type Client struct {
	pricesURL string
	ratesURL  string
	tokens    []string
	http      *http.Client
}

// NewClient creates a market-data client. tokens is the list of token
// identifiers to request prices for; identifiers must match the price
// API's naming.
func NewClient(pricesURL, ratesURL string, tokens []string, timeout time.Duration) *Client {
	return &Client{
		pricesURL: pricesURL,
		ratesURL:  ratesURL,
		tokens:    tokens,
		http:      &http.Client{Timeout: timeout},
	}
}

// CryptoPrices returns current USD prices for the configured tokens,
// falling back to fixed values on any failure.
func (c *Client) CryptoPrices(ctx context.Context) map[string]float64 {
	prices, err := c.fetchCryptoPrices(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to fetch crypto prices, using fallback values")
		return FallbackCryptoPrices
	}

	logging.Debug().Int("tokens", len(prices)).Msg("Fetched live crypto prices")
	return prices
}

// FXRates returns current USD exchange rates, falling back to fixed
// values on any failure.
func (c *Client) FXRates(ctx context.Context) map[string]float64 {
	rates, err := c.fetchFXRates(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to fetch FX rates, using fallback values")
		return FallbackFXRates
	}

	logging.Debug().Int("currencies", len(rates)).Msg("Fetched live FX rates")
	return rates
}

// FetchSnapshot fetches both feeds as one snapshot.
func FetchSnapshot(ctx context.Context, p Provider) Snapshot {
	return Snapshot{
		CryptoPrices: p.CryptoPrices(ctx),
		FXRates:      p.FXRates(ctx),
	}
}

func (c *Client) fetchCryptoPrices(ctx context.Context) (map[string]float64, error) {
	u, err := url.Parse(c.pricesURL)
	if err != nil {
		return nil, fmt.Errorf("invalid prices URL: %w", err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(c.tokens, ","))
	q.Set("vs_currencies", "usd")
	u.RawQuery = q.Encode()

	// Response shape: {"bitcoin": {"usd": 65000.0}, ...}
	var payload map[string]map[string]float64
	if err := c.getJSON(ctx, u.String(), &payload); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(payload))
	for token, quote := range payload {
		usd, ok := quote["usd"]
		if !ok {
			return nil, fmt.Errorf("price response missing usd quote for %s", token)
		}
		prices[token] = usd
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("price response contained no tokens")
	}
	return prices, nil
}

func (c *Client) fetchFXRates(ctx context.Context) (map[string]float64, error) {
	// Response shape: {"rates": {"EUR": 0.92, ...}}
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.ratesURL, &payload); err != nil {
		return nil, err
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rates response contained no currencies")
	}
	return payload.Rates, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
