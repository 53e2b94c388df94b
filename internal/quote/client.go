// Package quote fetches prices from an HTTP quote API. It implements
// live.Feed so a real market feed can replace the simulator.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/live"
)

// HistoryPoints is how many points Series asks the API for.
const HistoryPoints = live.SeriesLength

// Client talks to a quote API exposing
//
//	GET /health
//	GET /quote?symbol=SYM           -> {"symbol": "SYM", "price": 101.5, "time": "..."}
//	GET /history?symbol=SYM&points=N -> {"symbol": "SYM", "name": "...", "prices": [...]}
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu     sync.Mutex
	symbol string
}

// NewClient creates a quote client. symbol is the default used by Latest
// until Series is called with another one.
func NewClient(baseURL, apiKey, symbol string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		symbol:  symbol,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type quoteResponse struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}

type historyResponse struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prices      []float64 `json:"prices"`
}

// Symbol returns the symbol Latest fetches.
func (c *Client) Symbol() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.symbol
}

// Available checks if the quote API is reachable.
func (c *Client) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WaitForReady polls the API until it responds or ctx expires.
func (c *Client) WaitForReady(ctx context.Context, every time.Duration) bool {
	if c.Available(ctx) {
		return true
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if c.Available(ctx) {
				log.Printf("Quote API ready (%s)", c.baseURL)
				return true
			}
		}
	}
}

// Latest fetches the current price of the client's symbol.
func (c *Client) Latest(ctx context.Context) (float64, error) {
	symbol := c.Symbol()
	var q quoteResponse
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &q); err != nil {
		return 0, apperr.LiveFetch(err, "Failed to fetch latest data point")
	}
	if q.Price <= 0 {
		return 0, apperr.LiveFetch(fmt.Errorf("non-positive price %v", q.Price), "Quote API returned no price")
	}
	return q.Price, nil
}

// Series fetches recent history for symbol and makes it the symbol Latest
// follows.
func (c *Client) Series(ctx context.Context, symbol string) (live.Series, error) {
	if symbol == "" {
		return live.Series{}, apperr.Input("A symbol is required")
	}
	params := url.Values{
		"symbol": {symbol},
		"points": {strconv.Itoa(HistoryPoints)},
	}
	var h historyResponse
	if err := c.get(ctx, "/history", params, &h); err != nil {
		return live.Series{}, apperr.LiveFetch(err, "Failed to connect to live data: "+err.Error())
	}
	if len(h.Prices) == 0 {
		return live.Series{}, apperr.LiveFetch(errors.New("empty history"), "Quote API returned no prices for "+symbol)
	}

	c.mu.Lock()
	c.symbol = symbol
	c.mu.Unlock()

	name := h.Name
	if name == "" {
		name = symbol + " Live Data"
	}
	return live.Series{
		Name:        name,
		Description: h.Description,
		Symbol:      symbol,
		Values:      h.Prices,
		FetchedAt:   time.Now(),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("quote status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
