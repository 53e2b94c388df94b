package live

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/satindergrewal/sonigraph/internal/apperr"
)

// Feed supplies live values.
type Feed interface {
	// Series fetches an initial history for symbol.
	Series(ctx context.Context, symbol string) (Series, error)
	// Latest fetches the newest value.
	Latest(ctx context.Context) (float64, error)
}

// Series is the result of a history fetch.
type Series struct {
	Name        string
	Description string
	Symbol      string
	Values      []float64
	FetchedAt   time.Time
}

const (
	// SeriesLength is the number of points a simulated history holds.
	SeriesLength = 60
	// DefaultBasePrice seeds the simulator before any history is fetched.
	DefaultBasePrice = 100.0

	minSeriesValue = 0.01
	minBasePrice   = 1.0
	variation      = 0.02
)

var errSimulatedFailure = errors.New("simulated upstream failure")

// Simulator generates plausible price movement. Latest perturbs the last
// price by up to ±1%; Series produces a fresh random-walk history with a
// slow sinusoidal trend.
type Simulator struct {
	mu          sync.Mutex
	basePrice   float64
	failureRate float64
	rng         *rand.Rand
}

// NewSimulator creates a simulator. failureRate in [0,1] is the chance each
// fetch fails, for exercising error paths.
func NewSimulator(basePrice, failureRate float64) *Simulator {
	if basePrice <= 0 {
		basePrice = DefaultBasePrice
	}
	return &Simulator{
		basePrice:   basePrice,
		failureRate: failureRate,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSeededSimulator is NewSimulator with a deterministic random source.
func NewSeededSimulator(basePrice, failureRate float64, seed uint64) *Simulator {
	s := NewSimulator(basePrice, failureRate)
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return s
}

// BasePrice returns the price the next Latest call perturbs.
func (s *Simulator) BasePrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basePrice
}

// Latest moves the base price by (rand-0.5)*base*0.02, floored at 1.
func (s *Simulator) Latest(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.LiveFetch(err, "Live update cancelled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail() {
		return 0, apperr.LiveFetch(errSimulatedFailure, "Failed to fetch latest data point")
	}
	delta := (s.rng.Float64() - 0.5) * s.basePrice * variation
	s.basePrice = math.Max(minBasePrice, s.basePrice+delta)
	return s.basePrice, nil
}

// Series generates SeriesLength points starting from a random base between
// 100 and 300. The last point becomes the base for later Latest calls.
func (s *Simulator) Series(ctx context.Context, symbol string) (Series, error) {
	if err := ctx.Err(); err != nil {
		return Series{}, apperr.LiveFetch(err, "Live connection cancelled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail() {
		return Series{}, apperr.LiveFetch(errSimulatedFailure, fmt.Sprintf("Failed to connect to live data for %s", symbol))
	}

	price := 100 + s.rng.Float64()*200
	values := make([]float64, SeriesLength)
	for i := range values {
		change := (s.rng.Float64() - 0.5) * 2
		trend := math.Sin(float64(i)/10) * 0.5
		price = math.Max(minSeriesValue, price+change+trend)
		values[i] = price
	}
	s.basePrice = math.Max(minBasePrice, price)

	return Series{
		Name:        symbol + " Live Data (Simulated)",
		Description: "Simulated real-time " + symbol + " stock prices",
		Symbol:      symbol,
		Values:      values,
		FetchedAt:   time.Now(),
	}, nil
}

// fail must be called with mu held.
func (s *Simulator) fail() bool {
	return s.failureRate > 0 && s.rng.Float64() < s.failureRate
}
