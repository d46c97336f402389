package chain

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrPriceUnavailable indicates no live rate can be produced.
var ErrPriceUnavailable = errors.New("price unavailable")

// RateSource produces a USD price for a settlement token.
type RateSource interface {
	Price(token string, now time.Time) (float64, error)
}

// ConverterConfig wires a Converter.
type ConverterConfig struct {
	UseFixedRates bool
	USDPerNative  float64 // USD price of one SOL under fixed rates
	USDPerStable  float64 // USD price of one USDC under fixed rates
	Source        RateSource
}

// Converter turns a fiat price into an on-chain settlement amount. Fixed
// rates serve development and deterministic tests; live deployments plug in
// a RateSource.
type Converter struct {
	fixed        bool
	usdPerNative float64
	usdPerStable float64
	source       RateSource
	nowFn        func() time.Time
}

// NewConverter validates the configuration: live rates require a source.
func NewConverter(cfg ConverterConfig, nowFn func() time.Time) (*Converter, error) {
	if !cfg.UseFixedRates && cfg.Source == nil {
		return nil, errors.New("live rates configured without a rate source")
	}
	if cfg.USDPerNative <= 0 {
		cfg.USDPerNative = 100
	}
	if cfg.USDPerStable <= 0 {
		cfg.USDPerStable = 1
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Converter{
		fixed:        cfg.UseFixedRates,
		usdPerNative: cfg.USDPerNative,
		usdPerStable: cfg.USDPerStable,
		source:       cfg.Source,
		nowFn:        nowFn,
	}, nil
}

// Convert returns how much of the settlement currency covers a USD price.
func (c *Converter) Convert(usd float64, currency string) (float64, error) {
	if usd <= 0 {
		return 0, fmt.Errorf("price must be positive, got %v", usd)
	}
	rate, err := c.rate(currency)
	if err != nil {
		return 0, err
	}
	return usd / rate, nil
}

func (c *Converter) rate(currency string) (float64, error) {
	if c.fixed {
		switch currency {
		case "SOL":
			return c.usdPerNative, nil
		case "USDC":
			return c.usdPerStable, nil
		default:
			return 0, fmt.Errorf("unsupported settlement currency %q", currency)
		}
	}
	rate, err := c.source.Price(currency, c.nowFn())
	if err != nil {
		return 0, fmt.Errorf("rate for %s: %w", currency, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("rate for %s: %w", currency, ErrPriceUnavailable)
	}
	return rate, nil
}

// PriceSample is one observation from a feed.
type PriceSample struct {
	Value     float64
	Timestamp time.Time
}

// Oracle aggregates per-token price feeds and serves the median of the
// samples still inside the TTL. It satisfies RateSource.
type Oracle struct {
	mu    sync.RWMutex
	ttl   time.Duration
	feeds map[string]map[string]PriceSample
}

// NewOracle builds an empty oracle with the given sample TTL.
func NewOracle(ttl time.Duration) *Oracle {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Oracle{ttl: ttl, feeds: make(map[string]map[string]PriceSample)}
}

// Update records an observation for a feed.
func (o *Oracle) Update(token, feed string, value float64, observed time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.feeds[token]; !ok {
		o.feeds[token] = make(map[string]PriceSample)
	}
	if observed.IsZero() {
		observed = time.Now().UTC()
	}
	o.feeds[token][feed] = PriceSample{Value: value, Timestamp: observed}
}

// Price implements RateSource with the median of live samples.
func (o *Oracle) Price(token string, now time.Time) (float64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	feeds, ok := o.feeds[token]
	if !ok || len(feeds) == 0 {
		return 0, ErrPriceUnavailable
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	var values []float64
	for _, sample := range feeds {
		if now.Sub(sample.Timestamp) > o.ttl {
			continue
		}
		values = append(values, sample.Value)
	}
	if len(values) == 0 {
		return 0, ErrPriceUnavailable
	}
	sort.Float64s(values)
	median := values[len(values)/2]
	if len(values)%2 == 0 {
		median = (values[len(values)/2-1] + values[len(values)/2]) / 2
	}
	if median <= 0 {
		return 0, ErrPriceUnavailable
	}
	return median, nil
}
