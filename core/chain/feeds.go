package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Feed names one price endpoint for one token. The endpoint must answer GET
// with a JSON object carrying a positive "price" field in USD.
type Feed struct {
	Token string
	Name  string
	URL   string
}

// FeedPoller keeps an Oracle supplied with fresh samples.
type FeedPoller struct {
	oracle     *Oracle
	feeds      []Feed
	interval   time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFeedPoller builds a poller over the given feeds.
func NewFeedPoller(oracle *Oracle, feeds []Feed, interval time.Duration, httpClient *http.Client, logger *slog.Logger) *FeedPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedPoller{oracle: oracle, feeds: feeds, interval: interval, httpClient: httpClient, logger: logger}
}

// Run polls every feed once immediately and then on each tick until the
// context is cancelled. Individual feed failures are logged and skipped; the
// oracle's TTL ages their last sample out.
func (p *FeedPoller) Run(ctx context.Context) {
	p.pollAll(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *FeedPoller) pollAll(ctx context.Context) {
	for _, feed := range p.feeds {
		if err := p.poll(ctx, feed); err != nil {
			p.logger.WarnContext(ctx, "price_feed_failed",
				slog.String("feed", feed.Name),
				slog.String("token", feed.Token),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (p *FeedPoller) poll(ctx context.Context, feed Feed) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned %d", resp.StatusCode)
	}
	var payload struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode feed: %w", err)
	}
	if payload.Price <= 0 {
		return fmt.Errorf("feed price %v out of range", payload.Price)
	}
	p.oracle.Update(feed.Token, feed.Name, payload.Price, time.Now().UTC())
	return nil
}
