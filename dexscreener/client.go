// Package dexscreener implements the price data client against the
// DexScreener HTTP API.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"capwatch/core"
	"capwatch/logger"

	"github.com/jpillora/backoff"
)

const (
	// DefaultBaseURL is the public DexScreener endpoint
	DefaultBaseURL = "https://api.dexscreener.com/latest/dex"

	defaultTimeout     = 12 * time.Second
	defaultRetries     = 2
	defaultConcurrency = 4

	// backoffBase yields waits of 0.6s, 1.2s, ... for retryable statuses
	backoffBase = 600 * time.Millisecond
)

// Config holds the explicit construction parameters of a Client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	Retries     int
	Concurrency int
}

// DefaultConfig returns the production defaults for the public API
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     defaultTimeout,
		Retries:     defaultRetries,
		Concurrency: defaultConcurrency,
	}
}

// Client fetches and normalizes market data for contract addresses.
// It implements core.Feeder.
type Client struct {
	cfg    Config
	client *http.Client
	log    logger.Logger
}

// NewClient creates a price data client, filling zero config fields with
// defaults
func NewClient(cfg Config, log logger.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = def.Retries
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// TokenStats fetches and normalizes the observation for a single contract.
// Failures degrade to an observation without a market cap, never an error.
func (c *Client) TokenStats(ctx context.Context, contract string) core.PriceObservation {
	pairs, err := c.fetchPairs(ctx, contract)
	if err != nil {
		c.log.WithError(err).WithField("contract", contract).Debug("price fetch failed")
		return core.FailedObservation(contract, core.ObservationErrHTTP)
	}

	best := SelectBest(pairs)
	if best == nil {
		return core.FailedObservation(contract, core.ObservationErrNoPairs)
	}

	return best.Normalize(contract)
}

// Stats fetches observations for all contracts with a bounded fan-out.
// The result has one entry per contract; the error is non-nil only when the
// context was canceled before all fetches resolved.
func (c *Client) Stats(ctx context.Context, contracts []string) (map[string]core.PriceObservation, error) {
	out := make(map[string]core.PriceObservation, len(contracts))
	if len(contracts) == 0 {
		return out, nil
	}

	workers := c.cfg.Concurrency
	if workers > len(contracts) {
		workers = len(contracts)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan string)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for contract := range jobs {
				observation := c.TokenStats(ctx, contract)
				mu.Lock()
				out[contract] = observation
				mu.Unlock()
			}
		}()
	}

	for _, contract := range contracts {
		select {
		case jobs <- contract:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchPairs issues the GET request with the retry policy: 429/5xx retry with
// linear backoff, timeouts retry immediately, everything else fails at once.
func (c *Client) fetchPairs(ctx context.Context, contract string) ([]Pair, error) {
	url := fmt.Sprintf("%s/tokens/%s", c.cfg.BaseURL, contract)

	wait := &backoff.Backoff{
		Min:    backoffBase,
		Max:    time.Duration(c.cfg.Retries+1) * backoffBase,
		Factor: 2,
	}

	for attempt := 0; ; attempt++ {
		body, retryable, err := c.get(ctx, url)
		if err == nil {
			var decoded tokensResponse
			if err := json.Unmarshal(body, &decoded); err != nil {
				return nil, fmt.Errorf("invalid response body: %w", err)
			}
			return decoded.Pairs, nil
		}

		if !retryable || attempt >= c.cfg.Retries || ctx.Err() != nil {
			return nil, err
		}

		if isTimeout(err) {
			continue
		}

		select {
		case <-time.After(wait.Duration()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// get performs one attempt and reports whether a failure may be retried
func (c *Client) get(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, isTimeout(err), err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status: %s", resp.Status)
		return nil, resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return body, false, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
