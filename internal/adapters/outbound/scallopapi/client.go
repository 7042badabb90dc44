// Package scallopapi implements the StructuredPositionSource interface
// against the protocol's indexer API. The indexer answers with priced,
// short-name-keyed obligation records; a null body is the documented answer
// for obligations it no longer tracks.
package scallopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/archon-research/obrisk/internal/pkg/retry"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.StructuredPositionSource.
var _ outbound.StructuredPositionSource = (*Client)(nil)

// ClientConfig holds configuration for the indexer API client.
type ClientConfig struct {
	// BaseURL is the indexer API base URL.
	// Defaults to https://sdk.api.scallop.io
	BaseURL string

	// Timeout is the maximum time to wait for a single HTTP request.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for transient failures.
	MaxRetries int

	// InitialBackoff is the initial delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each retry.
	BackoffFactor float64

	// RateLimitPerSec is the rate limit in requests per second.
	RateLimitPerSec int

	// Logger is the structured logger for the client.
	Logger *slog.Logger

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		BaseURL:         "https://sdk.api.scallop.io",
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialBackoff:  500 * time.Millisecond,
		MaxBackoff:      10 * time.Second,
		BackoffFactor:   2.0,
		RateLimitPerSec: 5,
		Logger:          slog.Default(),
	}
}

// Client implements StructuredPositionSource using the indexer API.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	retryConfig retry.Config
}

// NewClient creates a new indexer API client.
func NewClient(config ClientConfig) (*Client, error) {
	defaults := ClientConfigDefaults()
	applyDefaults(&config, defaults)

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	limiter := rate.NewLimiter(rate.Limit(config.RateLimitPerSec), 1)

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     config.Logger.With("component", "scallopapi-client"),
		limiter:    limiter,
		retryConfig: retry.Config{
			MaxRetries:     config.MaxRetries,
			InitialBackoff: config.InitialBackoff,
			MaxBackoff:     config.MaxBackoff,
			BackoffFactor:  config.BackoffFactor,
			Jitter:         false,
		},
	}, nil
}

func applyDefaults(config *ClientConfig, defaults ClientConfig) {
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = defaults.BackoffFactor
	}
	if config.RateLimitPerSec == 0 {
		config.RateLimitPerSec = defaults.RateLimitPerSec
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
}

// GetObligation fetches the indexer's record for an obligation. A null body
// or a 404 answer means the indexer has no record; both return (nil, nil)
// so the caller can fall back to the chain.
func (c *Client) GetObligation(ctx context.Context, obligationID string) (*outbound.StructuredObligation, error) {
	endpoint := fmt.Sprintf("%s/api/market/obligation/%s", c.config.BaseURL, obligationID)

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if body == nil || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		c.logger.Info("indexer has no record", "obligation", obligationID)
		return nil, nil
	}

	var record obligationRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("parsing obligation %s: %w", obligationID, err)
	}
	return c.convert(obligationID, &record)
}

// convert maps the indexer's wire record into the port type. Raw amounts
// arrive as decimal strings and never lose precision.
func (c *Client) convert(obligationID string, record *obligationRecord) (*outbound.StructuredObligation, error) {
	obligation := &outbound.StructuredObligation{
		ObligationID: obligationID,
		RiskRatio:    record.RiskLevel,
		Debts:        make(map[string]outbound.StructuredAsset, len(record.Debts)),
		Collaterals:  make(map[string]outbound.StructuredAsset, len(record.Collaterals)),
	}
	for shortName, asset := range record.Debts {
		converted, err := convertAsset(asset)
		if err != nil {
			return nil, fmt.Errorf("obligation %s debt %q: %w", obligationID, shortName, err)
		}
		obligation.Debts[shortName] = converted
	}
	for shortName, asset := range record.Collaterals {
		converted, err := convertAsset(asset)
		if err != nil {
			return nil, fmt.Errorf("obligation %s collateral %q: %w", obligationID, shortName, err)
		}
		obligation.Collaterals[shortName] = converted
	}
	return obligation, nil
}

func convertAsset(asset assetRecord) (outbound.StructuredAsset, error) {
	raw, ok := new(big.Int).SetString(asset.Amount, 10)
	if !ok {
		return outbound.StructuredAsset{}, fmt.Errorf("amount %q is not a base-10 integer", asset.Amount)
	}
	return outbound.StructuredAsset{
		TypeTag:   asset.CoinType,
		RawAmount: raw,
		Precision: asset.CoinDecimal,
		ValueUSD:  asset.ValueUSD,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	isRetryable := func(err error) bool {
		var nonRetryable *nonRetryableError
		if errors.As(err, &nonRetryable) {
			return false
		}
		return retry.Transient(err)
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"maxRetries", c.retryConfig.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
	}

	return retry.Do(ctx, c.retryConfig, isRetryable, onRetry, func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &nonRetryableError{err: fmt.Errorf("rate limiter: %w", err)}
		}
		return c.doSingleRequest(ctx, endpoint)
	})
}

func (c *Client) doSingleRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &nonRetryableError{err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		// No record is a normal answer, not a failure.
		return nil, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.New("rate limited: status 429")
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &nonRetryableError{err: fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(body))}
	}
	return body, nil
}

// nonRetryableError wraps errors that should not be retried.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string {
	return e.err.Error()
}

func (e *nonRetryableError) Unwrap() error {
	return e.err
}
