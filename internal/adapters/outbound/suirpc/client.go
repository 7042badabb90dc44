// Package suirpc implements the ObjectSource interface against a Sui
// JSON-RPC fullnode. It provides object reads and dynamic field listing
// with:
//   - Automatic retry logic with exponential backoff for transient failures
//   - Configurable timeouts and backoff parameters
//   - Rate limiting to stay within public fullnode limits
package suirpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/archon-research/obrisk/internal/pkg/retry"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.ObjectSource.
var _ outbound.ObjectSource = (*Client)(nil)

// ClientConfig holds configuration for the Sui RPC client.
type ClientConfig struct {
	// RPCURL is the fullnode JSON-RPC endpoint.
	// Defaults to https://fullnode.mainnet.sui.io
	RPCURL string

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
	// Defaults to 10, below typical public fullnode quotas.
	RateLimitPerSec int

	// Logger is the structured logger for the client.
	Logger *slog.Logger

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		RPCURL:          "https://fullnode.mainnet.sui.io",
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialBackoff:  500 * time.Millisecond,
		MaxBackoff:      10 * time.Second,
		BackoffFactor:   2.0,
		RateLimitPerSec: 10,
		Logger:          slog.Default(),
	}
}

// Client implements ObjectSource against a Sui fullnode.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	retryConfig retry.Config
}

// NewClient creates a new Sui RPC client.
func NewClient(config ClientConfig) (*Client, error) {
	defaults := ClientConfigDefaults()
	applyDefaults(&config, defaults)

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	limiter := rate.NewLimiter(rate.Limit(config.RateLimitPerSec), config.RateLimitPerSec)

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     config.Logger.With("component", "suirpc-client"),
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
	if config.RPCURL == "" {
		config.RPCURL = defaults.RPCURL
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

// GetObject fetches an object with its parsed Move content.
// Maps the fullnode's notExists and deleted answers to ErrObjectNotFound.
func (c *Client) GetObject(ctx context.Context, objectID string) (*outbound.RawObject, error) {
	params := []any{
		objectID,
		map[string]any{"showContent": true, "showType": true},
	}

	var response getObjectResponse
	if err := c.call(ctx, "sui_getObject", params, &response); err != nil {
		return nil, fmt.Errorf("sui_getObject %s: %w", objectID, err)
	}

	if response.Error != nil {
		switch response.Error.Code {
		case "notExists", "deleted":
			return nil, fmt.Errorf("object %s: %w", objectID, outbound.ErrObjectNotFound)
		default:
			return nil, fmt.Errorf("object %s: fullnode error %q", objectID, response.Error.Code)
		}
	}
	if response.Data == nil {
		return nil, fmt.Errorf("object %s: empty fullnode answer", objectID)
	}

	raw := &outbound.RawObject{
		ObjectID: response.Data.ObjectID,
		Type:     response.Data.Type,
	}
	if response.Data.Content != nil {
		raw.Type = response.Data.Content.Type
		raw.Fields = response.Data.Content.Fields
	}
	return raw, nil
}

// GetDynamicFields lists all dynamic field children of a parent object,
// following the fullnode's cursor pagination to the end.
func (c *Client) GetDynamicFields(ctx context.Context, parentID string) ([]outbound.DynamicFieldInfo, error) {
	var (
		fields []outbound.DynamicFieldInfo
		cursor *string
	)

	for {
		params := []any{parentID, cursor, nil}

		var page dynamicFieldsPage
		if err := c.call(ctx, "suix_getDynamicFields", params, &page); err != nil {
			return nil, fmt.Errorf("suix_getDynamicFields %s: %w", parentID, err)
		}

		for _, entry := range page.Data {
			fields = append(fields, outbound.DynamicFieldInfo{ObjectID: entry.ObjectID})
		}

		if !page.HasNextPage || page.NextCursor == nil {
			return fields, nil
		}
		cursor = page.NextCursor
	}
}

// call performs one JSON-RPC method call with rate limiting and retries.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	request := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	isRetryable := func(err error) bool {
		var nonRetryable *nonRetryableError
		if errors.As(err, &nonRetryable) {
			return false
		}
		return retry.Transient(err)
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		c.logger.Warn("RPC call failed, retrying",
			"method", method,
			"attempt", attempt,
			"maxRetries", c.retryConfig.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
	}

	return retry.DoVoid(ctx, c.retryConfig, isRetryable, onRetry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &nonRetryableError{err: fmt.Errorf("rate limiter: %w", err)}
		}
		return c.doSingleCall(ctx, payload, result)
	})
}

func (c *Client) doSingleCall(ctx context.Context, payload []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.RPCURL, bytes.NewReader(payload))
	if err != nil {
		return &nonRetryableError{err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.New("rate limited: status 429")
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &nonRetryableError{err: fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(body))}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &nonRetryableError{err: fmt.Errorf("parsing response: %w", err)}
	}
	if envelope.Error != nil {
		return &nonRetryableError{err: fmt.Errorf("RPC error %d: %s", envelope.Error.Code, envelope.Error.Message)}
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return &nonRetryableError{err: fmt.Errorf("parsing result: %w", err)}
	}
	return nil
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
