// Package txbuilderapi implements the TransactionBuilder interface against
// the external builder service. The builder owns oracle refresh, coin
// selection, signing and submission; this client only carries requests over
// and answers back. Builder failure messages are preserved verbatim so the
// plan executor can classify them.
package txbuilderapi

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

	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.TransactionBuilder.
var _ outbound.TransactionBuilder = (*Client)(nil)

// ClientConfig holds configuration for the builder client.
type ClientConfig struct {
	// BaseURL is the builder service base URL.
	BaseURL string

	// Timeout is the maximum time to wait for a single request. Builds
	// include on-chain submission, so this runs longer than a read call.
	Timeout time.Duration

	// Logger is the structured logger for the client.
	Logger *slog.Logger

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		Timeout: 90 * time.Second,
		Logger:  slog.Default(),
	}
}

// Client implements TransactionBuilder over the builder service's HTTP API.
// Submissions are never retried here: a timed-out submission may still land
// on chain, and a blind retry would double-spend the repay balance.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new builder client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}

	defaults := ClientConfigDefaults()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     config.Logger.With("component", "txbuilder-client"),
	}, nil
}

// Liquidate submits a partial liquidation.
func (c *Client) Liquidate(ctx context.Context, req outbound.LiquidateRequest) (*outbound.TxResult, error) {
	payload := liquidateRequest{
		ObligationID:     req.ObligationID,
		DebtCoin:         req.DebtShortName,
		CollateralCoin:   req.CollateralShortName,
		RepayAmount:      req.RepayRaw.String(),
		RecipientAddress: req.WalletAddress,
	}
	return c.submit(ctx, "/v1/liquidate", payload)
}

// Repay submits a plain debt repayment.
func (c *Client) Repay(ctx context.Context, req outbound.RepayRequest) (*outbound.TxResult, error) {
	payload := repayRequest{
		ObligationID:     req.ObligationID,
		DebtCoin:         req.DebtShortName,
		RepayAmount:      req.RepayRaw.String(),
		RecipientAddress: req.WalletAddress,
	}
	return c.submit(ctx, "/v1/repay", payload)
}

func (c *Client) submit(ctx context.Context, path string, payload any) (*outbound.TxResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting to builder: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading builder response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var builderErr errorResponse
		if jsonErr := json.Unmarshal(respBody, &builderErr); jsonErr == nil && builderErr.Error != "" {
			// The message text is the classification input downstream.
			return nil, errors.New(builderErr.Error)
		}
		return nil, fmt.Errorf("builder error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var result submitResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing builder response: %w", err)
	}
	if result.Digest == "" {
		return nil, errors.New("builder answered without a transaction digest")
	}

	c.logger.Info("transaction submitted", "path", path, "digest", result.Digest)
	return &outbound.TxResult{Digest: result.Digest}, nil
}
