// Package payment is the engine's narrow boundary to the external payment
// collaborator. The engine opens checkout sessions here and otherwise only
// reacts to the collaborator's later confirmation webhook.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"deskhive/internal/config"
	"deskhive/internal/models"

	"github.com/rs/zerolog"
)

// Client talks JSON over HTTP to the payment collaborator.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg config.PaymentConfig, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CreatePaymentSession opens a hosted checkout session and returns its URL.
func (c *Client) CreatePaymentSession(ctx context.Context, req models.PaymentSessionRequest) (*models.PaymentSession, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("payment collaborator is not configured")
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("payment amount must be positive, got %d", req.AmountCents)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode payment session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payment session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("payment collaborator rejected session")
		return nil, fmt.Errorf("payment collaborator returned status %d", resp.StatusCode)
	}

	var session models.PaymentSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode payment session response: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("payment collaborator returned empty session url")
	}

	return &session, nil
}
