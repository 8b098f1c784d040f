package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sokohub/settlement-service/internal/application/ports"
	"github.com/sokohub/settlement-service/internal/config"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

// Client talks to the mobile-money provider over HTTP. The provider
// pushes the payment prompt to the payer's handset; confirmation is
// read back by polling QueryStatus with the reference Initiate
// returned.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(cfg config.GatewayConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		log: log,
	}
}

type initiateRequest struct {
	Amount     int64  `json:"amount"`
	PayerPhone string `json:"payer_phone"`
}

type initiateResponse struct {
	Reference string `json:"reference"`
}

type statusResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

func (c *Client) Initiate(ctx context.Context, amount int64, payerPhone string) (string, error) {
	body, err := json.Marshal(initiateRequest{
		Amount:     amount,
		PayerPhone: payerPhone,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway initiate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gateway initiate returned %d: %s", resp.StatusCode, string(detail))
	}

	var parsed initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode initiate response: %w", err)
	}

	if parsed.Reference == "" {
		return "", fmt.Errorf("gateway initiate returned empty reference")
	}

	c.log.Info("Payment initiated at gateway",
		"external_reference", parsed.Reference,
		"amount", amount,
	)

	return parsed.Reference, nil
}

func (c *Client) QueryStatus(ctx context.Context, externalReference string) (ports.GatewayStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+externalReference, nil)
	if err != nil {
		return ports.GatewayStatus{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.GatewayStatus{}, fmt.Errorf("gateway status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ports.GatewayStatus{}, fmt.Errorf("gateway status returned %d: %s", resp.StatusCode, string(detail))
	}

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ports.GatewayStatus{}, fmt.Errorf("failed to decode status response: %w", err)
	}

	switch parsed.Status {
	case "completed":
		return ports.GatewayStatus{State: ports.GatewayCompleted, Detail: parsed.Detail}, nil
	case "failed", "cancelled":
		return ports.GatewayStatus{State: ports.GatewayFailed, Detail: parsed.Detail}, nil
	default:
		return ports.GatewayStatus{State: ports.GatewayPending, Detail: parsed.Detail}, nil
	}
}
