package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/calebmonroe/printhaus-backend/pkg/config"
)

// SignatureHeader carries the provider's HMAC over the webhook payload.
const SignatureHeader = "X-Payment-Signature"

var (
	errBaseURLRequired = errors.New("payments base url is required")
	errSecretRequired  = errors.New("payments webhook secret is required")
)

// Provider is the payment collaborator consumed by the checkout orchestrator.
type Provider interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string) (string, error)
}

// Client talks to the external payment provider over HTTP. Every call is
// bounded by the configured timeout; the provider honors the idempotency key
// so retried intent creation is safe.
type Client struct {
	baseURL       string
	apiKey        string
	signingSecret string
	httpClient    *http.Client
}

// NewClient validates configuration and builds the provider client.
func NewClient(cfg config.PaymentsConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	signingSecret := strings.TrimSpace(cfg.WebhookSecret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       baseURL,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		signingSecret: signingSecret,
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

type createIntentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type createIntentResponse struct {
	IntentID string `json:"intent_id"`
}

// CreatePaymentIntent asks the provider for a payment intent, passing the
// idempotency key as the provider-level dedupe token.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string) (string, error) {
	payload, err := json.Marshal(createIntentRequest{AmountCents: amountCents, Currency: currency})
	if err != nil {
		return "", fmt.Errorf("encode intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling payment provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var decoded createIntentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if decoded.IntentID == "" {
		return "", errors.New("payment provider returned empty intent id")
	}
	return decoded.IntentID, nil
}

// VerifySignature checks the webhook payload's HMAC-SHA256 signature against
// the shared secret using a constant-time comparison.
func VerifySignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// Sign computes the signature header value for a payload. Exposed for tests
// and local webhook replay tooling.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
