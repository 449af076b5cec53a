package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calebmonroe/printhaus-backend/pkg/config"
)

func TestCreatePaymentIntent(t *testing.T) {
	t.Parallel()

	var gotIdempotencyKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")

		var body struct {
			AmountCents int64  `json:"amount_cents"`
			Currency    string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.AmountCents != 84000 || body.Currency != "USD" {
			t.Errorf("unexpected request body: %+v", body)
		}

		json.NewEncoder(w).Encode(map[string]string{"intent_id": "pi_123"})
	}))
	defer server.Close()

	client, err := NewClient(config.PaymentsConfig{
		BaseURL:       server.URL,
		WebhookSecret: "whsec_test",
		Timeout:       5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	intentID, err := client.CreatePaymentIntent(context.Background(), 84000, "USD", "idem-key-1")
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intentID != "pi_123" {
		t.Fatalf("unexpected intent id %s", intentID)
	}
	if gotIdempotencyKey != "idem-key-1" {
		t.Fatalf("idempotency key not forwarded, got %q", gotIdempotencyKey)
	}
}

func TestCreatePaymentIntentUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(config.PaymentsConfig{BaseURL: server.URL, WebhookSecret: "whsec_test"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.CreatePaymentIntent(context.Background(), 100, "USD", "idem"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.PaymentsConfig{WebhookSecret: "s"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(config.PaymentsConfig{BaseURL: "https://pay.example.com"}); err == nil {
		t.Fatal("expected error for missing webhook secret")
	}
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event_id":"evt_1"}`)
	secret := "whsec_test"

	if !VerifySignature(payload, secret, Sign(payload, secret)) {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature(payload, secret, Sign([]byte("tampered"), secret)) {
		t.Fatal("expected tampered payload to fail verification")
	}
	if VerifySignature(payload, secret, "") {
		t.Fatal("expected missing header to fail verification")
	}
	if VerifySignature(payload, "", Sign(payload, secret)) {
		t.Fatal("expected missing secret to fail verification")
	}
}
