package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitialize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("authorization header = %q", got)
		}
		var req InitializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.AmountMinor != 2000 {
			t.Errorf("amount = %d, want minor units 2000", req.AmountMinor)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         "ref-123",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	auth, err := c.Initialize(context.Background(), InitializeRequest{
		Email:       "a@b.com",
		AmountMinor: 2000,
		CallbackURL: "http://localhost:3000/payment/callback",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if auth.Reference != "ref-123" || auth.AccessCode != "abc123" {
		t.Errorf("auth = %+v", auth)
	}
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]any{
				"reference": "ref-123",
				"status":    "success",
				"amount":    2000,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	tx, err := c.Verify(context.Background(), "ref-123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tx.Status != StatusSuccess || tx.AmountMinor != 2000 {
		t.Errorf("tx = %+v", tx)
	}
}

func TestVerify_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "Transaction reference not found",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	_, err := c.Verify(context.Background(), "nope")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	// upstream detail passes through to the caller
	if ue.Message != "Transaction reference not found" {
		t.Errorf("message = %q", ue.Message)
	}
}
