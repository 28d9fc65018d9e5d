package webhooks

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bindery-hq/bindery-backend/internal/payouts"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

type testPayoutWebhookService struct {
	stripeFn func(ctx context.Context, input payouts.StripeWebhookInput) error
	paypalFn func(ctx context.Context, input payouts.PayPalWebhookInput) error
}

func (s *testPayoutWebhookService) HandleStripeEvent(ctx context.Context, input payouts.StripeWebhookInput) error {
	return s.stripeFn(ctx, input)
}

func (s *testPayoutWebhookService) HandlePayPalEvent(ctx context.Context, input payouts.PayPalWebhookInput) error {
	return s.paypalFn(ctx, input)
}

type testVerifier struct {
	verified bool
	err      error
}

func (v *testVerifier) VerifyWebhook(context.Context, *http.Request) (bool, error) {
	return v.verified, v.err
}

func webhookTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestPayPalWebhookDispatchesEvent(t *testing.T) {
	var captured payouts.PayPalWebhookInput
	svc := &testPayoutWebhookService{
		paypalFn: func(_ context.Context, input payouts.PayPalWebhookInput) error {
			captured = input
			return nil
		},
	}

	body := `{
		"id": "WH-1",
		"event_type": "PAYMENT.PAYOUTS-ITEM.SUCCEEDED",
		"resource": {"payout_batch_id": "BATCH-123"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewBufferString(body))

	rec := httptest.NewRecorder()
	PayPalWebhook(svc, nil, true, webhookTestLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.EventID != "WH-1" || captured.EventType != "PAYMENT.PAYOUTS-ITEM.SUCCEEDED" {
		t.Fatalf("unexpected input: %+v", captured)
	}
	if captured.PayoutBatchID != "BATCH-123" {
		t.Fatalf("expected batch BATCH-123, got %q", captured.PayoutBatchID)
	}
}

func TestPayPalWebhookFallsBackToBatchHeader(t *testing.T) {
	var captured payouts.PayPalWebhookInput
	svc := &testPayoutWebhookService{
		paypalFn: func(_ context.Context, input payouts.PayPalWebhookInput) error {
			captured = input
			return nil
		},
	}

	body := `{
		"id": "WH-2",
		"event_type": "PAYMENT.PAYOUTSBATCH.SUCCESS",
		"resource": {"batch_header": {"payout_batch_id": "BATCH-456"}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewBufferString(body))

	rec := httptest.NewRecorder()
	PayPalWebhook(svc, nil, true, webhookTestLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.PayoutBatchID != "BATCH-456" {
		t.Fatalf("expected batch BATCH-456, got %q", captured.PayoutBatchID)
	}
}

func TestPayPalWebhookRejectsMissingFields(t *testing.T) {
	svc := &testPayoutWebhookService{
		paypalFn: func(context.Context, payouts.PayPalWebhookInput) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewBufferString(`{"resource": {}}`))

	rec := httptest.NewRecorder()
	PayPalWebhook(svc, nil, true, webhookTestLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayPalWebhookRejectsFailedVerification(t *testing.T) {
	svc := &testPayoutWebhookService{
		paypalFn: func(context.Context, payouts.PayPalWebhookInput) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	body := `{"id": "WH-3", "event_type": "PAYMENT.PAYOUTS-ITEM.FAILED", "resource": {}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewBufferString(body))

	rec := httptest.NewRecorder()
	PayPalWebhook(svc, &testVerifier{verified: false}, false, webhookTestLogger())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPayPalWebhookRejectsMissingVerifierWhenRequired(t *testing.T) {
	svc := &testPayoutWebhookService{
		paypalFn: func(context.Context, payouts.PayPalWebhookInput) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	body := `{"id": "WH-4", "event_type": "PAYMENT.PAYOUTS-ITEM.FAILED", "resource": {"payout_batch_id": "BATCH-789"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewBufferString(body))

	rec := httptest.NewRecorder()
	PayPalWebhook(svc, nil, false, webhookTestLogger())(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestStripeWebhookRequiresSignature(t *testing.T) {
	svc := &testPayoutWebhookService{
		stripeFn: func(context.Context, payouts.StripeWebhookInput) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{}`))

	rec := httptest.NewRecorder()
	StripeWebhook(svc, stubSigningSecret("whsec_test"), webhookTestLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	svc := &testPayoutWebhookService{
		stripeFn: func(context.Context, payouts.StripeWebhookInput) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{"id": "evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")

	rec := httptest.NewRecorder()
	StripeWebhook(svc, stubSigningSecret("whsec_test"), webhookTestLogger())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

type stubSigningSecret string

func (s stubSigningSecret) SigningSecret() string {
	return string(s)
}
