package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nictjader/siren-backend/internal/domain/model"
	"github.com/nictjader/siren-backend/internal/infra/checkout"
	pgrepo "github.com/nictjader/siren-backend/internal/repo/postgres"
	purchasesvc "github.com/nictjader/siren-backend/internal/services/purchases"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
)

type webhookLedgerStub struct {
	credits int
	seen    map[string]bool
}

func (l *webhookLedgerStub) Credit(_ context.Context, _ string, pkg model.CoinPackage, checkoutSessionID string) (pgrepo.CreditResult, error) {
	if l.seen == nil {
		l.seen = map[string]bool{}
	}
	if l.seen[checkoutSessionID] {
		return pgrepo.CreditResult{NewBalance: pkg.Coins, Applied: false}, nil
	}
	l.seen[checkoutSessionID] = true
	l.credits++
	return pgrepo.CreditResult{NewBalance: pkg.Coins, Applied: true}, nil
}

func (l *webhookLedgerStub) ListHistory(_ context.Context, _ string) ([]model.PurchaseRecord, error) {
	return nil, nil
}

type webhookProviderStub struct{}

func (webhookProviderStub) CreateSession(_ context.Context, _ checkout.CreateSessionInput) (checkout.Session, error) {
	return checkout.Session{}, nil
}

func (webhookProviderStub) GetSession(_ context.Context, _ string) (checkout.Session, error) {
	return checkout.Session{}, checkout.ErrSessionNotFound
}

func completedEventBody(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": "checkout.session.completed",
		"data": map[string]any{
			"id":             "cs_test_1",
			"payment_status": "paid",
			"metadata": map[string]string{
				"user_id":    "sub-1",
				"package_id": "coins_50",
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func postWebhook(handler *PurchaseHandler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("Checkout-Signature", signature)
	}
	rr := httptest.NewRecorder()
	handler.Webhook(rr, req)
	return rr
}

func TestWebhookFulfillsSignedEvent(t *testing.T) {
	ledger := &webhookLedgerStub{}
	service := purchasesvc.NewService(ledger, webhookProviderStub{}, purchasesvc.Config{})
	handler := NewPurchaseHandler(service, "whsec_test", nil)

	body := completedEventBody(t)
	rr := postWebhook(handler, body, checkout.SignPayload(body, "whsec_test", time.Now()))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var payload dto.WebhookResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || !payload.Applied {
		t.Fatalf("expected applied fulfillment, got %+v", payload)
	}
	if ledger.credits != 1 {
		t.Fatalf("expected one credit, got %d", ledger.credits)
	}
}

func TestWebhookRedeliveryIsAcknowledgedWithoutSecondCredit(t *testing.T) {
	ledger := &webhookLedgerStub{}
	service := purchasesvc.NewService(ledger, webhookProviderStub{}, purchasesvc.Config{})
	handler := NewPurchaseHandler(service, "whsec_test", nil)

	body := completedEventBody(t)
	signature := checkout.SignPayload(body, "whsec_test", time.Now())

	if rr := postWebhook(handler, body, signature); rr.Code != http.StatusOK {
		t.Fatalf("first delivery: got %d want %d", rr.Code, http.StatusOK)
	}
	rr := postWebhook(handler, body, signature)
	if rr.Code != http.StatusOK {
		t.Fatalf("redelivery: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload dto.WebhookResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Applied {
		t.Fatalf("redelivery must not report a fresh credit")
	}
	if ledger.credits != 1 {
		t.Fatalf("expected one credit across deliveries, got %d", ledger.credits)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	ledger := &webhookLedgerStub{}
	service := purchasesvc.NewService(ledger, webhookProviderStub{}, purchasesvc.Config{})
	handler := NewPurchaseHandler(service, "whsec_test", nil)

	body := completedEventBody(t)

	for name, signature := range map[string]string{
		"missing header": "",
		"wrong secret":   checkout.SignPayload(body, "whsec_other", time.Now()),
		"stale":          checkout.SignPayload(body, "whsec_test", time.Now().Add(-time.Hour)),
	} {
		rr := postWebhook(handler, body, signature)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: got %d want %d", name, rr.Code, http.StatusUnauthorized)
		}
	}
	if ledger.credits != 0 {
		t.Fatalf("rejected deliveries must not credit, got %d", ledger.credits)
	}
}

func TestWebhookIgnoresUnrelatedEventType(t *testing.T) {
	ledger := &webhookLedgerStub{}
	service := purchasesvc.NewService(ledger, webhookProviderStub{}, purchasesvc.Config{})
	handler := NewPurchaseHandler(service, "whsec_test", nil)

	body, err := json.Marshal(map[string]any{
		"id":   "evt_2",
		"type": "checkout.session.expired",
		"data": map[string]any{"id": "cs_test_2", "payment_status": "unpaid"},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	rr := postWebhook(handler, body, checkout.SignPayload(body, "whsec_test", time.Now()))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload dto.WebhookResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Applied {
		t.Fatalf("unrelated event must not apply a credit")
	}
	if ledger.credits != 0 {
		t.Fatalf("unrelated event must not credit, got %d", ledger.credits)
	}
}
