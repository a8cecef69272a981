package checkout

import (
	"errors"
	"testing"
	"time"
)

func TestVerifySignatureAcceptsSignedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", now)

	if err := VerifySignature(payload, header, "whsec_test", 5*time.Minute, now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	now := time.Unix(1700000000, 0)
	header := SignPayload([]byte(`{"id":"evt_1"}`), "whsec_test", now)

	err := VerifySignature([]byte(`{"id":"evt_2"}`), header, "whsec_test", 5*time.Minute, now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_other", now)

	err := VerifySignature(payload, header, "whsec_test", 5*time.Minute, now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", signedAt)

	err := VerifySignature(payload, header, "whsec_test", 5*time.Minute, signedAt.Add(time.Hour))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for stale signature, got %v", err)
	}
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=1700000000"} {
		err := VerifySignature([]byte("{}"), header, "whsec_test", 5*time.Minute, time.Unix(1700000000, 0))
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("header %q: expected ErrInvalidSignature, got %v", header, err)
		}
	}
}

func TestParseEventRequiresType(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"id":"evt_1"}`)); err == nil {
		t.Fatalf("expected error for event without type")
	}

	event, err := ParseEvent([]byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"id":"cs_1","payment_status":"paid"}}`))
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event.Session.ID != "cs_1" || !event.Session.Paid() {
		t.Fatalf("unexpected event session: %+v", event.Session)
	}
}
