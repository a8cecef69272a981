package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nictjader/siren-backend/internal/infra/checkout"
	purchasesvc "github.com/nictjader/siren-backend/internal/services/purchases"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
	httperrors "github.com/nictjader/siren-backend/internal/transport/http/errors"
)

const (
	webhookSignatureHeader = "Checkout-Signature"
	webhookBodyLimit       = 1 << 20
	webhookTolerance       = 5 * time.Minute
)

type PurchaseHandler struct {
	service       *purchasesvc.Service
	webhookSecret string
	log           *zap.Logger
}

func NewPurchaseHandler(service *purchasesvc.Service, webhookSecret string, log *zap.Logger) *PurchaseHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseHandler{
		service:       service,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

func (h *PurchaseHandler) Packages(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	packages := h.service.Packages()
	out := make([]dto.CoinPackageResponse, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, dto.CoinPackageResponse{
			ID:            pkg.ID,
			Coins:         pkg.Coins,
			PriceUSDCents: pkg.PriceUSDCents,
			Description:   pkg.Description,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.CoinPackagesResponse{Packages: out})
}

func (h *PurchaseHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	var req dto.CheckoutCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), identity.UserID, req.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, purchasesvc.ErrUnknownPackage):
			writeBadRequest(w, "UNKNOWN_PACKAGE", "unknown coin package")
		case errors.Is(err, purchasesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid checkout payload")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to create checkout session")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckoutCreateResponse{
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
	})
}

func (h *PurchaseHandler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	var req dto.CheckoutConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	result, err := h.service.ConfirmCheckout(r.Context(), identity.UserID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, purchasesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid confirm payload")
		case errors.Is(err, purchasesvc.ErrSessionMismatch):
			httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
				Code:    "SESSION_MISMATCH",
				Message: "checkout session belongs to another account",
			})
		case errors.Is(err, purchasesvc.ErrPaymentNotCompleted):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "PAYMENT_NOT_COMPLETED",
				Message: "checkout session is not paid yet",
			})
		case errors.Is(err, purchasesvc.ErrProfileNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to confirm checkout")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckoutConfirmResponse{
		OK:         true,
		Applied:    result.Applied,
		NewBalance: result.NewBalance,
	})
}

// Webhook verifies the provider signature over the raw body before any
// decoding. Bad signatures are rejected without detail.
func (h *PurchaseHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "failed to read request body")
		return
	}

	if err := checkout.VerifySignature(body, r.Header.Get(webhookSignatureHeader), h.webhookSecret, webhookTolerance, time.Now()); err != nil {
		h.log.Warn("webhook signature rejected", zap.Error(err))
		writeUnauthorized(w, "INVALID_SIGNATURE", "webhook signature verification failed")
		return
	}

	event, err := checkout.ParseEvent(body)
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid webhook payload")
		return
	}

	result, err := h.service.HandleWebhookEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, purchasesvc.ErrPaymentNotCompleted) {
			writeBadRequest(w, "PAYMENT_NOT_COMPLETED", "event session is not paid")
			return
		}
		h.log.Error("webhook fulfillment failed", zap.String("event_id", event.ID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to process webhook")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookResponse{
		OK:      true,
		Applied: result.Applied,
	})
}

func (h *PurchaseHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	history, err := h.service.History(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load purchase history")
		return
	}

	out := make([]dto.PurchaseRecordResponse, 0, len(history))
	for _, rec := range history {
		out = append(out, dto.PurchaseRecordResponse{
			ID:            rec.ID,
			PackageID:     rec.PackageID,
			Coins:         rec.Coins,
			PriceUSDCents: rec.PriceUSDCents,
			CreatedAt:     rec.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseHistoryResponse{Purchases: out})
}
