package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nictjader/siren-backend/internal/domain/model"
	"github.com/nictjader/siren-backend/internal/infra/checkout"
	pgrepo "github.com/nictjader/siren-backend/internal/repo/postgres"
)

const (
	metadataUserID    = "user_id"
	metadataPackageID = "package_id"

	eventCheckoutCompleted = "checkout.session.completed"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUnknownPackage      = errors.New("unknown coin package")
	ErrNotConfigured       = errors.New("purchases service is not configured")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrSessionMismatch     = errors.New("checkout session does not belong to user")
	ErrProfileNotFound     = errors.New("profile not found")
)

// Ledger is the coin-balance mutation surface. Credit is idempotent on the
// checkout session id.
type Ledger interface {
	Credit(ctx context.Context, userID string, pkg model.CoinPackage, checkoutSessionID string) (pgrepo.CreditResult, error)
	ListHistory(ctx context.Context, userID string) ([]model.PurchaseRecord, error)
}

// Provider is the hosted-checkout side of the payment flow.
type Provider interface {
	CreateSession(ctx context.Context, in checkout.CreateSessionInput) (checkout.Session, error)
	GetSession(ctx context.Context, sessionID string) (checkout.Session, error)
}

type Config struct {
	SuccessURL string
	CancelURL  string
}

type Service struct {
	ledger   Ledger
	provider Provider
	cfg      Config
	newRef   func() string
}

type CheckoutResult struct {
	SessionID   string
	RedirectURL string
}

type FulfillResult struct {
	NewBalance int
	Applied    bool
	Record     model.PurchaseRecord
}

func NewService(ledger Ledger, provider Provider, cfg Config) *Service {
	return &Service{
		ledger:   ledger,
		provider: provider,
		cfg:      cfg,
		newRef:   uuid.NewString,
	}
}

func (s *Service) Packages() []model.CoinPackage {
	return model.CoinPackages
}

// CreateCheckout opens a hosted provider session for a coin package. The
// user and package ids travel in session metadata so webhook fulfillment
// needs nothing beyond the event payload.
func (s *Service) CreateCheckout(ctx context.Context, userID, packageID string) (CheckoutResult, error) {
	if s.provider == nil {
		return CheckoutResult{}, ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return CheckoutResult{}, ErrValidation
	}

	pkg, ok := model.CoinPackageByID(strings.TrimSpace(packageID))
	if !ok {
		return CheckoutResult{}, ErrUnknownPackage
	}

	session, err := s.provider.CreateSession(ctx, checkout.CreateSessionInput{
		AmountUSDCents:  pkg.PriceUSDCents,
		Description:     fmt.Sprintf("%s (%d coins)", pkg.Description, pkg.Coins),
		ClientReference: s.newRef(),
		SuccessURL:      s.cfg.SuccessURL,
		CancelURL:       s.cfg.CancelURL,
		Metadata: map[string]string{
			metadataUserID:    userID,
			metadataPackageID: pkg.ID,
		},
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create checkout session: %w", err)
	}

	return CheckoutResult{
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// ConfirmCheckout fulfills a session on the success-redirect path. The
// session is re-read from the provider, never trusted from the client, and
// the ledger credit is idempotent, so racing with the webhook is harmless.
func (s *Service) ConfirmCheckout(ctx context.Context, userID, sessionID string) (FulfillResult, error) {
	if s.provider == nil {
		return FulfillResult{}, ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	sessionID = strings.TrimSpace(sessionID)
	if userID == "" || sessionID == "" {
		return FulfillResult{}, ErrValidation
	}

	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			return FulfillResult{}, ErrValidation
		}
		return FulfillResult{}, fmt.Errorf("get checkout session: %w", err)
	}

	if session.Metadata[metadataUserID] != userID {
		return FulfillResult{}, ErrSessionMismatch
	}

	return s.fulfill(ctx, session)
}

// HandleWebhookEvent fulfills completed-checkout notifications. Unrelated
// event types are acknowledged without effect.
func (s *Service) HandleWebhookEvent(ctx context.Context, event checkout.Event) (FulfillResult, error) {
	if event.Type != eventCheckoutCompleted {
		return FulfillResult{Applied: false}, nil
	}
	return s.fulfill(ctx, event.Session)
}

func (s *Service) fulfill(ctx context.Context, session checkout.Session) (FulfillResult, error) {
	if !session.Paid() {
		return FulfillResult{}, ErrPaymentNotCompleted
	}

	userID := strings.TrimSpace(session.Metadata[metadataUserID])
	if userID == "" {
		return FulfillResult{}, fmt.Errorf("checkout session %q has no user metadata", session.ID)
	}

	pkg, ok := model.CoinPackageByID(session.Metadata[metadataPackageID])
	if !ok {
		return FulfillResult{}, fmt.Errorf("checkout session %q references unknown package %q", session.ID, session.Metadata[metadataPackageID])
	}

	credit, err := s.ledger.Credit(ctx, userID, pkg, session.ID)
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return FulfillResult{}, ErrProfileNotFound
	}
	if err != nil {
		return FulfillResult{}, fmt.Errorf("credit balance: %w", err)
	}

	return FulfillResult{
		NewBalance: credit.NewBalance,
		Applied:    credit.Applied,
		Record:     credit.Record,
	}, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]model.PurchaseRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrValidation
	}

	history, err := s.ledger.ListHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchase history: %w", err)
	}
	return history, nil
}
