package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nictjader/siren-backend/internal/config"
	authsvc "github.com/nictjader/siren-backend/internal/services/auth"
	catalogsvc "github.com/nictjader/siren-backend/internal/services/catalog"
	profilesvc "github.com/nictjader/siren-backend/internal/services/profiles"
	purchasesvc "github.com/nictjader/siren-backend/internal/services/purchases"
	ratesvc "github.com/nictjader/siren-backend/internal/services/rate"
	storysvc "github.com/nictjader/siren-backend/internal/services/stories"
	"github.com/nictjader/siren-backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService     *authsvc.Service
	CatalogService  *catalogsvc.Service
	StoryService    *storysvc.Service
	PurchaseService *purchasesvc.Service
	ProfileService  *profilesvc.Service
	SignInLimiter   *ratesvc.Limiter
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Config.Env != "dev")
	if deps.SignInLimiter != nil {
		authHandler.AttachLimiter(deps.SignInLimiter)
	}
	catalogHandler := handlers.NewCatalogHandler(deps.CatalogService)
	storyHandler := handlers.NewStoryHandler(deps.StoryService)
	purchaseHandler := handlers.NewPurchaseHandler(deps.PurchaseService, deps.Config.Checkout.WebhookSecret, deps.Logger)
	meHandler := handlers.NewMeHandler(deps.ProfileService)
	adminHandler := handlers.NewAdminHandler(deps.StoryService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService)
	adminRoleMW := RequireRole("ADMIN")

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/google", authHandler.SignInGoogle)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		})

		r.Get("/catalog", catalogHandler.Page)
		r.With(optionalAuthMW).Get("/stories/{storyID}", storyHandler.Detail)
		r.Get("/series/{seriesID}", storyHandler.Series)
		r.With(authMW).Post("/stories/{storyID}/unlock", storyHandler.Unlock)
		r.With(authMW).Post("/stories/{storyID}/read", storyHandler.MarkRead)
		r.With(authMW).Post("/stories/{storyID}/favorite", storyHandler.ToggleFavorite)

		r.Get("/coin-packages", purchaseHandler.Packages)
		r.With(authMW).Post("/purchase/checkout", purchaseHandler.CreateCheckout)
		r.With(authMW).Post("/purchase/confirm", purchaseHandler.ConfirmCheckout)
		r.With(authMW).Get("/purchase/history", purchaseHandler.History)
		r.Post("/purchase/webhook", purchaseHandler.Webhook)

		r.With(authMW).Get("/me", meHandler.Me)
		r.With(authMW).Get("/me/library", meHandler.Library)
		r.With(authMW).Put("/me/preferences", meHandler.UpdatePreferences)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW, adminRoleMW)
			r.Post("/stories", adminHandler.PublishStory)
			r.Put("/stories/{storyID}/price", adminHandler.SetStoryPrice)
		})
	})
}
