package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nictjader/siren-backend/internal/config"
	"github.com/nictjader/siren-backend/internal/infra/checkout"
	"github.com/nictjader/siren-backend/internal/infra/httpclient"
	s3infra "github.com/nictjader/siren-backend/internal/infra/s3"
	pgrepo "github.com/nictjader/siren-backend/internal/repo/postgres"
	redrepo "github.com/nictjader/siren-backend/internal/repo/redis"
	authsvc "github.com/nictjader/siren-backend/internal/services/auth"
	catalogsvc "github.com/nictjader/siren-backend/internal/services/catalog"
	profilesvc "github.com/nictjader/siren-backend/internal/services/profiles"
	purchasesvc "github.com/nictjader/siren-backend/internal/services/purchases"
	ratesvc "github.com/nictjader/siren-backend/internal/services/rate"
	storysvc "github.com/nictjader/siren-backend/internal/services/stories"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if err := pgrepo.Migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	catalogCacheRepo := redrepo.NewCatalogCacheRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	storyRepo := pgrepo.NewStoryRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	ledgerRepo := pgrepo.NewLedgerRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}
	coverStorage := s3infra.NewCoverStorage(s3Client, cfg.S3.Bucket)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	var verifier authsvc.IdentityVerifier
	if v, err := authsvc.NewGoogleVerifier(cfg.Auth.GoogleClientID, authsvc.NewGoogleKeySource(httpclient.New(10*time.Second))); err != nil {
		log.Warn("google verifier init failed, sign-in disabled", zap.Error(err))
	} else {
		verifier = v
	}
	authService := authsvc.NewService(verifier, jwtManager, userRepo, sessionRepo, authsvc.Config{
		AdminSubjects: cfg.Auth.AdminSubjects,
	})

	catalogService := catalogsvc.NewService(storyRepo, catalogsvc.Config{
		ProjectionTTL: cfg.Catalog.ProjectionTTL,
	})
	catalogService.AttachProjectionCache(catalogCacheRepo)
	if s3Client != nil {
		catalogService.AttachCoverSigner(coverStorage)
	}

	storyService := storysvc.NewService(storyRepo, userRepo, ledgerRepo)
	storyService.AttachCatalogInvalidator(catalogCacheRepo)

	var provider purchasesvc.Provider
	if c, err := checkout.NewClient(httpclient.New(15*time.Second), cfg.Checkout.APIBase, cfg.Checkout.SecretKey); err != nil {
		log.Warn("checkout provider init failed, purchases disabled", zap.Error(err))
	} else {
		provider = c
	}
	purchaseService := purchasesvc.NewService(ledgerRepo, provider, purchasesvc.Config{
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
	})

	profileService := profilesvc.NewService(userRepo, storyRepo)
	signInLimiter := ratesvc.NewLimiter(rateRepo, cfg.Auth.SignInPerMinute)

	RegisterRoutes(r, Dependencies{
		AuthService:     authService,
		CatalogService:  catalogService,
		StoryService:    storyService,
		PurchaseService: purchaseService,
		ProfileService:  profileService,
		SignInLimiter:   signInLimiter,
		Logger:          log,
		Config:          cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
