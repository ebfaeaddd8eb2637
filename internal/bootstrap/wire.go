package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/baechuer/chatcpe-service/internal/application/auth"
	"github.com/baechuer/chatcpe-service/internal/application/chat"
	"github.com/baechuer/chatcpe-service/internal/application/documents"
	"github.com/baechuer/chatcpe-service/internal/application/faq"
	"github.com/baechuer/chatcpe-service/internal/config"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/email"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/forms"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/llm"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/redis"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/security"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/storage"
	"github.com/baechuer/chatcpe-service/internal/logger"
	http_handlers "github.com/baechuer/chatcpe-service/internal/transport/http/handlers"
	"github.com/baechuer/chatcpe-service/internal/transport/http/middleware"
	"github.com/baechuer/chatcpe-service/internal/transport/http/response"
	"github.com/baechuer/chatcpe-service/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(dsn string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	// nil disables redis; rate limiting then stays in-process
	NewRedis func(addr, password string, db int) RedisClient

	NewStorage func(ctx context.Context, cfg *config.Config) (documents.Storage, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db + schema
	db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}
	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := deps.Migrate(migrateCtx, db); err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	userRepo := postgres.NewUserRepo(db)
	chatRepo := postgres.NewChatRepo(db)
	faqRepo := postgres.NewFAQRepo(db)
	fileRepo := postgres.NewFileRepo(db)

	// 2) redis (best-effort)
	var redisCli *redis.Client
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(context.Background()); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-process rate limiting")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			redisCli, _ = c.(*redis.Client)
		}
	}

	// 3) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewPasswordHasher(security.DefaultArgon2Params)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	if postgres.SeedAdmin(context.Background(), userRepo, hasher, cfg.SeedAdminEmail, cfg.SeedAdminPassword) {
		logger.Logger.Info().Str("email", cfg.SeedAdminEmail).Msg("admin account seeded")
	}

	// 4) outbound integrations
	var mailer auth.Mailer
	if cfg.SMTPHost == "" {
		logger.Logger.Warn().Msg("SMTP_HOST not set; verification links are logged, not mailed")
		mailer = email.NewLogSender(logger.Logger)
	} else {
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,
		}, logger.Logger)
	}

	llmClient := llm.NewClient(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, nil, logger.Logger)

	scraper, err := forms.NewScraper(cfg.FormsURL, cfg.FormsTimeout, nil, logger.Logger)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	store, err := deps.NewStorage(context.Background(), cfg)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 5) services
	authSvc := auth.NewService(userRepo, hasher, signer, mailer, auth.Config{
		AccessTTL:           cfg.AccessTokenTTL,
		VerifyTokenTTL:      cfg.VerifyTokenTTL,
		AllowedEmailDomains: cfg.AllowedEmailDomains,
		VerifyURL:           cfg.VerifyURL,
	})
	authSvc = authSvc.WithAudit(func(action string, fields map[string]string) {
		evt := logger.Logger.Info().
			Bool("audit", true).
			Str("action", action)
		for k, v := range fields {
			evt = evt.Str(k, v)
		}
		evt.Msg("audit")
	})

	chatSvc := chat.NewService(llmClient, chatRepo, authSvc, logger.Logger)
	faqSvc := faq.NewService(faqRepo)
	docSvc := documents.NewService(store, fileRepo, scraper, logger.Logger)

	// 6) handlers + middleware
	authMW := middleware.Authenticate(authSvc, true, response.WriteError)
	optionalAuthMW := middleware.Authenticate(authSvc, false, response.WriteError)

	// rate limit (fail-open); nil limiter means httprate in-process
	var limiter middleware.RateLimiter
	if redisCli != nil {
		limiter = redis.NewFixedWindowLimiter(redisCli)
	}
	rl := func(key string, perMin int) func(http.Handler) http.Handler {
		return middleware.RateLimit(limiter, middleware.FixedWindowConfig{
			RouteKey: key,
			Limit:    perMin,
			Window:   time.Minute,
		}, response.WriteError)
	}

	// 7) router
	mux, err := deps.NewRouter(router.Deps{
		Health: http_handlers.NewHealthHandler(db),
		Auth:   http_handlers.NewAuthHandler(authSvc, cfg.AppBaseURL),
		Chat:   http_handlers.NewChatHandler(chatSvc),
		FAQ:    http_handlers.NewFAQHandler(faqSvc),
		Files:  http_handlers.NewFilesHandler(docSvc, cfg.MaxUploadSizeMB),

		AuthMW:         authMW,
		OptionalAuthMW: optionalAuthMW,

		RLAuth: rl("auth", cfg.RateLimitAuthPerMin),
		RLChat: rl("chat.send", cfg.RateLimitChatPerMin),

		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 8) server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewStorage: newStorage,
		NewRouter:  router.New,
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (documents.Storage, error) {
	switch cfg.StorageDriver {
	case "s3":
		s, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, logger.Logger)
		if err != nil {
			return nil, err
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.EnsureBucket(ensureCtx); err != nil {
			return nil, fmt.Errorf("ensure bucket %q: %w", cfg.S3Bucket, err)
		}
		return s, nil
	case "local", "":
		return storage.NewLocal(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
