package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticketwizard/config"
	_ "ticketwizard/docs"
	"ticketwizard/internal/adapters/auth"
	"ticketwizard/internal/adapters/email"
	"ticketwizard/internal/adapters/eventapi"
	delivery "ticketwizard/internal/delivery/http"
	"ticketwizard/internal/delivery/http/controllers"
	"ticketwizard/internal/delivery/http/middleware"
	"ticketwizard/internal/domain"
	"ticketwizard/internal/repository/file"
	"ticketwizard/internal/repository/memory"
	"ticketwizard/internal/repository/postgres"
	draftredis "ticketwizard/internal/repository/redis"
	"ticketwizard/internal/scheduler"
	"ticketwizard/internal/services"
	"ticketwizard/internal/wizard"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout  = 15 * time.Second
	evictionInterval = 5 * time.Minute
)

// @title Ticket Wizard API
// @version 1.0
// @description Backend for the event creation wizard: draft editing, step validation, draft persistence and event submission.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openDraftRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("draft store: %w", err)
	}
	defer closeRepo()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("email templates: %w", err)
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	submitter := eventapi.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.SubmitTimeout}, logger)
	store := wizard.NewDraftStore(repo, logger, cfg.DraftTTL)
	wizardService := services.NewWizardService(store, submitter, emailService, logger, cfg.SubmitTimeout)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	wizardController := controllers.NewWizardController(logger, wizardService)
	mux := delivery.NewRouter(wizardController, verifier, logger)

	var handler http.Handler = mux
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	}
	handler = middleware.LoggingMiddleware(logger, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go scheduler.NewEvictor(wizardService, evictionInterval, cfg.WizardIdleTimeout, logger).Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "env", cfg.Environment, "draft_store", cfg.DraftStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

// openDraftRepository builds the backend named by DRAFT_STORE. The returned
// func releases any connection it holds.
func openDraftRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.DraftRepository, func(), error) {
	noop := func() {}
	switch cfg.DraftStore {
	case config.DraftStoreFile:
		repo, err := file.NewDraftRepository(cfg.DraftFileDir)
		return repo, noop, err
	case config.DraftStorePostgres:
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return nil, noop, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("postgres draft store ready")
		return postgres.NewDraftRepository(db), func() { _ = db.Close() }, nil
	case config.DraftStoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("redis draft store ready", "addr", cfg.RedisAddr)
		return draftredis.NewDraftRepository(client, "ticketwizard", cfg.DraftTTL), func() { _ = client.Close() }, nil
	default:
		return memory.NewDraftRepository(), noop, nil
	}
}
