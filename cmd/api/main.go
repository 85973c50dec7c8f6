package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medrelay/telemed-api/internal/config"
	"github.com/medrelay/telemed-api/internal/email"
	"github.com/medrelay/telemed-api/internal/handler"
	chatHandler "github.com/medrelay/telemed-api/internal/handler/chat"
	sessionHandler "github.com/medrelay/telemed-api/internal/handler/session"
	signalingHandler "github.com/medrelay/telemed-api/internal/handler/signaling"
	"github.com/medrelay/telemed-api/internal/middleware"
	"github.com/medrelay/telemed-api/internal/repository/postgres"
	"github.com/medrelay/telemed-api/internal/router"
	auditService "github.com/medrelay/telemed-api/internal/service/audit"
	chatService "github.com/medrelay/telemed-api/internal/service/chat"
	sessionService "github.com/medrelay/telemed-api/internal/service/session"
	signalingService "github.com/medrelay/telemed-api/internal/service/signaling"
	"github.com/medrelay/telemed-api/pkg/crypto"
	"github.com/medrelay/telemed-api/pkg/logger"
	"github.com/medrelay/telemed-api/pkg/metrics"
)

func main() {
	appLogger := logger.NewLogger(nil)
	log.Logger = *appLogger.Zerolog()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// The field cipher is non-negotiable: refusing to start beats silently
	// writing clinical text in plaintext.
	fieldCipher, err := crypto.NewFieldCipher(cfg.Encryption.FieldSecret, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("field encryption is not configured")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	sessionRepo := postgres.NewSessionRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	fileRepo := postgres.NewFileRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services
	auditSvc := auditService.NewService(auditRepo)
	mailer := email.NewService(cfg.SMTP)
	sessionSvc := sessionService.NewService(sessionRepo, auditSvc, fieldCipher, mailer, log.Logger)
	chatSvc := chatService.NewService(sessionRepo, chatRepo, fileRepo, log.Logger)

	m := metrics.NewMetrics("telemed")

	// Signaling relay: in-memory mailbox by default, Redis when the
	// deployment runs more than one instance.
	var mailboxStore signalingService.MailboxStore
	if cfg.Signaling.Backend == "redis" {
		mailboxStore, err = signalingService.NewRedisStore(cfg.Redis.URL, cfg.Signaling.MessageTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect signaling store to Redis")
		}
	} else {
		mailboxStore = signalingService.NewMemoryStore()
	}
	defer mailboxStore.Close()

	sessionChecker := signalingService.NewCachedSessionChecker(sessionRepo, cfg.Signaling.SessionCacheTTL)
	relay := signalingService.NewRelay(
		mailboxStore,
		sessionChecker,
		log.Logger,
		signalingService.WithTTL(cfg.Signaling.MessageTTL),
		signalingService.WithSweepInterval(cfg.Signaling.SweepInterval),
		signalingService.WithMetrics(m),
	)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go relay.StartSweeper(sweepCtx)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	sessionH := sessionHandler.NewHandler(sessionSvc)
	chatH := chatHandler.NewHandler(chatSvc)
	signalingH := signalingHandler.NewHandler(relay)
	healthH := handler.NewHealthHandler(db)

	routerCfg := router.DefaultConfig()
	if cfg.Server.TimeoutSeconds > 0 {
		routerCfg.Timeout = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	}

	r := router.NewRouter(authMiddleware, sessionH, chatH, signalingH, healthH, m, routerCfg)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
