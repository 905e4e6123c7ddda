package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmugisha/fundflow-backend/internal/config"
	"github.com/dmugisha/fundflow-backend/internal/export"
	"github.com/dmugisha/fundflow-backend/internal/handler"
	"github.com/dmugisha/fundflow-backend/internal/ledger"
	"github.com/dmugisha/fundflow-backend/internal/livesync"
	"github.com/dmugisha/fundflow-backend/internal/logging"
	"github.com/dmugisha/fundflow-backend/internal/middleware"
	"github.com/dmugisha/fundflow-backend/internal/repository"
	"github.com/dmugisha/fundflow-backend/internal/service"
	"github.com/dmugisha/fundflow-backend/internal/service/funding"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("fundflow-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	campaigns := repository.NewCampaignRepository(db)
	intents := repository.NewIntentRepository(db)
	donations := repository.NewDonationRepository(db)
	pledges := repository.NewPledgeRepository(db)
	providerEvents := repository.NewProviderEventRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)
	history := repository.NewHistoryRepository(db)

	campaignLedger := ledger.New(db)

	// Event fanout: the local hub always, redis and kafka when configured.
	hub := livesync.NewHub()
	targets := []livesync.Publisher{hub}

	if cfg.RedisURL != "" {
		redisClient, err := livesync.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		bridge := livesync.NewRedisBridge(redisClient, hub)
		targets = append(targets, bridge)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				slog.Error("redis bridge stopped", "error", err)
			}
		}()
	}

	if len(cfg.KafkaBrokers) > 0 {
		exporter, err := export.NewKafkaExporter(cfg.KafkaBrokers, cfg.KafkaEventTopic)
		if err != nil {
			slog.Error("failed to create kafka exporter", "error", err)
			os.Exit(1)
		}
		defer exporter.Close()
		targets = append(targets, exporter)
	}

	fanout := livesync.NewFanout(targets...)

	provider := service.NewProviderClient(cfg.ProviderURL, cfg.WebhookCallbackURL)
	fundingSvc := funding.NewService(campaigns, intents, donations, pledges, campaignLedger, provider, fanout, db, cfg)

	confirmations := service.NewConfirmationProcessor(
		providerEvents,
		fundingSvc,
		slog.Default(),
		time.Duration(cfg.ConfirmationIntervalS)*time.Second,
		cfg.ConfirmationBatchSize,
	)
	go confirmations.Run(ctx)

	lifecycle := funding.NewPledgeLifecycleWorker(
		fundingSvc,
		time.Duration(cfg.PledgeSweepIntervalS)*time.Second,
		time.Duration(cfg.PledgeGraceDays)*24*time.Hour,
		slog.Default(),
	)
	go lifecycle.Run(ctx)

	// Expired idempotency cache rows are garbage collected in the background.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if purged, err := idempotency.PurgeExpired(ctx); err != nil {
					slog.Error("idempotency purge failed", "error", err)
				} else if purged > 0 {
					slog.Info("purged idempotency records", "count", purged)
				}
			}
		}
	}()

	jwtExpiry := time.Duration(cfg.JWTExpiryHours) * time.Hour
	authHandler := handler.NewAuthHandler(users, cfg.JWTSecret, jwtExpiry)
	campaignHandler := handler.NewCampaignHandler(campaigns)
	adminHandler := handler.NewAdminHandler(campaigns, fanout)
	donationHandler := handler.NewDonationHandler(fundingSvc, donations)
	pledgeHandler := handler.NewPledgeHandler(fundingSvc, pledges)
	dashboardHandler := handler.NewDashboardHandler(history, users)
	liveHandler := handler.NewLiveHandler(hub, campaignLedger)
	webhookHandler := handler.NewWebhookHandler(providerEvents, cfg.WebhookSecret)
	healthHandler := handler.NewHealthHandler(db)

	authed := middleware.Auth(cfg.JWTSecret)
	admin := func(h http.Handler) http.Handler { return authed(middleware.AdminOnly(h)) }
	idem := middleware.Idempotency(idempotency)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("POST /api/v1/campaigns", authed(http.HandlerFunc(campaignHandler.Create)))
	mux.HandleFunc("GET /api/v1/campaigns", campaignHandler.List)
	mux.HandleFunc("GET /api/v1/campaigns/{id}", campaignHandler.GetByID)
	mux.Handle("GET /api/v1/me/campaigns", authed(http.HandlerFunc(campaignHandler.ListMine)))

	mux.Handle("GET /api/v1/admin/campaigns", admin(http.HandlerFunc(adminHandler.ListCampaigns)))
	mux.Handle("PATCH /api/v1/admin/campaigns/{id}/status", admin(http.HandlerFunc(adminHandler.UpdateCampaignStatus)))
	mux.Handle("GET /api/v1/admin/stats", admin(http.HandlerFunc(adminHandler.Stats)))

	mux.Handle("POST /api/v1/campaigns/{id}/donations", authed(idem(http.HandlerFunc(donationHandler.Initiate))))
	mux.Handle("GET /api/v1/me/donations", authed(http.HandlerFunc(donationHandler.ListMine)))

	mux.Handle("POST /api/v1/campaigns/{id}/pledges", authed(idem(http.HandlerFunc(pledgeHandler.Submit))))
	mux.Handle("GET /api/v1/me/pledges", authed(http.HandlerFunc(pledgeHandler.ListMine)))
	mux.Handle("POST /api/v1/pledges/{id}/fulfill", authed(idem(http.HandlerFunc(pledgeHandler.Fulfill))))

	mux.Handle("GET /api/v1/me/dashboard", authed(http.HandlerFunc(dashboardHandler.Metrics)))

	mux.HandleFunc("POST /api/v1/webhooks/provider", webhookHandler.ReceiveProviderWebhook)

	mux.HandleFunc("GET /api/v1/campaigns/{id}/live", liveHandler.CampaignStream)
	mux.HandleFunc("GET /api/v1/live", liveHandler.PlatformStream)

	var root http.Handler = mux
	root = middleware.Recovery(root)
	root = middleware.Logging(root)
	root = middleware.Tracing(root)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
