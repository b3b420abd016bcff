package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kencana-erp/kencana-erp/internal/app"
	"github.com/kencana-erp/kencana-erp/internal/assist"
	"github.com/kencana-erp/kencana-erp/internal/company"
	"github.com/kencana-erp/kencana-erp/internal/dashboard"
	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
	"github.com/kencana-erp/kencana-erp/internal/observability"
	"github.com/kencana-erp/kencana-erp/internal/partners"
	"github.com/kencana-erp/kencana-erp/internal/planner"
	"github.com/kencana-erp/kencana-erp/internal/platform/cache"
	"github.com/kencana-erp/kencana-erp/internal/platform/db"
	"github.com/kencana-erp/kencana-erp/internal/procurement"
	"github.com/kencana-erp/kencana-erp/internal/sales"
	"github.com/kencana-erp/kencana-erp/internal/shared"
	"github.com/kencana-erp/kencana-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis carries the planner feed and the job queue. The API keeps
	// serving without it.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	numberingService := numbering.NewService(numbering.NewPGCounter(pool))
	companyRepo := company.NewRepository(pool)
	partnersRepo := partners.NewRepository(pool)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), idempotency, auditLogger, logger,
		inventory.ServiceConfig{AllowNegativeStock: cfg.AllowNegativeStock})
	salesService := sales.NewService(sales.NewRepository(pool), inventoryService, numberingService,
		companyRepo, partnersRepo, auditLogger, logger)
	procurementService := procurement.NewService(procurement.NewRepository(pool), inventoryService,
		numberingService, companyRepo, auditLogger, logger)
	plannerFeed := planner.NewFeed(redisClient)
	plannerService := planner.NewService(planner.NewRepository(pool), plannerFeed, logger)
	dashboardService := dashboard.NewService(salesService, partnersRepo, procurementService, inventoryService)

	var (
		jobHandler *jobs.Handler
		jobClient  *jobs.Client
	)
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() { _ = inspector.Close() }()
		jobHandler = jobs.NewHandler(inspector, logger)

		jobClient, err = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Warn("job client unavailable", slog.Any("error", err))
			jobClient = nil
		} else {
			defer func() { _ = jobClient.Close() }()
		}
	}

	var assistHandler *assist.Handler
	if cfg.GeminiAPIKey != "" {
		assistClient := assist.NewClient(assist.ClientConfig{
			BaseURL:   cfg.GeminiBaseURL,
			APIKey:    cfg.GeminiAPIKey,
			TextModel: cfg.GeminiTextModel,
			Timeout:   cfg.GeminiTimeout,
		})
		var mailer assist.MailerPort
		if jobClient != nil {
			mailer = jobClient
		}
		assistHandler = assist.NewHandler(assist.NewService(assistClient, logger), mailer, logger)
	} else {
		logger.Warn("assistant disabled, GEMINI_API_KEY not set")
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SalesHandler:       sales.NewHandler(salesService, logger),
		InventoryHandler:   inventory.NewHandler(inventoryService, logger),
		ProcurementHandler: procurement.NewHandler(procurementService, logger),
		PartnersHandler:    partners.NewHandler(partnersRepo, logger),
		CompanyHandler:     company.NewHandler(companyRepo, logger),
		PlannerHandler:     planner.NewHandler(plannerService, plannerFeed, logger),
		NumberingHandler:   numbering.NewHandler(numberingService, logger),
		AssistHandler:      assistHandler,
		DashboardHandler:   dashboard.NewHandler(dashboardService, logger),
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
