package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fixpoint-app/fixpoint/internal/app"
	"github.com/fixpoint-app/fixpoint/internal/auth"
	"github.com/fixpoint-app/fixpoint/internal/authz"
	"github.com/fixpoint-app/fixpoint/internal/checklists"
	"github.com/fixpoint-app/fixpoint/internal/companies"
	"github.com/fixpoint-app/fixpoint/internal/customers"
	"github.com/fixpoint-app/fixpoint/internal/drawers"
	"github.com/fixpoint-app/fixpoint/internal/inventory"
	"github.com/fixpoint-app/fixpoint/internal/invoices"
	"github.com/fixpoint-app/fixpoint/internal/observability"
	"github.com/fixpoint-app/fixpoint/internal/platform/cache"
	"github.com/fixpoint-app/fixpoint/internal/platform/db"
	"github.com/fixpoint-app/fixpoint/internal/settings"
	"github.com/fixpoint-app/fixpoint/internal/shared"
	"github.com/fixpoint-app/fixpoint/internal/tickets"
	"github.com/fixpoint-app/fixpoint/internal/users"
	"github.com/fixpoint-app/fixpoint/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, 0)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "fixpoint_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	usersRepo := users.NewRepository(pool)
	catalog := authz.NewPGCatalog(pool)
	resolver := authz.NewResolver(catalog, usersRepo)
	authzMW := authz.Middleware{Resolver: resolver, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.JWTTTL)

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo)
	settingsHandler := settings.NewHandler(logger, settingsService, authzMW)

	maintenance := authz.MaintenanceGate{
		Settings: settingsService,
		Auth:     auth.IdentityAuthenticator{Service: authService},
		Logger:   logger,
	}
	authHandler := auth.NewHandler(logger, authService, sessionManager, resolver, maintenance)
	identity := auth.IdentityLoader{Service: authService, Logger: logger}

	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, authzMW)

	companiesRepo := companies.NewPGRepository(pool)
	companiesService := companies.NewService(companiesRepo)
	companiesHandler := companies.NewHandler(logger, companiesService, authzMW)

	customersRepo := customers.NewPGRepository(pool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService, authzMW)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("create jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	ticketsRepo := tickets.NewPGRepository(pool)
	ticketsService := tickets.NewService(ticketsRepo, jobsClient, logger)
	ticketsHandler := tickets.NewHandler(logger, ticketsService, authzMW)

	drawersRepo := drawers.NewPGRepository(pool)
	drawersService := drawers.NewService(drawersRepo, logger)
	drawersHandler := drawers.NewHandler(logger, drawersService, authzMW)

	invoicesRepo := invoices.NewPGRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, drawersService, logger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService, authzMW, cfg.Currency)

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, inventory.ServiceConfig{
		AllowNegativeStock: cfg.AllowNegativeStock,
	})
	inventoryHandler := inventory.NewHandler(logger, inventoryService, authzMW)

	checklistsRepo := checklists.NewPGRepository(pool)
	checklistsService := checklists.NewService(checklistsRepo, ticketsService)
	checklistsHandler := checklists.NewHandler(logger, checklistsService, authzMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Identity:          identity,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		CompaniesHandler:  companiesHandler,
		SettingsHandler:   settingsHandler,
		CustomersHandler:  customersHandler,
		TicketsHandler:    ticketsHandler,
		InvoicesHandler:   invoicesHandler,
		InventoryHandler:  inventoryHandler,
		DrawersHandler:    drawersHandler,
		ChecklistsHandler: checklistsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
