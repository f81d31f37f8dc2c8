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

	"github.com/atlaspos/atlaspos/internal/app"
	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/masterdata/customers"
	"github.com/atlaspos/atlaspos/internal/masterdata/employees"
	"github.com/atlaspos/atlaspos/internal/masterdata/products"
	"github.com/atlaspos/atlaspos/internal/masterdata/suppliers"
	"github.com/atlaspos/atlaspos/internal/observability"
	"github.com/atlaspos/atlaspos/internal/platform/cache"
	"github.com/atlaspos/atlaspos/internal/platform/db"
	"github.com/atlaspos/atlaspos/internal/purchasing"
	"github.com/atlaspos/atlaspos/internal/sales"
	"github.com/atlaspos/atlaspos/internal/shared"
	"github.com/atlaspos/atlaspos/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The summary cache degrades to direct reads without Redis.
		logger.Warn("connect redis", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	docNumbers := shared.NewDocNumbers(dbpool)
	metrics := observability.NewMetrics()

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryCache := inventory.NewCache(redisClient, cfg.SummaryCacheTTL)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, inventoryCache)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo, docNumbers)
	productsHandler := products.NewHandler(logger, productsService)

	customersRepo := customers.NewRepository(dbpool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService)

	employeesRepo := employees.NewRepository(dbpool)
	employeesService := employees.NewService(employeesRepo)
	employeesHandler := employees.NewHandler(logger, employeesService)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(suppliersRepo)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, customersRepo, employeesRepo, docNumbers, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService, metrics)

	purchasingRepo := purchasing.NewRepository(dbpool)
	purchasingService := purchasing.NewService(purchasingRepo, suppliersRepo, docNumbers, auditLogger)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Pool:             dbpool,
		InventoryHandler: inventoryHandler,
		SalesHandler:     salesHandler,
		PurchasesHandler: purchasingHandler,
		ProductsHandler:  productsHandler,
		CustomersHandler: customersHandler,
		EmployeesHandler: employeesHandler,
		SuppliersHandler: suppliersHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
