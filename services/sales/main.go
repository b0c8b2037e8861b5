package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:   "sales-service",
		Usage:  "Point-of-sale core: catalog, stock and sales ledger",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply the embedded schema to the configured database",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "insert demo products into the catalog",
				Action: seed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func serve(c *cli.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.AppEnv, cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	tp, err := initTracer(ctx, cfg.Otel, cfg.ServiceName)
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	mp, err := initMetrics(ctx, cfg.Otel, cfg.ServiceName)
	if err != nil {
		return errors.Wrap(err, "failed to initialize metrics")
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	tracer := tp.Tracer(cfg.ServiceName)

	repository, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repository.Close()

	saleUseCase, err := NewSaleUseCase(repository, logger, tracer, mp.Meter(cfg.ServiceName), cfg.Sale.RetryPolicy())
	if err != nil {
		return err
	}
	saleUseCase.WithLowStockThreshold(cfg.LowStockThreshold)
	catalogUseCase := NewCatalogUseCase(repository, logger, tracer)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(RouterDeps{
		Repository:     repository,
		SaleHandler:    NewSaleHandler(saleUseCase, logger, tracer),
		ProductHandler: NewProductHandler(catalogUseCase, logger, tracer),
		Metrics:        NewHTTPMetrics(cfg.MetricsPrefix, cfg.ServiceName),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Sales Service listening", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down Sales Service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrate(c *cli.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		return errors.Errorf("migrate requires STORAGE_DRIVER=%s", StorageDriverPostgres)
	}

	logger, err := newLogger(cfg.AppEnv, cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := initDB(c.Context, cfg.Database, logger)
	if err != nil {
		return err
	}
	repository := NewPostgresRepository(pool)
	defer repository.Close()

	if err := repository.Migrate(c.Context); err != nil {
		return err
	}
	logger.Info("✅ Schema applied")
	return nil
}

func seed(c *cli.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.AppEnv, cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer logger.Sync()

	repository, err := openRepository(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer repository.Close()

	catalog := NewCatalogUseCase(repository, logger, nopTracer())
	for _, req := range demoProducts() {
		if _, err := catalog.CreateProduct(c.Context, req); err != nil {
			return errors.Wrapf(err, "failed to seed product %q", req.Name)
		}
	}
	return nil
}

func demoProducts() []ProductRequest {
	rating := func(v float64) *float64 { return &v }
	return []ProductRequest{
		{Name: "Espresso Beans 1kg", Price: decimal.RequireFromString("24.90"), StockQuantity: 40, Rating: rating(4.7)},
		{Name: "Paper Cups (50)", Price: decimal.RequireFromString("6.50"), StockQuantity: 120, Rating: rating(4.1)},
		{Name: "Oat Milk 1L", Price: decimal.RequireFromString("3.20"), StockQuantity: 4, Rating: rating(4.4)},
		{Name: "Ceramic Mug", Price: decimal.RequireFromString("12.00"), StockQuantity: 15},
		{Name: "Cold Brew Bottle", Price: decimal.RequireFromString("4.75"), StockQuantity: 0, Rating: rating(3.9)},
	}
}
