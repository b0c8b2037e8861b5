package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:   "reports-service",
		Usage:  "Dashboard read side: daily sales summaries and inventory indicators",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API (default)",
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func openSalesSource(cfg *Config) (SalesSource, error) {
	if cfg.SalesSource == SourcePostgres {
		return OpenPostgresSalesSource(cfg.Database.DSN(), cfg.Database.MaxOpenConns)
	}
	return NewHTTPSalesSource(cfg.SalesServiceURL, cfg.SalesTimeout, cfg.SalesRetries), nil
}

func serve(c *cli.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	location, err := cfg.Location()
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

	tp, err := initTracer(ctx, cfg.Otel, cfg.ServiceName)
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	source, err := openSalesSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	useCase := NewDashboardUseCase(source, logger, tp.Tracer(cfg.ServiceName), location, cfg.LowStockThreshold)
	router := newRouter(cfg.ServiceName, tp, NewDashboardHandler(useCase, logger, cfg.WindowDays), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Reports Service listening",
			zap.String("port", cfg.Port),
			zap.String("source", cfg.SalesSource),
			zap.String("timezone", location.String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down Reports Service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
