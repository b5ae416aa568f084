package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/cancelbuddy/internal/catalog"
	"github.com/01moynul/cancelbuddy/internal/config"
	"github.com/01moynul/cancelbuddy/internal/database"
	"github.com/01moynul/cancelbuddy/internal/handlers"
	"github.com/01moynul/cancelbuddy/internal/logger"
	"github.com/01moynul/cancelbuddy/internal/metrics"
	"github.com/01moynul/cancelbuddy/internal/routes"
	"github.com/01moynul/cancelbuddy/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// 0. --- Load Environment Variables (.env) ---
	dotEnvErr := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		// No logger yet; exit immediately.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if dotEnvErr != nil {
		log.Warn("could not load .env file, relying on process environment", zap.Error(dotEnvErr))
	}

	if err := run(cfg, log); err != nil {
		log.Error("server failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	db, err := database.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. --- Schema ---
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", string(db.Driver)))

	// --- Application Setup ---
	collector := metrics.New()
	app := &handlers.Handlers{
		Store: storage.New(db,
			storage.WithDefaultCurrency(cfg.DefaultCurrency),
			storage.WithStatusObserver(collector.ObserveStatus),
		),
		Catalog: catalog.Default(),
		Metrics: collector,
		Log:     log,
		Cookie:  handlers.CookieConfig{Name: cfg.SessionCookieName, MaxAge: cfg.SessionCookieTTL},
		Version: version,
	}

	// --- Router Setup ---
	gin.SetMode(cfg.GinMode)
	router := routes.SetupRouter(app, routes.Options{
		AllowedOrigin: cfg.CORSAllowedOrigin,
		SessionHeader: cfg.SessionHeader,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// --- Start Server ---
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting cancelbuddy api", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	log.Info("server stopped", zap.Duration("shutdown_timeout", cfg.ShutdownTimeout), zap.Time("at", time.Now().UTC()))
	return nil
}
