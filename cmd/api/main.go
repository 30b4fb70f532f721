package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"personapi/docs"
	"personapi/internal/config"
	"personapi/internal/database"
	"personapi/internal/database/schema"
	handlers "personapi/internal/http/handler"
	"personapi/internal/http/middleware"
	"personapi/internal/logger"
	"personapi/internal/otel"
	"personapi/internal/repository"
	"personapi/internal/repository/memory"
	"personapi/internal/repository/sqlstore"
	"personapi/internal/service"
	"personapi/internal/validation"
)

// @title Person API
// @version 1.0
// @description CRUD API for Person records with unique email addresses.
// @BasePath /
func main() {
	if err := run(); err != nil {
		log.Fatalf("personapi: %v", err)
	}
}

func run() error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, zl)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			zl.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	db, repo, err := openStore(ctx, cfg.Database, zl)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	personSvc := service.NewPersonService(repo, validation.New())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "personapi",
		ErrorHandler: handlers.ErrorHandler(zl),
	})

	// RequestID first so every later middleware and the error handler can read it
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())
	app.Use(middleware.Logger(zl))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		docs.SwaggerInfo.Host = swaggerHost(c.Get("Host"), cfg.AppHost)
		docs.SwaggerInfo.Schemes = []string{swaggerScheme(c.Get("X-Forwarded-Proto"), c.Protocol())}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, db, personSvc)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		zl.Info("server_starting", zap.String("addr", addr), zap.String("db_driver", cfg.Database.Driver))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	zl.Info("server_stopping")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore selects the person store for the configured driver. db is nil for the memory driver.
func openStore(ctx context.Context, c config.DatabaseConfig, zl *zap.Logger) (*sql.DB, repository.PersonRepository, error) {
	var (
		db      *sql.DB
		dialect database.Dialect
		err     error
	)
	switch c.Driver {
	case config.DriverMemory:
		zl.Warn("using in-memory store; data is lost on exit")
		return nil, memory.NewPersonStore(), nil
	case config.DriverSQLite:
		db, err = database.NewSQLite(c)
		dialect = database.SQLite
	default:
		db, err = database.NewPostgres(c)
		dialect = database.Postgres
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := schema.Ensure(ctx, db, dialect, zl); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, sqlstore.NewPersonStore(db, dialect), nil
}

// swaggerHost prefers the request's Host header and falls back to APP_HOST.
func swaggerHost(header, appHost string) string {
	if h := strings.TrimSpace(header); h != "" {
		return h
	}
	return appHost
}

// swaggerScheme takes the first X-Forwarded-Proto entry when a proxy sets one.
func swaggerScheme(forwarded, protocol string) string {
	if forwarded == "" {
		return protocol
	}
	return strings.TrimSpace(strings.Split(forwarded, ",")[0])
}
