package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"expensetracker/docs"
	"expensetracker/internal/cache"
	"expensetracker/internal/config"
	"expensetracker/internal/db"
	"expensetracker/internal/events"
	"expensetracker/internal/handler"
	"expensetracker/internal/logger"
	"expensetracker/internal/repository"
	"expensetracker/internal/router"
	"expensetracker/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Expense Tracker API
// @version 1.0
// @description Personal expense tracking with a monthly spending limit.
// @host localhost:8080
// @BasePath /api
// @schemes http
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogDevelopment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gormDB, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "expenses:")
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = cacheClient.Close()
		cacheClient = nil
	}
	defer func() { _ = cacheClient.Close() }()

	publisher, closePublisher := newPublisher(cfg, log)
	defer closePublisher()

	userRepo := repository.NewUserRepository(gormDB)
	expenseRepo := repository.NewExpenseRepository(gormDB)

	authService := service.NewAuthService(userRepo, log)
	expenseService := service.NewExpenseService(expenseRepo, cacheClient, publisher, log, service.ExpenseOptions{
		MonthlyLimit:   cfg.MonthlyLimit,
		CurrencySymbol: cfg.CurrencySymbol,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(
		e,
		cfg,
		log,
		handler.NewAuthHandler(authService),
		handler.NewExpenseHandler(expenseService),
	)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}
	log.Info("swagger documentation available", zap.String("url", swaggerURL(cfg)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.ServerPort
		log.Info("http server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newPublisher connects to RabbitMQ when configured. Alerts are only logged otherwise.
func newPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, func()) {
	if cfg.RabbitMQURL == "" {
		return events.NopPublisher{}, func() {}
	}
	conn, err := events.DialRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Warn("rabbitmq unavailable, limit alerts will not be published", zap.Error(err))
		return events.NopPublisher{}, func() {}
	}
	log.Info("publishing limit alerts", zap.String("queue", cfg.AlertQueue))
	return events.NewRabbitMQPublisher(conn, cfg.AlertQueue), func() { _ = conn.Close() }
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
