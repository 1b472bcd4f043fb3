package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/backoffice/internal/config"
	"github.com/example/backoffice/internal/database"
	"github.com/example/backoffice/internal/logger"
	"github.com/example/backoffice/internal/repository"
	"github.com/example/backoffice/internal/routes"
	"github.com/example/backoffice/internal/services"
	"github.com/example/backoffice/internal/tokens"
	"github.com/example/backoffice/internal/utils"
)

const shutdownTimeout = 30 * time.Second

type stores struct {
	users  services.UserStore
	orders services.OrderStore
	ledger services.ResetTokenLedger
	close  func() error
}

func openStores(cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.UsesMemoryStore() {
		log.Warn("Using in-memory store, data will not survive a restart")
		return &stores{
			users:  repository.NewMemoryUserRepository(),
			orders: repository.NewMemoryOrderRepository(),
			ledger: repository.NewMemoryResetTokenRepository(),
			close:  func() error { return nil },
		}, nil
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	return &stores{
		users:  repository.NewUserRepository(db),
		orders: repository.NewOrderRepository(db),
		ledger: repository.NewResetTokenRepository(db),
		close:  func() error { return database.Close(db) },
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync(zlog)

	st, err := openStores(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to open store", zap.Error(err))
	}

	tokenService, err := tokens.NewService(cfg.JWTSecret)
	if err != nil {
		zlog.Fatal("Failed to create token service", zap.Error(err))
	}
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)

	dispatcher := services.NewDispatcher(zlog, cfg.NotifyQueueSize, cfg.NotifyWorkers,
		services.NewMailer(cfg.SMTP, zlog),
		services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, zlog),
	)

	var locator services.Locator
	if cfg.GeoIPURL != "" {
		locator = services.NewIPAPILocator(cfg.GeoIPURL)
	}

	accounts, err := services.NewAccountService(st.users, hasher, tokenService, dispatcher, locator, cfg.SessionTTL, zlog)
	if err != nil {
		zlog.Fatal("Failed to create account service", zap.Error(err))
	}
	resets := services.NewPasswordResetService(st.users, st.ledger, hasher, tokenService, dispatcher,
		cfg.ResetTTL, cfg.ResetURL(), zlog)
	orders := services.NewOrderService(st.orders, services.NewProductIDGenerator(), dispatcher, zlog)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go resets.StartSweeper(ctx, cfg.ResetSweepInterval)

	app := routes.NewApp(cfg, zlog)
	routes.Register(app, routes.Deps{
		Tokens:   tokenService,
		Accounts: accounts,
		Resets:   resets,
		Orders:   orders,
	})

	go func() {
		zlog.Info("Starting server", zap.String("port", cfg.AppPort), zap.String("environment", cfg.Environment))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		zlog.Error("Notification queue not drained", zap.Error(err))
	}
	if err := st.close(); err != nil {
		zlog.Error("Failed to close store", zap.Error(err))
	}

	zlog.Info("Server exited")
}
