package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/keychainmdip/dex-market/internal/adapter"
	"github.com/keychainmdip/dex-market/internal/api/rest"
	"github.com/keychainmdip/dex-market/internal/api/server"
	"github.com/keychainmdip/dex-market/internal/auth"
	"github.com/keychainmdip/dex-market/internal/config"
	"github.com/keychainmdip/dex-market/internal/keymaster"
	"github.com/keychainmdip/dex-market/internal/logger"
	"github.com/keychainmdip/dex-market/internal/market"
	"github.com/keychainmdip/dex-market/internal/notify"
	"github.com/keychainmdip/dex-market/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting marketplace API")

	clock := adapter.NewClock()

	// Initialize store. A configured database runs the server on Postgres;
	// without one the marketplace runs fully in memory.
	var dataStore store.Store
	if cfg.Database.Host != "" {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := store.Migrate(db); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.Fatal("Failed to configure connection pool", zap.Error(err))
		}
		logger.Info("Connected to database",
			zap.String("host", cfg.Database.Host),
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		)
		dataStore = store.NewPGStore(db)
	} else {
		logger.Warn("No database configured, using in-memory store")
		dataStore = store.NewMemoryStore()
	}

	// Initialize the identity/asset SDK client
	var km keymaster.Client
	if cfg.Keymaster.GatekeeperURL != "" {
		km = keymaster.NewHTTPClient(keymaster.Config{
			GatekeeperURL: cfg.Keymaster.GatekeeperURL,
			Timeout:       cfg.Keymaster.Timeout,
			VerifyRetries: cfg.Keymaster.VerifyRetries,
		})
		logger.Info("Using remote keymaster", zap.String("gatekeeper_url", cfg.Keymaster.GatekeeperURL))
	} else {
		logger.Warn("No gatekeeper configured, using in-process keymaster")
		km = keymaster.NewLocalClient()
	}

	// Initialize notifications. Without a broker the engine runs silent.
	var dispatcher *notify.Dispatcher
	if cfg.NATS.URL != "" {
		notifier, err := notify.NewNATS(notify.NATSConfig{
			URL:            cfg.NATS.URL,
			Subject:        cfg.NATS.Subject,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		})
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		dispatcher = notify.NewDispatcher(notifier)
		defer dispatcher.Close()
		logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
	}

	sessions := auth.NewSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, clock)
	challenges := auth.NewChallengeTable(cfg.Auth.ChallengeTTL, cfg.Auth.MaxChallenges, clock)
	policy := auth.Policy{OwnerDID: cfg.Keymaster.OwnerDID}

	engine := market.NewEngine(market.Config{
		Store:           dataStore,
		Keymaster:       km,
		Notifier:        dispatcher,
		Policy:          policy,
		Rates:           cfg.Rates.Policy(),
		Clock:           clock,
		Custodian:       cfg.Keymaster.OwnerDID,
		StartingCredits: cfg.Rates.StartingCredits,
	})

	handler := rest.NewHandler(rest.Config{
		Engine:        engine,
		Keymaster:     km,
		Sessions:      sessions,
		Challenges:    challenges,
		LoginCallback: cfg.Server.LoginCallback(),
	})

	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigin:   cfg.Server.CORSOrigin,
	}, handler, sessions)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error(err, zap.String("component", "server"))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}
