// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "xr-wallet/internal/api"
	"xr-wallet/internal/api/handler"
	"xr-wallet/internal/api/middleware"
	"xr-wallet/internal/config"
	"xr-wallet/internal/events"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/repository/memory"
	"xr-wallet/internal/repository/postgres"
	"xr-wallet/internal/service"
	"xr-wallet/internal/util"
	"xr-wallet/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB      // nil with the memory driver
	Redis  *redis.Client // nil when REDIS_ADDR is empty

	// Repositories
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository
	LedgerRepository      repository.LedgerRepository // nil with the memory driver

	// Services
	Publisher           events.Publisher
	WalletStore         service.WalletStore
	TransactionLog      service.TransactionLog
	TransferCoordinator service.TransferCoordinator
	WalletService       service.WalletService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "storage_driver", cfg.StorageDriver)

	// 3. Storage
	if err := app.initStorage(ctx); err != nil {
		return err
	}

	// 4. Event publisher
	if err := app.initPublisher(ctx); err != nil {
		return err
	}

	// 5. Initialize Services
	app.WalletStore = service.NewWalletStore(app.WalletRepository, cfg.BalanceMaxRetries, app.Logger)
	app.TransactionLog = service.NewTransactionLog(app.TransactionRepository)
	app.TransferCoordinator = service.NewTransferCoordinator(app.WalletStore, app.TransactionLog, app.LedgerRepository, app.Publisher, app.Logger)
	app.WalletService = service.NewWalletService(app.WalletStore, app.TransactionLog, app.TransferCoordinator)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.WalletService, app.Logger)
	auth := middleware.Authenticate(middleware.NewVerifier(cfg.JWTSecret))
	app.HTTPHandler = router.NewRouter(walletHandler, auth, cfg.CORSAllowedOrigins, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) initStorage(ctx context.Context) error {
	switch app.Config.StorageDriver {
	case config.StorageDriverMemory:
		app.WalletRepository = memory.NewWalletRepository()
		app.TransactionRepository = memory.NewTransactionRepository()
		app.Logger.Warn("Using in-memory storage; data is lost on restart.")

	default:
		database, err := db.NewPostgresDB(ctx, app.Config.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = database
		app.Logger.Info("Database connection established.")

		if err := db.Migrate(ctx, app.DB); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		app.WalletRepository = postgres.NewWalletRepository(app.DB)
		app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
		app.LedgerRepository = postgres.NewLedgerRepository(app.DB)
	}
	app.Logger.Info("Repositories initialized.")
	return nil
}

func (app *Application) initPublisher(ctx context.Context) error {
	if app.Config.Redis.Addr == "" {
		app.Publisher = events.NopPublisher{}
		app.Logger.Info("REDIS_ADDR not set, wallet events are disabled.")
		return nil
	}

	app.Redis = redis.NewClient(&redis.Options{
		Addr:     app.Config.Redis.Addr,
		Password: app.Config.Redis.Password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.Redis.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", app.Config.Redis.Addr, err)
	}

	app.Publisher = events.NewRedisPublisher(app.Redis, app.Config.Redis.Channel, app.Logger)
	app.Logger.Info("Redis publisher initialized.", "channel", app.Config.Redis.Channel)
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	logger := app.Logger
	if logger == nil {
		logger = util.GetLogger()
	}
	logger.Info("Shutting down application...")

	var firstErr error
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			logger.Error("Failed to close redis client", "error", err)
			firstErr = fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			logger.Error("Failed to close database connection", "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to close database connection: %w", err)
			}
		} else {
			logger.Info("Database connection closed.")
		}
	}
	if firstErr != nil {
		return firstErr
	}
	logger.Info("Application shut down gracefully.")
	return nil
}
