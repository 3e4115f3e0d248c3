// Package app wires the stores, services and HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"stockit/config"
	"stockit/database"
	"stockit/events"
	"stockit/handlers"
	"stockit/market"
	"stockit/repository"
	"stockit/service"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProviderMock         = "mock"
	ProviderAlphaVantage = "alphavantage"

	shutdownTimeout = 5 * time.Second
)

type App struct {
	cfg        *config.Config
	log        *slog.Logger
	db         *gorm.DB
	rdb        *redis.Client
	publisher  events.Publisher
	httpServer *http.Server
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		return nil, fmt.Errorf("failed to migrate storage: %w", err)
	}

	rdb, err := config.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	provider, source, err := newProvider(cfg, rdb, log)
	if err != nil {
		return nil, err
	}

	var sessions repository.SessionStore
	if rdb != nil {
		sessions = repository.NewRedisSessionStore(rdb)
	}

	publisher := events.New(cfg.Kafka, log)

	tokens := service.NewTokenService(cfg.Security, sessions)
	auth := service.NewAuthService(db, tokens, decimal.NewFromFloat(cfg.Trading.StartingBalance), cfg.Security.BcryptCost, log)
	ledger := service.NewLedgerService(db, provider, publisher, log)
	watchlist := service.NewWatchlistService(repository.NewWatchlistRepository(db), provider, log)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewHandler(auth, tokens, ledger, watchlist, provider, source, log)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort("", strconv.FormatUint(uint64(cfg.HTTP.Port), 10)),
		Handler:      handlers.NewRouter(h),
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	}

	return &App{
		cfg:        cfg,
		log:        log,
		db:         db,
		rdb:        rdb,
		publisher:  publisher,
		httpServer: httpServer,
	}, nil
}

// newProvider picks the market data source. The live upstream is cached in
// Redis when Redis is configured.
func newProvider(cfg *config.Config, rdb *redis.Client, log *slog.Logger) (market.Provider, string, error) {
	switch cfg.Market.Provider {
	case ProviderMock, "":
		return market.NewMock(), ProviderMock, nil
	case ProviderAlphaVantage:
		if cfg.Market.APIKey == "" {
			return nil, "", errors.New("ALPHA_VANTAGE_API_KEY is required for the alphavantage provider")
		}
		var p market.Provider = market.NewAlphaVantage(cfg.Market, log)
		if rdb != nil {
			p = market.NewCached(p, rdb, cfg.Market.CacheTTL, log)
		}
		return p, ProviderAlphaVantage, nil
	default:
		return nil, "", fmt.Errorf("unknown market provider %q", cfg.Market.Provider)
	}
}

func (a *App) Run() error {
	a.log.Info("http server started", slog.String("addr", a.httpServer.Addr))
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("failed to gracefully shutdown http server", slog.Any("error", err))
	} else {
		a.log.Info("http server stopped gracefully")
	}

	if err := a.publisher.Close(); err != nil {
		a.log.Error("failed to close trade publisher", slog.Any("error", err))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error("failed to close redis", slog.Any("error", err))
		}
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("failed to close database", slog.Any("error", err))
		}
	}
}
