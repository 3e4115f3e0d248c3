package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"stockit/config"
	"stockit/database"
	"stockit/errs"
	"stockit/events"
	"stockit/models"
	"stockit/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

// openFileDB opens an on-disk SQLite store the way the server does, with a
// full connection pool.
func openFileDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.OpenDB(config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "stockit.sqlite"),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db, config.DriverSQLite); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTrader inserts a user with a wallet holding balance.
func createTrader(t *testing.T, db *gorm.DB, email string, balance int64) *models.User {
	t.Helper()
	ctx := context.Background()

	user := &models.User{FullName: "Trader", Email: email, Password: "hash"}
	if err := repository.NewUsersRepository(db).Create(ctx, user); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	wallet := &models.Wallet{UserID: user.ID, Balance: decimal.NewFromInt(balance)}
	if err := repository.NewWalletsRepository(db).Create(ctx, wallet); err != nil {
		t.Fatalf("Create wallet failed: %v", err)
	}
	return user
}

type fakeProvider struct {
	mu     sync.Mutex
	prices map[string]string
	fail   map[string]bool
	calls  int
}

func newFakeProvider(prices map[string]string) *fakeProvider {
	return &fakeProvider{prices: prices, fail: map[string]bool{}}
}

func (p *fakeProvider) setPrice(symbol, price string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

func (p *fakeProvider) Quote(_ context.Context, symbol string) (models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	symbol = strings.ToUpper(symbol)
	if p.fail[symbol] {
		return models.Quote{}, errs.Wrap(errs.ErrProvider, "Failed to fetch stock data", fmt.Errorf("upstream down"))
	}
	price, ok := p.prices[symbol]
	if !ok {
		return models.Quote{}, errs.NotFound("Stock not found")
	}
	return models.Quote{
		Symbol:       symbol,
		CompanyName:  symbol + " Corp",
		CurrentPrice: decimal.RequireFromString(price),
	}, nil
}

func (p *fakeProvider) Trending(context.Context) ([]models.Quote, error) { return nil, nil }

func (p *fakeProvider) Search(context.Context, string) ([]models.Quote, error) { return nil, nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TradeExecuted
	err    error
}

func (p *recordingPublisher) PublishTrade(_ context.Context, e events.TradeExecuted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
