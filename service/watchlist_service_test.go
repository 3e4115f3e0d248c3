package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"stockit/errs"
	"stockit/models"
	"stockit/repository"
	"stockit/service"

	"github.com/shopspring/decimal"
)

func TestWatchlistService(t *testing.T) {
	db := setupTestDB(t)
	provider := newFakeProvider(map[string]string{"AAPL": "178.50", "MSFT": "378.91"})
	svc := service.NewWatchlistService(repository.NewWatchlistRepository(db), provider, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "watch@example.com", 0)

	item, err := svc.Add(ctx, user.ID, "aapl")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if item.Symbol != "AAPL" || item.CompanyName != "AAPL Corp" {
		t.Errorf("unexpected item %+v", item)
	}

	if _, err := svc.Add(ctx, user.ID, "AAPL"); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Add(ctx, user.ID, "NOPE"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown symbol, got %v", err)
	}
	if _, err := svc.Add(ctx, user.ID, " "); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	if _, err := svc.Add(ctx, user.ID, "MSFT"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	provider.fail["MSFT"] = true

	entries, err := svc.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		switch e.Item.Symbol {
		case "MSFT":
			if e.Quote != nil || e.QuoteError == "" {
				t.Errorf("expected MSFT quote error, got %+v", e)
			}
		case "AAPL":
			if e.Quote == nil || !e.Quote.CurrentPrice.Equal(decimal.RequireFromString("178.50")) {
				t.Errorf("expected AAPL quote, got %+v", e)
			}
		}
	}

	symbol, ok, err := svc.Contains(ctx, user.ID, "msft")
	if err != nil || !ok || symbol != "MSFT" {
		t.Errorf("Contains = %s, %v, %v", symbol, ok, err)
	}

	if _, err := svc.Remove(ctx, user.ID, "msft"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := svc.Remove(ctx, user.ID, "msft"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, ok, _ := svc.Contains(ctx, user.ID, "MSFT"); ok {
		t.Errorf("expected MSFT to be gone")
	}
}

// slowProvider prices every symbol and records how many lookups run at once.
type slowProvider struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (p *slowProvider) Quote(_ context.Context, symbol string) (models.Quote, error) {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
	return models.Quote{Symbol: symbol, CompanyName: symbol + " Corp", CurrentPrice: decimal.NewFromInt(10)}, nil
}

func (p *slowProvider) Trending(context.Context) ([]models.Quote, error) { return nil, nil }

func (p *slowProvider) Search(context.Context, string) ([]models.Quote, error) { return nil, nil }

func TestWatchlistListBoundsQuoteLookups(t *testing.T) {
	db := setupTestDB(t)
	provider := &slowProvider{}
	svc := service.NewWatchlistService(repository.NewWatchlistRepository(db), provider, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "many@example.com", 0)

	const watched = 30
	for i := 0; i < watched; i++ {
		if _, err := svc.Add(ctx, user.ID, fmt.Sprintf("SYM%d", i)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	provider.mu.Lock()
	provider.peak = 0
	provider.mu.Unlock()

	entries, err := svc.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != watched {
		t.Fatalf("expected %d entries, got %d", watched, len(entries))
	}
	for _, e := range entries {
		if e.Quote == nil {
			t.Errorf("expected %s to be priced, got %q", e.Item.Symbol, e.QuoteError)
		}
	}

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if provider.peak > 8 {
		t.Errorf("expected at most 8 concurrent lookups, got %d", provider.peak)
	}
}
