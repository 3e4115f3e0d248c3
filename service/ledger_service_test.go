package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"stockit/errs"
	"stockit/models"
	"stockit/repository"
	"stockit/service"

	"github.com/xuri/excelize/v2"
)

func TestLedgerBuySellScenario(t *testing.T) {
	db := setupTestDB(t)
	provider := newFakeProvider(map[string]string{"AAPL": "178.50"})
	publisher := &recordingPublisher{}
	ledger := service.NewLedgerService(db, provider, publisher, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "scenario@example.com", 100000)

	tx, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "aapl", Quantity: 10})
	if err != nil {
		t.Fatalf("first Buy failed: %v", err)
	}
	if tx.Symbol != "AAPL" || !tx.TotalAmount.Equal(dec("1785")) {
		t.Errorf("unexpected transaction %+v", tx)
	}
	assertBalance(t, ledger, user.ID, "98215")

	if _, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "AAPL", Quantity: 5, PricePerShare: decPtr("180")}); err != nil {
		t.Fatalf("second Buy failed: %v", err)
	}
	assertBalance(t, ledger, user.ID, "97315")

	holding, err := repository.NewHoldingsRepository(db).Get(ctx, user.ID, "AAPL")
	if err != nil {
		t.Fatalf("Get holding failed: %v", err)
	}
	if holding.Quantity != 15 || !holding.AvgPrice.Equal(dec("179")) {
		t.Errorf("expected 15 @ 179, got %d @ %s", holding.Quantity, holding.AvgPrice)
	}

	if _, err := ledger.Sell(ctx, user.ID, service.TradeInput{Symbol: "AAPL", Quantity: 15, PricePerShare: decPtr("185")}); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	assertBalance(t, ledger, user.ID, "100090")

	if _, err := repository.NewHoldingsRepository(db).Get(ctx, user.ID, "AAPL"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected holding to be removed, got %v", err)
	}

	page, err := ledger.GetTransactions(ctx, user.ID, 0, 0)
	if err != nil {
		t.Fatalf("GetTransactions failed: %v", err)
	}
	if page.Total != 3 || len(page.Transactions) != 3 || page.Limit != service.DefaultTransactionsLimit {
		t.Fatalf("expected 3 transactions with default limit, got %+v", page)
	}
	if page.Transactions[0].Type != models.TransactionSell {
		t.Errorf("expected newest transaction first, got %s", page.Transactions[0].Type)
	}

	if len(publisher.events) != 3 {
		t.Errorf("expected 3 published events, got %d", len(publisher.events))
	}
}

func assertBalance(t *testing.T, ledger service.LedgerService, userID uint, want string) {
	t.Helper()

	wallet, err := ledger.GetWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !wallet.Balance.Equal(dec(want)) {
		t.Errorf("expected balance %s, got %s", want, wallet.Balance)
	}
}

func TestLedgerRejectionsLeaveStateUntouched(t *testing.T) {
	db := setupTestDB(t)
	provider := newFakeProvider(map[string]string{"AAPL": "178.50", "MSFT": "378.91"})
	ledger := service.NewLedgerService(db, provider, &recordingPublisher{}, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "reject@example.com", 1000)

	if _, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "AAPL", Quantity: 5}); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"insufficient_balance", func() error {
			_, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "MSFT", Quantity: 10})
			return err
		}, errs.ErrInsufficientFunds},
		{"oversell", func() error {
			_, err := ledger.Sell(ctx, user.ID, service.TradeInput{Symbol: "AAPL", Quantity: 6})
			return err
		}, errs.ErrInsufficientHoldings},
		{"sell_not_held", func() error {
			_, err := ledger.Sell(ctx, user.ID, service.TradeInput{Symbol: "MSFT", Quantity: 1})
			return err
		}, errs.ErrNotFound},
		{"zero_quantity", func() error {
			_, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "AAPL", Quantity: 0})
			return err
		}, errs.ErrValidation},
		{"negative_price", func() error {
			_, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "AAPL", Quantity: 1, PricePerShare: decPtr("-1")})
			return err
		}, errs.ErrValidation},
		{"unknown_symbol", func() error {
			_, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "NOPE", Quantity: 1})
			return err
		}, errs.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			assertBalance(t, ledger, user.ID, "107.5")
		})
	}

	holding, err := repository.NewHoldingsRepository(db).Get(ctx, user.ID, "AAPL")
	if err != nil || holding.Quantity != 5 {
		t.Errorf("expected 5 AAPL to remain, got %+v, %v", holding, err)
	}
	total, err := repository.NewTransactionsRepository(db).CountByUser(ctx, user.ID)
	if err != nil || total != 1 {
		t.Errorf("expected 1 transaction, got %d, %v", total, err)
	}
}

func TestLedgerPartialSellKeepsAveragePrice(t *testing.T) {
	db := setupTestDB(t)
	provider := newFakeProvider(map[string]string{"TSLA": "200"})
	ledger := service.NewLedgerService(db, provider, &recordingPublisher{}, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "partial@example.com", 10000)

	if _, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "TSLA", Quantity: 10}); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	provider.setPrice("TSLA", "250")
	if _, err := ledger.Sell(ctx, user.ID, service.TradeInput{Symbol: "TSLA", Quantity: 4}); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}

	holding, err := repository.NewHoldingsRepository(db).Get(ctx, user.ID, "TSLA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if holding.Quantity != 6 || !holding.AvgPrice.Equal(dec("200")) {
		t.Errorf("expected 6 @ 200, got %d @ %s", holding.Quantity, holding.AvgPrice)
	}

	wallet, err := ledger.GetWallet(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	// 10000 - 2000 + 1000
	if !wallet.Balance.Equal(dec("9000")) || !wallet.TotalInvested.Equal(dec("1200")) || !wallet.TotalNetWorth.Equal(dec("10200")) {
		t.Errorf("unexpected wallet %+v", wallet)
	}
}

func TestLedgerConcurrentBuysNeverOverdraw(t *testing.T) {
	db := setupTestDB(t)
	provider := newFakeProvider(map[string]string{"NVDA": "100"})
	ledger := service.NewLedgerService(db, provider, &recordingPublisher{}, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "race@example.com", 500)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "NVDA", Quantity: 1})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, errs.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 {
		t.Errorf("expected 5 successful buys, got %d", succeeded)
	}
	assertBalance(t, ledger, user.ID, "0")

	holding, err := repository.NewHoldingsRepository(db).Get(ctx, user.ID, "NVDA")
	if err != nil || holding.Quantity != 5 {
		t.Errorf("expected 5 NVDA, got %+v, %v", holding, err)
	}
}

func TestLedgerConcurrentBuysAcrossUsers(t *testing.T) {
	db := openFileDB(t)
	provider := newFakeProvider(map[string]string{"AAPL": "10"})
	ledger := service.NewLedgerService(db, provider, &recordingPublisher{}, discardLogger())
	ctx := context.Background()

	const (
		traders = 16
		rounds  = 5
	)
	users := make([]uint, traders)
	for i := range users {
		users[i] = createTrader(t, db, fmt.Sprintf("trader%d@example.com", i), 1000).ID
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []error
	)
	for r := 0; r < rounds; r++ {
		for _, userID := range users {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := ledger.Buy(ctx, userID, service.TradeInput{Symbol: "AAPL", Quantity: 1}); err != nil {
					mu.Lock()
					failed = append(failed, err)
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	if len(failed) > 0 {
		t.Fatalf("%d of %d buys failed, first: %v", len(failed), traders*rounds, failed[0])
	}
	for _, userID := range users {
		assertBalance(t, ledger, userID, "950")
		holding, err := repository.NewHoldingsRepository(db).Get(ctx, userID, "AAPL")
		if err != nil || holding.Quantity != rounds {
			t.Errorf("user %d: expected %d AAPL, got %+v, %v", userID, rounds, holding, err)
		}
	}
}

func TestLedgerPortfolio(t *testing.T) {
	db := setupTestDB(t)
	provider := newFakeProvider(map[string]string{"AAPL": "100", "MSFT": "50"})
	ledger := service.NewLedgerService(db, provider, &recordingPublisher{}, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "portfolio@example.com", 10000)

	t.Run("empty", func(t *testing.T) {
		p, err := ledger.GetPortfolio(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetPortfolio failed: %v", err)
		}
		if len(p.Holdings) != 0 || !p.TotalPnLPercent.IsZero() {
			t.Errorf("expected empty portfolio with zero pnl percent, got %+v", p)
		}
	})

	for _, symbol := range []string{"AAPL", "MSFT"} {
		if _, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: symbol, Quantity: 10}); err != nil {
			t.Fatalf("Buy %s failed: %v", symbol, err)
		}
	}
	provider.setPrice("AAPL", "110")
	provider.setPrice("MSFT", "45")

	t.Run("valued", func(t *testing.T) {
		p, err := ledger.GetPortfolio(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetPortfolio failed: %v", err)
		}
		if len(p.Holdings) != 2 || p.Holdings[0].Symbol != "AAPL" {
			t.Fatalf("unexpected holdings %+v", p.Holdings)
		}
		aapl := p.Holdings[0]
		if !aapl.PnL.Equal(dec("100")) || !aapl.PnLPercent.Equal(dec("10")) {
			t.Errorf("unexpected AAPL pnl %s (%s%%)", aapl.PnL, aapl.PnLPercent)
		}
		if !p.TotalInvested.Equal(dec("1500")) || !p.TotalCurrentValue.Equal(dec("1550")) || !p.TotalPnL.Equal(dec("50")) {
			t.Errorf("unexpected totals %+v", p)
		}
	})

	t.Run("provider_failure", func(t *testing.T) {
		provider.fail["MSFT"] = true
		defer delete(provider.fail, "MSFT")

		if _, err := ledger.GetPortfolio(ctx, user.ID); !errors.Is(err, errs.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})
}

func TestLedgerTransactionsValidation(t *testing.T) {
	db := setupTestDB(t)
	ledger := service.NewLedgerService(db, newFakeProvider(map[string]string{}), &recordingPublisher{}, discardLogger())
	user := createTrader(t, db, "pages@example.com", 100)

	if _, err := ledger.GetTransactions(context.Background(), user.ID, -1, 0); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation for negative limit, got %v", err)
	}
	if _, err := ledger.GetTransactions(context.Background(), user.ID, 10, -5); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation for negative offset, got %v", err)
	}

	page, err := ledger.GetTransactions(context.Background(), user.ID, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactions failed: %v", err)
	}
	if page.Total != 0 || len(page.Transactions) != 0 || page.Limit != 10 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestLedgerExportTransactions(t *testing.T) {
	db := setupTestDB(t)
	provider := newFakeProvider(map[string]string{"AMZN": "151.94"})
	ledger := service.NewLedgerService(db, provider, &recordingPublisher{}, discardLogger())
	ctx := context.Background()
	user := createTrader(t, db, "export@example.com", 10000)

	if _, err := ledger.Buy(ctx, user.ID, service.TradeInput{Symbol: "AMZN", Quantity: 2}); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	data, err := ledger.ExportTransactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("ExportTransactions failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if rows[1][1] != "BUY" || rows[1][2] != "AMZN" || rows[1][4] != "2" {
		t.Errorf("unexpected row %v", rows[1])
	}
}
