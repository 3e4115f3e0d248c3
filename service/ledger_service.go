package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockit/errs"
	"stockit/events"
	"stockit/market"
	"stockit/models"
	"stockit/report"
	"stockit/repository"
	"stockit/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultTransactionsLimit = 50
	quoteConcurrency         = 8
)

var hundred = decimal.NewFromInt(100)

type TradeInput struct {
	Symbol   string
	Quantity int64
	// PricePerShare overrides the quoted price when set.
	PricePerShare *decimal.Decimal
}

type WalletSummary struct {
	UserID        uint
	Balance       decimal.Decimal
	TotalInvested decimal.Decimal
	TotalNetWorth decimal.Decimal
	UpdatedAt     time.Time
}

type HoldingView struct {
	Symbol         string          `json:"symbol"`
	CompanyName    string          `json:"companyName"`
	Quantity       int64           `json:"quantity"`
	AvgPrice       decimal.Decimal `json:"avgPrice"`
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	InvestedAmount decimal.Decimal `json:"investedAmount"`
	CurrentValue   decimal.Decimal `json:"currentValue"`
	PnL            decimal.Decimal `json:"pnl"`
	PnLPercent     decimal.Decimal `json:"pnlPercent"`
	FirstBuyDate   time.Time       `json:"firstBuyDate"`
	LastUpdated    time.Time       `json:"lastUpdated"`
}

type Portfolio struct {
	Holdings          []HoldingView
	TotalInvested     decimal.Decimal
	TotalCurrentValue decimal.Decimal
	TotalPnL          decimal.Decimal
	TotalPnLPercent   decimal.Decimal
}

type TransactionPage struct {
	Transactions []models.Transaction
	Total        int64
	Limit        int
	Offset       int
}

type LedgerService interface {
	Buy(ctx context.Context, userID uint, in TradeInput) (*models.Transaction, error)
	Sell(ctx context.Context, userID uint, in TradeInput) (*models.Transaction, error)
	GetWallet(ctx context.Context, userID uint) (*WalletSummary, error)
	GetPortfolio(ctx context.Context, userID uint) (*Portfolio, error)
	// GetTransactions pages the ledger newest first. A zero limit means
	// DefaultTransactionsLimit.
	GetTransactions(ctx context.Context, userID uint, limit, offset int) (*TransactionPage, error)
	ExportTransactions(ctx context.Context, userID uint) ([]byte, error)
}

type ledgerService struct {
	db           *gorm.DB
	wallets      repository.WalletsRepository
	holdings     repository.HoldingsRepository
	transactions repository.TransactionsRepository
	provider     market.Provider
	publisher    events.Publisher
	locks        *userLocker
	log          *slog.Logger
	now          func() time.Time
}

func NewLedgerService(
	db *gorm.DB,
	provider market.Provider,
	publisher events.Publisher,
	log *slog.Logger,
) LedgerService {
	return &ledgerService{
		db:           db,
		wallets:      repository.NewWalletsRepository(db),
		holdings:     repository.NewHoldingsRepository(db),
		transactions: repository.NewTransactionsRepository(db),
		provider:     provider,
		publisher:    publisher,
		locks:        newUserLocker(),
		log:          log,
		now:          time.Now,
	}
}

// priceTrade validates a trade request and resolves its execution price.
func (s *ledgerService) priceTrade(ctx context.Context, in TradeInput) (string, models.Quote, decimal.Decimal, error) {
	symbol := market.NormalizeSymbol(in.Symbol)
	if symbol == "" || in.Quantity <= 0 {
		return "", models.Quote{}, decimal.Zero, errs.Validation("Invalid request")
	}
	if in.PricePerShare != nil && !in.PricePerShare.IsPositive() {
		return "", models.Quote{}, decimal.Zero, errs.Validation("Invalid request")
	}

	quote, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		return "", models.Quote{}, decimal.Zero, err
	}

	price := quote.CurrentPrice
	if in.PricePerShare != nil {
		price = *in.PricePerShare
	}
	return symbol, quote, price, nil
}

func (s *ledgerService) Buy(ctx context.Context, userID uint, in TradeInput) (*models.Transaction, error) {
	const op = "service.Buy"

	symbol, quote, price, err := s.priceTrade(ctx, in)
	if err != nil {
		return nil, err
	}
	total := price.Mul(decimal.NewFromInt(in.Quantity))

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now().UTC()
	record := &models.Transaction{
		UserID:          userID,
		Symbol:          symbol,
		CompanyName:     quote.CompanyName,
		Type:            models.TransactionBuy,
		Quantity:        in.Quantity,
		Price:           price,
		TotalAmount:     total,
		TransactionDate: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallets := repository.NewWalletsRepository(tx)
		holdings := repository.NewHoldingsRepository(tx)

		wallet, err := wallets.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(total) {
			return errs.New(errs.ErrInsufficientFunds, "Insufficient balance")
		}

		holding, err := holdings.Get(ctx, userID, symbol)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			holding = &models.Holding{
				UserID:       userID,
				Symbol:       symbol,
				CompanyName:  quote.CompanyName,
				Quantity:     in.Quantity,
				AvgPrice:     price,
				FirstBuyDate: now,
				LastUpdated:  now,
			}
			if err := holdings.Create(ctx, holding); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			newQuantity := holding.Quantity + in.Quantity
			holding.AvgPrice = holding.CostBasis().Add(total).
				Div(decimal.NewFromInt(newQuantity)).Round(8)
			holding.Quantity = newQuantity
			holding.LastUpdated = now
			if err := holdings.Update(ctx, holding); err != nil {
				return err
			}
		}

		wallet.Balance = wallet.Balance.Sub(total)
		return s.settle(ctx, tx, wallet, record, now)
	})
	if err != nil {
		s.logTradeError(ctx, op, userID, symbol, err)
		return nil, err
	}

	s.publish(ctx, record)
	return record, nil
}

func (s *ledgerService) Sell(ctx context.Context, userID uint, in TradeInput) (*models.Transaction, error) {
	const op = "service.Sell"

	symbol, _, price, err := s.priceTrade(ctx, in)
	if err != nil {
		return nil, err
	}
	total := price.Mul(decimal.NewFromInt(in.Quantity))

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now().UTC()
	record := &models.Transaction{
		UserID:          userID,
		Symbol:          symbol,
		Type:            models.TransactionSell,
		Quantity:        in.Quantity,
		Price:           price,
		TotalAmount:     total,
		TransactionDate: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallets := repository.NewWalletsRepository(tx)
		holdings := repository.NewHoldingsRepository(tx)

		wallet, err := wallets.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		holding, err := holdings.Get(ctx, userID, symbol)
		if err != nil {
			return err
		}
		if holding.Quantity < in.Quantity {
			return errs.New(errs.ErrInsufficientHoldings, "Insufficient stock quantity")
		}
		record.CompanyName = holding.CompanyName

		if holding.Quantity == in.Quantity {
			if err := holdings.Delete(ctx, userID, symbol); err != nil {
				return err
			}
		} else {
			holding.Quantity -= in.Quantity
			holding.LastUpdated = now
			if err := holdings.Update(ctx, holding); err != nil {
				return err
			}
		}

		wallet.Balance = wallet.Balance.Add(total)
		return s.settle(ctx, tx, wallet, record, now)
	})
	if err != nil {
		s.logTradeError(ctx, op, userID, symbol, err)
		return nil, err
	}

	s.publish(ctx, record)
	return record, nil
}

// settle recomputes the informational invested total, saves the wallet and
// appends the ledger row inside the trade transaction.
func (s *ledgerService) settle(ctx context.Context, tx *gorm.DB, wallet *models.Wallet, record *models.Transaction, now time.Time) error {
	held, err := repository.NewHoldingsRepository(tx).ListByUser(ctx, wallet.UserID)
	if err != nil {
		return err
	}
	wallet.TotalInvested = costBasis(held)
	wallet.UpdatedAt = now

	if err := repository.NewWalletsRepository(tx).Update(ctx, wallet); err != nil {
		return err
	}
	return repository.NewTransactionsRepository(tx).Create(ctx, record)
}

func (s *ledgerService) logTradeError(ctx context.Context, op string, userID uint, symbol string, err error) {
	attrs := []any{"rqID", utils.GetRequestIDFromCtx(ctx), "op", op, "userID", userID, "symbol", symbol, "error", err}
	if errors.Is(err, errs.ErrStorage) {
		s.log.Error("trade failed", attrs...)
		return
	}
	s.log.Warn("trade rejected", attrs...)
}

func (s *ledgerService) publish(ctx context.Context, record *models.Transaction) {
	if err := s.publisher.PublishTrade(context.WithoutCancel(ctx), events.NewTradeExecuted(record)); err != nil {
		s.log.Error("failed to publish trade event",
			"rqID", utils.GetRequestIDFromCtx(ctx), "transactionID", record.ID, "error", err)
	}
}

func costBasis(holdings []models.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.CostBasis())
	}
	return total
}

func (s *ledgerService) GetWallet(ctx context.Context, userID uint) (*WalletSummary, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	held, err := s.holdings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	invested := costBasis(held)
	return &WalletSummary{
		UserID:        userID,
		Balance:       wallet.Balance,
		TotalInvested: invested,
		TotalNetWorth: invested.Add(wallet.Balance),
		UpdatedAt:     wallet.UpdatedAt,
	}, nil
}

func (s *ledgerService) GetPortfolio(ctx context.Context, userID uint) (*Portfolio, error) {
	const op = "service.GetPortfolio"

	held, err := s.holdings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	quotes := market.NewMemo(s.provider)
	views := make([]HoldingView, len(held))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(quoteConcurrency)
	for i, h := range held {
		g.Go(func() error {
			quote, err := quotes.Quote(gctx, h.Symbol)
			if err != nil {
				return errs.Wrap(errs.ErrProvider, "Failed to fetch stock data",
					fmt.Errorf("quote %s: %s", h.Symbol, err.Error()))
			}
			views[i] = holdingView(h, quote.CurrentPrice)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("portfolio valuation failed", "rqID", utils.GetRequestIDFromCtx(ctx), "op", op, "userID", userID, "error", err)
		return nil, err
	}

	p := &Portfolio{
		Holdings:          views,
		TotalInvested:     decimal.Zero,
		TotalCurrentValue: decimal.Zero,
	}
	for _, v := range views {
		p.TotalInvested = p.TotalInvested.Add(v.InvestedAmount)
		p.TotalCurrentValue = p.TotalCurrentValue.Add(v.CurrentValue)
	}
	p.TotalPnL = p.TotalCurrentValue.Sub(p.TotalInvested)
	p.TotalPnLPercent = percentOf(p.TotalPnL, p.TotalInvested)
	return p, nil
}

func holdingView(h models.Holding, currentPrice decimal.Decimal) HoldingView {
	invested := h.CostBasis()
	current := currentPrice.Mul(decimal.NewFromInt(h.Quantity))
	pnl := current.Sub(invested)
	return HoldingView{
		Symbol:         h.Symbol,
		CompanyName:    h.CompanyName,
		Quantity:       h.Quantity,
		AvgPrice:       h.AvgPrice,
		CurrentPrice:   currentPrice,
		InvestedAmount: invested,
		CurrentValue:   current,
		PnL:            pnl,
		PnLPercent:     percentOf(pnl, invested),
		FirstBuyDate:   h.FirstBuyDate,
		LastUpdated:    h.LastUpdated,
	}
}

// percentOf is part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func (s *ledgerService) GetTransactions(ctx context.Context, userID uint, limit, offset int) (*TransactionPage, error) {
	if limit < 0 || offset < 0 {
		return nil, errs.Validation("limit and offset must be non-negative integers")
	}
	if limit == 0 {
		limit = DefaultTransactionsLimit
	}

	list, err := s.transactions.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.transactions.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &TransactionPage{Transactions: list, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *ledgerService) ExportTransactions(ctx context.Context, userID uint) ([]byte, error) {
	list, err := s.transactions.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return report.TransactionsXLSX(ctx, list)
}
