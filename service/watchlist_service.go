package service

import (
	"context"
	"log/slog"
	"time"

	"stockit/errs"
	"stockit/market"
	"stockit/models"
	"stockit/repository"
	"stockit/utils"

	"golang.org/x/sync/errgroup"
)

// WatchlistEntry is a watched symbol with its latest quote. Quote is nil and
// QuoteError set when the provider could not price the symbol.
type WatchlistEntry struct {
	Item       models.WatchlistItem
	Quote      *models.Quote
	QuoteError string
}

type WatchlistService interface {
	List(ctx context.Context, userID uint) ([]WatchlistEntry, error)
	Add(ctx context.Context, userID uint, symbol string) (*models.WatchlistItem, error)
	Remove(ctx context.Context, userID uint, symbol string) (string, error)
	Contains(ctx context.Context, userID uint, symbol string) (string, bool, error)
}

type watchlistService struct {
	repo     repository.WatchlistRepository
	provider market.Provider
	log      *slog.Logger
	now      func() time.Time
}

func NewWatchlistService(repo repository.WatchlistRepository, provider market.Provider, log *slog.Logger) WatchlistService {
	return &watchlistService{repo: repo, provider: provider, log: log, now: time.Now}
}

func (s *watchlistService) List(ctx context.Context, userID uint) ([]WatchlistEntry, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	quotes := market.NewMemo(s.provider)
	entries := make([]WatchlistEntry, len(items))

	// Quote failures stay on their entry, so no goroutine returns an error.
	var g errgroup.Group
	g.SetLimit(quoteConcurrency)
	for i, item := range items {
		g.Go(func() error {
			entries[i].Item = item
			quote, err := quotes.Quote(ctx, item.Symbol)
			if err != nil {
				s.log.Warn("watchlist quote failed", "rqID", utils.GetRequestIDFromCtx(ctx), "symbol", item.Symbol, "error", err)
				entries[i].QuoteError = errs.PublicMessage(err)
				return nil
			}
			entries[i].Quote = &quote
			return nil
		})
	}
	_ = g.Wait()

	return entries, nil
}

func (s *watchlistService) Add(ctx context.Context, userID uint, symbol string) (*models.WatchlistItem, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errs.Validation("Symbol is required")
	}

	quote, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	item := &models.WatchlistItem{
		UserID:      userID,
		Symbol:      symbol,
		CompanyName: quote.CompanyName,
		AddedAt:     s.now().UTC(),
	}
	if err := s.repo.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *watchlistService) Remove(ctx context.Context, userID uint, symbol string) (string, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return "", errs.Validation("Symbol is required")
	}
	return symbol, s.repo.Remove(ctx, userID, symbol)
}

func (s *watchlistService) Contains(ctx context.Context, userID uint, symbol string) (string, bool, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return "", false, errs.Validation("Symbol is required")
	}
	ok, err := s.repo.Exists(ctx, userID, symbol)
	return symbol, ok, err
}
