// Package market supplies stock quotes to the ledger and the watchlist.
package market

import (
	"context"
	"regexp"
	"strings"

	"stockit/models"
)

// Provider is the market data source. Every call is authoritative at call
// time.
type Provider interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	// Trending returns quotes ranked best first.
	Trending(ctx context.Context) ([]models.Quote, error)
	// Search matches symbol or company name, case-insensitively.
	Search(ctx context.Context, query string) ([]models.Quote, error)
}

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

func matches(query, symbol, name string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(symbol), q) || strings.Contains(strings.ToLower(name), q)
}
