package market

import (
	"context"
	"math/rand/v2"
	"time"

	"stockit/errs"
	"stockit/models"

	"github.com/shopspring/decimal"
)

type stockInfo struct {
	symbol        string
	name          string
	price         string
	change        string
	changePercent string
}

// mockStocks is read-only; its order is the trending rank.
var mockStocks = []stockInfo{
	{"AAPL", "Apple Inc.", "178.50", "2.30", "1.31"},
	{"GOOGL", "Alphabet Inc.", "140.25", "-1.50", "-1.06"},
	{"MSFT", "Microsoft Corporation", "378.91", "3.20", "0.85"},
	{"TSLA", "Tesla, Inc.", "242.84", "5.60", "2.36"},
	{"AMZN", "Amazon.com Inc.", "151.94", "1.80", "1.20"},
	{"META", "Meta Platforms Inc.", "338.79", "-2.10", "-0.62"},
	{"NVDA", "NVIDIA Corporation", "495.22", "8.40", "1.72"},
	{"NFLX", "Netflix Inc.", "487.55", "4.30", "0.89"},
}

var mockIndex = func() map[string]stockInfo {
	idx := make(map[string]stockInfo, len(mockStocks))
	for _, s := range mockStocks {
		idx[s.symbol] = s
	}
	return idx
}()

// KnownCompanyName returns the company name of a symbol in the static table.
func KnownCompanyName(symbol string) (string, bool) {
	s, ok := mockIndex[symbol]
	return s.name, ok
}

var (
	highFactor = decimal.RequireFromString("1.02")
	lowFactor  = decimal.RequireFromString("0.98")
)

// Mock serves the static table and generates random quotes for any other
// well-formed symbol.
type Mock struct {
	now func() time.Time
}

func NewMock() *Mock {
	return &Mock{now: time.Now}
}

func (m *Mock) Quote(_ context.Context, symbol string) (models.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if !ValidSymbol(symbol) {
		return models.Quote{}, errs.NotFound("Stock not found")
	}

	if s, ok := mockIndex[symbol]; ok {
		return m.fromTable(s), nil
	}
	return m.random(symbol), nil
}

func (m *Mock) Trending(_ context.Context) ([]models.Quote, error) {
	quotes := make([]models.Quote, 0, len(mockStocks))
	for _, s := range mockStocks {
		quotes = append(quotes, m.fromTable(s))
	}
	return quotes, nil
}

func (m *Mock) Search(_ context.Context, query string) ([]models.Quote, error) {
	quotes := []models.Quote{}
	for _, s := range mockStocks {
		if matches(query, s.symbol, s.name) {
			quotes = append(quotes, m.fromTable(s))
		}
	}
	return quotes, nil
}

func (m *Mock) fromTable(s stockInfo) models.Quote {
	price := decimal.RequireFromString(s.price)
	return models.Quote{
		Symbol:        s.symbol,
		CompanyName:   s.name,
		CurrentPrice:  price,
		Change:        decimal.RequireFromString(s.change),
		ChangePercent: decimal.RequireFromString(s.changePercent),
		High:          price.Mul(highFactor).Round(2),
		Low:           price.Mul(lowFactor).Round(2),
		Volume:        randomVolume(),
		Timestamp:     m.now().UTC(),
	}
}

func (m *Mock) random(symbol string) models.Quote {
	price := decimal.NewFromFloat(rand.Float64()*500 + 50).Round(2)
	return models.Quote{
		Symbol:        symbol,
		CompanyName:   symbol + " Company",
		CurrentPrice:  price,
		Change:        decimal.NewFromFloat(rand.Float64()*10 - 5).Round(2),
		ChangePercent: decimal.NewFromFloat(rand.Float64()*4 - 2).Round(2),
		High:          price.Mul(highFactor).Round(2),
		Low:           price.Mul(lowFactor).Round(2),
		Volume:        randomVolume(),
		Timestamp:     m.now().UTC(),
	}
}

func randomVolume() int64 {
	return rand.Int64N(10_000_000) + 1_000_000
}
