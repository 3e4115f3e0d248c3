package market

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"stockit/config"
	"stockit/errs"
	"stockit/models"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

type moversResponse struct {
	MostActivelyTraded []struct {
		Ticker           string `json:"ticker"`
		Price            string `json:"price"`
		ChangeAmount     string `json:"change_amount"`
		ChangePercentage string `json:"change_percentage"`
		Volume           string `json:"volume"`
	} `json:"most_actively_traded"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// AlphaVantage is the live upstream provider.
type AlphaVantage struct {
	client *resty.Client
	apiKey string
	log    *slog.Logger
}

func NewAlphaVantage(cfg config.MarketConfig, log *slog.Logger) *AlphaVantage {
	client := resty.New().
		SetDebug(cfg.Debug).
		SetTimeout(cfg.Timeout).
		SetBaseURL(cfg.URL).
		SetHeader("Accept", "application/json")
	return &AlphaVantage{client: client, apiKey: cfg.APIKey, log: log}
}

func (a *AlphaVantage) query(ctx context.Context, params map[string]string, result any) error {
	params["apikey"] = a.apiKey

	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get("/query")
	if err != nil {
		a.log.Error("error while dialing alpha vantage", "function", params["function"], "error", err)
		return errs.Wrap(errs.ErrProvider, "Failed to fetch stock data", err)
	}
	if resp.IsError() {
		a.log.Error("alpha vantage returned an error status", "function", params["function"], "status", resp.StatusCode())
		return errs.Wrap(errs.ErrProvider, "Failed to fetch stock data", fmt.Errorf("upstream status %d", resp.StatusCode()))
	}
	return nil
}

// throttled reports the notes Alpha Vantage sends instead of data when the
// key is rate limited.
func throttled(note, information string) error {
	if msg := note + information; msg != "" {
		return errs.Wrap(errs.ErrProvider, "Failed to fetch stock data", fmt.Errorf("upstream: %s", msg))
	}
	return nil
}

func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if !ValidSymbol(symbol) {
		return models.Quote{}, errs.NotFound("Stock not found")
	}

	var result globalQuoteResponse
	if err := a.query(ctx, map[string]string{"function": "GLOBAL_QUOTE", "symbol": symbol}, &result); err != nil {
		return models.Quote{}, err
	}
	if err := throttled(result.Note, result.Information); err != nil {
		return models.Quote{}, err
	}

	gq := result.GlobalQuote
	if gq.Price == "" {
		return models.Quote{}, errs.NotFound("Stock not found")
	}

	price, err := decimal.NewFromString(gq.Price)
	if err != nil {
		return models.Quote{}, errs.Wrap(errs.ErrProvider, "Failed to parse stock data", err)
	}

	return models.Quote{
		Symbol:        symbol,
		CompanyName:   companyName(symbol),
		CurrentPrice:  price,
		Change:        parseDecimal(gq.Change),
		ChangePercent: parsePercent(gq.ChangePercent),
		High:          parseDecimal(gq.High),
		Low:           parseDecimal(gq.Low),
		Volume:        parseVolume(gq.Volume),
		Timestamp:     time.Now().UTC(),
	}, nil
}

func (a *AlphaVantage) Trending(ctx context.Context) ([]models.Quote, error) {
	var result moversResponse
	if err := a.query(ctx, map[string]string{"function": "TOP_GAINERS_LOSERS"}, &result); err != nil {
		return nil, err
	}
	if err := throttled(result.Note, result.Information); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	quotes := make([]models.Quote, 0, len(result.MostActivelyTraded))
	for _, m := range result.MostActivelyTraded {
		quotes = append(quotes, models.Quote{
			Symbol:        m.Ticker,
			CompanyName:   companyName(m.Ticker),
			CurrentPrice:  parseDecimal(m.Price),
			Change:        parseDecimal(m.ChangeAmount),
			ChangePercent: parsePercent(m.ChangePercentage),
			Volume:        parseVolume(m.Volume),
			Timestamp:     now,
		})
	}
	return quotes, nil
}

// Search returns matches without prices; quoting each match would burn the
// upstream rate limit.
func (a *AlphaVantage) Search(ctx context.Context, query string) ([]models.Quote, error) {
	quotes := []models.Quote{}
	if strings.TrimSpace(query) == "" {
		return quotes, nil
	}

	var result symbolSearchResponse
	if err := a.query(ctx, map[string]string{"function": "SYMBOL_SEARCH", "keywords": query}, &result); err != nil {
		return nil, err
	}
	if err := throttled(result.Note, result.Information); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, m := range result.BestMatches {
		if !matches(query, m.Symbol, m.Name) {
			continue
		}
		quotes = append(quotes, models.Quote{Symbol: m.Symbol, CompanyName: m.Name, Timestamp: now})
	}
	return quotes, nil
}

func companyName(symbol string) string {
	if name, ok := KnownCompanyName(symbol); ok {
		return name
	}
	return symbol
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parsePercent(s string) decimal.Decimal {
	return parseDecimal(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

func parseVolume(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
