package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type trendingStock struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Volume        int64           `json:"volume"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Rank          int             `json:"rank"`
	Positive      bool            `json:"positive"`
}

type searchResult struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

func (h *Handler) getStock(c *gin.Context) {
	quote, err := h.market.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.respondError(c, "handlers.getStock", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      quote,
		"timestamp": h.timestamp(),
	})
}

func (h *Handler) getTrending(c *gin.Context) {
	quotes, err := h.market.Trending(c.Request.Context())
	if err != nil {
		h.respondError(c, "handlers.getTrending", err)
		return
	}

	stocks := make([]trendingStock, 0, len(quotes))
	for i, q := range quotes {
		stocks = append(stocks, trendingStock{
			Symbol:        q.Symbol,
			Name:          q.CompanyName,
			Price:         q.CurrentPrice,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
			Volume:        q.Volume,
			High:          q.High,
			Low:           q.Low,
			Rank:          i + 1,
			Positive:      q.Change.IsPositive(),
		})
	}

	ts := h.timestamp()
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(stocks),
		"source":      h.marketSource,
		"lastUpdated": ts,
		"cached":      false,
		"stocks":      stocks,
		"timestamp":   ts,
	})
}

func (h *Handler) searchStocks(c *gin.Context) {
	quotes, err := h.market.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, "handlers.searchStocks", err)
		return
	}

	results := make([]searchResult, 0, len(quotes))
	for _, q := range quotes {
		results = append(results, searchResult{
			Symbol:        q.Symbol,
			Name:          q.CompanyName,
			Price:         q.CurrentPrice,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      results,
		"timestamp": h.timestamp(),
	})
}
