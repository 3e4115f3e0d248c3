package handlers

import (
	"net/http"
	"time"

	"stockit/errs"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type watchlistRequest struct {
	Symbol string `json:"symbol"`
}

type watchlistStock struct {
	Symbol        string           `json:"symbol"`
	CompanyName   string           `json:"companyName"`
	Price         *decimal.Decimal `json:"price"`
	Change        *decimal.Decimal `json:"change"`
	ChangePercent *decimal.Decimal `json:"changePercent"`
	High          *decimal.Decimal `json:"high"`
	Low           *decimal.Decimal `json:"low"`
	Volume        *int64           `json:"volume"`
	AddedAt       time.Time        `json:"addedAt"`
	InWatchlist   bool             `json:"inWatchlist"`
	QuoteError    string           `json:"quoteError,omitempty"`
}

func (h *Handler) getWatchlist(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	entries, err := h.watchlist.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, "handlers.getWatchlist", err)
		return
	}

	stocks := make([]watchlistStock, 0, len(entries))
	for _, e := range entries {
		s := watchlistStock{
			Symbol:      e.Item.Symbol,
			CompanyName: e.Item.CompanyName,
			AddedAt:     e.Item.AddedAt,
			InWatchlist: true,
			QuoteError:  e.QuoteError,
		}
		if q := e.Quote; q != nil {
			s.Price = &q.CurrentPrice
			s.Change = &q.Change
			s.ChangePercent = &q.ChangePercent
			s.High = &q.High
			s.Low = &q.Low
			s.Volume = &q.Volume
		}
		stocks = append(stocks, s)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"totalStocks": len(stocks),
		"stocks":      stocks,
		"timestamp":   h.timestamp(),
	})
}

func (h *Handler) addToWatchlist(c *gin.Context) {
	const op = "handlers.addToWatchlist"

	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, op, errs.Wrap(errs.ErrValidation, "Symbol is required", err))
		return
	}

	item, err := h.watchlist.Add(c.Request.Context(), userID, req.Symbol)
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"added":       true,
		"symbol":      item.Symbol,
		"companyName": item.CompanyName,
		"message":     "Added to watchlist",
		"timestamp":   h.timestamp(),
	})
}

func (h *Handler) removeFromWatchlist(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	symbol, err := h.watchlist.Remove(c.Request.Context(), userID, c.Param("symbol"))
	if err != nil {
		h.respondError(c, "handlers.removeFromWatchlist", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"removed":   true,
		"symbol":    symbol,
		"message":   "Removed from watchlist",
		"timestamp": h.timestamp(),
	})
}

func (h *Handler) checkWatchlist(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	symbol, in, err := h.watchlist.Contains(c.Request.Context(), userID, c.Param("symbol"))
	if err != nil {
		h.respondError(c, "handlers.checkWatchlist", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"inWatchlist": in,
		"symbol":      symbol,
		"timestamp":   h.timestamp(),
	})
}
