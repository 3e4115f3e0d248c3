package handlers

import (
	"context"
	"net/http"
	"strconv"

	"stockit/errs"
	"stockit/models"
	"stockit/report"
	"stockit/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type tradeRequest struct {
	Symbol        string           `json:"symbol"`
	Quantity      int64            `json:"quantity"`
	PricePerShare *decimal.Decimal `json:"pricePerShare"`
}

type tradeFunc func(ctx context.Context, userID uint, in service.TradeInput) (*models.Transaction, error)

func (h *Handler) getWallet(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	wallet, err := h.ledger.GetWallet(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, "handlers.getWallet", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"userId":        userID,
		"balance":       wallet.Balance,
		"totalInvested": wallet.TotalInvested,
		"totalNetWorth": wallet.TotalNetWorth,
		"updatedAt":     wallet.UpdatedAt,
	})
}

func (h *Handler) getPortfolio(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	p, err := h.ledger.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, "handlers.getPortfolio", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"totalHoldings":     len(p.Holdings),
		"totalInvested":     p.TotalInvested,
		"totalCurrentValue": p.TotalCurrentValue,
		"totalPnL":          p.TotalPnL,
		"totalPnLPercent":   p.TotalPnLPercent,
		"holdings":          p.Holdings,
		"timestamp":         h.timestamp(),
	})
}

func (h *Handler) buyStock(c *gin.Context) {
	h.trade(c, "handlers.buyStock", h.ledger.Buy, "Stock purchased successfully")
}

func (h *Handler) sellStock(c *gin.Context) {
	h.trade(c, "handlers.sellStock", h.ledger.Sell, "Stock sold successfully")
}

func (h *Handler) trade(c *gin.Context, op string, execute tradeFunc, message string) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, op, errs.Wrap(errs.ErrValidation, "Invalid request", err))
		return
	}

	tx, err := execute(c.Request.Context(), userID, service.TradeInput{
		Symbol:        req.Symbol,
		Quantity:      req.Quantity,
		PricePerShare: req.PricePerShare,
	})
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"transactionId": tx.ID,
			"symbol":        tx.Symbol,
			"quantity":      tx.Quantity,
			"price":         tx.Price,
			"totalAmount":   tx.TotalAmount,
			"type":          tx.Type,
			"timestamp":     tx.TransactionDate,
		},
	})
}

func (h *Handler) getTransactions(c *gin.Context) {
	const op = "handlers.getTransactions"

	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	page, err := h.ledger.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	transactions := page.Transactions
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"totalTransactions": page.Total,
		"limit":             page.Limit,
		"offset":            page.Offset,
		"transactions":      transactions,
		"timestamp":         h.timestamp(),
	})
}

// queryInt reads an optional integer query parameter; absent means zero.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Wrap(errs.ErrValidation, name+" must be an integer", err)
	}
	return v, nil
}

func (h *Handler) exportTransactions(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	data, err := h.ledger.ExportTransactions(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, "handlers.exportTransactions", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="transactions`+report.FileExtension+`"`)
	c.Data(http.StatusOK, report.ContentType, data)
}
