// Package handlers exposes the trading API over HTTP.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"stockit/market"
	"stockit/middleware"
	"stockit/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const apiVersion = "1.0.0"

func init() {
	// Money is rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Handler struct {
	auth         service.AuthService
	tokens       service.TokenService
	ledger       service.LedgerService
	watchlist    service.WatchlistService
	market       market.Provider
	marketSource string
	log          *slog.Logger
	now          func() time.Time
}

func NewHandler(
	auth service.AuthService,
	tokens service.TokenService,
	ledger service.LedgerService,
	watchlist service.WatchlistService,
	provider market.Provider,
	marketSource string,
	log *slog.Logger,
) *Handler {
	return &Handler{
		auth:         auth,
		tokens:       tokens,
		ledger:       ledger,
		watchlist:    watchlist,
		market:       provider,
		marketSource: marketSource,
		log:          log,
		now:          time.Now,
	}
}

// NewRouter builds the gin engine with the global middleware and all routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(h.log))
	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.root)
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup-simple", h.signUp)
			auth.POST("/signin-simple", h.signIn)
			auth.POST("/refresh", h.refresh)
			auth.POST("/logout", h.logout)
		}

		api.GET("/stock/:symbol", h.getStock)
		api.GET("/stock/:symbol/quote", h.getStock)
		api.GET("/stock/:symbol/details", h.getStock)
		api.GET("/trending", h.getTrending)
		api.GET("/search", h.searchStocks)

		user := api.Group("/user", middleware.JWTAuth(h.tokens, h.log))
		{
			user.GET("/wallet", h.getWallet)
			user.GET("/portfolio", h.getPortfolio)
			user.POST("/stocks/buy", h.buyStock)
			user.POST("/stocks/sell", h.sellStock)
			user.GET("/transactions", h.getTransactions)
			user.GET("/transactions/export", h.exportTransactions)

			user.GET("/watchlist", h.getWatchlist)
			user.POST("/watchlist", h.addToWatchlist)
			user.DELETE("/watchlist/:symbol", h.removeFromWatchlist)
			user.GET("/watchlist/check/:symbol", h.checkWatchlist)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Endpoint not found"})
	})
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "StockIt API Server",
		"version":   apiVersion,
		"timestamp": h.timestamp(),
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "healthy",
		"timestamp": h.timestamp(),
	})
}
