package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time snapshot of a symbol. It is never persisted.
type Quote struct {
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"companyName"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        int64           `json:"volume"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Models lists every table for gorm auto-migration.
func Models() []any {
	return []any{&User{}, &Wallet{}, &Holding{}, &Transaction{}, &WatchlistItem{}}
}
