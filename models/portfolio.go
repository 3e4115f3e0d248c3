package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a user's open position in one symbol. A row never exists with a
// quantity of zero: closing the position deletes it.
type Holding struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	UserID       uint            `gorm:"not null;uniqueIndex:idx_portfolios_user_symbol" json:"-"`
	Symbol       string          `gorm:"not null;uniqueIndex:idx_portfolios_user_symbol" json:"symbol"`
	CompanyName  string          `json:"companyName"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	AvgPrice     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"avgPrice"`
	FirstBuyDate time.Time       `json:"firstBuyDate"`
	LastUpdated  time.Time       `json:"lastUpdated"`
}

func (Holding) TableName() string { return "portfolios" }

// CostBasis is quantity * average price.
func (h Holding) CostBasis() decimal.Decimal {
	return h.AvgPrice.Mul(decimal.NewFromInt(h.Quantity))
}

type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction is an append-only ledger row.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index;not null" json:"userId"`
	Symbol          string          `gorm:"not null" json:"symbol"`
	CompanyName     string          `json:"companyName"`
	Type            TransactionType `gorm:"column:transaction_type;not null" json:"transactionType"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	Price           decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"totalAmount"`
	TransactionDate time.Time       `gorm:"index" json:"transactionDate"`
}
