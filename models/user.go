package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"not null" json:"fullName"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`

	Wallet       *Wallet         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Holdings     []Holding       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Transactions []Transaction   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Watchlist    []WatchlistItem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}

// Wallet is the 1:1 cash account of a user. Only the ledger mutates it.
type Wallet struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	UserID        uint            `gorm:"uniqueIndex;not null" json:"userId"`
	Balance       decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"balance"`
	TotalInvested decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"totalInvested"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
