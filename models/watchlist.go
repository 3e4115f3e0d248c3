package models

import "time"

type WatchlistItem struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_watchlists_user_symbol" json:"-"`
	Symbol      string    `gorm:"not null;uniqueIndex:idx_watchlists_user_symbol" json:"symbol"`
	CompanyName string    `json:"companyName"`
	AddedAt     time.Time `json:"addedAt"`
}

func (WatchlistItem) TableName() string { return "watchlists" }
