package repository

import (
	"context"

	"stockit/errs"
	"stockit/models"

	"gorm.io/gorm"
)

type WatchlistRepository interface {
	Add(ctx context.Context, item *models.WatchlistItem) error
	Remove(ctx context.Context, userID uint, symbol string) error
	ListByUser(ctx context.Context, userID uint) ([]models.WatchlistItem, error)
	Exists(ctx context.Context, userID uint, symbol string) (bool, error)
}

type watchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) Add(ctx context.Context, item *models.WatchlistItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isDuplicate(err) {
			return errs.Conflict("Stock already in watchlist")
		}
		return storageErr("watchlist.Add", err)
	}
	return nil
}

func (r *watchlistRepository) Remove(ctx context.Context, userID uint, symbol string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&models.WatchlistItem{})
	if result.Error != nil {
		return storageErr("watchlist.Remove", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("Stock not in watchlist")
	}
	return nil
}

// ListByUser returns the most recently added items first.
func (r *watchlistRepository) ListByUser(ctx context.Context, userID uint) ([]models.WatchlistItem, error) {
	items := []models.WatchlistItem{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("added_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, storageErr("watchlist.ListByUser", err)
	}
	return items, nil
}

func (r *watchlistRepository) Exists(ctx context.Context, userID uint, symbol string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WatchlistItem{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Count(&count).Error
	if err != nil {
		return false, storageErr("watchlist.Exists", err)
	}
	return count > 0, nil
}
