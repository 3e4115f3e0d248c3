package repository

import (
	"context"
	"errors"

	"stockit/errs"
	"stockit/models"

	"gorm.io/gorm"
)

type HoldingsRepository interface {
	Get(ctx context.Context, userID uint, symbol string) (*models.Holding, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Holding, error)
	Create(ctx context.Context, holding *models.Holding) error
	Update(ctx context.Context, holding *models.Holding) error
	Delete(ctx context.Context, userID uint, symbol string) error
}

type holdingsRepository struct {
	db *gorm.DB
}

func NewHoldingsRepository(db *gorm.DB) HoldingsRepository {
	return &holdingsRepository{db: db}
}

func (r *holdingsRepository) Get(ctx context.Context, userID uint, symbol string) (*models.Holding, error) {
	var holding models.Holding
	if err := r.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("Stock not found in portfolio")
		}
		return nil, storageErr("holdings.Get", err)
	}
	return &holding, nil
}

// ListByUser returns holdings in insertion order.
func (r *holdingsRepository) ListByUser(ctx context.Context, userID uint) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&holdings).Error; err != nil {
		return nil, storageErr("holdings.ListByUser", err)
	}
	return holdings, nil
}

func (r *holdingsRepository) Create(ctx context.Context, holding *models.Holding) error {
	if err := r.db.WithContext(ctx).Create(holding).Error; err != nil {
		if isDuplicate(err) {
			return errs.Conflict("Holding already exists")
		}
		return storageErr("holdings.Create", err)
	}
	return nil
}

func (r *holdingsRepository) Update(ctx context.Context, holding *models.Holding) error {
	if err := r.db.WithContext(ctx).Save(holding).Error; err != nil {
		return storageErr("holdings.Update", err)
	}
	return nil
}

func (r *holdingsRepository) Delete(ctx context.Context, userID uint, symbol string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&models.Holding{})
	if result.Error != nil {
		return storageErr("holdings.Delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("Stock not found in portfolio")
	}
	return nil
}
