package repository

import (
	"context"
	"errors"

	"stockit/errs"
	"stockit/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletsRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	// GetByUserIDForUpdate locks the wallet row until the surrounding
	// transaction ends. Drivers without row locks ignore the clause.
	GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)
	Update(ctx context.Context, wallet *models.Wallet) error
}

type walletsRepository struct {
	db *gorm.DB
}

func NewWalletsRepository(db *gorm.DB) WalletsRepository {
	return &walletsRepository{db: db}
}

func (r *walletsRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		if isDuplicate(err) {
			return errs.Conflict("Wallet already exists")
		}
		return storageErr("wallets.Create", err)
	}
	return nil
}

func (r *walletsRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.get(r.db.WithContext(ctx), userID)
}

func (r *walletsRepository) GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *walletsRepository) get(db *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("Wallet not found")
		}
		return nil, storageErr("wallets.Get", err)
	}
	return &wallet, nil
}

func (r *walletsRepository) Update(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Save(wallet).Error; err != nil {
		return storageErr("wallets.Update", err)
	}
	return nil
}
