package repository

import (
	"context"

	"stockit/models"

	"gorm.io/gorm"
)

type TransactionsRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)
	ListAllByUser(ctx context.Context, userID uint) ([]models.Transaction, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type transactionsRepository struct {
	db *gorm.DB
}

func NewTransactionsRepository(db *gorm.DB) TransactionsRepository {
	return &transactionsRepository{db: db}
}

// newestFirst breaks ties on equal timestamps by id.
const newestFirst = "transaction_date DESC, id DESC"

func (r *transactionsRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return storageErr("transactions.Create", err)
	}
	return nil
}

func (r *transactionsRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, storageErr("transactions.ListByUser", err)
	}
	return transactions, nil
}

func (r *transactionsRepository) ListAllByUser(ctx context.Context, userID uint) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(newestFirst).Find(&transactions).Error; err != nil {
		return nil, storageErr("transactions.ListAllByUser", err)
	}
	return transactions, nil
}

func (r *transactionsRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, storageErr("transactions.CountByUser", err)
	}
	return total, nil
}
