package repository

import (
	"context"
	"errors"

	"stockit/errs"
	"stockit/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsersRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type usersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) UsersRepository {
	return &usersRepository{db: db}
}

func (r *usersRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return errs.Conflict("User with this email already exists")
		}
		return storageErr("users.Create", err)
	}
	return nil
}

func (r *usersRepository) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("User not found")
		}
		return nil, storageErr("users.GetByID", err)
	}
	return &user, nil
}

// GetByEmail matches the stored value exactly.
func (r *usersRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("User not found")
		}
		return nil, storageErr("users.GetByEmail", err)
	}
	return &user, nil
}
