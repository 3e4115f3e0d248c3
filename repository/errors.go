package repository

import (
	"errors"
	"strings"

	"stockit/errs"

	"gorm.io/gorm"
)

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value violates unique constraint")
}

func storageErr(op string, err error) error {
	return errs.Wrap(errs.ErrStorage, op, err)
}
