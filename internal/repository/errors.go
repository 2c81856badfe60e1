package repository

import (
	"errors"
	"strings"

	"truvamate/internal/domain"

	"gorm.io/gorm"
)

// IsDuplicateKeyErr recognises unique violations across the supported drivers.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// PostgreSQL 23505, MySQL 1062, SQLite 2067
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Error 1062") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// wrap maps gorm failures onto ledger errors.
func wrap(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && isNotFound(err) {
		return notFound
	}
	return domain.Persistence(op, err)
}
