package offers

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// NormalizeKey trims a natural key; blank keys become nil so they match the null-key row.
func NormalizeKey(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func whereKey(q *gorm.DB, column string, v *string) *gorm.DB {
	if v == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *v)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// createOrRecover inserts row inside a savepoint. If the insert loses a race on a
// unique index, lookup is retried so the caller can update the winner instead.
func createOrRecover(tx *gorm.DB, row any, lookup func() error) (created bool, err error) {
	createErr := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(row).Error
	})
	if createErr == nil {
		return true, nil
	}
	if err := lookup(); err != nil {
		if isNotFound(err) {
			return false, createErr
		}
		return false, err
	}
	return false, nil
}
