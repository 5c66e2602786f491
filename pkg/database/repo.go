package database

import (
	"context"

	"gorm.io/gorm"
)

// AddCrash inserts one confirmed crash record.
func AddCrash(ctx context.Context, db *gorm.DB, crash *Crash) error {
	if crash == nil {
		return nil
	}
	return db.WithContext(ctx).Create(crash).Error
}
