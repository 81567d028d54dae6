package dao

import (
	"fmt"

	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Event{},
		&Variant{},
		&Registration{},
	); err != nil {
		return err
	}

	// Partial unique index: gorm tags cannot express the WHERE clause.
	// Both postgres and sqlite accept this statement.
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON registrations (event_id, participant_id) "+
			"WHERE status <> 'cancelled' AND payment_status = 'not_required'",
		activeEntryIndex,
	)

	return db.Exec(stmt).Error
}
