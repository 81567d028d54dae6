package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nityanand123gupta/felicity-event-management/internal/db"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, InitTables(gdb))

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}

func seedEvent(t *testing.T, gdb *gorm.DB, limit int, variants ...Variant) Event {
	t.Helper()

	now := time.Now().UTC()
	eventType := "normal"
	if len(variants) > 0 {
		eventType = "merchandise"
	}

	event, err := NewEventDAO(gdb).Insert(context.Background(), Event{
		OrganizerID:          1,
		Name:                 "Hackathon",
		Type:                 eventType,
		RegistrationDeadline: now.Add(time.Hour),
		StartDate:            now.Add(2 * time.Hour),
		EndDate:              now.Add(3 * time.Hour),
		RegistrationLimit:    limit,
		Tags:                 []byte(`["tech","coding"]`),
		Status:               "published",
		FormFields:           []byte(`[]`),
		PurchaseLimitPerUser: 1,
		Variants:             variants,
	})
	require.NoError(t, err)

	return event
}
