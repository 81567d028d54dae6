package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	gdb, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	var one int
	require.NoError(t, gdb.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.AppConfig{Database: &config.DatabaseConfig{Driver: "oracle"}}, "")
	require.Error(t, err)
}
