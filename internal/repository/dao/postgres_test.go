package dao

import (
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nityanand123gupta/felicity-event-management/internal/db"
)

// newPostgresDB starts a throwaway postgres container. The test is skipped
// when docker is not available.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = 90 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=fest",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=fest",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})
	_ = resource.Expire(120)

	url := fmt.Sprintf("postgres://fest:secret@%s/fest?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var gdb *gorm.DB
	err = pool.Retry(func() error {
		var err error
		gdb, err = db.OpenPostgresWithURL(url)
		if err != nil {
			return err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}

		return sqlDB.Ping()
	})
	require.NoError(t, err)
	require.NoError(t, InitTables(gdb))

	return gdb
}

func TestLedgerDAO_Postgres(t *testing.T) {
	gdb := newPostgresDB(t)

	t.Run("concurrent reserve never oversells", func(t *testing.T) {
		runConcurrentReserve(t, gdb, 10, 60)
	})

	t.Run("concurrent stock commit never oversells", func(t *testing.T) {
		runConcurrentCommitStock(t, gdb, 5, 40)
	})

	t.Run("concurrent approvals take slot and stock together", func(t *testing.T) {
		runConcurrentApprovePair(t, gdb, 10, 6, 40)
		runConcurrentApprovePair(t, gdb, 4, 12, 40)
	})

	t.Run("duplicate email is reported", func(t *testing.T) {
		users := NewUserDAO(gdb)
		_, err := users.Insert(t.Context(), User{Email: "a@iiit.ac.in", Password: "x", Role: "participant", Name: "A"})
		require.NoError(t, err)

		_, err = users.Insert(t.Context(), User{Email: "a@iiit.ac.in", Password: "x", Role: "participant", Name: "A"})
		require.ErrorIs(t, err, ErrUserEmailExists)
	})
}
