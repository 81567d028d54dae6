package dao

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLedgerDAO_TryReserve(t *testing.T) {
	gdb := newTestDB(t)
	event := seedEvent(t, gdb, 2)
	ledger := NewLedgerDAO(gdb)
	ctx := context.Background()

	require.NoError(t, ledger.TryReserve(ctx, event.ID))
	require.NoError(t, ledger.TryReserve(ctx, event.ID))
	require.ErrorIs(t, ledger.TryReserve(ctx, event.ID), ErrCapacityExceeded)

	found, err := NewEventDAO(gdb).FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.TotalRegistrations)
}

func TestLedgerDAO_Release(t *testing.T) {
	gdb := newTestDB(t)
	event := seedEvent(t, gdb, 3)
	ledger := NewLedgerDAO(gdb)
	ctx := context.Background()

	require.NoError(t, ledger.TryReserve(ctx, event.ID))

	released, err := ledger.Release(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, released)

	// floored at zero
	released, err = ledger.Release(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, released)

	found, err := NewEventDAO(gdb).FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.TotalRegistrations)
}

func TestLedgerDAO_CommitStock(t *testing.T) {
	gdb := newTestDB(t)
	event := seedEvent(t, gdb, 10, Variant{Size: "M", Color: "black", Stock: 1})
	ledger := NewLedgerDAO(gdb)
	ctx := context.Background()

	require.NoError(t, ledger.CommitStock(ctx, event.ID, "M", "black"))
	require.ErrorIs(t, ledger.CommitStock(ctx, event.ID, "M", "black"), ErrVariantSoldOut)
	require.ErrorIs(t, ledger.CommitStock(ctx, event.ID, "XL", "black"), ErrVariantSoldOut)

	stock, err := ledger.Stock(ctx, event.ID, "M", "black")
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	_, err = ledger.Stock(ctx, event.ID, "XL", "black")
	require.ErrorIs(t, err, ErrVariantNotFound)
}

func TestLedgerDAO_ConcurrentReserve(t *testing.T) {
	gdb := newTestDB(t)
	runConcurrentReserve(t, gdb, 5, 40)
}

// runConcurrentReserve fires attempts goroutines at an event with the given
// limit and checks that exactly limit of them win.
func runConcurrentReserve(t *testing.T, gdb *gorm.DB, limit, attempts int) {
	t.Helper()

	event := seedEvent(t, gdb, limit)
	ledger := NewLedgerDAO(gdb)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		denied  int
		other   []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.TryReserve(context.Background(), event.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				granted++
			case err == ErrCapacityExceeded:
				denied++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, limit, granted)
	assert.Equal(t, attempts-limit, denied)

	found, err := NewEventDAO(gdb).FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, limit, found.TotalRegistrations)
}

func TestLedgerDAO_ConcurrentCommitStock(t *testing.T) {
	gdb := newTestDB(t)
	runConcurrentCommitStock(t, gdb, 3, 12)
}

func TestLedgerDAO_ConcurrentApprovePair(t *testing.T) {
	gdb := newTestDB(t)

	t.Run("stock runs out first", func(t *testing.T) {
		runConcurrentApprovePair(t, gdb, 10, 4, 20)
	})
	t.Run("slots run out first", func(t *testing.T) {
		runConcurrentApprovePair(t, gdb, 3, 8, 20)
	})
}

// runConcurrentCommitStock races attempts goroutines for a variant holding
// stock units and checks that exactly stock of them win.
func runConcurrentCommitStock(t *testing.T, gdb *gorm.DB, stock, attempts int) {
	t.Helper()

	event := seedEvent(t, gdb, 100, Variant{Size: "L", Color: "white", Stock: stock})
	ledger := NewLedgerDAO(gdb)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		sold  int
		other []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.CommitStock(context.Background(), event.ID, "L", "white")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
			case errors.Is(err, ErrVariantSoldOut):
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, stock, sold)

	left, err := ledger.Stock(context.Background(), event.ID, "L", "white")
	require.NoError(t, err)
	assert.Equal(t, 0, left)
}

// runConcurrentApprovePair takes a slot and a unit of stock together in one
// transaction from attempts goroutines, the way an order approval does. Both
// counters must move by exactly the number of winners.
func runConcurrentApprovePair(t *testing.T, gdb *gorm.DB, limit, stock, attempts int) {
	t.Helper()

	event := seedEvent(t, gdb, limit, Variant{Size: "M", Color: "black", Stock: stock})
	ledger := NewLedgerDAO(gdb)
	tx := NewTransactor(gdb)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
		other    []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
				if err := ledger.TryReserve(ctx, event.ID); err != nil {
					return err
				}

				return ledger.CommitStock(ctx, event.ID, "M", "black")
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				approved++
			case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrVariantSoldOut):
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	want := min(limit, stock)
	require.Empty(t, other)
	assert.Equal(t, want, approved)

	found, err := NewEventDAO(gdb).FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, want, found.TotalRegistrations)

	left, err := ledger.Stock(context.Background(), event.ID, "M", "black")
	require.NoError(t, err)
	assert.Equal(t, stock-want, left)
}
