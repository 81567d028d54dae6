package repository

import (
	"context"
	"fmt"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

var (
	ErrCapacityExceeded = domain.ErrCapacityExceeded
	ErrVariantSoldOut   = domain.ErrVariantSoldOut
)

type LedgerDAO interface {
	TryReserve(ctx context.Context, eventID uint) error
	Release(ctx context.Context, eventID uint) (bool, error)
	CommitStock(ctx context.Context, eventID uint, size, color string) error
	Stock(ctx context.Context, eventID uint, size, color string) (int, error)
}

// CapacityLedger guards the two shared counters: an event's registration
// count and a variant's stock.
type CapacityLedger struct {
	dao LedgerDAO
}

func NewCapacityLedger(dao LedgerDAO) *CapacityLedger {
	return &CapacityLedger{
		dao: dao,
	}
}

func (l *CapacityLedger) TryReserve(ctx context.Context, eventID uint) error {
	if err := l.dao.TryReserve(ctx, eventID); err != nil {
		return fmt.Errorf("l.dao.TryReserve -> %w", err)
	}

	return nil
}

func (l *CapacityLedger) Release(ctx context.Context, eventID uint) (bool, error) {
	released, err := l.dao.Release(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("l.dao.Release -> %w", err)
	}

	return released, nil
}

func (l *CapacityLedger) CommitStock(ctx context.Context, eventID uint, key domain.VariantKey) error {
	if err := l.dao.CommitStock(ctx, eventID, key.Size, key.Color); err != nil {
		return fmt.Errorf("l.dao.CommitStock -> %w", err)
	}

	return nil
}

func (l *CapacityLedger) Stock(ctx context.Context, eventID uint, key domain.VariantKey) (int, error) {
	stock, err := l.dao.Stock(ctx, eventID, key.Size, key.Color)
	if err != nil {
		return 0, fmt.Errorf("l.dao.Stock -> %w", err)
	}

	return stock, nil
}
