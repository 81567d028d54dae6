package dao

import (
	"context"

	"gorm.io/gorm"
)

// LedgerDAO is the only writer of events.total_registrations and
// variants.stock. Every operation is a single conditional UPDATE, so the
// check and the write happen atomically in the store.
type LedgerDAO struct {
	db *gorm.DB
}

func NewLedgerDAO(db *gorm.DB) *LedgerDAO {
	return &LedgerDAO{
		db: db,
	}
}

// TryReserve takes one registration slot.
func (d *LedgerDAO) TryReserve(ctx context.Context, eventID uint) error {
	result := conn(ctx, d.db).Model(&Event{}).
		Where("id = ? AND total_registrations < registration_limit", eventID).
		UpdateColumn("total_registrations", gorm.Expr("total_registrations + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCapacityExceeded
	}

	return nil
}

// Release gives one slot back, never going below zero. It reports whether a
// slot was actually released.
func (d *LedgerDAO) Release(ctx context.Context, eventID uint) (bool, error) {
	result := conn(ctx, d.db).Model(&Event{}).
		Where("id = ? AND total_registrations > 0", eventID).
		UpdateColumn("total_registrations", gorm.Expr("total_registrations - 1"))
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// CommitStock takes one unit of a variant's stock.
func (d *LedgerDAO) CommitStock(ctx context.Context, eventID uint, size, color string) error {
	result := conn(ctx, d.db).Model(&Variant{}).
		Where("event_id = ? AND size = ? AND color = ? AND stock > 0", eventID, size, color).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVariantSoldOut
	}

	return nil
}

func (d *LedgerDAO) Stock(ctx context.Context, eventID uint, size, color string) (int, error) {
	var v Variant

	result := conn(ctx, d.db).
		Where("event_id = ? AND size = ? AND color = ?", eventID, size, color).
		Limit(1).Find(&v)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrVariantNotFound
	}

	return v.Stock, nil
}
