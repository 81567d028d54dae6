package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Registration struct {
	ID            uint `gorm:"primaryKey"`
	EventID       uint `gorm:"not null;index"`
	ParticipantID uint `gorm:"not null;index"`
	FormResponses datatypes.JSON

	VariantSize     string
	VariantColor    string
	PaymentStatus   string `gorm:"not null;index"` // "not_required", "pending", "approved" or "rejected"
	PaymentProofURL string

	TicketID *string `gorm:"uniqueIndex:idx_registrations_ticket"`
	Status   string  `gorm:"not null;index"` // "registered", "cancelled" or "rejected"

	AttendanceStatus    bool `gorm:"not null;default:false"`
	AttendanceTimestamp *time.Time
	AttendanceMarkedBy  *uint
	AttendanceMethod    string
	AttendanceAuditNote string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// activeEntryIndex keeps at most one live normal-event registration per
// participant and event.
const activeEntryIndex = "idx_registrations_active_entry"

// Attendance is the set of columns written when a ticket is redeemed.
type Attendance struct {
	Timestamp time.Time
	MarkedBy  uint
	Method    string
	AuditNote string
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

func (d *RegistrationDAO) Insert(ctx context.Context, reg Registration) (Registration, error) {
	result := conn(ctx, d.db).Create(&reg)
	if result.Error != nil {
		if uniqueViolation(result.Error, activeEntryIndex) {
			return Registration{}, ErrAlreadyRegistered
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	result := conn(ctx, d.db).First(&reg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByTicketID(ctx context.Context, ticketID string) (Registration, error) {
	var reg Registration

	result := conn(ctx, d.db).First(&reg, "ticket_id = ?", ticketID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrTicketNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

// FindActive returns the participant's non-cancelled entry for the event.
func (d *RegistrationDAO) FindActive(ctx context.Context, eventID, participantID uint) (Registration, error) {
	var reg Registration

	result := conn(ctx, d.db).
		Where("event_id = ? AND participant_id = ? AND status <> ?", eventID, participantID, "cancelled").
		Order("id").
		First(&reg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

// CountActiveOrders counts orders that are pending or approved.
func (d *RegistrationDAO) CountActiveOrders(ctx context.Context, eventID, participantID uint) (int64, error) {
	var count int64

	result := conn(ctx, d.db).Model(&Registration{}).
		Where("event_id = ? AND participant_id = ? AND status = ?", eventID, participantID, "registered").
		Where("payment_status IN ?", []string{"pending", "approved"}).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *RegistrationDAO) FindByEvent(ctx context.Context, eventID uint, paymentStatus string) ([]Registration, error) {
	var regs []Registration

	q := conn(ctx, d.db).Where("event_id = ?", eventID).Order("created_at, id")
	if paymentStatus != "" {
		q = q.Where("payment_status = ?", paymentStatus)
	}

	result := q.Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

func (d *RegistrationDAO) FindByParticipant(ctx context.Context, participantID uint) ([]Registration, error) {
	var regs []Registration

	result := conn(ctx, d.db).Where("participant_id = ?", participantID).Order("created_at DESC, id DESC").Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

func (d *RegistrationDAO) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64

	result := conn(ctx, d.db).Model(&Registration{}).Where("event_id = ?", eventID).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// Transition moves a registration from one (status, payment) pair to another.
// It fails with ErrStaleRegistration when the row is no longer in the
// expected state. A non-nil ticketID is written in the same statement.
func (d *RegistrationDAO) Transition(ctx context.Context, id uint, fromStatus, fromPayment, toStatus, toPayment string, ticketID *string) error {
	fields := map[string]any{
		"status":         toStatus,
		"payment_status": toPayment,
	}
	if ticketID != nil {
		fields["ticket_id"] = *ticketID
	}

	result := conn(ctx, d.db).Model(&Registration{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, fromStatus, fromPayment).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRegistration
	}

	return nil
}

// MarkAttendance flips attendance_status false -> true together with its
// audit columns. A second call finds no row to update.
func (d *RegistrationDAO) MarkAttendance(ctx context.Context, id uint, a Attendance) error {
	result := conn(ctx, d.db).Model(&Registration{}).
		Where("id = ? AND status = ? AND attendance_status = ?", id, "registered", false).
		Updates(map[string]any{
			"attendance_status":     true,
			"attendance_timestamp":  a.Timestamp,
			"attendance_marked_by":  a.MarkedBy,
			"attendance_method":     a.Method,
			"attendance_audit_note": a.AuditNote,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateScan
	}

	return nil
}

// TrendingEventIDs ranks events by registrations created since the given
// instant, busiest first.
func (d *RegistrationDAO) TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	var rows []struct {
		EventID uint
		Total   int64
	}

	err := conn(ctx, d.db).Model(&Registration{}).
		Select("event_id, COUNT(*) AS total").
		Where("status = ? AND created_at >= ?", "registered", since).
		Group("event_id").
		Order("total DESC, event_id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.EventID)
	}

	return ids, nil
}

type Totals struct {
	Registered int64
	Revenue    int64
}

// Totals aggregates registrations over the given events, or over every event
// when eventIDs is nil.
func (d *RegistrationDAO) Totals(ctx context.Context, eventIDs []uint) (Totals, error) {
	var totals Totals
	db := conn(ctx, d.db)

	q := db.Model(&Registration{}).Where("status = ?", "registered")
	if eventIDs != nil {
		q = q.Where("event_id IN ?", eventIDs)
	}
	if err := q.Count(&totals.Registered).Error; err != nil {
		return Totals{}, err
	}

	rq := db.Table("registrations").
		Joins("JOIN events ON events.id = registrations.event_id").
		Where("registrations.payment_status = ?", "approved")
	if eventIDs != nil {
		rq = rq.Where("registrations.event_id IN ?", eventIDs)
	}
	if err := rq.Select("COALESCE(SUM(events.registration_fee), 0)").Scan(&totals.Revenue).Error; err != nil {
		return Totals{}, err
	}

	return totals, nil
}
