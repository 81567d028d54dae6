package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository/dao"
)

var (
	ErrRegistrationNotFound = dao.ErrRegistrationNotFound
	ErrTicketNotFound       = dao.ErrTicketNotFound
	ErrAlreadyRegistered    = dao.ErrAlreadyRegistered
	ErrDuplicateScan        = dao.ErrDuplicateScan
	ErrStaleRegistration    = dao.ErrStaleRegistration
)

type RegistrationDAO interface {
	Insert(ctx context.Context, reg dao.Registration) (dao.Registration, error)
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByTicketID(ctx context.Context, ticketID string) (dao.Registration, error)
	FindActive(ctx context.Context, eventID, participantID uint) (dao.Registration, error)
	CountActiveOrders(ctx context.Context, eventID, participantID uint) (int64, error)
	FindByEvent(ctx context.Context, eventID uint, paymentStatus string) ([]dao.Registration, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]dao.Registration, error)
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
	Transition(ctx context.Context, id uint, fromStatus, fromPayment, toStatus, toPayment string, ticketID *string) error
	MarkAttendance(ctx context.Context, id uint, a dao.Attendance) error
	Totals(ctx context.Context, eventIDs []uint) (dao.Totals, error)
	TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

type Totals struct {
	Registered int
	Revenue    int
}

func (r *RegistrationRepository) Create(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	model, err := r.domainToDao(reg)
	if err != nil {
		return domain.Registration{}, err
	}

	created, err := r.dao.Insert(ctx, model)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created)
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found)
}

func (r *RegistrationRepository) FindByTicketID(ctx context.Context, ticketID string) (domain.Registration, error) {
	found, err := r.dao.FindByTicketID(ctx, ticketID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByTicketID -> %w", err)
	}

	return r.daoToDomain(found)
}

// HasActive reports whether the participant holds a non-cancelled entry.
func (r *RegistrationRepository) HasActive(ctx context.Context, eventID, participantID uint) (bool, error) {
	_, err := r.dao.FindActive(ctx, eventID, participantID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrRegistrationNotFound) {
		return false, nil
	}

	return false, fmt.Errorf("r.dao.FindActive -> %w", err)
}

func (r *RegistrationRepository) CountActiveOrders(ctx context.Context, eventID, participantID uint) (int, error) {
	count, err := r.dao.CountActiveOrders(ctx, eventID, participantID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountActiveOrders -> %w", err)
	}

	return int(count), nil
}

func (r *RegistrationRepository) FindByEvent(ctx context.Context, eventID uint, payment domain.PaymentStatus) ([]domain.Registration, error) {
	found, err := r.dao.FindByEvent(ctx, eventID, string(payment))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	return r.daoToDomainList(found)
}

func (r *RegistrationRepository) FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByParticipant -> %w", err)
	}

	return r.daoToDomainList(found)
}

func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID uint) (int, error) {
	count, err := r.dao.CountByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByEvent -> %w", err)
	}

	return int(count), nil
}

func (r *RegistrationRepository) TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	ids, err := r.dao.TrendingEventIDs(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.TrendingEventIDs -> %w", err)
	}

	return ids, nil
}

// Transition persists from -> to only if the stored row still equals from.
func (r *RegistrationRepository) Transition(ctx context.Context, id uint, from, to domain.RegistrationState, ticketID string) error {
	var ticket *string
	if ticketID != "" {
		ticket = &ticketID
	}

	err := r.dao.Transition(ctx, id,
		string(from.Status), string(from.Payment),
		string(to.Status), string(to.Payment),
		ticket,
	)
	if err != nil {
		return fmt.Errorf("r.dao.Transition -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) MarkAttendance(ctx context.Context, id uint, a domain.Attendance) error {
	model := dao.Attendance{
		Method:    string(a.Method),
		AuditNote: a.AuditNote,
	}
	if a.Timestamp != nil {
		model.Timestamp = *a.Timestamp
	}
	if a.MarkedBy != nil {
		model.MarkedBy = *a.MarkedBy
	}

	if err := r.dao.MarkAttendance(ctx, id, model); err != nil {
		return fmt.Errorf("r.dao.MarkAttendance -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) Totals(ctx context.Context, eventIDs []uint) (Totals, error) {
	totals, err := r.dao.Totals(ctx, eventIDs)
	if err != nil {
		return Totals{}, fmt.Errorf("r.dao.Totals -> %w", err)
	}

	return Totals{
		Registered: int(totals.Registered),
		Revenue:    int(totals.Revenue),
	}, nil
}

func (r *RegistrationRepository) domainToDao(reg domain.Registration) (dao.Registration, error) {
	model := dao.Registration{
		ID:                  reg.ID,
		EventID:             reg.EventID,
		ParticipantID:       reg.ParticipantID,
		PaymentStatus:       string(reg.PaymentStatus),
		PaymentProofURL:     reg.PaymentProofURL,
		Status:              string(reg.Status),
		AttendanceStatus:    reg.Attendance.Marked,
		AttendanceTimestamp: reg.Attendance.Timestamp,
		AttendanceMarkedBy:  reg.Attendance.MarkedBy,
		AttendanceMethod:    string(reg.Attendance.Method),
		AttendanceAuditNote: reg.Attendance.AuditNote,
		CreatedAt:           reg.CreatedAt,
		UpdatedAt:           reg.UpdatedAt,
	}

	if reg.FormResponses != nil {
		raw, err := json.Marshal(reg.FormResponses)
		if err != nil {
			return dao.Registration{}, fmt.Errorf("json.Marshal(form_responses) -> %w", err)
		}
		model.FormResponses = raw
	}
	if reg.Variant != nil {
		model.VariantSize = reg.Variant.Size
		model.VariantColor = reg.Variant.Color
	}
	if reg.TicketID != "" {
		ticket := reg.TicketID
		model.TicketID = &ticket
	}

	return model, nil
}

func (r *RegistrationRepository) daoToDomain(m dao.Registration) (domain.Registration, error) {
	reg := domain.Registration{
		ID:              m.ID,
		EventID:         m.EventID,
		ParticipantID:   m.ParticipantID,
		PaymentStatus:   domain.PaymentStatus(m.PaymentStatus),
		PaymentProofURL: m.PaymentProofURL,
		Status:          domain.RegistrationStatus(m.Status),
		Attendance: domain.Attendance{
			Marked:    m.AttendanceStatus,
			MarkedBy:  m.AttendanceMarkedBy,
			Method:    domain.AttendanceMethod(m.AttendanceMethod),
			AuditNote: m.AttendanceAuditNote,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if m.AttendanceTimestamp != nil {
		ts := m.AttendanceTimestamp.UTC()
		reg.Attendance.Timestamp = &ts
	}
	if len(m.FormResponses) > 0 {
		if err := json.Unmarshal(m.FormResponses, &reg.FormResponses); err != nil {
			return domain.Registration{}, fmt.Errorf("json.Unmarshal(form_responses) -> %w", err)
		}
	}
	if m.VariantSize != "" || m.VariantColor != "" {
		reg.Variant = &domain.VariantKey{Size: m.VariantSize, Color: m.VariantColor}
	}
	if m.TicketID != nil {
		reg.TicketID = *m.TicketID
	}

	return reg, nil
}

func (r *RegistrationRepository) daoToDomainList(models []dao.Registration) ([]domain.Registration, error) {
	regs := make([]domain.Registration, 0, len(models))
	for _, m := range models {
		reg, err := r.daoToDomain(m)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, nil
}
