package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

const (
	workflowScan   = "attendance_scan"
	workflowManual = "attendance_manual"

	scanNote          = "Marked via QR scan"
	manualDefaultNote = "Manual attendance override"
)

type AttendanceService struct {
	tx     Transactor
	status statusKeeper
	regs   RegistrationStore
	feed   AttendanceFeed
	rec    Recorder
	clock  domain.Clock
}

func NewAttendanceService(tx Transactor, events EventStore, regs RegistrationStore, feed AttendanceFeed, rec Recorder, clock domain.Clock) *AttendanceService {
	if rec == nil {
		rec = nopRecorder{}
	}
	if feed == nil {
		feed = nopFeed{}
	}

	return &AttendanceService{
		tx:     tx,
		status: statusKeeper{events: events, clock: clock},
		regs:   regs,
		feed:   feed,
		rec:    rec,
		clock:  clock,
	}
}

// Scan redeems a ticket presented at the entrance of eventID.
func (s *AttendanceService) Scan(ctx context.Context, organizerID, eventID uint, ticketID string) (domain.Registration, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return domain.Registration{}, domain.Invalid("ticket id is required")
	}

	reg, err := s.mark(ctx, organizerID, eventID, domain.AttendanceScan, scanNote, func(ctx context.Context) (domain.Registration, error) {
		reg, err := s.regs.FindByTicketID(ctx, ticketID)
		if err != nil {
			return domain.Registration{}, fmt.Errorf("s.regs.FindByTicketID -> %w", err)
		}

		return reg, nil
	})
	s.rec.Workflow(workflowScan, err)

	return reg, err
}

// MarkManually records attendance for a registration picked by the organizer,
// for participants who cannot present their QR code.
func (s *AttendanceService) MarkManually(ctx context.Context, organizerID, eventID, registrationID uint, note string) (domain.Registration, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		note = manualDefaultNote
	}

	reg, err := s.mark(ctx, organizerID, eventID, domain.AttendanceManual, note, func(ctx context.Context) (domain.Registration, error) {
		reg, err := s.regs.FindByID(ctx, registrationID)
		if err != nil {
			return domain.Registration{}, fmt.Errorf("s.regs.FindByID -> %w", err)
		}

		return reg, nil
	})
	s.rec.Workflow(workflowManual, err)

	return reg, err
}

func (s *AttendanceService) mark(
	ctx context.Context,
	organizerID, eventID uint,
	method domain.AttendanceMethod,
	note string,
	resolve func(ctx context.Context) (domain.Registration, error),
) (domain.Registration, error) {
	var reg domain.Registration

	s.status.sync(ctx, eventID)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reg, err = resolve(ctx)
		if err != nil {
			return err
		}

		// A ticket from another event is not valid here.
		if reg.EventID != eventID {
			if method == domain.AttendanceScan {
				return domain.ErrTicketNotFound
			}
			return domain.ErrRegistrationNotFound
		}

		event, err := s.status.load(ctx, reg.EventID)
		if err != nil {
			return err
		}
		if !event.OwnedBy(organizerID) {
			return domain.ErrNotEventOwner
		}
		if event.Status != domain.StatusOngoing {
			return domain.ErrEventNotOngoing
		}
		if reg.Status != domain.RegistrationRegistered {
			return domain.ErrRegistrationNotActive
		}
		if reg.TicketID == "" {
			return domain.ErrNoTicket
		}
		if reg.Attendance.Marked {
			return domain.ErrDuplicateScan
		}

		now := s.clock.Now()
		markedBy := organizerID
		attendance := domain.Attendance{
			Marked:    true,
			Timestamp: &now,
			MarkedBy:  &markedBy,
			Method:    method,
			AuditNote: note,
		}
		if err = s.regs.MarkAttendance(ctx, reg.ID, attendance); err != nil {
			return fmt.Errorf("s.regs.MarkAttendance -> %w", err)
		}
		reg.Attendance = attendance

		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}

	s.feed.Publish(domain.AttendanceMark{
		EventID:        reg.EventID,
		RegistrationID: reg.ID,
		TicketID:       reg.TicketID,
		Method:         method,
		MarkedAt:       reg.Attendance.Timestamp.Format(time.RFC3339),
	})

	return reg, nil
}
