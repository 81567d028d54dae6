package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

type ExportRegistrations interface {
	FindByEvent(ctx context.Context, eventID uint, payment domain.PaymentStatus) ([]domain.Registration, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error)
}

type ExportUsers interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.User, error)
}

type ExportService struct {
	status statusKeeper
	regs   ExportRegistrations
	users  ExportUsers
}

func NewExportService(events EventStore, regs ExportRegistrations, users ExportUsers, clock domain.Clock) *ExportService {
	return &ExportService{
		status: statusKeeper{events: events, clock: clock},
		regs:   regs,
		users:  users,
	}
}

var attendanceHeader = []string{
	"Name", "Email", "RegistrationDate", "PaymentStatus", "AttendanceStatus", "AttendanceTimestamp", "TicketID",
}

// AttendanceCSV lists the event's registered participants with their
// attendance. Only the organizer may export it.
func (s *ExportService) AttendanceCSV(ctx context.Context, organizerID, eventID uint) ([]byte, domain.Event, error) {
	event, err := s.status.load(ctx, eventID)
	if err != nil {
		return nil, domain.Event{}, err
	}
	if !event.OwnedBy(organizerID) {
		return nil, domain.Event{}, domain.ErrNotEventOwner
	}

	regs, err := s.regs.FindByEvent(ctx, eventID, "")
	if err != nil {
		return nil, domain.Event{}, fmt.Errorf("s.regs.FindByEvent -> %w", err)
	}

	ids := make([]uint, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.ParticipantID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Event{}, fmt.Errorf("s.users.FindByIDs -> %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err = w.Write(attendanceHeader); err != nil {
		return nil, domain.Event{}, fmt.Errorf("w.Write -> %w", err)
	}

	for _, r := range regs {
		if r.Status != domain.RegistrationRegistered {
			continue
		}

		attended, attendedAt := "Absent", ""
		if r.Attendance.Marked {
			attended = "Present"
			if r.Attendance.Timestamp != nil {
				attendedAt = r.Attendance.Timestamp.UTC().Format(time.RFC3339)
			}
		}

		user := users[r.ParticipantID]
		row := []string{
			user.Name,
			user.Email,
			r.CreatedAt.UTC().Format(time.RFC3339),
			string(r.PaymentStatus),
			attended,
			attendedAt,
			r.TicketID,
		}
		if err = w.Write(row); err != nil {
			return nil, domain.Event{}, fmt.Errorf("w.Write -> %w", err)
		}
	}

	w.Flush()
	if err = w.Error(); err != nil {
		return nil, domain.Event{}, fmt.Errorf("w.Flush -> %w", err)
	}

	return buf.Bytes(), event, nil
}

// Calendar renders an .ics entry for an event the participant is registered
// for.
func (s *ExportService) Calendar(ctx context.Context, participantID, eventID uint) ([]byte, domain.Event, error) {
	event, err := s.status.load(ctx, eventID)
	if err != nil {
		return nil, domain.Event{}, err
	}

	regs, err := s.regs.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, domain.Event{}, fmt.Errorf("s.regs.FindByParticipant -> %w", err)
	}

	registered := false
	for _, r := range regs {
		if r.EventID == eventID && r.Status == domain.RegistrationRegistered {
			registered = true
			break
		}
	}
	if !registered {
		return nil, domain.Event{}, domain.ErrNotRegistered
	}

	organizer, err := s.users.FindByID(ctx, event.OrganizerID)
	if err != nil {
		return nil, domain.Event{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//felicity//event-management//EN")

	entry := cal.AddEvent(fmt.Sprintf("felicity-%d-%d", event.ID, participantID))
	entry.SetDtStampTime(event.UpdatedAt.UTC())
	entry.SetStartAt(event.StartDate.UTC())
	entry.SetEndAt(event.EndDate.UTC())
	entry.SetSummary(event.Name)
	entry.SetDescription(event.Description)
	entry.SetOrganizer("mailto:"+organizer.Email, ics.WithCN(organizer.Name))

	return []byte(cal.Serialize()), event, nil
}
