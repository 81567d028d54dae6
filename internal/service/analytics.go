package service

import (
	"context"
	"fmt"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
)

type AnalyticsEvents interface {
	EventStore
	Find(ctx context.Context, query repository.EventQuery) ([]domain.Event, error)
}

type AnalyticsRegistrations interface {
	FindByEvent(ctx context.Context, eventID uint, payment domain.PaymentStatus) ([]domain.Registration, error)
	Totals(ctx context.Context, eventIDs []uint) (repository.Totals, error)
}

type AnalyticsUsers interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

// AnalyticsService computes read-only rollups. It writes nothing except the
// derived event status.
type AnalyticsService struct {
	events AnalyticsEvents
	regs   AnalyticsRegistrations
	users  AnalyticsUsers
	status statusKeeper
	clock  domain.Clock
}

func NewAnalyticsService(events AnalyticsEvents, regs AnalyticsRegistrations, users AnalyticsUsers, clock domain.Clock) *AnalyticsService {
	return &AnalyticsService{
		events: events,
		regs:   regs,
		users:  users,
		status: statusKeeper{events: events, clock: clock},
		clock:  clock,
	}
}

func (s *AnalyticsService) Event(ctx context.Context, organizerID, eventID uint) (domain.EventAnalytics, error) {
	event, err := s.status.load(ctx, eventID)
	if err != nil {
		return domain.EventAnalytics{}, err
	}
	if !event.OwnedBy(organizerID) {
		return domain.EventAnalytics{}, domain.ErrNotEventOwner
	}

	regs, err := s.regs.FindByEvent(ctx, eventID, "")
	if err != nil {
		return domain.EventAnalytics{}, fmt.Errorf("s.regs.FindByEvent -> %w", err)
	}

	ids := make([]uint, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.ParticipantID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return domain.EventAnalytics{}, fmt.Errorf("s.users.FindByIDs -> %w", err)
	}

	return summarize(event, regs, users), nil
}

// summarize folds an event's registrations into its analytics.
func summarize(event domain.Event, regs []domain.Registration, users map[uint]domain.User) domain.EventAnalytics {
	out := domain.EventAnalytics{
		EventID:      event.ID,
		EventName:    event.Name,
		Status:       event.Status,
		Participants: make([]domain.ParticipantSummary, 0, len(regs)),
	}

	for _, r := range regs {
		switch r.Status {
		case domain.RegistrationRegistered:
			out.Registered++
		case domain.RegistrationCancelled:
			out.Cancelled++
		}
		switch r.PaymentStatus {
		case domain.PaymentApproved:
			out.Approved++
		case domain.PaymentRejected:
			out.Rejected++
		case domain.PaymentPending:
			if r.Status == domain.RegistrationRegistered {
				out.Pending++
			}
		}
		if r.Attendance.Marked {
			out.Attended++
		}

		user := users[r.ParticipantID]
		out.Participants = append(out.Participants, domain.ParticipantSummary{
			RegistrationID: r.ID,
			ParticipantID:  r.ParticipantID,
			Name:           user.Name,
			Email:          user.Email,
			PaymentStatus:  r.PaymentStatus,
			Attended:       r.Attendance.Marked,
			TicketID:       r.TicketID,
		})
	}

	out.Revenue = domain.Revenue(out.Approved, event.RegistrationFee)
	out.AttendanceRate = domain.AttendanceRate(out.Attended, out.Registered)

	return out
}

func (s *AnalyticsService) Organizer(ctx context.Context, organizerID uint) (domain.OrganizerDashboard, error) {
	events, err := s.events.Find(ctx, repository.EventQuery{OrganizerID: organizerID})
	if err != nil {
		return domain.OrganizerDashboard{}, fmt.Errorf("s.events.Find -> %w", err)
	}
	if err = s.status.refreshAll(ctx, events); err != nil {
		return domain.OrganizerDashboard{}, err
	}

	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	totals, err := s.regs.Totals(ctx, ids)
	if err != nil {
		return domain.OrganizerDashboard{}, fmt.Errorf("s.regs.Totals -> %w", err)
	}

	now := s.clock.Now()
	out := domain.OrganizerDashboard{
		TotalEvents:     len(events),
		TotalRegistered: totals.Registered,
		TotalRevenue:    totals.Revenue,
	}
	for i, e := range events {
		if e.StartDate.After(now) {
			out.Upcoming++
		}
		if e.EndDate.Before(now) {
			out.Completed++
		}
		if out.TopEvent == nil || e.TotalRegistrations > out.TopEvent.TotalRegistrations {
			out.TopEvent = &events[i]
		}
	}

	return out, nil
}

func (s *AnalyticsService) Platform(ctx context.Context) (domain.PlatformAnalytics, error) {
	events, err := s.events.Find(ctx, repository.EventQuery{})
	if err != nil {
		return domain.PlatformAnalytics{}, fmt.Errorf("s.events.Find -> %w", err)
	}
	if err = s.status.refreshAll(ctx, events); err != nil {
		return domain.PlatformAnalytics{}, err
	}

	participants, err := s.users.CountByRole(ctx, domain.RoleParticipant)
	if err != nil {
		return domain.PlatformAnalytics{}, fmt.Errorf("s.users.CountByRole -> %w", err)
	}

	totals, err := s.regs.Totals(ctx, nil)
	if err != nil {
		return domain.PlatformAnalytics{}, fmt.Errorf("s.regs.Totals -> %w", err)
	}

	return domain.PlatformAnalytics{
		TotalEvents:       len(events),
		TotalParticipants: participants,
		TotalRegistered:   totals.Registered,
		TotalRevenue:      totals.Revenue,
	}, nil
}
