package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
)

const (
	workflowRegister = "register"
	workflowCancel   = "cancel"
)

type RegistrationStore interface {
	Create(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByTicketID(ctx context.Context, ticketID string) (domain.Registration, error)
	HasActive(ctx context.Context, eventID, participantID uint) (bool, error)
	CountActiveOrders(ctx context.Context, eventID, participantID uint) (int, error)
	FindByEvent(ctx context.Context, eventID uint, payment domain.PaymentStatus) ([]domain.Registration, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error)
	CountByEvent(ctx context.Context, eventID uint) (int, error)
	Transition(ctx context.Context, id uint, from, to domain.RegistrationState, ticketID string) error
	MarkAttendance(ctx context.Context, id uint, a domain.Attendance) error
	Totals(ctx context.Context, eventIDs []uint) (repository.Totals, error)
}

type RegistrationService struct {
	tx       Transactor
	status   statusKeeper
	regs     RegistrationStore
	ledger   Ledger
	tickets  TicketIssuer
	renderer TicketRenderer
	notifier Notifier
	rec      Recorder
	clock    domain.Clock
}

func NewRegistrationService(
	tx Transactor,
	events EventStore,
	regs RegistrationStore,
	ledger Ledger,
	tickets TicketIssuer,
	renderer TicketRenderer,
	notifier Notifier,
	rec Recorder,
	clock domain.Clock,
) *RegistrationService {
	if rec == nil {
		rec = nopRecorder{}
	}

	return &RegistrationService{
		tx:       tx,
		status:   statusKeeper{events: events, clock: clock},
		regs:     regs,
		ledger:   ledger,
		tickets:  tickets,
		renderer: renderer,
		notifier: notifier,
		rec:      rec,
		clock:    clock,
	}
}

// Register enrolls a participant in a normal event and issues the ticket.
// The slot reservation and the registration row commit together.
func (s *RegistrationService) Register(ctx context.Context, participantID, eventID uint, responses domain.FormResponses) (domain.Registration, error) {
	var (
		reg   domain.Registration
		event domain.Event
	)

	s.status.sync(ctx, eventID)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.status.load(ctx, eventID)
		if err != nil {
			return err
		}

		if event.Type != domain.EventTypeNormal {
			return domain.ErrWrongEventType
		}
		if event.Status != domain.StatusPublished {
			return domain.ErrEventNotOpen
		}
		if s.clock.Now().After(event.RegistrationDeadline) {
			return domain.ErrDeadlinePassed
		}
		if err = domain.ValidateResponses(event.FormFields, responses); err != nil {
			return err
		}

		if err = s.ledger.TryReserve(ctx, event.ID); err != nil {
			return capacityErr(s.rec, "registration_limit", fmt.Errorf("s.ledger.TryReserve -> %w", err))
		}

		active, err := s.regs.HasActive(ctx, event.ID, participantID)
		if err != nil {
			return fmt.Errorf("s.regs.HasActive -> %w", err)
		}
		if active {
			return domain.ErrAlreadyRegistered
		}

		reg, err = s.regs.Create(ctx, domain.Registration{
			EventID:       event.ID,
			ParticipantID: participantID,
			FormResponses: responses,
			PaymentStatus: domain.PaymentNotRequired,
			TicketID:      s.tickets.NewTicketID(),
			Status:        domain.RegistrationRegistered,
			CreatedAt:     s.clock.Now(),
		})
		if err != nil {
			return fmt.Errorf("s.regs.Create -> %w", err)
		}

		return nil
	})
	s.rec.Workflow(workflowRegister, err)
	if err != nil {
		return domain.Registration{}, err
	}

	s.sendTicket(ctx, reg, event, domain.NotifyRegistrationConfirmed)

	return reg, nil
}

// Cancel withdraws a participant's own registration before the event starts
// and gives its slot back.
func (s *RegistrationService) Cancel(ctx context.Context, participantID, registrationID uint) (domain.Registration, error) {
	var reg domain.Registration

	s.status.syncRegistration(ctx, s.regs, registrationID)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.regs.FindByID(ctx, registrationID)
		if err != nil {
			return fmt.Errorf("s.regs.FindByID -> %w", err)
		}
		if !reg.OwnedBy(participantID) {
			return domain.ErrNotRegistrationOwner
		}

		event, err := s.status.load(ctx, reg.EventID)
		if err != nil {
			return err
		}
		if !s.clock.Now().Before(event.StartDate) {
			return domain.ErrEventStarted
		}

		next, err := reg.Next(domain.ActionCancel)
		if err != nil {
			return err
		}

		err = s.regs.Transition(ctx, reg.ID, reg.State(), next, "")
		if errors.Is(err, repository.ErrStaleRegistration) {
			return s.staleCancel(ctx, reg.ID)
		}
		if err != nil {
			return fmt.Errorf("s.regs.Transition -> %w", err)
		}

		if reg.HoldsSlot() {
			if _, err = s.ledger.Release(ctx, event.ID); err != nil {
				return fmt.Errorf("s.ledger.Release -> %w", err)
			}
		}

		reg.Status, reg.PaymentStatus = next.Status, next.Payment

		return nil
	})
	s.rec.Workflow(workflowCancel, err)
	if err != nil {
		return domain.Registration{}, err
	}

	return reg, nil
}

// staleCancel explains a cancel whose row changed after it was read, such as
// an order approved in between. The reason comes from the current state.
func (s *RegistrationService) staleCancel(ctx context.Context, registrationID uint) error {
	current, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("s.regs.FindByID -> %w", err)
	}
	if _, err = current.Next(domain.ActionCancel); err != nil {
		return err
	}

	return domain.ErrAlreadyCancelled
}

// Ticket returns the QR image of a registration's ticket. The participant and
// the event's organizer may fetch it.
func (s *RegistrationService) Ticket(ctx context.Context, viewer domain.User, registrationID uint) ([]byte, domain.Registration, error) {
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return nil, domain.Registration{}, fmt.Errorf("s.regs.FindByID -> %w", err)
	}

	if !reg.OwnedBy(viewer.ID) {
		event, err := s.status.events.FindByID(ctx, reg.EventID)
		if err != nil {
			return nil, domain.Registration{}, fmt.Errorf("s.events.FindByID -> %w", err)
		}
		if !event.OwnedBy(viewer.ID) {
			return nil, domain.Registration{}, domain.ErrNotRegistrationOwner
		}
	}
	if reg.TicketID == "" {
		return nil, domain.Registration{}, domain.ErrTicketNotFound
	}

	png, err := s.renderer.Render(reg.Payload())
	if err != nil {
		return nil, domain.Registration{}, fmt.Errorf("s.renderer.Render -> %w: %w", domain.ErrDependency, err)
	}

	return png, reg, nil
}

// MyRegistrations groups a participant's entries the way the dashboard shows
// them.
type MyRegistrations struct {
	Upcoming  []domain.RegistrationWithEvent `json:"upcoming"`
	Completed []domain.RegistrationWithEvent `json:"completed"`
	Cancelled []domain.RegistrationWithEvent `json:"cancelled"`
}

func (s *RegistrationService) ListMine(ctx context.Context, participantID uint) (MyRegistrations, error) {
	regs, err := s.regs.FindByParticipant(ctx, participantID)
	if err != nil {
		return MyRegistrations{}, fmt.Errorf("s.regs.FindByParticipant -> %w", err)
	}

	out := MyRegistrations{
		Upcoming:  []domain.RegistrationWithEvent{},
		Completed: []domain.RegistrationWithEvent{},
		Cancelled: []domain.RegistrationWithEvent{},
	}
	events := make(map[uint]domain.Event)
	for _, reg := range regs {
		event, ok := events[reg.EventID]
		if !ok {
			event, err = s.status.load(ctx, reg.EventID)
			if err != nil {
				return MyRegistrations{}, err
			}
			events[reg.EventID] = event
		}

		entry := domain.RegistrationWithEvent{Registration: reg, Event: event}
		switch {
		case reg.Status == domain.RegistrationCancelled || reg.Status == domain.RegistrationRejected:
			out.Cancelled = append(out.Cancelled, entry)
		case event.Status == domain.StatusCompleted:
			out.Completed = append(out.Completed, entry)
		default:
			out.Upcoming = append(out.Upcoming, entry)
		}
	}

	return out, nil
}

// ListForEvent is the organizer's view of an event's registrations,
// optionally narrowed to one payment status.
func (s *RegistrationService) ListForEvent(ctx context.Context, organizerID, eventID uint, payment domain.PaymentStatus) ([]domain.Registration, error) {
	event, err := s.status.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.OwnedBy(organizerID) {
		return nil, domain.ErrNotEventOwner
	}

	regs, err := s.regs.FindByEvent(ctx, eventID, payment)
	if err != nil {
		return nil, fmt.Errorf("s.regs.FindByEvent -> %w", err)
	}

	return regs, nil
}

// sendTicket renders the QR code and hands it to the notifier. Neither step
// can fail the workflow that already committed.
func (s *RegistrationService) sendTicket(ctx context.Context, reg domain.Registration, event domain.Event, kind domain.NotificationKind) {
	sendTicket(ctx, s.renderer, s.notifier, reg, event, kind)
}

func sendTicket(ctx context.Context, renderer TicketRenderer, notifier Notifier, reg domain.Registration, event domain.Event, kind domain.NotificationKind) {
	data := map[string]any{
		"event_id":   event.ID,
		"event_name": event.Name,
		"start_date": event.StartDate.Format(time.RFC3339),
		"ticket_id":  reg.TicketID,
	}
	if reg.Variant != nil {
		data["variant"] = reg.Variant.String()
	}

	png, err := renderer.Render(reg.Payload())
	if err != nil {
		logDependency(string(kind), reg.ID, fmt.Errorf("renderer.Render -> %w", err))
	} else {
		data["qr_png"] = png
	}

	notifier.Notify(context.WithoutCancel(ctx), reg.ParticipantID, kind, data)
}
