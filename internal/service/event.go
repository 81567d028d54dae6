package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
)

type EventRepository interface {
	EventStore
	Find(ctx context.Context, query repository.EventQuery) ([]domain.Event, error)
	Save(ctx context.Context, event domain.Event, replaceVariants bool) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type RegistrationCounter interface {
	CountByEvent(ctx context.Context, eventID uint) (int, error)
	TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error)
}

const (
	trendingWindow = 24 * time.Hour
	trendingLimit  = 5
)

var visibleStatuses = []domain.EventStatus{
	domain.StatusPublished,
	domain.StatusOngoing,
	domain.StatusCompleted,
}

type EventService struct {
	tx       Transactor
	events   EventRepository
	regs     RegistrationCounter
	status   statusKeeper
	notifier Notifier
	clock    domain.Clock
}

func NewEventService(tx Transactor, events EventRepository, regs RegistrationCounter, notifier Notifier, clock domain.Clock) *EventService {
	return &EventService{
		tx:       tx,
		events:   events,
		regs:     regs,
		status:   statusKeeper{events: events, clock: clock},
		notifier: notifier,
		clock:    clock,
	}
}

// EventPatch carries the fields an organizer asked to change. Nil means
// "leave as is".
type EventPatch struct {
	Name                 *string
	Description          *string
	Eligibility          *string
	RegistrationDeadline *time.Time
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationLimit    *int
	RegistrationFee      *int
	Tags                 []string
	FormFields           []domain.FormField
	Merchandise          *domain.MerchandiseDetails
	Status               *domain.EventStatus
}

// Create stores a new draft event owned by organizerID.
func (s *EventService) Create(ctx context.Context, organizerID uint, event domain.Event) (domain.Event, error) {
	event.ID = 0
	event.OrganizerID = organizerID
	event.Status = domain.StatusDraft
	event.TotalRegistrations = 0
	event.Tags = domain.NormalizeTags(event.Tags)

	switch event.Type {
	case domain.EventTypeNormal:
		event.Merchandise = domain.MerchandiseDetails{}
	case domain.EventTypeMerchandise:
		event.FormFields = nil
		if event.Merchandise.PurchaseLimitPerUser == 0 {
			event.Merchandise.PurchaseLimitPerUser = 1
		}
	}

	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	created, err := s.events.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.Create -> %w", err)
	}

	return created, nil
}

// Publish opens a draft event for registration and announces it.
func (s *EventService) Publish(ctx context.Context, organizerID, eventID uint) (domain.Event, error) {
	var event domain.Event

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.FindByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("s.events.FindByID -> %w", err)
		}
		if !event.OwnedBy(organizerID) {
			return domain.ErrNotEventOwner
		}
		if event.Status != domain.StatusDraft {
			return domain.ErrEventNotDraft
		}

		moved, err := s.events.UpdateStatus(ctx, event.ID, domain.StatusDraft, domain.StatusPublished)
		if err != nil {
			return fmt.Errorf("s.events.UpdateStatus -> %w", err)
		}
		if !moved {
			return domain.ErrEventNotDraft
		}
		event.Status = domain.StatusPublished

		// An event published after its start date goes straight to ongoing.
		return s.status.refresh(ctx, &event)
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.notifier.Notify(context.WithoutCancel(ctx), event.OrganizerID, domain.NotifyEventPublished, map[string]any{
		"event_id":              event.ID,
		"event_name":            event.Name,
		"description":           event.Description,
		"start_date":            event.StartDate.Format(time.RFC3339),
		"registration_deadline": event.RegistrationDeadline.Format(time.RFC3339),
		"registration_fee":      event.RegistrationFee,
	})

	return event, nil
}

// Update applies patch under the rules of the event's current status.
func (s *EventService) Update(ctx context.Context, organizerID, eventID uint, patch EventPatch) (domain.Event, error) {
	var event domain.Event

	s.status.sync(ctx, eventID)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.status.loadForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.OwnedBy(organizerID) {
			return domain.ErrNotEventOwner
		}

		var replaceVariants bool
		switch event.Status {
		case domain.StatusDraft:
			replaceVariants, err = applyDraftPatch(&event, patch)
		case domain.StatusPublished:
			err = applyPublishedPatch(&event, patch)
		case domain.StatusOngoing:
			err = applyOngoingPatch(&event, patch)
		default:
			err = domain.ErrEventCompleted
		}
		if err != nil {
			return err
		}

		if err = s.events.Save(ctx, event, replaceVariants); err != nil {
			return fmt.Errorf("s.events.Save -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	if patch.Status != nil && *patch.Status == domain.StatusPublished {
		s.notifier.Notify(context.WithoutCancel(ctx), event.OrganizerID, domain.NotifyEventPublished, map[string]any{
			"event_id":   event.ID,
			"event_name": event.Name,
		})
	}

	return event, nil
}

func applyDraftPatch(event *domain.Event, patch EventPatch) (bool, error) {
	if (patch.FormFields != nil || patch.Merchandise != nil) && event.FormLocked() {
		return false, domain.ErrFormLocked
	}

	if patch.Name != nil {
		event.Name = *patch.Name
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Eligibility != nil {
		event.Eligibility = *patch.Eligibility
	}
	if patch.RegistrationDeadline != nil {
		event.RegistrationDeadline = *patch.RegistrationDeadline
	}
	if patch.StartDate != nil {
		event.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		event.EndDate = *patch.EndDate
	}
	if patch.RegistrationLimit != nil {
		event.RegistrationLimit = *patch.RegistrationLimit
	}
	if patch.RegistrationFee != nil {
		event.RegistrationFee = *patch.RegistrationFee
	}
	if patch.Tags != nil {
		event.Tags = domain.NormalizeTags(patch.Tags)
	}
	if patch.FormFields != nil && event.Type == domain.EventTypeNormal {
		event.FormFields = patch.FormFields
	}

	replaceVariants := false
	if patch.Merchandise != nil && event.Type == domain.EventTypeMerchandise {
		event.Merchandise = *patch.Merchandise
		if event.Merchandise.PurchaseLimitPerUser == 0 {
			event.Merchandise.PurchaseLimitPerUser = 1
		}
		replaceVariants = true
	}

	if patch.Status != nil && *patch.Status != event.Status {
		if !domain.CanTransition(event.Status, *patch.Status) {
			return false, domain.ErrInvalidStatusTransition
		}
		event.Status = *patch.Status
	}

	return replaceVariants, event.Validate()
}

func applyPublishedPatch(event *domain.Event, patch EventPatch) error {
	if patch.Name != nil || patch.Eligibility != nil || patch.StartDate != nil || patch.EndDate != nil ||
		patch.RegistrationFee != nil || patch.Tags != nil || patch.FormFields != nil || patch.Merchandise != nil {
		return domain.ErrPublishedEdit
	}

	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.RegistrationDeadline != nil {
		if !patch.RegistrationDeadline.After(event.RegistrationDeadline) {
			return domain.ErrDeadlineNotExtended
		}
		if !patch.RegistrationDeadline.Before(event.StartDate) {
			return domain.Invalid("deadline must be before event start")
		}
		event.RegistrationDeadline = *patch.RegistrationDeadline
	}
	if patch.RegistrationLimit != nil {
		if *patch.RegistrationLimit <= event.RegistrationLimit {
			return domain.ErrLimitNotIncreased
		}
		event.RegistrationLimit = *patch.RegistrationLimit
	}

	return applyStatusPatch(event, patch)
}

func applyOngoingPatch(event *domain.Event, patch EventPatch) error {
	if patch.Name != nil || patch.Description != nil || patch.Eligibility != nil ||
		patch.RegistrationDeadline != nil || patch.StartDate != nil || patch.EndDate != nil ||
		patch.RegistrationLimit != nil || patch.RegistrationFee != nil || patch.Tags != nil ||
		patch.FormFields != nil || patch.Merchandise != nil || patch.Status == nil {
		return domain.ErrEventOngoingEdit
	}

	return applyStatusPatch(event, patch)
}

// applyStatusPatch allows the manual close of a running event.
func applyStatusPatch(event *domain.Event, patch EventPatch) error {
	if patch.Status == nil || *patch.Status == event.Status {
		return nil
	}
	if *patch.Status != domain.StatusCompleted || !domain.CanTransition(event.Status, *patch.Status) {
		return domain.ErrInvalidStatusTransition
	}
	event.Status = domain.StatusCompleted

	return nil
}

// Delete removes a draft event that has never been registered for.
func (s *EventService) Delete(ctx context.Context, organizerID, eventID uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		event, err := s.events.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("s.events.FindByIDForUpdate -> %w", err)
		}
		if !event.OwnedBy(organizerID) {
			return domain.ErrNotEventOwner
		}
		if event.Status != domain.StatusDraft {
			return domain.ErrEventNotDraft
		}

		count, err := s.regs.CountByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("s.regs.CountByEvent -> %w", err)
		}
		if count > 0 || event.TotalRegistrations > 0 {
			return domain.ErrEventHasRegistrations
		}

		deleted, err := s.events.Delete(ctx, eventID)
		if err != nil {
			return fmt.Errorf("s.events.Delete -> %w", err)
		}
		if !deleted {
			return domain.ErrEventNotDraft
		}

		return nil
	})
}

// Get returns an event with its status brought up to date. Drafts are only
// visible to their organizer.
func (s *EventService) Get(ctx context.Context, viewer domain.User, eventID uint) (domain.Event, error) {
	event, err := s.status.load(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if !event.Status.Visible() && !event.OwnedBy(viewer.ID) && !viewer.Is(domain.RoleAdmin) {
		return domain.Event{}, domain.ErrEventNotFound
	}

	return event, nil
}

// EventListQuery narrows the public listing. Search matches the event name or
// the organizer name. StartFrom and StartTo bound the start date inclusively.
// Trending keeps only the busiest events of the last day, busiest first.
type EventListQuery struct {
	Type        domain.EventType
	Search      string
	Tag         string
	Eligibility string
	StartFrom   time.Time
	StartTo     time.Time
	Trending    bool
}

// List browses visible events.
func (s *EventService) List(ctx context.Context, q EventListQuery) ([]domain.Event, error) {
	if !q.StartFrom.IsZero() && !q.StartTo.IsZero() && q.StartTo.Before(q.StartFrom) {
		return nil, domain.Invalid("start range ends before it begins")
	}

	query := repository.EventQuery{
		Statuses:    visibleStatuses,
		Type:        q.Type,
		Search:      q.Search,
		Tag:         q.Tag,
		Eligibility: q.Eligibility,
		StartFrom:   q.StartFrom,
		StartTo:     q.StartTo,
	}

	var rank map[uint]int
	if q.Trending {
		ids, err := s.regs.TrendingEventIDs(ctx, s.clock.Now().Add(-trendingWindow), trendingLimit)
		if err != nil {
			return nil, fmt.Errorf("s.regs.TrendingEventIDs -> %w", err)
		}
		if len(ids) == 0 {
			return []domain.Event{}, nil
		}
		query.IDs = ids
		rank = make(map[uint]int, len(ids))
		for i, id := range ids {
			rank[id] = i
		}
	}

	events, err := s.events.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("s.events.Find -> %w", err)
	}
	if err = s.status.refreshAll(ctx, events); err != nil {
		return nil, err
	}
	if rank != nil {
		sort.SliceStable(events, func(i, j int) bool {
			return rank[events[i].ID] < rank[events[j].ID]
		})
	}

	return events, nil
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	events, err := s.events.Find(ctx, repository.EventQuery{OrganizerID: organizerID})
	if err != nil {
		return nil, fmt.Errorf("s.events.Find -> %w", err)
	}
	if err = s.status.refreshAll(ctx, events); err != nil {
		return nil, err
	}

	return events, nil
}
