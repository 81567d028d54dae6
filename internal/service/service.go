package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers a templated message. It never reports failure to the
// caller; implementations log what they could not send.
type Notifier interface {
	Notify(ctx context.Context, recipientID uint, kind domain.NotificationKind, data map[string]any)
}

type TicketIssuer interface {
	NewTicketID() string
}

type TicketRenderer interface {
	Render(payload domain.TicketPayload) ([]byte, error)
}

// FileStore keeps uploaded payment proofs and returns a retrievable reference.
type FileStore interface {
	Save(ctx context.Context, name string, body io.Reader) (string, error)
}

type AttendanceFeed interface {
	Publish(mark domain.AttendanceMark)
}

// Recorder counts workflow outcomes.
type Recorder interface {
	Workflow(workflow string, err error)
	CapacityDenied(counter string)
}

type nopRecorder struct{}

func (nopRecorder) Workflow(string, error) {}
func (nopRecorder) CapacityDenied(string)  {}

type nopFeed struct{}

func (nopFeed) Publish(domain.AttendanceMark) {}

type EventStore interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindByIDForUpdate(ctx context.Context, id uint) (domain.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) (bool, error)
}

type Ledger interface {
	TryReserve(ctx context.Context, eventID uint) error
	Release(ctx context.Context, eventID uint) (bool, error)
	CommitStock(ctx context.Context, eventID uint, key domain.VariantKey) error
}

// statusKeeper loads events and writes back their derived status, so the
// stored value never lags the clock by more than one access.
type statusKeeper struct {
	events EventStore
	clock  domain.Clock
}

func (k statusKeeper) load(ctx context.Context, id uint) (domain.Event, error) {
	event, err := k.events.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("k.events.FindByID -> %w", err)
	}
	if err = k.refresh(ctx, &event); err != nil {
		return domain.Event{}, err
	}

	return event, nil
}

// loadForUpdate is load with the event row locked for the transaction.
func (k statusKeeper) loadForUpdate(ctx context.Context, id uint) (domain.Event, error) {
	event, err := k.events.FindByIDForUpdate(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("k.events.FindByIDForUpdate -> %w", err)
	}
	if err = k.refresh(ctx, &event); err != nil {
		return domain.Event{}, err
	}

	return event, nil
}

func (k statusKeeper) refresh(ctx context.Context, event *domain.Event) error {
	previous := event.Status
	if !event.Refresh(k.clock.Now()) {
		return nil
	}

	if _, err := k.events.UpdateStatus(ctx, event.ID, previous, event.Status); err != nil {
		return fmt.Errorf("k.events.UpdateStatus -> %w", err)
	}

	return nil
}

// sync persists an event's derived status ahead of a workflow transaction, so
// a workflow that later fails cannot roll the new status back. Failures are
// left for the transaction to report.
func (k statusKeeper) sync(ctx context.Context, id uint) {
	_, err := k.load(ctx, id)
	if err != nil && domain.KindOf(err) != domain.KindNotFound {
		zap.L().Warn("status refresh failed", zap.Uint("event_id", id), zap.Error(err))
	}
}

// syncRegistration is sync for the event a registration belongs to.
func (k statusKeeper) syncRegistration(ctx context.Context, regs RegistrationStore, registrationID uint) {
	reg, err := regs.FindByID(ctx, registrationID)
	if err != nil {
		return
	}
	k.sync(ctx, reg.EventID)
}

func (k statusKeeper) refreshAll(ctx context.Context, events []domain.Event) error {
	for i := range events {
		if err := k.refresh(ctx, &events[i]); err != nil {
			return err
		}
	}

	return nil
}

// capacityErr records ledger denials before handing the error back.
func capacityErr(rec Recorder, counter string, err error) error {
	if domain.KindOf(err) == domain.KindCapacityExceeded {
		rec.CapacityDenied(counter)
	}

	return err
}

func logDependency(workflow string, registrationID uint, err error) {
	zap.L().Warn("dependency failed",
		zap.String("workflow", workflow),
		zap.Uint("registration_id", registrationID),
		zap.Error(err),
	)
}
