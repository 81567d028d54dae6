package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository/dao"
	"github.com/nityanand123gupta/felicity-event-management/internal/ticket"
)

func TestRegistrationService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, normalEvent(5))

	reg, err := env.registration.Register(ctx, alice.ID, event.ID, teamAnswer)
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationRegistered, reg.Status)
	assert.Equal(t, domain.PaymentNotRequired, reg.PaymentStatus)
	assert.Contains(t, reg.TicketID, ticket.DefaultPrefix)
	assert.Equal(t, 1, env.reload(t, event.ID).TotalRegistrations)

	// publish notification, then the ticket
	require.Equal(t, []domain.NotificationKind{domain.NotifyEventPublished, domain.NotifyRegistrationConfirmed}, env.notifier.kinds())
	confirmation := env.notifier.sent[1]
	assert.Equal(t, alice.ID, confirmation.RecipientID)
	assert.Equal(t, reg.TicketID, confirmation.Data["ticket_id"])
	assert.Equal(t, []byte("png"), confirmation.Data["qr_png"])
	assert.Equal(t, 1, env.rec.outcomes["register/ok"])

	_, err = env.registration.Register(ctx, alice.ID, event.ID, teamAnswer)
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Equal(t, 1, env.reload(t, event.ID).TotalRegistrations)
}

func TestRegistrationService_RegisterRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)

	draft, err := env.event.Create(ctx, organizer.ID, normalEvent(5))
	require.NoError(t, err)
	open := env.publishedEvent(t, organizer, normalEvent(5))
	merch := env.publishedEvent(t, organizer, merchEvent(5, 1, domain.Variant{Size: "M", Color: "black", Stock: 1}))

	_, err = env.registration.Register(ctx, alice.ID, draft.ID, teamAnswer)
	assert.ErrorIs(t, err, domain.ErrEventNotOpen)

	_, err = env.registration.Register(ctx, alice.ID, merch.ID, teamAnswer)
	assert.ErrorIs(t, err, domain.ErrWrongEventType)

	_, err = env.registration.Register(ctx, alice.ID, open.ID, domain.FormResponses{})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = env.registration.Register(ctx, alice.ID, 9999, teamAnswer)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	env.clock.Set(fixtureDeadline.Add(time.Second))
	_, err = env.registration.Register(ctx, alice.ID, open.ID, teamAnswer)
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)

	assert.Equal(t, 0, env.reload(t, open.ID).TotalRegistrations)
}

func TestRegistrationService_ConcurrentLastSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	bob := env.signup(t, "bob@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, normalEvent(1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range []domain.User{alice, bob} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.registration.Register(ctx, p.ID, event.ID, teamAnswer)
		}()
	}
	wg.Wait()

	var won, denied int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case domain.KindOf(err) == domain.KindCapacityExceeded:
			denied++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, denied)
	assert.Equal(t, 1, env.reload(t, event.ID).TotalRegistrations)
	assert.Equal(t, 1, env.rec.denied["registration_limit"])

	regs, err := env.regs.FindByEvent(ctx, event.ID, "")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.NotEmpty(t, regs[0].TicketID)
}

func TestRegistrationService_NeverOverbooks(t *testing.T) {
	const (
		limit      = 3
		contenders = 12
	)

	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	event := env.publishedEvent(t, organizer, normalEvent(limit))

	participants := make([]domain.User, contenders)
	for i := range participants {
		participants[i] = env.signup(t, fmt.Sprintf("p%d@fest.test", i), domain.RoleParticipant)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for _, p := range participants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.registration.Register(ctx, p.ID, event.ID, teamAnswer); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, won)
	assert.Equal(t, limit, env.reload(t, event.ID).TotalRegistrations)

	count, err := env.regs.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, limit, count)
}

func TestRegistrationService_Cancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	bob := env.signup(t, "bob@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, normalEvent(1))

	reg, err := env.registration.Register(ctx, alice.ID, event.ID, teamAnswer)
	require.NoError(t, err)
	require.Equal(t, 1, env.reload(t, event.ID).TotalRegistrations)

	_, err = env.registration.Cancel(ctx, bob.ID, reg.ID)
	assert.ErrorIs(t, err, domain.ErrNotRegistrationOwner)

	cancelled, err := env.registration.Cancel(ctx, alice.ID, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationCancelled, cancelled.Status)
	assert.Equal(t, 0, env.reload(t, event.ID).TotalRegistrations)

	_, err = env.registration.Cancel(ctx, alice.ID, reg.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, 0, env.reload(t, event.ID).TotalRegistrations)

	// the freed slot is available again
	_, err = env.registration.Register(ctx, bob.ID, event.ID, teamAnswer)
	require.NoError(t, err)
	assert.Equal(t, 1, env.reload(t, event.ID).TotalRegistrations)
}

func TestRegistrationService_CancelAfterStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, normalEvent(5))

	reg, err := env.registration.Register(ctx, alice.ID, event.ID, teamAnswer)
	require.NoError(t, err)

	env.clock.Set(fixtureStart)
	_, err = env.registration.Cancel(ctx, alice.ID, reg.ID)
	assert.ErrorIs(t, err, domain.ErrEventStarted)
	assert.Equal(t, 1, env.reload(t, event.ID).TotalRegistrations)
}

func TestRegistrationService_Ticket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	bob := env.signup(t, "bob@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, normalEvent(5))

	reg, err := env.registration.Register(ctx, alice.ID, event.ID, teamAnswer)
	require.NoError(t, err)

	png, got, err := env.registration.Ticket(ctx, alice, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), png)
	assert.Equal(t, reg.TicketID, got.TicketID)

	_, _, err = env.registration.Ticket(ctx, organizer, reg.ID)
	assert.NoError(t, err)

	_, _, err = env.registration.Ticket(ctx, bob, reg.ID)
	assert.ErrorIs(t, err, domain.ErrNotRegistrationOwner)
}

func TestRegistrationService_ListMine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	first := env.publishedEvent(t, organizer, normalEvent(5))
	second := env.publishedEvent(t, organizer, normalEvent(5))

	_, err := env.registration.Register(ctx, alice.ID, first.ID, teamAnswer)
	require.NoError(t, err)
	dropped, err := env.registration.Register(ctx, alice.ID, second.ID, teamAnswer)
	require.NoError(t, err)
	_, err = env.registration.Cancel(ctx, alice.ID, dropped.ID)
	require.NoError(t, err)

	mine, err := env.registration.ListMine(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine.Upcoming, 1)
	assert.Len(t, mine.Cancelled, 1)
	assert.Empty(t, mine.Completed)

	env.clock.Set(fixtureEnd.Add(time.Second))
	mine, err = env.registration.ListMine(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine.Completed, 1)
	assert.Equal(t, domain.StatusCompleted, mine.Completed[0].Event.Status)
}

func TestRegistrationService_ListForEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	other := env.signup(t, "other@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, normalEvent(5))

	_, err := env.registration.Register(ctx, alice.ID, event.ID, teamAnswer)
	require.NoError(t, err)

	regs, err := env.registration.ListForEvent(ctx, organizer.ID, event.ID, "")
	require.NoError(t, err)
	assert.Len(t, regs, 1)

	regs, err = env.registration.ListForEvent(ctx, organizer.ID, event.ID, domain.PaymentPending)
	require.NoError(t, err)
	assert.Empty(t, regs)

	_, err = env.registration.ListForEvent(ctx, other.ID, event.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotEventOwner)
}

func TestRegistrationService_RefusedRegisterKeepsDerivedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, normalEvent(5))

	env.clock.Set(fixtureStart.Add(time.Minute))
	_, err := env.registration.Register(ctx, alice.ID, event.ID, teamAnswer)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	assert.Equal(t, domain.StatusOngoing, env.reload(t, event.ID).Status)
}

// approvedMeanwhile approves an order right before a cancel writes, as an
// organizer approving at the same moment would.
type approvedMeanwhile struct {
	RegistrationStore
}

func (s approvedMeanwhile) Transition(ctx context.Context, id uint, from, to domain.RegistrationState, ticketID string) error {
	if to.Status == domain.RegistrationCancelled {
		approved := domain.RegistrationState{Status: domain.RegistrationRegistered, Payment: domain.PaymentApproved}
		if err := s.RegistrationStore.Transition(ctx, id, from, approved, "TICKET-APPROVED"); err != nil {
			return err
		}
	}

	return s.RegistrationStore.Transition(ctx, id, from, to, ticketID)
}

func TestRegistrationService_CancelLosingToApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1, domain.Variant{Size: "M", Color: "black", Stock: 5}))

	order, err := env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	require.NoError(t, err)

	svc := NewRegistrationService(dao.NewTransactor(env.db), env.events, approvedMeanwhile{env.regs}, env.ledger,
		ticket.NewIssuer(ticket.DefaultPrefix), stubRenderer{}, env.notifier, env.rec, env.clock)

	_, err = svc.Cancel(ctx, alice.ID, order.ID)
	assert.ErrorIs(t, err, domain.ErrApprovedNotCancellable)
}
