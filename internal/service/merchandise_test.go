package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

var blackM = domain.VariantKey{Size: "M", Color: "black"}

func proof() Upload {
	return Upload{Filename: "receipt.png", Body: strings.NewReader("image-bytes")}
}

func TestMerchandiseService_PlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1, domain.Variant{Size: "M", Color: "black", Stock: 5}))

	order, err := env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationRegistered, order.Status)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.Empty(t, order.TicketID)
	require.NotNil(t, order.Variant)
	assert.Equal(t, blackM, *order.Variant)
	assert.True(t, strings.HasPrefix(order.PaymentProofURL, "https://files.test/"))

	// pending orders take neither a slot nor stock
	assert.Equal(t, 0, env.reload(t, event.ID).TotalRegistrations)
	stock, err := env.ledger.Stock(ctx, event.ID, blackM)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	assert.Contains(t, env.notifier.kinds(), domain.NotifyOrderPlaced)
}

func TestMerchandiseService_PlaceOrderRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1,
		domain.Variant{Size: "M", Color: "black", Stock: 5},
		domain.Variant{Size: "L", Color: "black", Stock: 0},
	))
	normal := env.publishedEvent(t, organizer, normalEvent(5))

	_, err := env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, domain.VariantKey{Size: "M"}, proof())
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, Upload{Filename: "x.png"})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, normal.ID, blackM, proof())
	assert.ErrorIs(t, err, domain.ErrWrongEventType)

	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, domain.VariantKey{Size: "S", Color: "red"}, proof())
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)

	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, domain.VariantKey{Size: "L", Color: "black"}, proof())
	assert.ErrorIs(t, err, domain.ErrVariantSoldOut)
	assert.Equal(t, 1, env.rec.denied["variant_stock"])

	env.files.err = errBoom
	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	assert.Equal(t, domain.KindDependencyFailure, domain.KindOf(err))
}

func TestMerchandiseService_PurchaseLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, merchEvent(10, 2, domain.Variant{Size: "M", Color: "black", Stock: 5}))

	first, err := env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	require.NoError(t, err)
	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	require.NoError(t, err)

	// pending orders count toward the limit
	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	assert.ErrorIs(t, err, domain.ErrPurchaseLimitHit)
	assert.Equal(t, domain.KindCapacityExceeded, domain.KindOf(err))
	assert.Equal(t, 1, env.rec.denied["purchase_limit"])

	// a rejected order frees its place
	_, err = env.merchandise.Reject(ctx, organizer.ID, first.ID)
	require.NoError(t, err)
	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	assert.NoError(t, err)
}

func TestMerchandiseService_ApproveUntilSoldOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1, domain.Variant{Size: "M", Color: "black", Stock: 2}))

	orders := make([]domain.Registration, 3)
	for i, email := range []string{"a@fest.test", "b@fest.test", "c@fest.test"} {
		buyer := env.signup(t, email, domain.RoleParticipant)
		order, err := env.merchandise.PlaceOrder(ctx, buyer.ID, event.ID, blackM, proof())
		require.NoError(t, err)
		orders[i] = order
	}

	for _, order := range orders[:2] {
		approved, err := env.merchandise.Approve(ctx, organizer.ID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentApproved, approved.PaymentStatus)
		assert.NotEmpty(t, approved.TicketID)
	}

	_, err := env.merchandise.Approve(ctx, organizer.ID, orders[2].ID)
	assert.ErrorIs(t, err, domain.ErrVariantSoldOut)
	assert.Equal(t, domain.KindCapacityExceeded, domain.KindOf(err))

	stock, err := env.ledger.Stock(ctx, event.ID, blackM)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
	assert.Equal(t, 2, env.reload(t, event.ID).TotalRegistrations)

	third, err := env.regs.FindByID(ctx, orders[2].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, third.PaymentStatus)
	assert.Empty(t, third.TicketID)

	rejected, err := env.merchandise.Reject(ctx, organizer.ID, orders[2].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationRejected, rejected.Status)
	assert.Equal(t, domain.PaymentRejected, rejected.PaymentStatus)
}

func TestMerchandiseService_ApproveRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	other := env.signup(t, "other@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1, domain.Variant{Size: "M", Color: "black", Stock: 3}))

	order, err := env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	require.NoError(t, err)

	_, err = env.merchandise.Approve(ctx, other.ID, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotEventOwner)

	_, err = env.merchandise.Approve(ctx, organizer.ID, order.ID)
	require.NoError(t, err)
	assert.Contains(t, env.notifier.kinds(), domain.NotifyOrderApproved)

	_, err = env.merchandise.Approve(ctx, organizer.ID, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderProcessed)
	_, err = env.merchandise.Reject(ctx, organizer.ID, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderProcessed)

	// approved orders are final
	_, err = env.registration.Cancel(ctx, alice.ID, order.ID)
	assert.ErrorIs(t, err, domain.ErrApprovedNotCancellable)

	assert.Equal(t, 1, env.reload(t, event.ID).TotalRegistrations)
	assert.Equal(t, 1, env.rec.outcomes["approve/ok"])
}

func TestMerchandiseService_CancelPendingOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1, domain.Variant{Size: "M", Color: "black", Stock: 3}))

	order, err := env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	require.NoError(t, err)

	cancelled, err := env.registration.Cancel(ctx, alice.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationCancelled, cancelled.Status)
	assert.Equal(t, domain.PaymentPending, cancelled.PaymentStatus)

	// nothing was reserved, so nothing is released
	assert.Equal(t, 0, env.reload(t, event.ID).TotalRegistrations)

	_, err = env.merchandise.Approve(ctx, organizer.ID, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderProcessed)
}

func TestMerchandiseService_RefusedOrderStoresNoProof(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	bob := env.signup(t, "bob@fest.test", domain.RoleParticipant)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1,
		domain.Variant{Size: "M", Color: "black", Stock: 5},
		domain.Variant{Size: "L", Color: "black", Stock: 0},
	))
	normal := env.publishedEvent(t, organizer, normalEvent(5))

	_, err := env.merchandise.PlaceOrder(ctx, bob.ID, 9999, blackM, proof())
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = env.merchandise.PlaceOrder(ctx, bob.ID, normal.ID, blackM, proof())
	assert.ErrorIs(t, err, domain.ErrWrongEventType)

	_, err = env.merchandise.PlaceOrder(ctx, bob.ID, event.ID, domain.VariantKey{Size: "L", Color: "black"}, proof())
	assert.ErrorIs(t, err, domain.ErrVariantSoldOut)

	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, blackM, proof())
	require.NoError(t, err)
	_, err = env.merchandise.PlaceOrder(ctx, alice.ID, event.ID, domain.VariantKey{Size: "L", Color: "black"}, proof())
	assert.Error(t, err)

	env.clock.Set(fixtureDeadline.Add(time.Minute))
	_, err = env.merchandise.PlaceOrder(ctx, bob.ID, event.ID, blackM, proof())
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)

	require.Len(t, env.files.saved, 1)
	assert.Contains(t, env.files.saved, fmt.Sprintf("event-%d/participant-%d-receipt.png", event.ID, alice.ID))
	assert.Equal(t, 1, env.rec.outcomes["order/ok"])
	assert.Equal(t, 1, env.rec.outcomes["order/not_found"])
}
