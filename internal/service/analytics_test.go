package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

func TestAnalyticsService_Event(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	other := env.signup(t, "other@fest.test", domain.RoleOrganizer)
	event := env.publishedEvent(t, organizer, merchEvent(10, 1, domain.Variant{Size: "M", Color: "black", Stock: 10}))

	var orders []domain.Registration
	for _, email := range []string{"a@fest.test", "b@fest.test", "c@fest.test", "d@fest.test"} {
		buyer := env.signup(t, email, domain.RoleParticipant)
		order, err := env.merchandise.PlaceOrder(ctx, buyer.ID, event.ID, blackM, proof())
		require.NoError(t, err)
		orders = append(orders, order)
	}
	_, err := env.merchandise.Approve(ctx, organizer.ID, orders[0].ID)
	require.NoError(t, err)
	_, err = env.merchandise.Approve(ctx, organizer.ID, orders[1].ID)
	require.NoError(t, err)
	_, err = env.merchandise.Reject(ctx, organizer.ID, orders[2].ID)
	require.NoError(t, err)

	env.clock.Set(fixtureStart.Add(time.Minute))
	_, err = env.attendance.MarkManually(ctx, organizer.ID, event.ID, orders[0].ID, "")
	require.NoError(t, err)

	stats, err := env.analytics.Event(ctx, organizer.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, stats.Status)
	assert.Equal(t, 3, stats.Registered)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Attended)
	assert.Equal(t, 500, stats.Revenue)
	assert.Equal(t, 33.33, stats.AttendanceRate)
	require.Len(t, stats.Participants, 4)
	assert.Equal(t, "a@fest.test", stats.Participants[0].Email)
	assert.True(t, stats.Participants[0].Attended)

	_, err = env.analytics.Event(ctx, other.ID, event.ID)
	assert.ErrorIs(t, err, domain.ErrNotEventOwner)
}

func TestAnalyticsService_OrganizerAndPlatform(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	bob := env.signup(t, "bob@fest.test", domain.RoleParticipant)

	hack := env.publishedEvent(t, organizer, normalEvent(5))
	talk := env.publishedEvent(t, organizer, normalEvent(5))
	shirt := env.publishedEvent(t, organizer, merchEvent(5, 1, domain.Variant{Size: "M", Color: "black", Stock: 5}))

	for _, p := range []domain.User{alice, bob} {
		_, err := env.registration.Register(ctx, p.ID, hack.ID, teamAnswer)
		require.NoError(t, err)
	}
	_, err := env.registration.Register(ctx, alice.ID, talk.ID, teamAnswer)
	require.NoError(t, err)
	order, err := env.merchandise.PlaceOrder(ctx, bob.ID, shirt.ID, blackM, proof())
	require.NoError(t, err)
	_, err = env.merchandise.Approve(ctx, organizer.ID, order.ID)
	require.NoError(t, err)

	dash, err := env.analytics.Organizer(ctx, organizer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, dash.TotalEvents)
	assert.Equal(t, 4, dash.TotalRegistered)
	assert.Equal(t, 250, dash.TotalRevenue)
	assert.Equal(t, 3, dash.Upcoming)
	assert.Zero(t, dash.Completed)
	require.NotNil(t, dash.TopEvent)
	assert.Equal(t, hack.ID, dash.TopEvent.ID)

	env.clock.Set(fixtureEnd.Add(time.Hour))
	dash, err = env.analytics.Organizer(ctx, organizer.ID)
	require.NoError(t, err)
	assert.Zero(t, dash.Upcoming)
	assert.Equal(t, 3, dash.Completed)

	platform, err := env.analytics.Platform(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, platform.TotalEvents)
	assert.Equal(t, 2, platform.TotalParticipants)
	assert.Equal(t, 4, platform.TotalRegistered)
	assert.Equal(t, 250, platform.TotalRevenue)
}
