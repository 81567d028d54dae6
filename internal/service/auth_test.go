package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

func TestAuthService_SignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.signup(t, "alice@fest.test", domain.RoleParticipant)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret123", user.Password)

	got, err := env.auth.Login(ctx, "alice@fest.test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.auth.Login(ctx, "alice@fest.test", "wrong-pass1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = env.auth.Login(ctx, "nobody@fest.test", "secret123")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = env.auth.Signup(ctx, domain.User{Email: "alice@fest.test", Password: "secret123", Name: "dup", Role: domain.RoleParticipant})
	assert.ErrorIs(t, err, ErrUserEmailExists)

	_, err = env.auth.Signup(ctx, domain.User{Email: "root@fest.test", Password: "secret123", Name: "root", Role: domain.RoleAdmin})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.EnsureAdmin(ctx, "admin@fest.test", "")
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	created, err := env.auth.EnsureAdmin(ctx, "admin@fest.test", "admin-pass1")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := env.auth.Login(ctx, "admin@fest.test", "admin-pass1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	// a second boot leaves the existing admin alone
	created, err = env.auth.EnsureAdmin(ctx, "other@fest.test", "")
	require.NoError(t, err)
	assert.False(t, created)

	count, err := env.users.CountByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuthService_EnsureAdminEmailTaken(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "admin@fest.test", domain.RoleOrganizer)

	_, err := env.auth.EnsureAdmin(context.Background(), "admin@fest.test", "admin-pass1")
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.signup(t, "org@fest.test", domain.RoleOrganizer)
	alice := env.signup(t, "alice@fest.test", domain.RoleParticipant)

	hook := "https://discord.test/api/webhooks/1/abc"
	updated, err := env.user.UpdateProfile(ctx, organizer.ID, nil, &hook)
	require.NoError(t, err)
	assert.Equal(t, hook, updated.DiscordWebhook)
	assert.Equal(t, organizer.Name, updated.Name)

	renamed, err := env.user.UpdateProfile(ctx, organizer.ID, ptr("Tech Club"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Tech Club", renamed.Name)
	assert.Equal(t, hook, renamed.DiscordWebhook)

	_, err = env.user.UpdateProfile(ctx, organizer.ID, ptr(" "), nil)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = env.user.UpdateProfile(ctx, alice.ID, nil, &hook)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = env.user.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
