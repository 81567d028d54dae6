package jwthelper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

var key = []byte("test-signing-key")

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken(key, 42, domain.RoleOrganizer, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, domain.RoleOrganizer, claims.Role)
}

func TestParseToken_WrongKey(t *testing.T) {
	token, err := GenerateToken(key, 1, domain.RoleParticipant, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken(key, 1, domain.RoleParticipant, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(key, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken(key, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
