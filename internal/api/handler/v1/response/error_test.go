package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"invalid input", domain.Invalid("bad field"), http.StatusBadRequest, "bad field"},
		{"forbidden", domain.ErrNotEventOwner, http.StatusForbidden, domain.ErrNotEventOwner.Reason},
		{"not found", fmt.Errorf("s.repo.FindByID -> %w", domain.ErrEventNotFound), http.StatusNotFound, "event not found"},
		{"invalid state", domain.ErrDeadlinePassed, http.StatusUnprocessableEntity, "registration deadline passed"},
		{"capacity", domain.ErrCapacityExceeded, http.StatusConflict, "registration limit reached"},
		{"conflict", domain.ErrDuplicateScan, http.StatusConflict, "duplicate scan detected"},
		{"dependency", domain.ErrDependency, http.StatusBadGateway, "dependency unavailable"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromError(tt.err)
			assert.Equal(t, tt.status, e.HTTPStatusCode)
			assert.Equal(t, tt.reason, e.ErrorText)
		})
	}
}

func TestRenderErr(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RenderErr(ctx, FromError(domain.ErrVariantSoldOut))

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["status"])
	assert.Equal(t, "capacity_exceeded", body["kind"])
	assert.Equal(t, "selected variant is out of stock", body["error"])
}
