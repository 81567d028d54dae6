package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

func TestMetrics_Workflow(t *testing.T) {
	m := New()

	m.Workflow("register", nil)
	m.Workflow("register", fmt.Errorf("wrapped -> %w", domain.ErrCapacityExceeded))
	m.Workflow("register", errors.New("boom"))
	m.Workflow("register", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.workflows.WithLabelValues("register", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflows.WithLabelValues("register", "capacity_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflows.WithLabelValues("register", "internal")))
}

func TestMetrics_CapacityDenied(t *testing.T) {
	m := New()
	m.CapacityDenied("registration_limit")
	m.CapacityDenied("registration_limit")
	m.CapacityDenied("variant_stock")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.capacityDenials.WithLabelValues("registration_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.capacityDenials.WithLabelValues("variant_stock")))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/events/:eventID", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/12", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fest_http_request_duration_seconds_count{method="GET",route="/events/:eventID",status="204"} 1`)
}
