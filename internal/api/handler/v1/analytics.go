package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/response"
	"github.com/nityanand123gupta/felicity-event-management/internal/api/middleware"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

type AnalyticsService interface {
	Event(ctx context.Context, organizerID, eventID uint) (domain.EventAnalytics, error)
	Organizer(ctx context.Context, organizerID uint) (domain.OrganizerDashboard, error)
	Platform(ctx context.Context) (domain.PlatformAnalytics, error)
}

type AnalyticsHandler struct {
	svc AnalyticsService
}

func NewAnalyticsHandler(svc AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		svc: svc,
	}
}

// HandleEventAnalytics godoc
// @Summary      Per-event analytics
// @Tags         analytics
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.EventAnalytics
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/analytics [get]
// @Security     BearerAuth
func (h *AnalyticsHandler) HandleEventAnalytics(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	stats, err := h.svc.Event(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleEventAnalytics -> h.svc.Event -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleOrganizerDashboard godoc
// @Summary      Organizer dashboard
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  domain.OrganizerDashboard
// @Failure      403  {object}  response.Err
// @Router       /organizer/dashboard [get]
// @Security     BearerAuth
func (h *AnalyticsHandler) HandleOrganizerDashboard(ctx *gin.Context) {
	dashboard, err := h.svc.Organizer(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID))
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleOrganizerDashboard -> h.svc.Organizer -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}

// HandlePlatformAnalytics godoc
// @Summary      Platform-wide analytics
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  domain.PlatformAnalytics
// @Failure      403  {object}  response.Err
// @Router       /admin/analytics [get]
// @Security     BearerAuth
func (h *AnalyticsHandler) HandlePlatformAnalytics(ctx *gin.Context) {
	stats, err := h.svc.Platform(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandlePlatformAnalytics -> h.svc.Platform -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
