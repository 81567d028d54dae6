package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/request"
	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/response"
	"github.com/nityanand123gupta/felicity-event-management/internal/api/middleware"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

type AttendanceService interface {
	Scan(ctx context.Context, organizerID, eventID uint, ticketID string) (domain.Registration, error)
	MarkManually(ctx context.Context, organizerID, eventID, registrationID uint, note string) (domain.Registration, error)
}

type AttendanceHandler struct {
	svc AttendanceService
}

func NewAttendanceHandler(svc AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		svc: svc,
	}
}

// HandleScan godoc
// @Summary      Mark attendance from a scanned ticket
// @Description  A ticket is redeemed at most once; repeated scans return 409.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                  true  "Event ID"
// @Param        input    body      request.ScanRequest  true  "Scanned ticket"
// @Success      200      {object}  domain.Registration
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Router       /events/{eventID}/attendance/scan [post]
// @Security     BearerAuth
func (h *AttendanceHandler) HandleScan(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.Scan(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID, req.TicketID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleScan -> h.svc.Scan -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleManualAttendance godoc
// @Summary      Mark attendance manually
// @Description  Override for participants who cannot present their QR code. The note is kept for audit.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                              true  "Event ID"
// @Param        input    body      request.ManualAttendanceRequest  true  "Registration and audit note"
// @Success      200      {object}  domain.Registration
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Router       /events/{eventID}/attendance/manual [post]
// @Security     BearerAuth
func (h *AttendanceHandler) HandleManualAttendance(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ManualAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.MarkManually(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID, req.RegistrationID, req.Note)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleManualAttendance -> h.svc.MarkManually -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}
