package v1

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/response"
	"github.com/nityanand123gupta/felicity-event-management/internal/api/middleware"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

type ExportService interface {
	AttendanceCSV(ctx context.Context, organizerID, eventID uint) ([]byte, domain.Event, error)
	Calendar(ctx context.Context, participantID, eventID uint) ([]byte, domain.Event, error)
}

type ExportHandler struct {
	svc ExportService
}

func NewExportHandler(svc ExportService) *ExportHandler {
	return &ExportHandler{
		svc: svc,
	}
}

// HandleAttendanceExport godoc
// @Summary      Attendance report as CSV
// @Tags         exports
// @Produce      text/csv
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {file}    binary
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/attendance/export [get]
// @Security     BearerAuth
func (h *ExportHandler) HandleAttendanceExport(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	data, event, err := h.svc.AttendanceCSV(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleAttendanceExport -> h.svc.AttendanceCSV -> %w", err)))
		return
	}

	attach(ctx, filename(event, "attendance", "csv"), "text/csv", data)
}

// HandleCalendarExport godoc
// @Summary      Event as an iCalendar file
// @Description  Available to participants holding a registration for the event.
// @Tags         exports
// @Produce      text/calendar
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {file}    binary
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/calendar [get]
// @Security     BearerAuth
func (h *ExportHandler) HandleCalendarExport(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	data, event, err := h.svc.Calendar(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleCalendarExport -> h.svc.Calendar -> %w", err)))
		return
	}

	attach(ctx, filename(event, "event", "ics"), "text/calendar", data)
}

func filename(event domain.Event, suffix, ext string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(event.Name, "_"), "_")
	if base == "" {
		base = fmt.Sprintf("event_%d", event.ID)
	}

	return fmt.Sprintf("%s_%s.%s", base, suffix, ext)
}

func attach(ctx *gin.Context, name, contentType string, data []byte) {
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	ctx.Data(http.StatusOK, contentType, data)
}
