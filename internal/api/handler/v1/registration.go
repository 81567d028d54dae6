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
	"github.com/nityanand123gupta/felicity-event-management/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, participantID, eventID uint, responses domain.FormResponses) (domain.Registration, error)
	Cancel(ctx context.Context, participantID, registrationID uint) (domain.Registration, error)
	Ticket(ctx context.Context, viewer domain.User, registrationID uint) ([]byte, domain.Registration, error)
	ListMine(ctx context.Context, participantID uint) (service.MyRegistrations, error)
	ListForEvent(ctx context.Context, organizerID, eventID uint, payment domain.PaymentStatus) ([]domain.Registration, error)
}

type RegistrationHandler struct {
	svc  RegistrationService
	uSvc UserService
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService) *RegistrationHandler {
	return &RegistrationHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleRegister godoc
// @Summary      Register for a normal event
// @Description  Takes one slot of the registration limit and issues a ticket.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                      true  "Event ID"
// @Param        input    body      request.RegisterRequest  true  "Form responses keyed by field label"
// @Success      201      {object}  domain.Registration
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Router       /events/{eventID}/register [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.Register(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID, req.FormResponses)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}

// HandleCancel godoc
// @Summary      Cancel a registration or pending order
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int  true  "Registration ID"
// @Success      200             {object}  domain.Registration
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      422             {object}  response.Err
// @Router       /registrations/{registrationID}/cancel [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleCancel(ctx *gin.Context) {
	registrationID, respErr := uintParam(ctx, "registrationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	reg, err := h.svc.Cancel(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), registrationID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleCancel -> h.svc.Cancel -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleMyRegistrations godoc
// @Summary      The participant's registrations grouped as upcoming, completed and cancelled
// @Tags         registrations
// @Produce      json
// @Success      200  {object}  service.MyRegistrations
// @Failure      403  {object}  response.Err
// @Router       /registrations/me [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleMyRegistrations(ctx *gin.Context) {
	mine, err := h.svc.ListMine(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID))
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleMyRegistrations -> h.svc.ListMine -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, mine)
}

// HandleEventRegistrations godoc
// @Summary      Registrations of an event
// @Description  Organizer view; filter by payment_status to review pending orders.
// @Tags         registrations
// @Produce      json
// @Param        eventID         path      int     true   "Event ID"
// @Param        payment_status  query     string  false  "not_required, pending, approved or rejected"
// @Success      200             {array}   domain.Registration
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Router       /events/{eventID}/registrations [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleEventRegistrations(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	payment := domain.PaymentStatus(ctx.Query("payment_status"))
	switch payment {
	case "", domain.PaymentNotRequired, domain.PaymentPending, domain.PaymentApproved, domain.PaymentRejected:
	default:
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid payment_status %q", payment)))
		return
	}

	regs, err := h.svc.ListForEvent(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID, payment)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleEventRegistrations -> h.svc.ListForEvent -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleTicket godoc
// @Summary      Ticket QR code
// @Tags         registrations
// @Produce      png
// @Param        registrationID  path      int  true  "Registration ID"
// @Success      200             {file}    binary
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Router       /registrations/{registrationID}/ticket [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleTicket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, respErr := uintParam(ctx, "registrationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	png, reg, err := h.svc.Ticket(ctx.Request.Context(), user, registrationID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleTicket -> h.svc.Ticket -> %w", err)))
		return
	}

	ctx.Header("X-Ticket-ID", reg.TicketID)
	ctx.Data(http.StatusOK, "image/png", png)
}
