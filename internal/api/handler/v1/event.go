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

type EventService interface {
	Create(ctx context.Context, organizerID uint, event domain.Event) (domain.Event, error)
	Publish(ctx context.Context, organizerID, eventID uint) (domain.Event, error)
	Update(ctx context.Context, organizerID, eventID uint, patch service.EventPatch) (domain.Event, error)
	Delete(ctx context.Context, organizerID, eventID uint) error
	Get(ctx context.Context, viewer domain.User, eventID uint) (domain.Event, error)
	List(ctx context.Context, q service.EventListQuery) ([]domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error)
}

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleListEvents godoc
// @Summary      Browse events
// @Description  Lists published, ongoing and completed events. Status is derived before filtering.
// @Tags         events
// @Produce      json
// @Param        type         query     string  false  "normal or merchandise"
// @Param        search       query     string  false  "case-insensitive event or organizer name search"
// @Param        tag          query     string  false  "tag filter"
// @Param        eligibility  query     string  false  "eligibility filter"
// @Param        start_date   query     string  false  "earliest start, RFC 3339 or YYYY-MM-DD"
// @Param        end_date     query     string  false  "latest start, RFC 3339 or YYYY-MM-DD"
// @Param        trending     query     bool    false  "top 5 events by registrations in the last 24h"
// @Success      200          {array}   domain.Event
// @Failure      400          {object}  response.Err
// @Failure      401          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	from, respErr := timeQuery(ctx, "start_date", false)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	to, respErr := timeQuery(ctx, "end_date", true)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	events, err := h.svc.List(ctx.Request.Context(), service.EventListQuery{
		Type:        domain.EventType(ctx.Query("type")),
		Search:      ctx.Query("search"),
		Tag:         ctx.Query("tag"),
		Eligibility: ctx.Query("eligibility"),
		StartFrom:   from,
		StartTo:     to,
		Trending:    ctx.Query("trending") == "true",
	})
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleListEvents -> h.svc.List -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Description  Drafts are only visible to their organizer and admins.
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security     BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.Get(ctx.Request.Context(), user, eventID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleGetEvent -> h.svc.Get -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create a draft event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Router       /events [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.Create(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), req.ToDomain())
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleCreateEvent -> h.svc.Create -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent godoc
// @Summary      Edit an event
// @Description  Allowed fields depend on the derived status: drafts accept any field, published events accept description, a later deadline, a higher limit and completion, ongoing events accept completion only.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                         true  "Event ID"
// @Param        input    body      request.UpdateEventRequest  true  "Changed fields"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Router       /events/{eventID} [patch]
// @Security     BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.Update(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID, req.ToPatch())
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleUpdateEvent -> h.svc.Update -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandlePublishEvent godoc
// @Summary      Publish a draft event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Router       /events/{eventID}/publish [post]
// @Security     BearerAuth
func (h *EventHandler) HandlePublishEvent(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.Publish(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandlePublishEvent -> h.svc.Publish -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete a draft event without registrations
// @Tags         events
// @Param        eventID  path      int  true  "Event ID"
// @Success      204
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security     BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID); err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleDeleteEvent -> h.svc.Delete -> %w", err)))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleMyEvents godoc
// @Summary      List the organizer's own events
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      403  {object}  response.Err
// @Router       /organizer/events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleMyEvents(ctx *gin.Context) {
	events, err := h.svc.ListByOrganizer(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID))
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleMyEvents -> h.svc.ListByOrganizer -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, events)
}
