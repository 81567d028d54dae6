package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/request"
	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/response"
	"github.com/nityanand123gupta/felicity-event-management/internal/api/middleware"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/service"
)

const maxProofSize = 5 << 20

var errProofTooLarge = errors.New("payment proof exceeds 5MB")

type MerchandiseService interface {
	PlaceOrder(ctx context.Context, participantID, eventID uint, key domain.VariantKey, proof service.Upload) (domain.Registration, error)
	Approve(ctx context.Context, organizerID, registrationID uint) (domain.Registration, error)
	Reject(ctx context.Context, organizerID, registrationID uint) (domain.Registration, error)
}

type MerchandiseHandler struct {
	svc MerchandiseService
}

func NewMerchandiseHandler(svc MerchandiseService) *MerchandiseHandler {
	return &MerchandiseHandler{
		svc: svc,
	}
}

// HandlePlaceOrder godoc
// @Summary      Order a merchandise variant
// @Description  Creates a pending order with the uploaded payment proof. Stock and a slot are taken on approval.
// @Tags         merchandise
// @Accept       multipart/form-data
// @Produce      json
// @Param        eventID        path      int     true  "Event ID"
// @Param        size           formData  string  true  "Variant size"
// @Param        color          formData  string  true  "Variant color"
// @Param        payment_proof  formData  file    true  "Payment proof image"
// @Success      201            {object}  domain.Registration
// @Failure      400            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Failure      422            {object}  response.Err
// @Failure      502            {object}  response.Err
// @Router       /events/{eventID}/orders [post]
// @Security     BearerAuth
func (h *MerchandiseHandler) HandlePlaceOrder(ctx *gin.Context) {
	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.OrderRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	header, err := ctx.FormFile("payment_proof")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("payment_proof: %w", err)))
		return
	}
	if header.Size > maxProofSize {
		response.RenderErr(ctx, response.ErrBadRequest(errProofTooLarge))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("payment_proof: %w", err)))
		return
	}
	defer file.Close()

	order, err := h.svc.PlaceOrder(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), eventID, req.Key(), service.Upload{
		Filename: header.Filename,
		Body:     file,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandlePlaceOrder -> h.svc.PlaceOrder -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, order)
}

// HandleApproveOrder godoc
// @Summary      Approve a pending order
// @Description  Atomically takes one registration slot and one unit of the variant's stock, then issues the ticket.
// @Tags         merchandise
// @Produce      json
// @Param        registrationID  path      int  true  "Order ID"
// @Success      200             {object}  domain.Registration
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      422             {object}  response.Err
// @Router       /registrations/{registrationID}/approve [post]
// @Security     BearerAuth
func (h *MerchandiseHandler) HandleApproveOrder(ctx *gin.Context) {
	registrationID, respErr := uintParam(ctx, "registrationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	order, err := h.svc.Approve(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), registrationID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleApproveOrder -> h.svc.Approve -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// HandleRejectOrder godoc
// @Summary      Reject a pending order
// @Tags         merchandise
// @Produce      json
// @Param        registrationID  path      int  true  "Order ID"
// @Success      200             {object}  domain.Registration
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Router       /registrations/{registrationID}/reject [post]
// @Security     BearerAuth
func (h *MerchandiseHandler) HandleRejectOrder(ctx *gin.Context) {
	registrationID, respErr := uintParam(ctx, "registrationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	order, err := h.svc.Reject(ctx.Request.Context(), ctx.GetUint(middleware.ContextKeyUserID), registrationID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleRejectOrder -> h.svc.Reject -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, order)
}
