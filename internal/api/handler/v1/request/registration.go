package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

type RegisterRequest struct {
	FormResponses domain.FormResponses `json:"form_responses"`
}

// OrderRequest is sent as multipart form data together with the payment proof.
type OrderRequest struct {
	Size  string `form:"size"`
	Color string `form:"color"`
}

func (req *OrderRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Size, validation.Required),
		validation.Field(&req.Color, validation.Required),
	)
}

func (req *OrderRequest) Key() domain.VariantKey {
	return domain.VariantKey{Size: req.Size, Color: req.Color}
}

type ScanRequest struct {
	TicketID string `json:"ticket_id"`
}

func (req *ScanRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TicketID, validation.Required),
	)
}

type ManualAttendanceRequest struct {
	RegistrationID uint   `json:"registration_id"`
	Note           string `json:"note"`
}

func (req *ManualAttendanceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RegistrationID, validation.Required),
		validation.Field(&req.Note, validation.Length(0, 500)),
	)
}
