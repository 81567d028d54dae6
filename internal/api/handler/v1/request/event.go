package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/service"
)

var fieldTypes = []any{
	string(domain.FieldText),
	string(domain.FieldNumber),
	string(domain.FieldDropdown),
	string(domain.FieldCheckbox),
	string(domain.FieldFile),
}

type FormFieldRequest struct {
	Label     string   `json:"label"`
	FieldType string   `json:"field_type"`
	Required  bool     `json:"required"`
	Options   []string `json:"options"`
}

func (req FormFieldRequest) Validate() error {
	return validation.ValidateStruct(
		&req,
		validation.Field(&req.Label, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.FieldType, validation.Required, validation.In(fieldTypes...)),
	)
}

type VariantRequest struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

func (req VariantRequest) Validate() error {
	return validation.ValidateStruct(
		&req,
		validation.Field(&req.Size, validation.Required),
		validation.Field(&req.Color, validation.Required),
		validation.Field(&req.Stock, validation.Min(0)),
	)
}

type MerchandiseRequest struct {
	PurchaseLimitPerUser int              `json:"purchase_limit_per_user"`
	Variants             []VariantRequest `json:"variants"`
}

func (req MerchandiseRequest) Validate() error {
	return validation.ValidateStruct(
		&req,
		validation.Field(&req.PurchaseLimitPerUser, validation.Min(0)),
		validation.Field(&req.Variants, validation.Required),
	)
}

func (req MerchandiseRequest) toDomain() domain.MerchandiseDetails {
	variants := make([]domain.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, domain.Variant{Size: v.Size, Color: v.Color, Stock: v.Stock})
	}

	return domain.MerchandiseDetails{
		PurchaseLimitPerUser: req.PurchaseLimitPerUser,
		Variants:             variants,
	}
}

func formFieldsToDomain(fields []FormFieldRequest) []domain.FormField {
	if fields == nil {
		return nil
	}

	out := make([]domain.FormField, 0, len(fields))
	for _, f := range fields {
		out = append(out, domain.FormField{
			Label:     f.Label,
			FieldType: domain.FieldType(f.FieldType),
			Required:  f.Required,
			Options:   f.Options,
		})
	}

	return out
}

type CreateEventRequest struct {
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	Type                 string              `json:"type"`
	Eligibility          string              `json:"eligibility"`
	RegistrationDeadline time.Time           `json:"registration_deadline"`
	StartDate            time.Time           `json:"start_date"`
	EndDate              time.Time           `json:"end_date"`
	RegistrationLimit    int                 `json:"registration_limit"`
	RegistrationFee      int                 `json:"registration_fee"`
	Tags                 []string            `json:"tags"`
	FormFields           []FormFieldRequest  `json:"form_fields"`
	Merchandise          *MerchandiseRequest `json:"merchandise_details"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Type, validation.Required, validation.In(string(domain.EventTypeNormal), string(domain.EventTypeMerchandise))),
		validation.Field(&req.RegistrationDeadline, validation.Required),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
		validation.Field(&req.RegistrationLimit, validation.Required, validation.Min(1)),
		validation.Field(&req.RegistrationFee, validation.Min(0)),
		validation.Field(&req.FormFields),
		validation.Field(&req.Merchandise),
	)
}

func (req *CreateEventRequest) ToDomain() domain.Event {
	event := domain.Event{
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 domain.EventType(req.Type),
		Eligibility:          req.Eligibility,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		RegistrationFee:      req.RegistrationFee,
		Tags:                 req.Tags,
		FormFields:           formFieldsToDomain(req.FormFields),
	}
	if req.Merchandise != nil {
		event.Merchandise = req.Merchandise.toDomain()
	}

	return event
}

// UpdateEventRequest carries only the fields being changed.
type UpdateEventRequest struct {
	Name                 *string             `json:"name"`
	Description          *string             `json:"description"`
	Eligibility          *string             `json:"eligibility"`
	RegistrationDeadline *time.Time          `json:"registration_deadline"`
	StartDate            *time.Time          `json:"start_date"`
	EndDate              *time.Time          `json:"end_date"`
	RegistrationLimit    *int                `json:"registration_limit"`
	RegistrationFee      *int                `json:"registration_fee"`
	Tags                 []string            `json:"tags"`
	FormFields           []FormFieldRequest  `json:"form_fields"`
	Merchandise          *MerchandiseRequest `json:"merchandise_details"`
	Status               *string             `json:"status"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&req.RegistrationLimit, validation.Min(1)),
		validation.Field(&req.RegistrationFee, validation.Min(0)),
		validation.Field(&req.FormFields),
		validation.Field(&req.Merchandise),
		validation.Field(&req.Status, validation.In(
			string(domain.StatusDraft),
			string(domain.StatusPublished),
			string(domain.StatusOngoing),
			string(domain.StatusCompleted),
		)),
	)
}

func (req *UpdateEventRequest) ToPatch() service.EventPatch {
	patch := service.EventPatch{
		Name:                 req.Name,
		Description:          req.Description,
		Eligibility:          req.Eligibility,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		RegistrationFee:      req.RegistrationFee,
		Tags:                 req.Tags,
		FormFields:           formFieldsToDomain(req.FormFields),
	}
	if req.Merchandise != nil {
		m := req.Merchandise.toDomain()
		patch.Merchandise = &m
	}
	if req.Status != nil {
		status := domain.EventStatus(*req.Status)
		patch.Status = &status
	}

	return patch
}
