package domain

import (
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeMerchandise EventType = "merchandise"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// FormField declares one entry of a normal event's registration form.
type FormField struct {
	Label     string    `json:"label"`
	FieldType FieldType `json:"field_type"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"`
}

// VariantKey identifies a merchandise variant. There is no surrogate id.
type VariantKey struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

func (k VariantKey) String() string {
	return k.Size + "/" + k.Color
}

func (k VariantKey) IsZero() bool {
	return k.Size == "" || k.Color == ""
}

type Variant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

func (v Variant) Key() VariantKey {
	return VariantKey{Size: v.Size, Color: v.Color}
}

type MerchandiseDetails struct {
	PurchaseLimitPerUser int       `json:"purchase_limit_per_user"`
	Variants             []Variant `json:"variants"`
}

// Event is owned by its organizer. Status is derived from the schedule; the
// stored value is only an index that DeriveStatus keeps current.
type Event struct {
	ID                   uint               `json:"id"`
	OrganizerID          uint               `json:"organizer_id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Type                 EventType          `json:"type"`
	Eligibility          string             `json:"eligibility"`
	RegistrationDeadline time.Time          `json:"registration_deadline"`
	StartDate            time.Time          `json:"start_date"`
	EndDate              time.Time          `json:"end_date"`
	RegistrationLimit    int                `json:"registration_limit"`
	RegistrationFee      int                `json:"registration_fee"`
	Tags                 []string           `json:"tags"`
	Status               EventStatus        `json:"status"`
	FormFields           []FormField        `json:"form_fields,omitempty"`
	Merchandise          MerchandiseDetails `json:"merchandise_details"`
	TotalRegistrations   int                `json:"total_registrations"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

func (e Event) OwnedBy(userID uint) bool {
	return e.OrganizerID == userID
}

// FormLocked reports whether the registration schema is frozen.
func (e Event) FormLocked() bool {
	return e.TotalRegistrations > 0
}

func (e Event) FindVariant(key VariantKey) (Variant, bool) {
	for _, v := range e.Merchandise.Variants {
		if v.Key() == key {
			return v, true
		}
	}

	return Variant{}, false
}

// ValidateSchedule enforces registrationDeadline < startDate < endDate.
func (e Event) ValidateSchedule() error {
	if e.RegistrationDeadline.IsZero() || e.StartDate.IsZero() || e.EndDate.IsZero() {
		return Invalid("registration deadline, start date and end date are required")
	}
	if !e.StartDate.Before(e.EndDate) {
		return Invalid("end date must be after start date")
	}
	if !e.RegistrationDeadline.Before(e.StartDate) {
		return Invalid("deadline must be before event start")
	}

	return nil
}

// Validate checks the creation-time invariants of the event.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return Invalid("event name is required")
	}
	if e.RegistrationLimit < 1 {
		return Invalid("registration limit must be at least 1")
	}
	if e.RegistrationFee < 0 {
		return Invalid("registration fee cannot be negative")
	}
	if err := e.ValidateSchedule(); err != nil {
		return err
	}

	switch e.Type {
	case EventTypeNormal:
		if len(e.FormFields) == 0 {
			return Invalid("normal events must define custom form fields")
		}
		for _, f := range e.FormFields {
			if err := f.validate(); err != nil {
				return err
			}
		}
	case EventTypeMerchandise:
		if len(e.Merchandise.Variants) == 0 {
			return Invalid("merchandise events must define item variants")
		}
		if e.Merchandise.PurchaseLimitPerUser < 1 {
			return Invalid("purchase limit per user must be at least 1")
		}
		seen := make(map[VariantKey]struct{}, len(e.Merchandise.Variants))
		for _, v := range e.Merchandise.Variants {
			if v.Key().IsZero() {
				return Invalid("variant size and color are required")
			}
			if v.Stock < 0 {
				return Invalid(fmt.Sprintf("variant %s has negative stock", v.Key()))
			}
			if _, dup := seen[v.Key()]; dup {
				return Invalid(fmt.Sprintf("variant %s is declared twice", v.Key()))
			}
			seen[v.Key()] = struct{}{}
		}
	default:
		return Invalid("invalid event type")
	}

	return nil
}

func (f FormField) validate() error {
	if strings.TrimSpace(f.Label) == "" {
		return Invalid("form field label is required")
	}

	switch f.FieldType {
	case FieldText, FieldNumber, FieldCheckbox, FieldFile:
	case FieldDropdown:
		if len(f.Options) == 0 {
			return Invalid(fmt.Sprintf("dropdown %q needs options", f.Label))
		}
	default:
		return Invalid(fmt.Sprintf("form field %q has unknown type %q", f.Label, f.FieldType))
	}

	return nil
}

// NormalizeTags trims and lower-cases tags, dropping empties.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}

	return out
}
