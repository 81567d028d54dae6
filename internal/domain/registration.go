package domain

import "time"

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationRejected   RegistrationStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentApproved    PaymentStatus = "approved"
	PaymentRejected    PaymentStatus = "rejected"
)

type AttendanceMethod string

const (
	AttendanceScan   AttendanceMethod = "scan"
	AttendanceManual AttendanceMethod = "manual"
)

// Registration is one participant's entry for an event: a normal-event
// registration or a merchandise order.
type Registration struct {
	ID              uint               `json:"id"`
	EventID         uint               `json:"event_id"`
	ParticipantID   uint               `json:"participant_id"`
	FormResponses   FormResponses      `json:"form_responses,omitempty"`
	Variant         *VariantKey        `json:"variant,omitempty"`
	PaymentStatus   PaymentStatus      `json:"payment_status"`
	PaymentProofURL string             `json:"payment_proof_url,omitempty"`
	TicketID        string             `json:"ticket_id,omitempty"`
	Status          RegistrationStatus `json:"status"`
	Attendance      Attendance         `json:"attendance"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Attendance fields are written together, once.
type Attendance struct {
	Marked    bool             `json:"marked"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	MarkedBy  *uint            `json:"marked_by,omitempty"`
	Method    AttendanceMethod `json:"method,omitempty"`
	AuditNote string           `json:"audit_note,omitempty"`
}

// RegistrationState is the pair that the lifecycle table is keyed on.
type RegistrationState struct {
	Status  RegistrationStatus
	Payment PaymentStatus
}

type RegistrationAction string

const (
	ActionCancel  RegistrationAction = "cancel"
	ActionApprove RegistrationAction = "approve"
	ActionReject  RegistrationAction = "reject"
)

var registrationTransitions = map[RegistrationState]map[RegistrationAction]RegistrationState{
	{RegistrationRegistered, PaymentNotRequired}: {
		ActionCancel: {RegistrationCancelled, PaymentNotRequired},
	},
	{RegistrationRegistered, PaymentPending}: {
		ActionCancel:  {RegistrationCancelled, PaymentPending},
		ActionApprove: {RegistrationRegistered, PaymentApproved},
		ActionReject:  {RegistrationRejected, PaymentRejected},
	},
}

func (r Registration) State() RegistrationState {
	return RegistrationState{Status: r.Status, Payment: r.PaymentStatus}
}

// Next returns the state reached by applying action, or the error kind that
// explains why the table has no such edge.
func (r Registration) Next(action RegistrationAction) (RegistrationState, error) {
	if next, ok := registrationTransitions[r.State()][action]; ok {
		return next, nil
	}

	switch action {
	case ActionCancel:
		switch {
		case r.Status == RegistrationCancelled:
			return RegistrationState{}, ErrAlreadyCancelled
		case r.PaymentStatus == PaymentApproved:
			return RegistrationState{}, ErrApprovedNotCancellable
		case r.Status == RegistrationRejected:
			return RegistrationState{}, ErrRegistrationRejected
		}
	case ActionApprove, ActionReject:
		if r.PaymentStatus != PaymentPending || r.Status != RegistrationRegistered {
			return RegistrationState{}, ErrOrderProcessed
		}
	}

	return RegistrationState{}, ErrInvalidStatusTransition
}

// HoldsSlot reports whether the registration consumed one unit of the event's
// registration limit.
func (r Registration) HoldsSlot() bool {
	if r.Status != RegistrationRegistered {
		return false
	}

	return r.PaymentStatus == PaymentNotRequired || r.PaymentStatus == PaymentApproved
}

func (r Registration) OwnedBy(participantID uint) bool {
	return r.ParticipantID == participantID
}

// TicketPayload is the content encoded in a ticket's QR code.
type TicketPayload struct {
	TicketID      string `json:"ticket_id"`
	EventID       uint   `json:"event_id"`
	ParticipantID uint   `json:"participant_id"`
}

func (r Registration) Payload() TicketPayload {
	return TicketPayload{
		TicketID:      r.TicketID,
		EventID:       r.EventID,
		ParticipantID: r.ParticipantID,
	}
}

// RegistrationWithEvent pairs a registration with its event for dashboards.
type RegistrationWithEvent struct {
	Registration
	Event Event `json:"event"`
}
