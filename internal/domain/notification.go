package domain

// NotificationKind selects the template a notifier renders.
type NotificationKind string

const (
	NotifyRegistrationConfirmed NotificationKind = "registration_confirmed"
	NotifyOrderPlaced           NotificationKind = "order_placed"
	NotifyOrderApproved         NotificationKind = "order_approved"
	NotifyOrderRejected         NotificationKind = "order_rejected"
	NotifyEventPublished        NotificationKind = "event_published"
)

// AttendanceMark is pushed to live check-in listeners.
type AttendanceMark struct {
	EventID        uint             `json:"event_id"`
	RegistrationID uint             `json:"registration_id"`
	TicketID       string           `json:"ticket_id"`
	Method         AttendanceMethod `json:"method"`
	MarkedAt       string           `json:"marked_at"`
}
