package domain

import "math"

type EventAnalytics struct {
	EventID        uint                 `json:"event_id"`
	EventName      string               `json:"event_name"`
	Status         EventStatus          `json:"status"`
	Registered     int                  `json:"registered"`
	Approved       int                  `json:"approved"`
	Rejected       int                  `json:"rejected"`
	Pending        int                  `json:"pending"`
	Cancelled      int                  `json:"cancelled"`
	Attended       int                  `json:"attended"`
	Revenue        int                  `json:"revenue"`
	AttendanceRate float64              `json:"attendance_rate"`
	Participants   []ParticipantSummary `json:"participants"`
}

type ParticipantSummary struct {
	RegistrationID uint          `json:"registration_id"`
	ParticipantID  uint          `json:"participant_id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Attended       bool          `json:"attended"`
	TicketID       string        `json:"ticket_id,omitempty"`
}

type OrganizerDashboard struct {
	TotalEvents     int    `json:"total_events"`
	TotalRegistered int    `json:"total_registered"`
	TotalRevenue    int    `json:"total_revenue"`
	Upcoming        int    `json:"upcoming"`
	Completed       int    `json:"completed"`
	TopEvent        *Event `json:"top_event,omitempty"`
}

type PlatformAnalytics struct {
	TotalEvents       int `json:"total_events"`
	TotalParticipants int `json:"total_participants"`
	TotalRegistered   int `json:"total_registered"`
	TotalRevenue      int `json:"total_revenue"`
}

// Revenue only counts approved payments.
func Revenue(approved, fee int) int {
	return approved * fee
}

// AttendanceRate is a percentage rounded to two decimals; zero when nobody
// is registered.
func AttendanceRate(attended, registered int) float64 {
	if registered == 0 {
		return 0
	}

	rate := float64(attended) / float64(registered) * 100

	return math.Round(rate*100) / 100
}
