package domain

import "time"

type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
)

// eventTransitions is the complete table of allowed event status changes.
// draft -> published is the only manual exit from draft; completed is absorbing.
var eventTransitions = map[EventStatus][]EventStatus{
	StatusDraft:     {StatusPublished},
	StatusPublished: {StatusOngoing, StatusCompleted},
	StatusOngoing:   {StatusCompleted},
	StatusCompleted: {},
}

func (s EventStatus) Valid() bool {
	_, ok := eventTransitions[s]
	return ok
}

// Visible reports whether participants may browse the event.
func (s EventStatus) Visible() bool {
	return s == StatusPublished || s == StatusOngoing || s == StatusCompleted
}

func CanTransition(from, to EventStatus) bool {
	for _, next := range eventTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// DeriveStatus maps the stored status and the schedule onto the status that
// holds at now. It has no side effects.
func DeriveStatus(current EventStatus, start, end, now time.Time) EventStatus {
	status := current

	if status == StatusPublished && !now.Before(start) {
		status = StatusOngoing
	}
	if (status == StatusPublished || status == StatusOngoing) && now.After(end) {
		status = StatusCompleted
	}

	return status
}

// Refresh applies DeriveStatus to the event and reports whether it changed.
func (e *Event) Refresh(now time.Time) bool {
	derived := DeriveStatus(e.Status, e.StartDate, e.EndDate, now)
	if derived == e.Status {
		return false
	}
	e.Status = derived

	return true
}
