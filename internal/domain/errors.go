package domain

import (
	"errors"
)

// Kind classifies a failure independently of its message.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidState      Kind = "invalid_state"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindConflict          Kind = "conflict"
	KindDependencyFailure Kind = "dependency_failure"
	KindInternal          Kind = "internal"
)

// Error is a failure with a kind and a single human-readable reason.
type Error struct {
	Kind   Kind
	Reason string
}

func NewError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func (e *Error) Error() string {
	return e.Reason
}

// KindOf walks the wrap chain and returns the first kind found.
// Errors that carry no kind are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	return KindInternal
}

// ReasonOf returns the reason bound to the error's kind. Internal errors never
// expose their message.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal {
		return de.Reason
	}

	return "internal server error"
}

var (
	ErrEventNotFound        = NewError(KindNotFound, "event not found")
	ErrRegistrationNotFound = NewError(KindNotFound, "registration not found")
	ErrTicketNotFound       = NewError(KindNotFound, "invalid ticket")
	ErrVariantNotFound      = NewError(KindNotFound, "variant not found")
	ErrUserNotFound         = NewError(KindNotFound, "user not found")

	ErrNotEventOwner        = NewError(KindForbidden, "not authorized for this event")
	ErrNotRegistrationOwner = NewError(KindForbidden, "not authorized for this registration")
	ErrNotRegistered        = NewError(KindForbidden, "you must be registered for this event")

	ErrEventNotOpen            = NewError(KindInvalidState, "event is not open for registration")
	ErrEventNotActive          = NewError(KindInvalidState, "event is not active")
	ErrEventNotOngoing         = NewError(KindInvalidState, "attendance allowed only during ongoing events")
	ErrDeadlinePassed          = NewError(KindInvalidState, "registration deadline passed")
	ErrEventStarted            = NewError(KindInvalidState, "cannot cancel after event has started")
	ErrWrongEventType          = NewError(KindInvalidState, "operation not supported for this event type")
	ErrEventNotDraft           = NewError(KindInvalidState, "only draft events can be published or deleted")
	ErrEventHasRegistrations   = NewError(KindInvalidState, "event already has registrations")
	ErrEventCompleted          = NewError(KindInvalidState, "completed events cannot be edited")
	ErrEventOngoingEdit        = NewError(KindInvalidState, "ongoing events cannot be edited except status change")
	ErrFormLocked              = NewError(KindInvalidState, "form fields are locked after first registration")
	ErrApprovedNotCancellable  = NewError(KindInvalidState, "approved orders cannot be cancelled")
	ErrRegistrationRejected    = NewError(KindInvalidState, "registration was rejected")
	ErrRegistrationNotActive   = NewError(KindInvalidState, "invalid registration status")
	ErrNoTicket                = NewError(KindInvalidState, "registration has no ticket")
	ErrInvalidStatusTransition = NewError(KindInvalidState, "status transition not allowed")
	ErrPublishedEdit           = NewError(KindInvalidState, "published events only allow description, deadline, limit and status changes")
	ErrDeadlineNotExtended     = NewError(KindInvalidState, "deadline can only be extended")
	ErrLimitNotIncreased       = NewError(KindInvalidState, "registration limit can only be increased")

	ErrCapacityExceeded = NewError(KindCapacityExceeded, "registration limit reached")
	ErrVariantSoldOut   = NewError(KindCapacityExceeded, "selected variant is out of stock")
	ErrPurchaseLimitHit = NewError(KindCapacityExceeded, "purchase limit reached")

	ErrAlreadyRegistered = NewError(KindConflict, "already registered for this event")
	ErrAlreadyCancelled  = NewError(KindConflict, "already cancelled")
	ErrOrderProcessed    = NewError(KindConflict, "order already processed")
	ErrDuplicateScan     = NewError(KindConflict, "duplicate scan detected")
	ErrUserEmailExists   = NewError(KindConflict, "user already exists")

	ErrWrongCredentials = NewError(KindForbidden, "wrong credentials")

	ErrDependency = NewError(KindDependencyFailure, "dependency unavailable")
)

// Invalid builds an invalid_input error with the given reason.
func Invalid(reason string) *Error {
	return NewError(KindInvalidInput, reason)
}
