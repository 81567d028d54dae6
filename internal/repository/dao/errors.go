package dao

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

var (
	ErrUserEmailExists      = domain.ErrUserEmailExists
	ErrUserNotFound         = domain.ErrUserNotFound
	ErrEventNotFound        = domain.ErrEventNotFound
	ErrRegistrationNotFound = domain.ErrRegistrationNotFound
	ErrTicketNotFound       = domain.ErrTicketNotFound
	ErrVariantNotFound      = domain.ErrVariantNotFound
	ErrCapacityExceeded     = domain.ErrCapacityExceeded
	ErrVariantSoldOut       = domain.ErrVariantSoldOut
	ErrAlreadyRegistered    = domain.ErrAlreadyRegistered
	ErrDuplicateScan        = domain.ErrDuplicateScan
	ErrStaleRegistration    = domain.NewError(domain.KindConflict, "registration was modified concurrently")
)

// uniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to the named constraint. sqlite errors carry no
// constraint name.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation &&
			(constraint == "" || pgErr.ConstraintName == constraint)
	}

	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
