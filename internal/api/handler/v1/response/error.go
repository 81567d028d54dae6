package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

// Err is the body of every failed request.
type Err struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string      `json:"status"`
	Kind       domain.Kind `json:"kind,omitempty"`
	ErrorText  string      `json:"error,omitempty"`
}

func (e *Err) Error() string {
	return fmt.Sprintf("%d %s: %v", e.HTTPStatusCode, e.StatusText, e.Err)
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(e.Err),
		)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

var kindStatus = map[domain.Kind]int{
	domain.KindInvalidInput:      http.StatusBadRequest,
	domain.KindForbidden:         http.StatusForbidden,
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindInvalidState:      http.StatusUnprocessableEntity,
	domain.KindCapacityExceeded:  http.StatusConflict,
	domain.KindConflict:          http.StatusConflict,
	domain.KindDependencyFailure: http.StatusBadGateway,
	domain.KindInternal:          http.StatusInternalServerError,
}

// FromError maps a workflow error onto its HTTP representation by kind.
func FromError(err error) *Err {
	kind := domain.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		Kind:           kind,
		ErrorText:      domain.ReasonOf(err),
	}
}

func ErrBadRequest(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     http.StatusText(http.StatusBadRequest),
		Kind:           domain.KindInvalidInput,
		ErrorText:      err.Error(),
	}
}

func ErrNotFound(entity, field string, value any) *Err {
	return &Err{
		Err:            errors.New("not found"),
		HTTPStatusCode: http.StatusNotFound,
		StatusText:     http.StatusText(http.StatusNotFound),
		Kind:           domain.KindNotFound,
		ErrorText:      fmt.Sprintf("%s with %s=%v not found", entity, field, value),
	}
}

func ErrUnauthorized(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     http.StatusText(http.StatusUnauthorized),
		ErrorText:      "authentication required",
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusForbidden,
		StatusText:     http.StatusText(http.StatusForbidden),
		Kind:           domain.KindForbidden,
		ErrorText:      "permission denied",
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     http.StatusText(http.StatusUnauthorized),
		ErrorText:      "wrong email or password",
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     http.StatusText(http.StatusInternalServerError),
		Kind:           domain.KindInternal,
		ErrorText:      "internal server error",
	}
}
