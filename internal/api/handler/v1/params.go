package v1

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/response"
)

func uintParam(ctx *gin.Context, name string) (uint, *response.Err) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s %q", name, raw))
	}

	return uint(id), nil
}

// timeQuery reads an RFC 3339 instant or a plain date. A plain date used as an
// upper bound covers the whole day.
func timeQuery(ctx *gin.Context, name string, endOfDay bool) (time.Time, *response.Err) {
	raw := ctx.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, response.ErrBadRequest(fmt.Errorf("invalid %s %q", name, raw))
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}

	return day, nil
}
