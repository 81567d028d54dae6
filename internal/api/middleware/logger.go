package middleware

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const redacted = "REDACTED"

// AccessLog is gin's request logger with the token query parameter masked.
func AccessLog() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		if p.Latency > time.Minute {
			p.Latency = p.Latency.Truncate(time.Second)
		}

		return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
			p.TimeStamp.Format("2006/01/02 - 15:04:05"),
			p.StatusCode,
			p.Latency,
			p.ClientIP,
			p.Method,
			redactToken(p.Path),
			p.ErrorMessage,
		)
	})
}

func redactToken(path string) string {
	base, rawQuery, ok := strings.Cut(path, "?")
	if !ok {
		return path
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return base
	}
	if !query.Has("token") {
		return path
	}
	query.Set("token", redacted)

	return base + "?" + query.Encode()
}
