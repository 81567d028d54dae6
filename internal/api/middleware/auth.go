package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/response"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/pkg/jwthelper"
)

const (
	ContextKeyUserID = "userID"
	ContextKeyRole   = "role"
)

var errMissingToken = errors.New("missing bearer token")

type Authenticator struct {
	key []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{key: []byte(signingKey)}
}

// VerifyJWT reads the bearer token from the Authorization header, or from the
// token query parameter for websocket upgrades only, since browsers cannot set
// headers on those. The caller's identity is stored in the context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" && websocket.IsWebSocketUpgrade(ctx.Request) {
			token = ctx.Query("token")
		}
		if token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.key, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		ctx.Set(ContextKeyUserID, claims.UserID)
		ctx.Set(ContextKeyRole, claims.Role)
		ctx.Next()
	}
}

// RequireRole rejects callers whose token role is not in roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role, _ := ctx.Get(ContextKeyRole)
		r, _ := role.(domain.Role)
		if !slices.Contains(roles, r) {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("role %q not allowed", r)))
			return
		}

		ctx.Next()
	}
}
