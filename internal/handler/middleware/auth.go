package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"parking-booking/internal/domain/user"
	"parking-booking/internal/handler/httperr"
	"parking-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

const ctxActorKey = "actor"

var (
	errMissingToken = errs.New("missing bearer token")
	errNoActor      = errs.New("actor missing from context")
)

// ActorVerifier turns a bearer token into the actor it asserts.
type ActorVerifier interface {
	Verify(token string) (user.Actor, error)
}

type AuthMiddleware struct {
	verifier ActorVerifier
}

func NewAuthMiddleware(verifier ActorVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingToken, "Access token required", nil)
			return
		}

		actor, err := m.verifier.Verify(token)
		if err != nil {
			slog.Warn("token validation failed", "error", err.Error(), "path", c.Request.URL.Path)
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid or expired token", nil)
			return
		}

		c.Set(ctxActorKey, actor)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			httperr.AbortWithError(c, http.StatusInternalServerError, errNoActor, "Internal server error", nil)
			return
		}
		if !actor.IsAdmin() {
			httperr.AbortWithError(c, http.StatusForbidden, user.ErrAdminRequired, "Admin access required", nil)
			return
		}
		c.Next()
	}
}

func GetActor(c *gin.Context) (user.Actor, bool) {
	v, exists := c.Get(ctxActorKey)
	if !exists {
		return user.Actor{}, false
	}
	actor, ok := v.(user.Actor)
	return actor, ok
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}
