package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/photohub/internal/actorctx"
	"github.com/geocoder89/photohub/internal/auth"
	"github.com/geocoder89/photohub/internal/domain/user"
	"github.com/geocoder89/photohub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
	log   *slog.Logger
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{jwt: jwt, users: users, log: log}
}

const unauthorizedMessage = "Could not validate credentials"

// RequireAuth verifies the bearer token and reloads its user, so a token for
// an account that no longer exists is refused. Every failure gets the same 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(authHeader, " ")
		raw = strings.TrimSpace(raw)

		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, claims.UserID)
		if err != nil {
			if !errors.Is(err, postgres.ErrUserNotFound) {
				m.log.ErrorContext(c.Request.Context(), "auth_user_lookup_failed", "err", err)
			}
			abortWithError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}

		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))

		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
