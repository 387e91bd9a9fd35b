package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/exportexpress/backoffice/internal/infrastructure/auth"
	"github.com/exportexpress/backoffice/internal/infrastructure/logger"
	"github.com/exportexpress/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BearerPrefix precedes the token in the Authorization header
const BearerPrefix = "Bearer "

// TokenVerifier validates a bearer token
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// ActorConfig configures the actor middleware
type ActorConfig struct {
	// Verifier may be nil when no JWT secret is configured; every request
	// then acts as auth.SystemActor.
	Verifier TokenVerifier
	// Required rejects requests without a valid token
	Required bool
	Logger   *zap.Logger
}

// Actor resolves the acting user from the bearer token and stores it in the
// gin context and the request context. The backoffice performs no
// authorization; the actor only stamps createdBy/updatedBy fields and events.
func Actor(cfg ActorConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, present := bearerToken(c.GetHeader("Authorization"))

		actor := auth.SystemActor
		switch {
		case present && cfg.Verifier != nil:
			claims, err := cfg.Verifier.Verify(token)
			if err != nil {
				log.Warn("bearer token rejected",
					zap.Error(err),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)))
				abortUnauthorized(c, err)
				return
			}
			actor = claims.Actor()
			c.Set(ClaimsKey, claims)
		case cfg.Required:
			abortUnauthorized(c, auth.ErrInvalidToken)
			return
		}

		c.Set(ActorKey, actor)
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// GetActor returns the actor resolved by Actor, or auth.SystemActor
func GetActor(c *gin.Context) string {
	if actor := c.GetString(ActorKey); actor != "" {
		return actor
	}
	return auth.SystemActor
}

// GetClaims returns the verified token claims, if any
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrTokenNotYetValid):
		if c.GetHeader("Authorization") != "" {
			code, message = dto.ErrCodeTokenInvalid, "Invalid token"
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
