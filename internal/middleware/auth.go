package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medrelay/telemed-api/pkg/errors"
	"github.com/medrelay/telemed-api/pkg/httputil"
)

const (
	ContextUserID   = "user_id"
	ContextClinicID = "clinic_id"
)

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Authenticate verifies the bearer token and sets the caller's user and
// clinic ids in the request context. Every /sessions route runs behind
// this; the signaling routes intentionally do not (patients joining by
// link hold no token), relying on session-existence checks instead.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		userID, err := claimUUID(claims, "user_id")
		if err != nil {
			abortUnauthorized(c, "invalid user claim")
			return
		}
		clinicID, err := claimUUID(claims, "clinic_id")
		if err != nil {
			abortUnauthorized(c, "invalid clinic claim")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextClinicID, clinicID)
		c.Next()
	}
}

func claimUUID(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("claim %s missing", key)
	}
	return uuid.Parse(raw)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Success: false,
		Error: &httputil.Error{
			Code:    errors.ErrUnauthorized,
			Message: message,
		},
	})
}
