package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medhaven/hospital-api/internal/handler"
	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/service/token"
)

const (
	ContextPrincipalID   = "principal_id"
	ContextPrincipalKind = "principal_kind"
)

type AuthMiddleware struct {
	tokens *token.Service
}

func NewAuthMiddleware(tokens *token.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the caller's identity in
// the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextPrincipalID, id)
		c.Set(ContextPrincipalKind, model.PrincipalKind(claims.Kind))
		c.Next()
	}
}

// RequireKind restricts the route to callers of the listed kinds.
func (m *AuthMiddleware) RequireKind(kinds ...model.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := PrincipalKind(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
			c.Abort()
			return
		}
		for _, k := range kinds {
			if k == kind {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("forbidden"))
		c.Abort()
	}
}

// PrincipalID returns the authenticated caller's id from the request context.
func PrincipalID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextPrincipalID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// PrincipalKind returns the authenticated caller's kind from the request context.
func PrincipalKind(c *gin.Context) (model.PrincipalKind, bool) {
	v, ok := c.Get(ContextPrincipalKind)
	if !ok {
		return "", false
	}
	kind, ok := v.(model.PrincipalKind)
	return kind, ok
}
