package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/utils"
)

const (
	ctxUserID    = "user_id"
	ctxUserRole  = "user_role"
	ctxUserEmail = "user_email"
	ctxClaims    = "session_claims"
)

// SessionAuthMiddleware authenticates requests from the session cookie or a
// Bearer token carrying the same signed value.
type SessionAuthMiddleware struct {
	auth       services.AuthService
	cookieName string
	logger     utils.Logger
}

func NewSessionAuthMiddleware(auth services.AuthService, cookieName string, logger utils.Logger) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		auth:       auth,
		cookieName: cookieName,
		logger:     logger,
	}
}

// AuthMiddleware rejects requests without a valid session with 401.
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := m.auth.ValidateSession(c.Request.Context(), token)
		if err != nil {
			if !services.IsInvalidSession(err) {
				utils.GetLogger(c, m.logger).Error("Session lookup failed", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireRoleMiddleware must run after AuthMiddleware. It answers 403 before
// the handler touches any data.
func (m *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		utils.GetLogger(c, m.logger).Warn("Role check failed",
			"user_id", c.GetUint(ctxUserID),
			"role", role,
			"required", requiredRoles)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func (m *SessionAuthMiddleware) tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get(ctxUserRole)
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}
	return role, nil
}

// GetClaimsFromContext returns the session claims set by AuthMiddleware.
func GetClaimsFromContext(c *gin.Context) (*services.SessionClaims, error) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil, fmt.Errorf("session not found in context")
	}
	claims, ok := v.(*services.SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid session type in context")
	}
	return claims, nil
}
