package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// TokenParser проверяет access токен.
type TokenParser interface {
	ParseAccess(token string) (service.Identity, error)
}

// AuthMiddleware проверяет JWT access токен из заголовка Authorization.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			response.Unauthorized(c, "authorization required")
			return
		}

		id, err := tokens.ParseAccess(raw)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, id.UserID)
		c.Set(ContextRoleKey, id.Role)
		c.Next()
	}
}

// BearerToken достаёт токен из заголовка "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}
