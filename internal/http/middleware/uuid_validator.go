package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
)

// UUIDValidator проверяет, что параметр с указанным именем является валидным UUID.
// Использование: group.GET("/bookings/:id", UUIDValidator("id"), h.Get)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			response.BadRequest(c, paramName+" is required")
			return
		}

		if _, err := uuid.Parse(idStr); err != nil {
			response.BadRequest(c, paramName+" must be a valid UUID")
			return
		}

		c.Next()
	}
}
