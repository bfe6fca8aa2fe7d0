package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/logger"
)

// ErrorHandler отвечает на ошибки, добавленные через c.Error, если хэндлер сам ничего не записал.
// AppError отдаются со своим кодом, остальные маскируются как INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logger.L().WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Warn("Request error")

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}
		response.Error(c, err.Err)
	}
}
