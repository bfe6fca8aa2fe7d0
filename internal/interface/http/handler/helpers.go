package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ties-together/marketplace-backend/internal/http/middleware"
	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
)

func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDValue, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errors.New("user_id не найден в контексте")
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("некорректный формат user_id")
	}

	return userID, nil
}

// requireUser достаёт пользователя или отвечает 401.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "authorization required")
		return uuid.Nil, false
	}
	return userID, true
}

// paramUUID разбирает UUID из параметра пути или отвечает 400.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает тело запроса или отвечает 400 с текстом ошибки валидации.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// bindOptionalJSON как bindJSON, но пустое тело допустимо.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseOptionalIntQuery(c *gin.Context, key string) (*int, bool) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return nil, true
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		response.BadRequest(c, key+" must be an integer")
		return nil, false
	}
	return &value, true
}

// timeQuery разбирает обязательный параметр времени (RFC3339 или YYYY-MM-DD).
func timeQuery(c *gin.Context, key string, loc *time.Location) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		response.BadRequest(c, key+" is required")
		return time.Time{}, false
	}
	t, err := dto.ParseTime(raw, loc)
	if err != nil {
		response.Error(c, err)
		return time.Time{}, false
	}
	return t, true
}

func optionalTimeQuery(c *gin.Context, key string, loc *time.Location) (*time.Time, bool) {
	t, err := dto.ParseOptionalTime(c.Query(key), loc)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return t, true
}

// csvQuery разбирает "a,b,c" в срез без пустых элементов.
func csvQuery(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
