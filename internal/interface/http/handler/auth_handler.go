package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/http/middleware"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
)

type AuthHandler struct {
	tokens middleware.TokenParser
}

func NewAuthHandler(tokens middleware.TokenParser) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// Verify POST /auth/verify: проверяет bearer токен и возвращает {user_id, role}.
func (h *AuthHandler) Verify(c *gin.Context) {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		var body struct {
			Token string `json:"token"`
		}
		if c.Request.ContentLength > 0 && c.ShouldBindJSON(&body) == nil && body.Token != "" {
			raw, ok = body.Token, true
		}
	}
	if !ok {
		response.Unauthorized(c, "authorization required")
		return
	}

	id, err := h.tokens.ParseAccess(raw)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}
	response.Success(c, id)
}
