package handler

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/booking"
)

const webhookSecretHeader = "X-Webhook-Secret"

type PaymentHandler struct {
	applyUC *booking.ApplyPaymentUpdateUseCase
	secret  []byte
}

func NewPaymentHandler(applyUC *booking.ApplyPaymentUpdateUseCase, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{applyUC: applyUC, secret: []byte(webhookSecret)}
}

// Webhook POST /payments/webhook: статус оплаты от шлюза, авторизуется общим секретом.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	got := []byte(c.GetHeader(webhookSecretHeader))
	if len(h.secret) == 0 || subtle.ConstantTimeCompare(got, h.secret) != 1 {
		response.Unauthorized(c, "invalid webhook secret")
		return
	}

	var req dto.PaymentWebhookRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.SessionID == "" && req.BookingID == nil {
		response.BadRequest(c, "session_id or booking_id is required")
		return
	}

	b, err := h.applyUC.Execute(c.Request.Context(), booking.PaymentUpdate{
		SessionID: req.SessionID,
		BookingID: req.BookingID,
		Status:    req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"booking_id": b.ID, "payment_status": string(b.PaymentStatus)})
}
