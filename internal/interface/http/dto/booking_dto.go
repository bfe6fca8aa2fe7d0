package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/usecase/booking"
)

type CreateBookingRequest struct {
	TalentID           uuid.UUID `json:"talent_id" binding:"required"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	EndDate            time.Time `json:"end_date" binding:"required"`
	TotalAmount        float64   `json:"total_amount" binding:"gte=0"`
	Currency           string    `json:"currency"`
	ServiceDescription string    `json:"service_description" binding:"required"`
	ClientMessage      *string   `json:"client_message"`
}

type BookingResponseRequest struct {
	Response *string `json:"response"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type BookingResponse struct {
	ID                 uuid.UUID               `json:"id"`
	ClientID           uuid.UUID               `json:"client_id"`
	TalentID           uuid.UUID               `json:"talent_id"`
	StartDate          time.Time               `json:"start_date"`
	EndDate            time.Time               `json:"end_date"`
	Status             string                  `json:"status"`
	PaymentStatus      string                  `json:"payment_status"`
	TotalAmount        float64                 `json:"total_amount"`
	Currency           string                  `json:"currency"`
	ServiceDescription string                  `json:"service_description"`
	ClientMessage      *string                 `json:"client_message"`
	TalentResponse     *string                 `json:"talent_response"`
	CancellationReason *string                 `json:"cancellation_reason"`
	Source             string                  `json:"source"`
	SourceID           *uuid.UUID              `json:"source_id"`
	InvoiceID          *uuid.UUID              `json:"invoice_id"`
	AcceptedAt         *time.Time              `json:"accepted_at"`
	DeclinedAt         *time.Time              `json:"declined_at"`
	StartedAt          *time.Time              `json:"started_at"`
	CompletedAt        *time.Time              `json:"completed_at"`
	CancelledAt        *time.Time              `json:"cancelled_at"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	Client             *ProfileSummaryResponse `json:"client,omitempty"`
	Talent             *ProfileSummaryResponse `json:"talent,omitempty"`
}

func ToBookingResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		TalentID:           b.TalentID,
		StartDate:          b.Range.Start,
		EndDate:            b.Range.End,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		TotalAmount:        b.TotalAmount.Amount,
		Currency:           b.TotalAmount.Currency,
		ServiceDescription: b.ServiceDescription,
		ClientMessage:      b.ClientMessage,
		TalentResponse:     b.TalentResponse,
		CancellationReason: b.CancellationReason,
		Source:             string(b.Source),
		SourceID:           b.SourceID,
		InvoiceID:          b.InvoiceID,
		AcceptedAt:         b.AcceptedAt,
		DeclinedAt:         b.DeclinedAt,
		StartedAt:          b.StartedAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Client:             ToProfileSummary(b.Client),
		Talent:             ToProfileSummary(b.Talent),
	}
}

func ToBookingResponses(bookings []*entity.Booking) []BookingResponse {
	return MapSlice(bookings, ToBookingResponse)
}

type BookingStatsResponse struct {
	AsClient    map[string]int `json:"as_client"`
	AsTalent    map[string]int `json:"as_talent"`
	ClientTotal int            `json:"client_total"`
	TalentTotal int            `json:"talent_total"`
	TotalSpent  float64        `json:"total_spent"`
	TotalEarned float64        `json:"total_earned"`
}

func ToBookingStatsResponse(s *entity.BookingStats) BookingStatsResponse {
	return BookingStatsResponse{
		AsClient:    statusCounts(s.AsClient),
		AsTalent:    statusCounts(s.AsTalent),
		ClientTotal: s.ClientTotal,
		TalentTotal: s.TalentTotal,
		TotalSpent:  s.TotalSpent,
		TotalEarned: s.TotalEarned,
	}
}

func statusCounts(m map[valueobject.BookingStatus]int) map[string]int {
	out := make(map[string]int, len(m))
	for status, n := range m {
		out[string(status)] = n
	}
	return out
}

type CheckoutResponse struct {
	SessionID string          `json:"session_id"`
	URL       string          `json:"url"`
	Booking   BookingResponse `json:"booking"`
}

func ToCheckoutResponse(r *booking.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{SessionID: r.SessionID, URL: r.URL, Booking: ToBookingResponse(r.Booking)}
}

// PaymentWebhookRequest уведомление платёжного шлюза.
type PaymentWebhookRequest struct {
	SessionID string     `json:"session_id"`
	BookingID *uuid.UUID `json:"booking_id"`
	Status    string     `json:"status" binding:"required"`
}

type InvoiceResponse struct {
	ID            uuid.UUID  `json:"id"`
	BookingID     uuid.UUID  `json:"booking_id"`
	InvoiceNumber string     `json:"invoice_number"`
	ClientID      uuid.UUID  `json:"client_id"`
	TalentID      uuid.UUID  `json:"talent_id"`
	Subtotal      int64      `json:"subtotal"`
	PlatformFee   int64      `json:"platform_fee"`
	TaxAmount     int64      `json:"tax_amount"`
	TotalAmount   int64      `json:"total_amount"`
	TalentPayout  int64      `json:"talent_payout"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	IssuedAt      time.Time  `json:"issued_at"`
	DueAt         time.Time  `json:"due_at"`
	PaidAt        *time.Time `json:"paid_at"`
}

func ToInvoiceResponse(inv *entity.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		BookingID:     inv.BookingID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		TalentID:      inv.TalentID,
		Subtotal:      inv.Subtotal,
		PlatformFee:   inv.PlatformFee,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		TalentPayout:  inv.TalentPayout,
		Currency:      inv.Currency,
		Status:        string(inv.Status),
		IssuedAt:      inv.IssuedAt,
		DueAt:         inv.DueAt,
		PaidAt:        inv.PaidAt,
	}
}
