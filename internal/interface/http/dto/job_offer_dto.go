package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/usecase/joboffer"
)

// OfferTermsRequest условия предложения (общие для отправки и встречного предложения).
type OfferTermsRequest struct {
	Title          string     `json:"title" binding:"required,max=200"`
	Description    string     `json:"description" binding:"required"`
	EventType      *string    `json:"event_type"`
	Location       *string    `json:"location"`
	EventDate      *string    `json:"event_date"`
	StartTime      *string    `json:"start_time"`
	EndTime        *string    `json:"end_time"`
	Timezone       string     `json:"timezone"`
	BudgetType     string     `json:"budget_type"`
	BudgetAmount   *float64   `json:"budget_amount"`
	Currency       string     `json:"currency"`
	RoleType       *string    `json:"role_type"`
	RoleTitle      *string    `json:"role_title"`
	RequiredSkills []string   `json:"required_skills"`
	MessageID      *uuid.UUID `json:"message_id"`
	ExpiresInDays  *int       `json:"expires_in_days"`
}

func (r OfferTermsRequest) ToInput() joboffer.TermsInput {
	return joboffer.TermsInput{
		Title:          r.Title,
		Description:    r.Description,
		EventType:      r.EventType,
		Location:       r.Location,
		EventDate:      r.EventDate,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Timezone:       r.Timezone,
		BudgetType:     r.BudgetType,
		BudgetAmount:   r.BudgetAmount,
		Currency:       r.Currency,
		RoleType:       r.RoleType,
		RoleTitle:      r.RoleTitle,
		RequiredSkills: r.RequiredSkills,
		MessageID:      r.MessageID,
		ExpiresInDays:  r.ExpiresInDays,
	}
}

type SendOfferRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	OfferTermsRequest
}

type OfferMessageRequest struct {
	Message *string `json:"message"`
}

type CounterOfferRequest struct {
	Message *string `json:"message"`
	OfferTermsRequest
}

type JobOfferResponse struct {
	ID                   uuid.UUID               `json:"id"`
	SenderID             uuid.UUID               `json:"sender_id"`
	RecipientID          uuid.UUID               `json:"recipient_id"`
	MessageID            *uuid.UUID              `json:"message_id"`
	Title                string                  `json:"title"`
	Description          string                  `json:"description"`
	EventType            *string                 `json:"event_type"`
	Location             *string                 `json:"location"`
	EventDate            *string                 `json:"event_date"`
	StartTime            *string                 `json:"start_time"`
	EndTime              *string                 `json:"end_time"`
	Timezone             string                  `json:"timezone"`
	BudgetType           string                  `json:"budget_type"`
	BudgetAmount         *float64                `json:"budget_amount"`
	Currency             string                  `json:"currency"`
	RoleType             *string                 `json:"role_type"`
	RoleTitle            *string                 `json:"role_title"`
	RequiredSkills       []string                `json:"required_skills"`
	Status               string                  `json:"status"`
	ResponseMessage      *string                 `json:"response_message"`
	RespondedAt          *time.Time              `json:"responded_at"`
	ExpiresAt            *time.Time              `json:"expires_at"`
	ConvertedToBookingID *uuid.UUID              `json:"converted_to_booking_id"`
	OriginalOfferID      *uuid.UUID              `json:"original_offer_id"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
	Sender               *ProfileSummaryResponse `json:"sender,omitempty"`
	Recipient            *ProfileSummaryResponse `json:"recipient,omitempty"`
}

func ToJobOfferResponse(o *entity.JobOffer) JobOfferResponse {
	resp := JobOfferResponse{
		ID:                   o.ID,
		SenderID:             o.SenderID,
		RecipientID:          o.RecipientID,
		MessageID:            o.MessageID,
		Title:                o.Title,
		Description:          o.Description,
		EventType:            o.EventType,
		Location:             o.Location,
		EventDate:            dateString(o.EventDate),
		StartTime:            clockString(o.StartTime),
		EndTime:              clockString(o.EndTime),
		Timezone:             o.Timezone,
		BudgetType:           string(o.Budget.Type),
		BudgetAmount:         o.Budget.Amount,
		Currency:             o.Budget.Currency,
		RoleTitle:            o.RoleTitle,
		RequiredSkills:       o.RequiredSkills,
		Status:               string(o.Status),
		ResponseMessage:      o.ResponseMessage,
		RespondedAt:          o.RespondedAt,
		ExpiresAt:            o.ExpiresAt,
		ConvertedToBookingID: o.ConvertedToBookingID,
		OriginalOfferID:      o.OriginalOfferID,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Sender:               ToProfileSummary(o.Sender),
		Recipient:            ToProfileSummary(o.Recipient),
	}
	if o.RoleType != nil {
		rt := string(*o.RoleType)
		resp.RoleType = &rt
	}
	if resp.RequiredSkills == nil {
		resp.RequiredSkills = []string{}
	}
	return resp
}

func ToJobOfferResponses(offers []*entity.JobOffer) []JobOfferResponse {
	return MapSlice(offers, ToJobOfferResponse)
}

type OfferCountsResponse struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

type OffersSummaryResponse struct {
	Received OfferCountsResponse `json:"received"`
	Sent     OfferCountsResponse `json:"sent"`
}

func ToOffersSummaryResponse(s *entity.OffersSummary) OffersSummaryResponse {
	conv := func(c entity.OfferCounts) OfferCountsResponse {
		return OfferCountsResponse{Total: c.Total, Pending: c.Pending, Accepted: c.Accepted, Rejected: c.Rejected}
	}
	return OffersSummaryResponse{Received: conv(s.Received), Sent: conv(s.Sent)}
}

type ConvertOfferResponse struct {
	BookingID uuid.UUID       `json:"booking_id"`
	Booking   BookingResponse `json:"booking"`
}
