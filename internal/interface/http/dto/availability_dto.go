package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/usecase/availability"
)

type CreateAvailabilityRequest struct {
	TalentID      uuid.UUID `json:"talent_id" binding:"required"`
	RequestedDate string    `json:"requested_date" binding:"required"`
	StartTime     *string   `json:"start_time"`
	EndTime       *string   `json:"end_time"`
	Message       *string   `json:"message"`
}

type RespondAvailabilityRequest struct {
	Status  string  `json:"status" binding:"required"`
	Message *string `json:"message"`
}

type BulkRespondAvailabilityRequest struct {
	IDs     []uuid.UUID `json:"ids" binding:"required,min=1,max=100"`
	Status  string      `json:"status" binding:"required"`
	Message *string     `json:"message"`
}

type AvailabilityRequestResponse struct {
	ID              uuid.UUID               `json:"id"`
	RequesterID     uuid.UUID               `json:"requester_id"`
	TalentID        uuid.UUID               `json:"talent_id"`
	RequestedDate   string                  `json:"requested_date"`
	StartTime       *string                 `json:"start_time"`
	EndTime         *string                 `json:"end_time"`
	Message         *string                 `json:"message"`
	Status          string                  `json:"status"`
	ResponseMessage *string                 `json:"response_message"`
	RespondedAt     *time.Time              `json:"responded_at"`
	ExpiresAt       time.Time               `json:"expires_at"`
	CreatedAt       time.Time               `json:"created_at"`
	Requester       *ProfileSummaryResponse `json:"requester,omitempty"`
	Talent          *ProfileSummaryResponse `json:"talent,omitempty"`
}

func ToAvailabilityRequestResponse(r *entity.AvailabilityRequest) AvailabilityRequestResponse {
	return AvailabilityRequestResponse{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		TalentID:        r.TalentID,
		RequestedDate:   *dateString(&r.RequestedDate),
		StartTime:       clockString(r.StartTime),
		EndTime:         clockString(r.EndTime),
		Message:         r.Message,
		Status:          string(r.Status),
		ResponseMessage: r.ResponseMessage,
		RespondedAt:     r.RespondedAt,
		ExpiresAt:       r.ExpiresAt,
		CreatedAt:       r.CreatedAt,
		Requester:       ToProfileSummary(r.Requester),
		Talent:          ToProfileSummary(r.Talent),
	}
}

func ToAvailabilityRequestResponses(items []*entity.AvailabilityRequest) []AvailabilityRequestResponse {
	return MapSlice(items, ToAvailabilityRequestResponse)
}

type AllAvailabilityRequestsResponse struct {
	Sent     []AvailabilityRequestResponse `json:"sent"`
	Received []AvailabilityRequestResponse `json:"received"`
}

func ToAllAvailabilityRequestsResponse(all *availability.AllRequests) AllAvailabilityRequestsResponse {
	return AllAvailabilityRequestsResponse{
		Sent:     ToAvailabilityRequestResponses(all.Sent),
		Received: ToAvailabilityRequestResponses(all.Received),
	}
}

type BulkFailureResponse struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

type BulkRespondResponse struct {
	Updated  []AvailabilityRequestResponse `json:"updated"`
	Failures []BulkFailureResponse         `json:"failures"`
}

func ToBulkRespondResponse(r *availability.BulkResult) BulkRespondResponse {
	return BulkRespondResponse{
		Updated: ToAvailabilityRequestResponses(r.Updated),
		Failures: MapSlice(r.Failures, func(f availability.BulkFailure) BulkFailureResponse {
			return BulkFailureResponse{ID: f.ID, Error: f.Error}
		}),
	}
}
