package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendar"
)

type CreateBlockRequest struct {
	StartTime         time.Time `json:"start_time" binding:"required"`
	EndTime           time.Time `json:"end_time" binding:"required"`
	Reason            string    `json:"reason"`
	Title             *string   `json:"title"`
	Notes             *string   `json:"notes"`
	VisibilityMessage *string   `json:"visibility_message"`
	Timezone          string    `json:"timezone"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern"`
}

type UpdateBlockRequest struct {
	StartTime         *time.Time `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	Reason            *string    `json:"reason"`
	Title             *string    `json:"title"`
	Notes             *string    `json:"notes"`
	VisibilityMessage *string    `json:"visibility_message"`
	IsRecurring       *bool      `json:"is_recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern"`
}

type BlockBookingResponse struct {
	ID          uuid.UUID `json:"id"`
	ClientID    uuid.UUID `json:"client_id"`
	TalentID    uuid.UUID `json:"talent_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	ClientName  *string   `json:"client_name,omitempty"`
	TalentName  *string   `json:"talent_name,omitempty"`
}

type BlockResponse struct {
	ID                uuid.UUID             `json:"id"`
	UserID            uuid.UUID             `json:"user_id"`
	StartTime         time.Time             `json:"start_time"`
	EndTime           time.Time             `json:"end_time"`
	Reason            string                `json:"reason"`
	BookingID         *uuid.UUID            `json:"booking_id"`
	Title             *string               `json:"title"`
	Notes             *string               `json:"notes"`
	VisibilityMessage *string               `json:"visibility_message"`
	Timezone          string                `json:"timezone"`
	IsRecurring       bool                  `json:"is_recurring"`
	RecurrencePattern *string               `json:"recurrence_pattern"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Booking           *BlockBookingResponse `json:"booking,omitempty"`
}

func ToBlockResponse(b *entity.CalendarBlock) BlockResponse {
	resp := BlockResponse{
		ID:                b.ID,
		UserID:            b.OwnerID,
		StartTime:         b.Range.Start,
		EndTime:           b.Range.End,
		Reason:            string(b.Reason),
		BookingID:         b.BookingID,
		Title:             b.Title,
		Notes:             b.Notes,
		VisibilityMessage: b.VisibilityMessage,
		Timezone:          b.Timezone,
		IsRecurring:       b.IsRecurring,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	if b.RecurrencePattern != nil {
		p := string(*b.RecurrencePattern)
		resp.RecurrencePattern = &p
	}
	if s := b.Booking; s != nil {
		resp.Booking = &BlockBookingResponse{
			ID:          s.ID,
			ClientID:    s.ClientID,
			TalentID:    s.TalentID,
			TotalAmount: s.TotalAmount,
			Status:      string(s.Status),
			ClientName:  s.ClientName,
			TalentName:  s.TalentName,
		}
	}
	return resp
}

func ToBlockResponses(blocks []*entity.CalendarBlock) []BlockResponse {
	return MapSlice(blocks, ToBlockResponse)
}

type DayAvailabilityResponse struct {
	Date              string                `json:"date"`
	IsAvailable       bool                  `json:"is_available"`
	ConflictingBlocks []PublicBlockResponse `json:"conflicting_blocks"`
}

// PublicBlockResponse блок в чужом календаре: без заметок и деталей бронирования.
type PublicBlockResponse struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Reason            string    `json:"reason"`
	VisibilityMessage *string   `json:"visibility_message"`
}

func ToPublicBlockResponse(b *entity.CalendarBlock) PublicBlockResponse {
	return PublicBlockResponse{
		StartTime:         b.Range.Start,
		EndTime:           b.Range.End,
		Reason:            string(b.Reason),
		VisibilityMessage: b.VisibilityMessage,
	}
}

func ToDayAvailabilityResponses(days []calendar.DayAvailability) []DayAvailabilityResponse {
	return MapSlice(days, func(d calendar.DayAvailability) DayAvailabilityResponse {
		return DayAvailabilityResponse{
			Date:              d.Date,
			IsAvailable:       d.IsAvailable,
			ConflictingBlocks: MapSlice(d.ConflictingBlocks, ToPublicBlockResponse),
		}
	})
}

type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

func ToSlotResponses(slots []calendar.Slot) []SlotResponse {
	return MapSlice(slots, func(s calendar.Slot) SlotResponse {
		return SlotResponse{StartTime: s.Start, EndTime: s.End, Available: s.Available}
	})
}
