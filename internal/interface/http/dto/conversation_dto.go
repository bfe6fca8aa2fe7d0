package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
)

type StartConversationRequest struct {
	UserID    *uuid.UUID `json:"user_id"`
	BookingID *uuid.UUID `json:"booking_id"`
	OfferID   *uuid.UUID `json:"offer_id"`
}

type SendMessageRequest struct {
	Body        string     `json:"body" binding:"required"`
	ContextType string     `json:"context_type"`
	ContextID   *uuid.UUID `json:"context_id"`
}

type SendAboutJobRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Body        string    `json:"body" binding:"required"`
}

type ConversationResponse struct {
	ID            uuid.UUID   `json:"id"`
	Participants  []uuid.UUID `json:"participants"`
	JobID         *uuid.UUID  `json:"job_id"`
	LastMessageAt *time.Time  `json:"last_message_at"`
	CreatedAt     time.Time   `json:"created_at"`
}

func ToConversationResponse(c *entity.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:            c.ID,
		Participants:  []uuid.UUID{c.ParticipantA, c.ParticipantB},
		JobID:         c.JobID,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	RecipientID    uuid.UUID  `json:"recipient_id"`
	Body           string     `json:"body"`
	ContextType    *string    `json:"context_type"`
	ContextID      *uuid.UUID `json:"context_id"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func ToMessageResponse(m *entity.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		Body:           m.Body,
		ContextID:      m.ContextID,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
	if m.ContextType != entity.MessageContextNone {
		s := string(m.ContextType)
		resp.ContextType = &s
	}
	return resp
}

type ConversationPreviewResponse struct {
	Conversation ConversationResponse    `json:"conversation"`
	OtherUser    *ProfileSummaryResponse `json:"other_user"`
	LastMessage  *MessageResponse        `json:"last_message"`
	UnreadCount  int                     `json:"unread_count"`
}

func ToConversationPreviewResponse(p *entity.ConversationPreview) ConversationPreviewResponse {
	resp := ConversationPreviewResponse{
		Conversation: ToConversationResponse(p.Conversation),
		OtherUser:    ToProfileSummary(p.OtherUser),
		UnreadCount:  p.UnreadCount,
	}
	if p.LastMessage != nil {
		m := ToMessageResponse(p.LastMessage)
		resp.LastMessage = &m
	}
	return resp
}

type UserSearchResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Role        string    `json:"role"`
}

func ToUserSearchResponse(p *entity.Profile) UserSearchResponse {
	return UserSearchResponse{ID: p.ID, DisplayName: p.DisplayName, AvatarURL: p.AvatarURL, Role: p.Role}
}
