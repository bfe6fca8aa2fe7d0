package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/validation"
)

// Conversation переписка двух пользователей. Пара хранится упорядоченной, поэтому на пару одна беседа.
type Conversation struct {
	ID            uuid.UUID
	ParticipantA  uuid.UUID
	ParticipantB  uuid.UUID
	JobID         *uuid.UUID
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderedPair возвращает пару участников в порядке хранения.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

func NewConversation(userID, otherID uuid.UUID, now time.Time) (*Conversation, error) {
	if userID == uuid.Nil || otherID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "both participants are required")
	}
	if userID == otherID {
		return nil, apperror.New(apperror.ErrCodeValidation, "you cannot start a conversation with yourself")
	}
	a, b := OrderedPair(userID, otherID)
	return &Conversation{
		ID:           uuid.New(),
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Other возвращает собеседника userID.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// MessageContext к чему относится сообщение.
type MessageContext string

const (
	MessageContextNone    MessageContext = ""
	MessageContextJob     MessageContext = "job"
	MessageContextBooking MessageContext = "booking"
	MessageContextOffer   MessageContext = "offer"
)

func NewMessageContext(v string) (MessageContext, error) {
	switch c := MessageContext(v); c {
	case MessageContextNone, MessageContextJob, MessageContextBooking, MessageContextOffer:
		return c, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "context_type must be job, booking or offer")
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	RecipientID    uuid.UUID
	Body           string
	ContextType    MessageContext
	ContextID      *uuid.UUID
	IsRead         bool
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// NewMessage создаёт сообщение от senderID собеседнику в беседе conv.
func NewMessage(conv *Conversation, senderID uuid.UUID, body string, contextType MessageContext, contextID *uuid.UUID, now time.Time) (*Message, error) {
	if !conv.IsParticipant(senderID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "you are not part of this conversation")
	}
	body = strings.TrimSpace(body)
	if err := validation.ValidateLength("message", body, 1, validation.MaxMessageLength); err != nil {
		return nil, err
	}
	if (contextType == MessageContextNone) != (contextID == nil) {
		return nil, apperror.New(apperror.ErrCodeValidation, "context_type and context_id must be given together")
	}
	return &Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    conv.Other(senderID),
		Body:           body,
		ContextType:    contextType,
		ContextID:      contextID,
		CreatedAt:      now,
	}, nil
}

func (m *Message) IsOwnedBy(userID uuid.UUID) bool {
	return m.SenderID == userID
}

// Between true, если сообщение передано между a и b в любом направлении.
func (m *Message) Between(a, b uuid.UUID) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}

// ConversationPreview строка списка бесед.
type ConversationPreview struct {
	Conversation *Conversation
	OtherUser    *ProfileSummary
	LastMessage  *Message
	UnreadCount  int
}
