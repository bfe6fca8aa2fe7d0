// Package conversation ведёт переписку участников: беседы по паре пользователей,
// сообщения с привязкой к вакансии, бронированию или предложению.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/logger"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

const (
	defaultLimit = 50
	maxLimit     = 100
	searchLimit  = 10

	// EventNewMessage тип WebSocket события с новым сообщением.
	EventNewMessage = "new_message"
)

// Pusher доставляет событие в открытые WebSocket соединения пользователя.
type Pusher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

type Deps struct {
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Profiles      repository.ProfileRepository
	Bookings      repository.BookingRepository
	Offers        repository.JobOfferRepository
	Jobs          repository.JobRepository
	Tx            repository.Transactor
	Clock         clock.Clock
	Effects       *effects.Effects
	Pusher        Pusher
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now().UTC()
	}
	return d.Clock.Now()
}

// getOrCreate находит беседу пары или создаёт её. Гонку двух создателей разрешает уникальный индекс.
func (d Deps) getOrCreate(ctx context.Context, userID, otherID uuid.UUID) (*entity.Conversation, error) {
	conv, err := entity.NewConversation(userID, otherID, d.now())
	if err != nil {
		return nil, err
	}
	existing, err := d.Conversations.FindByParticipants(ctx, userID, otherID)
	if err != nil || existing != nil {
		return existing, err
	}
	if _, err := d.Profiles.FindByID(ctx, otherID); err != nil {
		return nil, err
	}

	if err := d.Conversations.Create(ctx, conv); err != nil {
		if !apperror.IsConflict(err) {
			return nil, err
		}
		existing, ferr := d.Conversations.FindByParticipants(ctx, userID, otherID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, err
		}
		return existing, nil
	}
	return conv, nil
}

func (d Deps) participantConversation(ctx context.Context, conversationID, userID uuid.UUID) (*entity.Conversation, error) {
	conv, err := d.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "you are not part of this conversation")
	}
	return conv, nil
}

type StartConversationUseCase struct {
	deps Deps
}

func NewStartConversationUseCase(deps Deps) *StartConversationUseCase {
	return &StartConversationUseCase{deps: deps}
}

// WithUser открывает беседу с произвольным пользователем.
func (uc *StartConversationUseCase) WithUser(ctx context.Context, userID, otherID uuid.UUID) (*entity.Conversation, error) {
	return uc.deps.getOrCreate(ctx, userID, otherID)
}

// ForBooking открывает беседу сторон бронирования.
func (uc *StartConversationUseCase) ForBooking(ctx context.Context, bookingID, userID uuid.UUID) (*entity.Conversation, error) {
	b, err := uc.deps.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, apperror.ErrNotParty
	}
	return uc.deps.getOrCreate(ctx, userID, b.Counterparty(userID))
}

// ForOffer открывает беседу отправителя и получателя предложения.
func (uc *StartConversationUseCase) ForOffer(ctx context.Context, offerID, userID uuid.UUID) (*entity.Conversation, error) {
	o, err := uc.deps.Offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !o.IsParty(userID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "you are not part of this offer")
	}
	other := o.SenderID
	if other == userID {
		other = o.RecipientID
	}
	return uc.deps.getOrCreate(ctx, userID, other)
}

type SendInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Body           string
	ContextType    string
	ContextID      *uuid.UUID
}

type SendMessageUseCase struct {
	deps Deps
}

func NewSendMessageUseCase(deps Deps) *SendMessageUseCase {
	return &SendMessageUseCase{deps: deps}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, input SendInput) (*entity.Message, error) {
	contextType, err := entity.NewMessageContext(input.ContextType)
	if err != nil {
		return nil, err
	}
	conv, err := uc.deps.participantConversation(ctx, input.ConversationID, input.SenderID)
	if err != nil {
		return nil, err
	}
	msg, err := entity.NewMessage(conv, input.SenderID, input.Body, contextType, input.ContextID, uc.deps.now())
	if err != nil {
		return nil, err
	}
	if err := uc.deps.checkContext(ctx, msg); err != nil {
		return nil, err
	}
	if err := uc.deps.store(ctx, conv, msg); err != nil {
		return nil, err
	}
	uc.deps.deliver(ctx, msg)
	return msg, nil
}

// checkContext проверяет, что контекст существует и относится к обеим сторонам.
func (d Deps) checkContext(ctx context.Context, msg *entity.Message) error {
	switch msg.ContextType {
	case entity.MessageContextJob:
		_, err := d.Jobs.FindPostingByID(ctx, *msg.ContextID)
		return err
	case entity.MessageContextBooking:
		b, err := d.Bookings.FindByID(ctx, *msg.ContextID)
		if err != nil {
			return err
		}
		if !b.IsParty(msg.SenderID) || !b.IsParty(msg.RecipientID) {
			return apperror.New(apperror.ErrCodeValidation, "booking does not belong to this conversation")
		}
	case entity.MessageContextOffer:
		o, err := d.Offers.FindByID(ctx, *msg.ContextID)
		if err != nil {
			return err
		}
		if !o.IsParty(msg.SenderID) || !o.IsParty(msg.RecipientID) {
			return apperror.New(apperror.ErrCodeValidation, "offer does not belong to this conversation")
		}
	}
	return nil
}

func (d Deps) store(ctx context.Context, conv *entity.Conversation, msg *entity.Message) error {
	return d.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := d.Messages.Create(ctx, msg); err != nil {
			return err
		}
		if msg.ContextType == entity.MessageContextJob && conv.JobID == nil {
			if err := d.Conversations.SetJob(ctx, conv.ID, *msg.ContextID); err != nil {
				return err
			}
		}
		return d.Conversations.Touch(ctx, conv.ID, msg.CreatedAt)
	})
}

// deliver отправляет сообщение получателю в WebSocket и создаёт уведомление.
func (d Deps) deliver(ctx context.Context, msg *entity.Message) {
	if d.Pusher != nil {
		if err := d.Pusher.BroadcastToUser(msg.RecipientID, EventNewMessage, Payload(msg)); err != nil {
			logger.L().WithError(err).WithField("user_id", msg.RecipientID.String()).Debug("message push skipped")
		}
	}

	link := "/messages/" + msg.ConversationID.String()
	d.Effects.Notify(ctx, port.Notification{
		UserID:  msg.RecipientID,
		Type:    "message_received",
		Title:   "New message",
		Message: preview(msg.Body),
		Data:    map[string]any{"conversation_id": msg.ConversationID.String(), "message_id": msg.ID.String()},
		Link:    &link,
	})
}

// Payload тело события new_message.
func Payload(m *entity.Message) map[string]any {
	out := map[string]any{
		"id":              m.ID.String(),
		"conversation_id": m.ConversationID.String(),
		"sender_id":       m.SenderID.String(),
		"body":            m.Body,
		"created_at":      m.CreatedAt,
	}
	if m.ContextType != entity.MessageContextNone {
		out["context_type"] = string(m.ContextType)
		out["context_id"] = m.ContextID.String()
	}
	return out
}

func preview(body string) string {
	const previewRunes = 120
	r := []rune(body)
	if len(r) <= previewRunes {
		return body
	}
	return string(r[:previewRunes]) + "…"
}

type SendAboutJobUseCase struct {
	deps Deps
}

func NewSendAboutJobUseCase(deps Deps) *SendAboutJobUseCase {
	return &SendAboutJobUseCase{deps: deps}
}

// Execute пишет пользователю по поводу вакансии, открывая беседу при необходимости.
func (uc *SendAboutJobUseCase) Execute(ctx context.Context, senderID, recipientID, jobID uuid.UUID, body string) (*entity.Message, error) {
	if _, err := uc.deps.Jobs.FindPostingByID(ctx, jobID); err != nil {
		return nil, err
	}
	conv, err := uc.deps.getOrCreate(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	msg, err := entity.NewMessage(conv, senderID, body, entity.MessageContextJob, &jobID, uc.deps.now())
	if err != nil {
		return nil, err
	}
	if err := uc.deps.store(ctx, conv, msg); err != nil {
		return nil, err
	}
	uc.deps.deliver(ctx, msg)
	return msg, nil
}

type ListConversationsUseCase struct {
	deps Deps
}

func NewListConversationsUseCase(deps Deps) *ListConversationsUseCase {
	return &ListConversationsUseCase{deps: deps}
}

// Execute возвращает беседы пользователя с последним сообщением и числом непрочитанных.
func (uc *ListConversationsUseCase) Execute(ctx context.Context, userID uuid.UUID) ([]*entity.ConversationPreview, error) {
	convs, err := uc.deps.Conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := uc.deps.Messages.UnreadCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.ConversationPreview, 0, len(convs))
	for _, conv := range convs {
		last, err := uc.deps.Messages.GetLastMessage(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		p := &entity.ConversationPreview{Conversation: conv, LastMessage: last, UnreadCount: unread[conv.ID]}
		other, err := uc.deps.Profiles.FindByID(ctx, conv.Other(userID))
		switch {
		case err == nil:
			p.OtherUser = other.Summary()
		case errors.Is(err, apperror.ErrProfileNotFound):
			p.OtherUser = &entity.ProfileSummary{ID: conv.Other(userID)}
		default:
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type ListMessagesUseCase struct {
	deps Deps
}

func NewListMessagesUseCase(deps Deps) *ListMessagesUseCase {
	return &ListMessagesUseCase{deps: deps}
}

func (uc *ListMessagesUseCase) Execute(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	if _, err := uc.deps.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return uc.deps.Messages.ListByConversation(ctx, conversationID, limit, offset)
}

type MarkReadUseCase struct {
	deps Deps
}

func NewMarkReadUseCase(deps Deps) *MarkReadUseCase {
	return &MarkReadUseCase{deps: deps}
}

// Message отмечает одно сообщение прочитанным. Прочитать может только получатель.
func (uc *MarkReadUseCase) Message(ctx context.Context, messageID, userID uuid.UUID) (int64, error) {
	msg, err := uc.deps.Messages.FindByID(ctx, messageID)
	if err != nil {
		return 0, err
	}
	if msg.RecipientID != userID {
		return 0, apperror.New(apperror.ErrCodeForbidden, "only the recipient can mark a message read")
	}
	return uc.deps.Messages.MarkRead(ctx, msg.ConversationID, userID, []uuid.UUID{msg.ID}, uc.deps.now())
}

// Conversation отмечает прочитанными все входящие сообщения беседы.
func (uc *MarkReadUseCase) Conversation(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	if _, err := uc.deps.participantConversation(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return uc.deps.Messages.MarkRead(ctx, conversationID, userID, nil, uc.deps.now())
}

type DeleteMessageUseCase struct {
	deps Deps
}

func NewDeleteMessageUseCase(deps Deps) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{deps: deps}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := uc.deps.Messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !msg.IsOwnedBy(userID) {
		return apperror.New(apperror.ErrCodeForbidden, "only the sender can delete a message")
	}
	return uc.deps.Messages.Delete(ctx, messageID)
}

type SearchUseCase struct {
	deps Deps
}

func NewSearchUseCase(deps Deps) *SearchUseCase {
	return &SearchUseCase{deps: deps}
}

func normalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < 2 {
		return "", apperror.New(apperror.ErrCodeValidation, "search query must be at least 2 characters")
	}
	return q, nil
}

// Users ищет собеседников по имени или почте, кроме самого пользователя.
func (uc *SearchUseCase) Users(ctx context.Context, userID uuid.UUID, query string) ([]*entity.Profile, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	return uc.deps.Profiles.Search(ctx, q, userID, searchLimit)
}

// Messages ищет по тексту в беседах пользователя.
func (uc *SearchUseCase) Messages(ctx context.Context, userID uuid.UUID, query string) ([]*entity.Message, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	return uc.deps.Messages.Search(ctx, userID, q, maxLimit)
}
