package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
)

type ConversationRepository interface {
	// Create возвращает конфликт, если беседа этой пары уже есть.
	Create(ctx context.Context, conv *entity.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	// FindByParticipants возвращает nil, nil, если беседы нет.
	FindByParticipants(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error)
	// ListByUser сортирует по времени последнего сообщения, новые сверху.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	// SetJob проставляет вакансию только беседе без неё.
	SetJob(ctx context.Context, id, jobID uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *entity.Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByConversation новые сверху.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error)
	// GetLastMessage возвращает nil, nil для пустой беседы.
	GetLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error)
	// MarkRead отмечает непрочитанные сообщения получателю recipientID. Пустой ids означает всю беседу.
	MarkRead(ctx context.Context, conversationID, recipientID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error)
	// UnreadCounts число непрочитанных по беседам пользователя.
	UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	// Search ищет по тексту в беседах пользователя.
	Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*entity.Message, error)
}
