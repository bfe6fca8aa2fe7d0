package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/logger"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Pusher доставляет событие в открытые WebSocket соединения пользователя.
type Pusher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// NotifyUseCase сохраняет уведомление и отправляет его в реальном времени.
type NotifyUseCase struct {
	repo   repository.NotificationRepository
	pusher Pusher
}

func NewNotifyUseCase(repo repository.NotificationRepository, pusher Pusher) *NotifyUseCase {
	return &NotifyUseCase{repo: repo, pusher: pusher}
}

var _ port.Notifier = (*NotifyUseCase)(nil)

func (uc *NotifyUseCase) Notify(ctx context.Context, n port.Notification) error {
	record := entity.NewNotification(n.UserID, n.Type, n.Title, n.Message, n.Data, n.Link)
	if err := uc.repo.Create(ctx, record); err != nil {
		return err
	}
	if uc.pusher == nil {
		return nil
	}

	// Запись уже сохранена, поэтому сбой отправки не считается ошибкой.
	if err := uc.pusher.BroadcastToUser(n.UserID, n.Type, payload(record)); err != nil {
		logger.L().WithError(err).WithField("user_id", n.UserID.String()).Debug("notification push skipped")
	}
	return nil
}

func payload(n *entity.Notification) map[string]any {
	out := map[string]any{
		"id":         n.ID.String(),
		"title":      n.Title,
		"message":    n.Message,
		"data":       n.Data,
		"created_at": n.CreatedAt,
	}
	if n.Link != nil {
		out["link"] = *n.Link
	}
	return out
}

type ListNotificationsUseCase struct {
	repo repository.NotificationRepository
}

func NewListNotificationsUseCase(repo repository.NotificationRepository) *ListNotificationsUseCase {
	return &ListNotificationsUseCase{repo: repo}
}

func (uc *ListNotificationsUseCase) Execute(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "offset cannot be negative")
	}
	return uc.repo.List(ctx, userID, limit, offset, unreadOnly)
}

func (uc *ListNotificationsUseCase) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return uc.repo.CountUnread(ctx, userID)
}

type MarkReadUseCase struct {
	repo repository.NotificationRepository
}

func NewMarkReadUseCase(repo repository.NotificationRepository) *MarkReadUseCase {
	return &MarkReadUseCase{repo: repo}
}

// Execute отмечает прочитанными уведомления пользователя. Чужие идентификаторы игнорируются.
func (uc *MarkReadUseCase) Execute(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "ids are required")
	}
	return uc.repo.MarkRead(ctx, userID, ids)
}

func (uc *MarkReadUseCase) All(ctx context.Context, userID uuid.UUID) (int64, error) {
	return uc.repo.MarkAllRead(ctx, userID)
}
