package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

type NotificationRepositoryAdapter struct {
	db *sqlx.DB
}

func NewNotificationRepositoryAdapter(db *sqlx.DB) *NotificationRepositoryAdapter {
	return &NotificationRepositoryAdapter{db: db}
}

type notificationRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Type      string    `db:"type"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Data      []byte    `db:"data"`
	Link      *string   `db:"link"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toEntity() *entity.Notification {
	n := &entity.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		Title:     r.Title,
		Message:   r.Message,
		Link:      r.Link,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
	if len(r.Data) > 0 {
		_ = json.Unmarshal(r.Data, &n.Data)
	}
	return n
}

func (r *NotificationRepositoryAdapter) Create(ctx context.Context, n *entity.Notification) error {
	data := []byte("{}")
	if n.Data != nil {
		encoded, err := json.Marshal(n.Data)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "failed to encode notification data")
		}
		data = encoded
	}

	q := psql.Insert("notifications").
		Columns("id", "user_id", "type", "title", "message", "data", "link", "is_read", "created_at").
		Values(n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.Link, n.IsRead, n.CreatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create notification")
	}
	return nil
}

func (r *NotificationRepositoryAdapter) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, error) {
	q := psql.Select("id", "user_id", "type", "title", "message", "data", "link", "is_read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if unreadOnly {
		q = q.Where(squirrel.Eq{"is_read": false})
	}

	var rows []notificationRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to list notifications")
	}
	out := make([]*entity.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *NotificationRepositoryAdapter) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"user_id": userID, "id": ids})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return 0, mapError(err, nil, nil, "failed to mark notifications read")
	}
	return rows, nil
}

func (r *NotificationRepositoryAdapter) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	q := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"user_id": userID, "is_read": false})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return 0, mapError(err, nil, nil, "failed to mark notifications read")
	}
	return rows, nil
}

func (r *NotificationRepositoryAdapter) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	q := psql.Select("COUNT(*)").From("notifications").Where(squirrel.Eq{"user_id": userID, "is_read": false})
	if err := get(ctx, r.db, &count, q); err != nil {
		return 0, mapError(err, nil, nil, "failed to count notifications")
	}
	return count, nil
}
