package persistence

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

var conversationColumns = []string{
	"id", "participant_a", "participant_b", "job_id", "last_message_at", "created_at", "updated_at",
}

type ConversationRepositoryAdapter struct {
	db *sqlx.DB
}

func NewConversationRepositoryAdapter(db *sqlx.DB) *ConversationRepositoryAdapter {
	return &ConversationRepositoryAdapter{db: db}
}

type conversationRow struct {
	ID            uuid.UUID  `db:"id"`
	ParticipantA  uuid.UUID  `db:"participant_a"`
	ParticipantB  uuid.UUID  `db:"participant_b"`
	JobID         *uuid.UUID `db:"job_id"`
	LastMessageAt *time.Time `db:"last_message_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r conversationRow) toEntity() *entity.Conversation {
	return &entity.Conversation{
		ID:            r.ID,
		ParticipantA:  r.ParticipantA,
		ParticipantB:  r.ParticipantB,
		JobID:         r.JobID,
		LastMessageAt: r.LastMessageAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *ConversationRepositoryAdapter) Create(ctx context.Context, c *entity.Conversation) error {
	q := psql.Insert("conversations").
		Columns(conversationColumns...).
		Values(c.ID, c.ParticipantA, c.ParticipantB, c.JobID, c.LastMessageAt, c.CreatedAt, c.UpdatedAt)
	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create conversation")
	}
	return nil
}

func (r *ConversationRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var row conversationRow
	q := psql.Select(conversationColumns...).From("conversations").Where(squirrel.Eq{"id": id})
	if err := get(ctx, r.db, &row, q); err != nil {
		return nil, mapError(err, apperror.ErrConversationNotFound, nil, "failed to load conversation")
	}
	return row.toEntity(), nil
}

func (r *ConversationRepositoryAdapter) FindByParticipants(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error) {
	a, b = entity.OrderedPair(a, b)
	var rows []conversationRow
	q := psql.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Eq{"participant_a": a, "participant_b": b})
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to load conversation")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}

func (r *ConversationRepositoryAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	q := psql.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Or{squirrel.Eq{"participant_a": userID}, squirrel.Eq{"participant_b": userID}}).
		OrderBy("COALESCE(last_message_at, created_at) DESC", "id")

	var rows []conversationRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to list conversations")
	}
	out := make([]*entity.Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *ConversationRepositoryAdapter) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	q := psql.Update("conversations").
		Set("last_message_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id})
	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, nil, "failed to update conversation")
	}
	if rows == 0 {
		return apperror.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepositoryAdapter) SetJob(ctx context.Context, id, jobID uuid.UUID) error {
	q := psql.Update("conversations").
		Set("job_id", jobID).
		Where(squirrel.Eq{"id": id, "job_id": nil})
	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to update conversation")
	}
	return nil
}

var messageColumns = []string{
	"id", "conversation_id", "sender_id", "recipient_id", "body", "context_type", "context_id",
	"is_read", "read_at", "created_at",
}

type MessageRepositoryAdapter struct {
	db *sqlx.DB
}

func NewMessageRepositoryAdapter(db *sqlx.DB) *MessageRepositoryAdapter {
	return &MessageRepositoryAdapter{db: db}
}

type messageRow struct {
	ID             uuid.UUID  `db:"id"`
	ConversationID uuid.UUID  `db:"conversation_id"`
	SenderID       uuid.UUID  `db:"sender_id"`
	RecipientID    uuid.UUID  `db:"recipient_id"`
	Body           string     `db:"body"`
	ContextType    *string    `db:"context_type"`
	ContextID      *uuid.UUID `db:"context_id"`
	IsRead         bool       `db:"is_read"`
	ReadAt         *time.Time `db:"read_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (r messageRow) toEntity() *entity.Message {
	m := &entity.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		RecipientID:    r.RecipientID,
		Body:           r.Body,
		ContextID:      r.ContextID,
		IsRead:         r.IsRead,
		ReadAt:         r.ReadAt,
		CreatedAt:      r.CreatedAt,
	}
	if r.ContextType != nil {
		m.ContextType = entity.MessageContext(*r.ContextType)
	}
	return m
}

func (r *MessageRepositoryAdapter) scanAll(ctx context.Context, q squirrel.SelectBuilder, msg string) ([]*entity.Message, error) {
	var rows []messageRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, msg)
	}
	out := make([]*entity.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *MessageRepositoryAdapter) Create(ctx context.Context, m *entity.Message) error {
	var contextType *string
	if m.ContextType != entity.MessageContextNone {
		s := string(m.ContextType)
		contextType = &s
	}
	q := psql.Insert("messages").
		Columns(messageColumns...).
		Values(m.ID, m.ConversationID, m.SenderID, m.RecipientID, m.Body, contextType, m.ContextID,
			m.IsRead, m.ReadAt, m.CreatedAt)
	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create message")
	}
	return nil
}

func (r *MessageRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var row messageRow
	q := psql.Select(messageColumns...).From("messages").Where(squirrel.Eq{"id": id})
	if err := get(ctx, r.db, &row, q); err != nil {
		return nil, mapError(err, apperror.ErrMessageNotFound, nil, "failed to load message")
	}
	return row.toEntity(), nil
}

func (r *MessageRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	rows, err := exec(ctx, r.db, psql.Delete("messages").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return mapError(err, nil, nil, "failed to delete message")
	}
	if rows == 0 {
		return apperror.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepositoryAdapter) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	q := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.Eq{"conversation_id": conversationID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	return r.scanAll(ctx, q, "failed to list messages")
}

func (r *MessageRepositoryAdapter) GetLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	msgs, err := r.ListByConversation(ctx, conversationID, 1, 0)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

func (r *MessageRepositoryAdapter) MarkRead(ctx context.Context, conversationID, recipientID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	q := psql.Update("messages").
		Set("is_read", true).
		Set("read_at", at).
		Where(squirrel.Eq{"conversation_id": conversationID, "recipient_id": recipientID, "is_read": false})
	if len(ids) > 0 {
		q = q.Where(squirrel.Eq{"id": ids})
	}
	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return 0, mapError(err, nil, nil, "failed to mark messages read")
	}
	return rows, nil
}

func (r *MessageRepositoryAdapter) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		ConversationID uuid.UUID `db:"conversation_id"`
		Count          int       `db:"unread"`
	}
	q := psql.Select("conversation_id", "COUNT(*) AS unread").
		From("messages").
		Where(squirrel.Eq{"recipient_id": userID, "is_read": false}).
		GroupBy("conversation_id")
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to count unread messages")
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ConversationID] = row.Count
	}
	return out, nil
}

func (r *MessageRepositoryAdapter) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*entity.Message, error) {
	return r.scanAll(ctx, searchMessages(userID, query, limit), "failed to search messages")
}

func searchMessages(userID uuid.UUID, query string, limit int) squirrel.SelectBuilder {
	return psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.Or{squirrel.Eq{"sender_id": userID}, squirrel.Eq{"recipient_id": userID}}).
		Where(squirrel.ILike{"body": "%" + escapeLike(query) + "%"}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
}
