package persistence

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

var availabilityRequestColumns = []string{
	"ar.id", "ar.requester_id", "ar.talent_id", "ar.requested_date", "ar.start_time", "ar.end_time",
	"ar.message", "ar.status", "ar.response_message", "ar.responded_at", "ar.expires_at",
	"ar.created_at", "ar.updated_at",
	"pr.display_name AS requester_name", "pr.avatar_url AS requester_avatar",
	"pt.display_name AS talent_name", "pt.avatar_url AS talent_avatar",
}

type AvailabilityRequestRepositoryAdapter struct {
	db *sqlx.DB
}

func NewAvailabilityRequestRepositoryAdapter(db *sqlx.DB) *AvailabilityRequestRepositoryAdapter {
	return &AvailabilityRequestRepositoryAdapter{db: db}
}

type availabilityRequestRow struct {
	ID              uuid.UUID  `db:"id"`
	RequesterID     uuid.UUID  `db:"requester_id"`
	TalentID        uuid.UUID  `db:"talent_id"`
	RequestedDate   time.Time  `db:"requested_date"`
	StartTime       *string    `db:"start_time"`
	EndTime         *string    `db:"end_time"`
	Message         *string    `db:"message"`
	Status          string     `db:"status"`
	ResponseMessage *string    `db:"response_message"`
	RespondedAt     *time.Time `db:"responded_at"`
	ExpiresAt       time.Time  `db:"expires_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	RequesterName   *string    `db:"requester_name"`
	RequesterAvatar *string    `db:"requester_avatar"`
	TalentName      *string    `db:"talent_name"`
	TalentAvatar    *string    `db:"talent_avatar"`
}

func (r availabilityRequestRow) toEntity() *entity.AvailabilityRequest {
	req := &entity.AvailabilityRequest{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		TalentID:        r.TalentID,
		RequestedDate:   r.RequestedDate,
		StartTime:       parseClockPtr(r.StartTime),
		EndTime:         parseClockPtr(r.EndTime),
		Message:         r.Message,
		Status:          valueobject.AvailabilityRequestStatus(r.Status),
		ResponseMessage: r.ResponseMessage,
		RespondedAt:     r.RespondedAt,
		ExpiresAt:       r.ExpiresAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.RequesterName != nil {
		req.Requester = &entity.ProfileSummary{ID: r.RequesterID, DisplayName: *r.RequesterName, AvatarURL: r.RequesterAvatar}
	}
	if r.TalentName != nil {
		req.Talent = &entity.ProfileSummary{ID: r.TalentID, DisplayName: *r.TalentName, AvatarURL: r.TalentAvatar}
	}
	return req
}

func parseClockPtr(v *string) *valueobject.ClockTime {
	if v == nil || *v == "" {
		return nil
	}
	c, err := valueobject.ParseClock(*v)
	if err != nil {
		return nil
	}
	return &c
}

func clockValue(c *valueobject.ClockTime) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func dateValue(t time.Time) string {
	return t.Format(valueobject.DateLayout)
}

func (r *AvailabilityRequestRepositoryAdapter) Create(ctx context.Context, req *entity.AvailabilityRequest) error {
	q := psql.Insert("availability_requests").
		Columns("id", "requester_id", "talent_id", "requested_date", "start_time", "end_time", "message",
			"status", "expires_at", "created_at", "updated_at").
		Values(req.ID, req.RequesterID, req.TalentID, dateValue(req.RequestedDate), clockValue(req.StartTime),
			clockValue(req.EndTime), req.Message, string(req.Status), req.ExpiresAt, req.CreatedAt, req.UpdatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create availability request")
	}
	return nil
}

func (r *AvailabilityRequestRepositoryAdapter) Update(ctx context.Context, req *entity.AvailabilityRequest) error {
	q := psql.Update("availability_requests").
		SetMap(map[string]interface{}{
			"status":           string(req.Status),
			"response_message": req.ResponseMessage,
			"responded_at":     req.RespondedAt,
			"updated_at":       req.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": req.ID, "status": string(valueobject.AvailabilityRequestPending)})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, nil, "failed to update availability request")
	}
	if rows == 0 {
		if _, err := r.FindByID(ctx, req.ID); err != nil {
			return err
		}
		return apperror.ErrAlreadyAnswered
	}
	return nil
}

func (r *AvailabilityRequestRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.AvailabilityRequest, error) {
	var row availabilityRequestRow
	if err := get(ctx, r.db, &row, selectAvailabilityRequests().Where(squirrel.Eq{"ar.id": id})); err != nil {
		return nil, mapError(err, apperror.ErrRequestNotFound, nil, "failed to load availability request")
	}
	return row.toEntity(), nil
}

func (r *AvailabilityRequestRepositoryAdapter) HasOpenDuplicate(ctx context.Context, requesterID, talentID uuid.UUID, date, now time.Time) (bool, error) {
	var exists bool
	q := psql.Select("1").
		From("availability_requests").
		Where(squirrel.Eq{
			"requester_id":   requesterID,
			"talent_id":      talentID,
			"requested_date": dateValue(date),
			"status":         string(valueobject.AvailabilityRequestPending),
		}).
		Where(squirrel.Gt{"expires_at": now}).
		Prefix("SELECT EXISTS (").
		Suffix(")")

	if err := get(ctx, r.db, &exists, q); err != nil {
		return false, mapError(err, nil, nil, "failed to check duplicate availability request")
	}
	return exists, nil
}

func (r *AvailabilityRequestRepositoryAdapter) ListPendingForTalent(ctx context.Context, talentID uuid.UUID, now time.Time) ([]*entity.AvailabilityRequest, error) {
	q := selectAvailabilityRequests().
		Where(squirrel.Eq{"ar.talent_id": talentID, "ar.status": string(valueobject.AvailabilityRequestPending)}).
		Where(squirrel.Gt{"ar.expires_at": now}).
		OrderBy("ar.requested_date ASC", "ar.created_at ASC")
	return r.list(ctx, q)
}

func (r *AvailabilityRequestRepositoryAdapter) ListByTalent(ctx context.Context, talentID uuid.UUID) ([]*entity.AvailabilityRequest, error) {
	q := selectAvailabilityRequests().
		Where(squirrel.Eq{"ar.talent_id": talentID}).
		OrderBy("ar.created_at DESC")
	return r.list(ctx, q)
}

func (r *AvailabilityRequestRepositoryAdapter) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*entity.AvailabilityRequest, error) {
	q := selectAvailabilityRequests().
		Where(squirrel.Eq{"ar.requester_id": requesterID}).
		OrderBy("ar.created_at DESC")
	return r.list(ctx, q)
}

func (r *AvailabilityRequestRepositoryAdapter) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	q := psql.Update("availability_requests").
		Set("status", string(valueobject.AvailabilityRequestExpired)).
		Set("updated_at", now).
		Where(squirrel.Eq{"status": string(valueobject.AvailabilityRequestPending)}).
		Where(squirrel.LtOrEq{"expires_at": now})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return 0, mapError(err, nil, nil, "failed to expire availability requests")
	}
	return rows, nil
}

func (r *AvailabilityRequestRepositoryAdapter) list(ctx context.Context, q squirrel.SelectBuilder) ([]*entity.AvailabilityRequest, error) {
	var rows []availabilityRequestRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to list availability requests")
	}
	out := make([]*entity.AvailabilityRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func selectAvailabilityRequests() squirrel.SelectBuilder {
	return psql.Select(availabilityRequestColumns...).
		From("availability_requests ar").
		LeftJoin("profiles pr ON pr.id = ar.requester_id").
		LeftJoin("profiles pt ON pt.id = ar.talent_id")
}
