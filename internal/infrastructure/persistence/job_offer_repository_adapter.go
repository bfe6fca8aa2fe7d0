package persistence

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

var jobOfferColumns = []string{
	"o.id", "o.sender_id", "o.recipient_id", "o.message_id", "o.title", "o.description", "o.event_type",
	"o.location", "o.event_date", "o.start_time", "o.end_time", "o.timezone", "o.budget_type",
	"o.budget_amount", "o.currency", "o.role_type", "o.role_title", "o.required_skills", "o.status",
	"o.response_message", "o.responded_at", "o.expires_at", "o.converted_to_booking_id",
	"o.original_offer_id", "o.created_at", "o.updated_at",
	"ps.display_name AS sender_name", "ps.avatar_url AS sender_avatar",
	"pr.display_name AS recipient_name", "pr.avatar_url AS recipient_avatar",
}

type JobOfferRepositoryAdapter struct {
	db *sqlx.DB
}

func NewJobOfferRepositoryAdapter(db *sqlx.DB) *JobOfferRepositoryAdapter {
	return &JobOfferRepositoryAdapter{db: db}
}

type jobOfferRow struct {
	ID                   uuid.UUID      `db:"id"`
	SenderID             uuid.UUID      `db:"sender_id"`
	RecipientID          uuid.UUID      `db:"recipient_id"`
	MessageID            *uuid.UUID     `db:"message_id"`
	Title                string         `db:"title"`
	Description          string         `db:"description"`
	EventType            *string        `db:"event_type"`
	Location             *string        `db:"location"`
	EventDate            *time.Time     `db:"event_date"`
	StartTime            *string        `db:"start_time"`
	EndTime              *string        `db:"end_time"`
	Timezone             string         `db:"timezone"`
	BudgetType           string         `db:"budget_type"`
	BudgetAmount         *float64       `db:"budget_amount"`
	Currency             string         `db:"currency"`
	RoleType             *string        `db:"role_type"`
	RoleTitle            *string        `db:"role_title"`
	RequiredSkills       pq.StringArray `db:"required_skills"`
	Status               string         `db:"status"`
	ResponseMessage      *string        `db:"response_message"`
	RespondedAt          *time.Time     `db:"responded_at"`
	ExpiresAt            *time.Time     `db:"expires_at"`
	ConvertedToBookingID *uuid.UUID     `db:"converted_to_booking_id"`
	OriginalOfferID      *uuid.UUID     `db:"original_offer_id"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
	SenderName           *string        `db:"sender_name"`
	SenderAvatar         *string        `db:"sender_avatar"`
	RecipientName        *string        `db:"recipient_name"`
	RecipientAvatar      *string        `db:"recipient_avatar"`
}

func (r jobOfferRow) toEntity() *entity.JobOffer {
	o := &entity.JobOffer{
		ID:          r.ID,
		SenderID:    r.SenderID,
		RecipientID: r.RecipientID,
		MessageID:   r.MessageID,
		Title:       r.Title,
		Description: r.Description,
		EventType:   r.EventType,
		Location:    r.Location,
		EventDate:   r.EventDate,
		StartTime:   parseClockPtr(r.StartTime),
		EndTime:     parseClockPtr(r.EndTime),
		Timezone:    r.Timezone,
		Budget: valueobject.OfferBudget{
			Type:     valueobject.BudgetType(r.BudgetType),
			Amount:   r.BudgetAmount,
			Currency: r.Currency,
		},
		RoleTitle:            r.RoleTitle,
		RequiredSkills:       []string(r.RequiredSkills),
		Status:               valueobject.JobOfferStatus(r.Status),
		ResponseMessage:      r.ResponseMessage,
		RespondedAt:          r.RespondedAt,
		ExpiresAt:            r.ExpiresAt,
		ConvertedToBookingID: r.ConvertedToBookingID,
		OriginalOfferID:      r.OriginalOfferID,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.RoleType != nil {
		rt := valueobject.RoleType(*r.RoleType)
		o.RoleType = &rt
	}
	if r.SenderName != nil {
		o.Sender = &entity.ProfileSummary{ID: r.SenderID, DisplayName: *r.SenderName, AvatarURL: r.SenderAvatar}
	}
	if r.RecipientName != nil {
		o.Recipient = &entity.ProfileSummary{ID: r.RecipientID, DisplayName: *r.RecipientName, AvatarURL: r.RecipientAvatar}
	}
	return o
}

func datePtrValue(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dateValue(*t)
	return &s
}

func (r *JobOfferRepositoryAdapter) Create(ctx context.Context, o *entity.JobOffer) error {
	var roleType *string
	if o.RoleType != nil {
		s := string(*o.RoleType)
		roleType = &s
	}

	q := psql.Insert("job_offers").
		Columns("id", "sender_id", "recipient_id", "message_id", "title", "description", "event_type", "location",
			"event_date", "start_time", "end_time", "timezone", "budget_type", "budget_amount", "currency",
			"role_type", "role_title", "required_skills", "status", "expires_at", "original_offer_id",
			"created_at", "updated_at").
		Values(o.ID, o.SenderID, o.RecipientID, o.MessageID, o.Title, o.Description, o.EventType, o.Location,
			datePtrValue(o.EventDate), clockValue(o.StartTime), clockValue(o.EndTime), o.Timezone,
			string(o.Budget.Type), o.Budget.Amount, o.Budget.Currency, roleType, o.RoleTitle,
			pq.StringArray(o.RequiredSkills), string(o.Status), o.ExpiresAt, o.OriginalOfferID,
			o.CreatedAt, o.UpdatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create job offer")
	}
	return nil
}

func (r *JobOfferRepositoryAdapter) Update(ctx context.Context, o *entity.JobOffer) error {
	q := psql.Update("job_offers").
		SetMap(map[string]interface{}{
			"status":                  string(o.Status),
			"response_message":        o.ResponseMessage,
			"responded_at":            o.RespondedAt,
			"converted_to_booking_id": o.ConvertedToBookingID,
			"updated_at":              o.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": o.ID})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, nil, "failed to update job offer")
	}
	if rows == 0 {
		return apperror.ErrOfferNotFound
	}
	return nil
}

func (r *JobOfferRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.JobOffer, error) {
	var row jobOfferRow
	if err := get(ctx, r.db, &row, selectJobOffers().Where(squirrel.Eq{"o.id": id})); err != nil {
		return nil, mapError(err, apperror.ErrOfferNotFound, nil, "failed to load job offer")
	}
	return row.toEntity(), nil
}

// FindByIDForUpdate без join: FOR UPDATE не применим к nullable стороне LEFT JOIN.
func (r *JobOfferRepositoryAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.JobOffer, error) {
	cols := make([]string, 0, len(jobOfferColumns))
	for _, c := range jobOfferColumns {
		if len(c) > 2 && c[:2] == "o." {
			cols = append(cols, c)
		}
	}

	var row jobOfferRow
	q := psql.Select(cols...).From("job_offers o").Where(squirrel.Eq{"o.id": id}).Suffix("FOR UPDATE")
	if err := get(ctx, r.db, &row, q); err != nil {
		return nil, mapError(err, apperror.ErrOfferNotFound, nil, "failed to lock job offer")
	}
	return row.toEntity(), nil
}

func (r *JobOfferRepositoryAdapter) List(ctx context.Context, filter repository.OfferFilter) ([]*entity.JobOffer, error) {
	q := selectJobOffers().OrderBy("o.created_at DESC")
	if filter.SenderID != nil {
		q = q.Where(squirrel.Eq{"o.sender_id": *filter.SenderID})
	}
	if filter.RecipientID != nil {
		q = q.Where(squirrel.Eq{"o.recipient_id": *filter.RecipientID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"o.status": string(*filter.Status)})
	}

	var rows []jobOfferRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to list job offers")
	}
	out := make([]*entity.JobOffer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func selectJobOffers() squirrel.SelectBuilder {
	return psql.Select(jobOfferColumns...).
		From("job_offers o").
		LeftJoin("profiles ps ON ps.id = o.sender_id").
		LeftJoin("profiles pr ON pr.id = o.recipient_id")
}
