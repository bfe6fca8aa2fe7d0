package persistence

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

var blockColumns = []string{
	"cb.id", "cb.owner_id", "cb.start_at", "cb.end_at", "cb.reason", "cb.booking_id",
	"cb.title", "cb.notes", "cb.visibility_message", "cb.timezone",
	"cb.is_recurring", "cb.recurrence_pattern", "cb.created_at", "cb.updated_at",
}

var blockBookingColumns = []string{
	"b.client_id AS b_client_id", "b.talent_id AS b_talent_id",
	"b.total_amount AS b_total_amount", "b.status AS b_status",
	"pc.display_name AS b_client_name", "pt.display_name AS b_talent_name",
}

type CalendarBlockRepositoryAdapter struct {
	db *sqlx.DB
}

func NewCalendarBlockRepositoryAdapter(db *sqlx.DB) *CalendarBlockRepositoryAdapter {
	return &CalendarBlockRepositoryAdapter{db: db}
}

type blockRow struct {
	ID                uuid.UUID  `db:"id"`
	OwnerID           uuid.UUID  `db:"owner_id"`
	StartAt           time.Time  `db:"start_at"`
	EndAt             time.Time  `db:"end_at"`
	Reason            string     `db:"reason"`
	BookingID         *uuid.UUID `db:"booking_id"`
	Title             *string    `db:"title"`
	Notes             *string    `db:"notes"`
	VisibilityMessage *string    `db:"visibility_message"`
	Timezone          string     `db:"timezone"`
	IsRecurring       bool       `db:"is_recurring"`
	RecurrencePattern *string    `db:"recurrence_pattern"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`

	BClientID    *uuid.UUID `db:"b_client_id"`
	BTalentID    *uuid.UUID `db:"b_talent_id"`
	BTotalAmount *float64   `db:"b_total_amount"`
	BStatus      *string    `db:"b_status"`
	BClientName  *string    `db:"b_client_name"`
	BTalentName  *string    `db:"b_talent_name"`
}

func (r blockRow) toEntity() *entity.CalendarBlock {
	b := &entity.CalendarBlock{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Range:             valueobject.TimeRange{Start: r.StartAt.UTC(), End: r.EndAt.UTC()},
		Reason:            valueobject.BlockReason(r.Reason),
		BookingID:         r.BookingID,
		Title:             r.Title,
		Notes:             r.Notes,
		VisibilityMessage: r.VisibilityMessage,
		Timezone:          r.Timezone,
		IsRecurring:       r.IsRecurring,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.RecurrencePattern != nil {
		p := valueobject.RecurrencePattern(*r.RecurrencePattern)
		b.RecurrencePattern = &p
	}
	if r.BookingID != nil && r.BClientID != nil {
		summary := &entity.BookingSummary{
			ID:         *r.BookingID,
			ClientID:   *r.BClientID,
			ClientName: r.BClientName,
			TalentName: r.BTalentName,
		}
		if r.BTalentID != nil {
			summary.TalentID = *r.BTalentID
		}
		if r.BTotalAmount != nil {
			summary.TotalAmount = *r.BTotalAmount
		}
		if r.BStatus != nil {
			summary.Status = valueobject.BookingStatus(*r.BStatus)
		}
		b.Booking = summary
	}
	return b
}

func recurrenceValue(p *valueobject.RecurrencePattern) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

func (r *CalendarBlockRepositoryAdapter) Create(ctx context.Context, block *entity.CalendarBlock) error {
	q := psql.Insert("calendar_blocks").
		Columns("id", "owner_id", "start_at", "end_at", "reason", "booking_id", "title", "notes",
			"visibility_message", "timezone", "is_recurring", "recurrence_pattern", "created_at", "updated_at").
		Values(block.ID, block.OwnerID, block.Range.Start, block.Range.End, string(block.Reason), block.BookingID,
			block.Title, block.Notes, block.VisibilityMessage, block.Timezone, block.IsRecurring,
			recurrenceValue(block.RecurrencePattern), block.CreatedAt, block.UpdatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, apperror.ErrBlockOverlap, "failed to create calendar block")
	}
	return nil
}

func (r *CalendarBlockRepositoryAdapter) Update(ctx context.Context, block *entity.CalendarBlock) error {
	q := psql.Update("calendar_blocks").
		SetMap(map[string]interface{}{
			"start_at":           block.Range.Start,
			"end_at":             block.Range.End,
			"reason":             string(block.Reason),
			"title":              block.Title,
			"notes":              block.Notes,
			"visibility_message": block.VisibilityMessage,
			"is_recurring":       block.IsRecurring,
			"recurrence_pattern": recurrenceValue(block.RecurrencePattern),
			"updated_at":         block.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": block.ID})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, apperror.ErrBlockOverlap, "failed to update calendar block")
	}
	if rows == 0 {
		return apperror.ErrBlockNotFound
	}
	return nil
}

// Delete не считает отсутствие строки ошибкой.
func (r *CalendarBlockRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	q := psql.Delete("calendar_blocks").Where(squirrel.Eq{"id": id})
	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to delete calendar block")
	}
	return nil
}

func (r *CalendarBlockRepositoryAdapter) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	q := psql.Delete("calendar_blocks").Where(squirrel.Eq{"booking_id": bookingID})
	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return 0, mapError(err, nil, nil, "failed to release booking block")
	}
	return rows, nil
}

func (r *CalendarBlockRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.CalendarBlock, error) {
	var row blockRow
	q := selectBlocks(true).Where(squirrel.Eq{"cb.id": id})
	if err := get(ctx, r.db, &row, q); err != nil {
		return nil, mapError(err, apperror.ErrBlockNotFound, nil, "failed to load calendar block")
	}
	return row.toEntity(), nil
}

func (r *CalendarBlockRepositoryAdapter) List(ctx context.Context, filter repository.BlockFilter) ([]*entity.CalendarBlock, error) {
	var rows []blockRow
	if err := selectAll(ctx, r.db, &rows, buildBlockQuery(filter)); err != nil {
		return nil, mapError(err, nil, nil, "failed to list calendar blocks")
	}

	blocks := make([]*entity.CalendarBlock, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, row.toEntity())
	}
	return blocks, nil
}

func selectBlocks(withBooking bool) squirrel.SelectBuilder {
	if !withBooking {
		return psql.Select(blockColumns...).From("calendar_blocks cb")
	}
	return psql.Select(append(append([]string{}, blockColumns...), blockBookingColumns...)...).
		From("calendar_blocks cb").
		LeftJoin("bookings b ON b.id = cb.booking_id").
		LeftJoin("profiles pc ON pc.id = b.client_id").
		LeftJoin("profiles pt ON pt.id = b.talent_id")
}

// buildBlockQuery отбирает блоки, пересекающие [From, To): end_at > From AND start_at < To.
func buildBlockQuery(filter repository.BlockFilter) squirrel.SelectBuilder {
	q := selectBlocks(filter.WithBooking).
		Where(squirrel.Eq{"cb.owner_id": filter.OwnerID}).
		OrderBy("cb.start_at ASC", "cb.id ASC")

	if filter.From != nil {
		q = q.Where(squirrel.Gt{"cb.end_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"cb.start_at": *filter.To})
	}
	if len(filter.Reasons) > 0 {
		reasons := make([]string, 0, len(filter.Reasons))
		for _, reason := range filter.Reasons {
			reasons = append(reasons, string(reason))
		}
		q = q.Where(squirrel.Eq{"cb.reason": reasons})
	}
	if filter.ExcludeID != nil {
		q = q.Where(squirrel.NotEq{"cb.id": *filter.ExcludeID})
	}
	return q
}
