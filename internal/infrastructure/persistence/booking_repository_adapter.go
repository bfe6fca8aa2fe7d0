package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

var bookingColumns = []string{
	"b.id", "b.client_id", "b.talent_id", "b.start_at", "b.end_at", "b.status", "b.payment_status",
	"b.total_amount", "b.currency", "b.service_description", "b.client_message", "b.talent_response",
	"b.cancellation_reason", "b.source", "b.source_id", "b.checkout_session_id", "b.invoice_id",
	"b.accepted_at", "b.declined_at", "b.started_at", "b.completed_at", "b.cancelled_at",
	"b.created_at", "b.updated_at",
	"pc.display_name AS client_name", "pc.avatar_url AS client_avatar",
	"pt.display_name AS talent_name", "pt.avatar_url AS talent_avatar",
}

type BookingRepositoryAdapter struct {
	db *sqlx.DB
}

func NewBookingRepositoryAdapter(db *sqlx.DB) *BookingRepositoryAdapter {
	return &BookingRepositoryAdapter{db: db}
}

type bookingRow struct {
	ID                 uuid.UUID  `db:"id"`
	ClientID           uuid.UUID  `db:"client_id"`
	TalentID           uuid.UUID  `db:"talent_id"`
	StartAt            time.Time  `db:"start_at"`
	EndAt              time.Time  `db:"end_at"`
	Status             string     `db:"status"`
	PaymentStatus      string     `db:"payment_status"`
	TotalAmount        float64    `db:"total_amount"`
	Currency           string     `db:"currency"`
	ServiceDescription string     `db:"service_description"`
	ClientMessage      *string    `db:"client_message"`
	TalentResponse     *string    `db:"talent_response"`
	CancellationReason *string    `db:"cancellation_reason"`
	Source             string     `db:"source"`
	SourceID           *uuid.UUID `db:"source_id"`
	CheckoutSessionID  *string    `db:"checkout_session_id"`
	InvoiceID          *uuid.UUID `db:"invoice_id"`
	AcceptedAt         *time.Time `db:"accepted_at"`
	DeclinedAt         *time.Time `db:"declined_at"`
	StartedAt          *time.Time `db:"started_at"`
	CompletedAt        *time.Time `db:"completed_at"`
	CancelledAt        *time.Time `db:"cancelled_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	ClientName         *string    `db:"client_name"`
	ClientAvatar       *string    `db:"client_avatar"`
	TalentName         *string    `db:"talent_name"`
	TalentAvatar       *string    `db:"talent_avatar"`
}

func (r bookingRow) toEntity() *entity.Booking {
	status, err := valueobject.NewBookingStatus(r.Status)
	if err != nil {
		status = valueobject.BookingStatus(r.Status)
	}
	b := &entity.Booking{
		ID:                 r.ID,
		ClientID:           r.ClientID,
		TalentID:           r.TalentID,
		Range:              valueobject.TimeRange{Start: r.StartAt.UTC(), End: r.EndAt.UTC()},
		Status:             status,
		PaymentStatus:      valueobject.PaymentStatus(r.PaymentStatus),
		TotalAmount:        valueobject.Money{Amount: r.TotalAmount, Currency: r.Currency},
		ServiceDescription: r.ServiceDescription,
		ClientMessage:      r.ClientMessage,
		TalentResponse:     r.TalentResponse,
		CancellationReason: r.CancellationReason,
		Source:             valueobject.BookingSource(r.Source),
		SourceID:           r.SourceID,
		CheckoutSessionID:  r.CheckoutSessionID,
		InvoiceID:          r.InvoiceID,
		AcceptedAt:         r.AcceptedAt,
		DeclinedAt:         r.DeclinedAt,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
		CancelledAt:        r.CancelledAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.ClientName != nil {
		b.Client = &entity.ProfileSummary{ID: r.ClientID, DisplayName: *r.ClientName, AvatarURL: r.ClientAvatar}
	}
	if r.TalentName != nil {
		b.Talent = &entity.ProfileSummary{ID: r.TalentID, DisplayName: *r.TalentName, AvatarURL: r.TalentAvatar}
	}
	return b
}

func (r *BookingRepositoryAdapter) Create(ctx context.Context, b *entity.Booking) error {
	q := psql.Insert("bookings").
		Columns("id", "client_id", "talent_id", "start_at", "end_at", "status", "payment_status",
			"total_amount", "currency", "service_description", "client_message", "talent_response",
			"source", "source_id", "accepted_at", "created_at", "updated_at").
		Values(b.ID, b.ClientID, b.TalentID, b.Range.Start, b.Range.End, string(b.Status), string(b.PaymentStatus),
			b.TotalAmount.Amount, b.TotalAmount.Currency, b.ServiceDescription, b.ClientMessage, b.TalentResponse,
			string(b.Source), b.SourceID, b.AcceptedAt, b.CreatedAt, b.UpdatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create booking")
	}
	return nil
}

func (r *BookingRepositoryAdapter) Update(ctx context.Context, b *entity.Booking) error {
	q := psql.Update("bookings").
		SetMap(map[string]interface{}{
			"status":              string(b.Status),
			"talent_response":     b.TalentResponse,
			"cancellation_reason": b.CancellationReason,
			"accepted_at":         b.AcceptedAt,
			"declined_at":         b.DeclinedAt,
			"started_at":          b.StartedAt,
			"completed_at":        b.CompletedAt,
			"cancelled_at":        b.CancelledAt,
			"updated_at":          b.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": b.ID})
	return r.updateOne(ctx, q, "failed to update booking")
}

func (r *BookingRepositoryAdapter) UpdatePayment(ctx context.Context, b *entity.Booking) error {
	q := psql.Update("bookings").
		SetMap(map[string]interface{}{
			"payment_status":      string(b.PaymentStatus),
			"checkout_session_id": b.CheckoutSessionID,
			"updated_at":          b.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": b.ID})
	return r.updateOne(ctx, q, "failed to update booking payment")
}

func (r *BookingRepositoryAdapter) AttachInvoice(ctx context.Context, bookingID, invoiceID uuid.UUID, at time.Time) error {
	q := psql.Update("bookings").
		Set("invoice_id", invoiceID).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": bookingID})
	return r.updateOne(ctx, q, "failed to attach invoice to booking")
}

func (r *BookingRepositoryAdapter) updateOne(ctx context.Context, q squirrel.UpdateBuilder, msg string) error {
	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, nil, msg)
	}
	if rows == 0 {
		return apperror.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, squirrel.Eq{"b.id": id})
}

// FindByIDForUpdate без join: FOR UPDATE не применим к nullable стороне LEFT JOIN.
func (r *BookingRepositoryAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var row bookingRow
	if err := get(ctx, r.db, &row, lockBooking(id)); err != nil {
		return nil, mapError(err, apperror.ErrBookingNotFound, nil, "failed to lock booking")
	}
	return row.toEntity(), nil
}

func lockBooking(id uuid.UUID) squirrel.SelectBuilder {
	cols := make([]string, 0, len(bookingColumns))
	for _, c := range bookingColumns {
		if strings.HasPrefix(c, "b.") {
			cols = append(cols, c)
		}
	}
	return psql.Select(cols...).From("bookings b").Where(squirrel.Eq{"b.id": id}).Suffix("FOR UPDATE")
}

func (r *BookingRepositoryAdapter) FindByCheckoutSession(ctx context.Context, sessionID string) (*entity.Booking, error) {
	return r.findOne(ctx, squirrel.Eq{"b.checkout_session_id": sessionID})
}

func (r *BookingRepositoryAdapter) findOne(ctx context.Context, where squirrel.Sqlizer) (*entity.Booking, error) {
	var row bookingRow
	if err := get(ctx, r.db, &row, selectBookings().Where(where)); err != nil {
		return nil, mapError(err, apperror.ErrBookingNotFound, nil, "failed to load booking")
	}
	return row.toEntity(), nil
}

func (r *BookingRepositoryAdapter) List(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, error) {
	var rows []bookingRow
	if err := selectAll(ctx, r.db, &rows, buildBookingQuery(filter)); err != nil {
		return nil, mapError(err, nil, nil, "failed to list bookings")
	}

	bookings := make([]*entity.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, row.toEntity())
	}
	return bookings, nil
}

func selectBookings() squirrel.SelectBuilder {
	return psql.Select(bookingColumns...).
		From("bookings b").
		LeftJoin("profiles pc ON pc.id = b.client_id").
		LeftJoin("profiles pt ON pt.id = b.talent_id")
}

func buildBookingQuery(filter repository.BookingFilter) squirrel.SelectBuilder {
	q := selectBookings().OrderBy("b.start_at ASC", "b.id ASC")

	switch filter.Role {
	case repository.BookingRoleClient:
		q = q.Where(squirrel.Eq{"b.client_id": filter.UserID})
	case repository.BookingRoleTalent:
		q = q.Where(squirrel.Eq{"b.talent_id": filter.UserID})
	default:
		q = q.Where(squirrel.Or{
			squirrel.Eq{"b.client_id": filter.UserID},
			squirrel.Eq{"b.talent_id": filter.UserID},
		})
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where(squirrel.Eq{"b.status": statuses})
	}
	if filter.From != nil {
		q = q.Where(squirrel.Gt{"b.end_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"b.start_at": *filter.To})
	}
	if filter.StartsFrom != nil {
		q = q.Where(squirrel.GtOrEq{"b.start_at": *filter.StartsFrom})
	}
	if filter.StartsTo != nil {
		q = q.Where(squirrel.Lt{"b.start_at": *filter.StartsTo})
	}
	return q
}
