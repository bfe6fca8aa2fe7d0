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

var invoiceColumns = []string{
	"id", "booking_id", "invoice_number", "client_id", "talent_id", "subtotal", "platform_fee",
	"tax_amount", "total_amount", "talent_payout", "currency", "status", "issued_at", "due_at",
	"paid_at", "created_at", "updated_at",
}

type InvoiceRepositoryAdapter struct {
	db *sqlx.DB
}

func NewInvoiceRepositoryAdapter(db *sqlx.DB) *InvoiceRepositoryAdapter {
	return &InvoiceRepositoryAdapter{db: db}
}

type invoiceRow struct {
	ID            uuid.UUID  `db:"id"`
	BookingID     uuid.UUID  `db:"booking_id"`
	InvoiceNumber string     `db:"invoice_number"`
	ClientID      uuid.UUID  `db:"client_id"`
	TalentID      uuid.UUID  `db:"talent_id"`
	Subtotal      int64      `db:"subtotal"`
	PlatformFee   int64      `db:"platform_fee"`
	TaxAmount     int64      `db:"tax_amount"`
	TotalAmount   int64      `db:"total_amount"`
	TalentPayout  int64      `db:"talent_payout"`
	Currency      string     `db:"currency"`
	Status        string     `db:"status"`
	IssuedAt      time.Time  `db:"issued_at"`
	DueAt         time.Time  `db:"due_at"`
	PaidAt        *time.Time `db:"paid_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r invoiceRow) toEntity() *entity.Invoice {
	return &entity.Invoice{
		ID:            r.ID,
		BookingID:     r.BookingID,
		InvoiceNumber: r.InvoiceNumber,
		ClientID:      r.ClientID,
		TalentID:      r.TalentID,
		Subtotal:      r.Subtotal,
		PlatformFee:   r.PlatformFee,
		TaxAmount:     r.TaxAmount,
		TotalAmount:   r.TotalAmount,
		TalentPayout:  r.TalentPayout,
		Currency:      r.Currency,
		Status:        valueobject.InvoiceStatus(r.Status),
		IssuedAt:      r.IssuedAt,
		DueAt:         r.DueAt,
		PaidAt:        r.PaidAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *InvoiceRepositoryAdapter) Create(ctx context.Context, inv *entity.Invoice) error {
	q := psql.Insert("invoices").
		Columns(invoiceColumns...).
		Values(inv.ID, inv.BookingID, inv.InvoiceNumber, inv.ClientID, inv.TalentID, inv.Subtotal, inv.PlatformFee,
			inv.TaxAmount, inv.TotalAmount, inv.TalentPayout, inv.Currency, string(inv.Status), inv.IssuedAt,
			inv.DueAt, inv.PaidAt, inv.CreatedAt, inv.UpdatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create invoice")
	}
	return nil
}

func (r *InvoiceRepositoryAdapter) Update(ctx context.Context, inv *entity.Invoice) error {
	q := psql.Update("invoices").
		Set("status", string(inv.Status)).
		Set("paid_at", inv.PaidAt).
		Set("updated_at", inv.UpdatedAt).
		Where(squirrel.Eq{"id": inv.ID})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, nil, "failed to update invoice")
	}
	if rows == 0 {
		return apperror.ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepositoryAdapter) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Invoice, error) {
	var row invoiceRow
	q := psql.Select(invoiceColumns...).From("invoices").Where(squirrel.Eq{"booking_id": bookingID})
	if err := get(ctx, r.db, &row, q); err != nil {
		return nil, mapError(err, apperror.ErrInvoiceNotFound, nil, "failed to load invoice")
	}
	return row.toEntity(), nil
}

// NextSequence увеличивает счётчик месяца. Строка счётчика остаётся заблокированной до конца транзакции,
// поэтому параллельные выставления получают разные номера.
func (r *InvoiceRepositoryAdapter) NextSequence(ctx context.Context, issued time.Time) (int, error) {
	var seq int
	if err := get(ctx, r.db, &seq, nextInvoiceSequence(issued)); err != nil {
		return 0, mapError(err, nil, nil, "failed to allocate invoice number")
	}
	return seq, nil
}

func nextInvoiceSequence(issued time.Time) squirrel.InsertBuilder {
	return psql.Insert("invoice_counters").
		Columns("period", "last_seq").
		Values(issued.UTC().Format("200601"), 1).
		Suffix("ON CONFLICT (period) DO UPDATE SET last_seq = invoice_counters.last_seq + 1 RETURNING last_seq")
}
