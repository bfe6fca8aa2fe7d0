package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	Update(ctx context.Context, inv *entity.Invoice) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Invoice, error)
	// NextSequence выдаёт следующий номер счёта в месяце issued (UTC). Номера не повторяются.
	NextSequence(ctx context.Context, issued time.Time) (int, error)
}
