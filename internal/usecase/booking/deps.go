package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendar"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

// InvoiceIssuer выставляет счёт по завершённому бронированию.
type InvoiceIssuer interface {
	GenerateForBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Invoice, error)
}

// Deps общие зависимости сценариев бронирования.
type Deps struct {
	Bookings repository.BookingRepository
	Blocks   repository.CalendarBlockRepository
	Tx       repository.Transactor
	Clock    clock.Clock
	Effects  *effects.Effects
	Invoices InvoiceIssuer
	Timezone string
}

func (d Deps) now() clock.Clock {
	if d.Clock == nil {
		return clock.Real{}
	}
	return d.Clock
}

// Reserve закрепляет время бронирования блоком календаря.
// Вызывается внутри транзакции, которая меняет статус бронирования.
func Reserve(ctx context.Context, blocks repository.CalendarBlockRepository, b *entity.Booking, timezone string) error {
	free, err := calendar.IsRangeFree(ctx, blocks, b.TalentID, b.Range, nil)
	if err != nil {
		return err
	}
	if !free {
		return apperror.ErrDatesNotAvailable
	}

	if err := blocks.Create(ctx, entity.NewBookingBlock(b, timezone)); err != nil {
		if errors.Is(err, apperror.ErrBlockOverlap) {
			return apperror.WithCause(apperror.ErrDatesNotAvailable, err)
		}
		return err
	}
	return nil
}

// CreateConfirmed сохраняет уже согласованное бронирование сразу в статусе accepted
// вместе с его блоком. Должен выполняться в транзакции вызывающего.
func CreateConfirmed(ctx context.Context, bookings repository.BookingRepository, blocks repository.CalendarBlockRepository, b *entity.Booking, clk clock.Clock, timezone string) error {
	if err := b.Confirm(clk.Now()); err != nil {
		return err
	}
	if err := bookings.Create(ctx, b); err != nil {
		return err
	}
	return Reserve(ctx, blocks, b, timezone)
}

func bookingLink(id uuid.UUID) *string {
	link := "/bookings/" + id.String()
	return &link
}

func bookingData(b *entity.Booking) map[string]any {
	return map[string]any{
		"booking_id":  b.ID.String(),
		"start":       b.Range.Start,
		"end":         b.Range.End,
		"amount":      b.TotalAmount.String(),
		"description": b.ServiceDescription,
	}
}
