package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
)

// CalendarBlockRepository хранилище блоков календаря.
// Create и Update возвращают apperror.ErrBlockOverlap, если сработало ограничение исключения.
type CalendarBlockRepository interface {
	Create(ctx context.Context, block *entity.CalendarBlock) error
	Update(ctx context.Context, block *entity.CalendarBlock) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.CalendarBlock, error)
	List(ctx context.Context, filter BlockFilter) ([]*entity.CalendarBlock, error)
}

// BlockFilter выборка блоков владельца, пересекающих [From, To).
type BlockFilter struct {
	OwnerID     uuid.UUID
	From        *time.Time
	To          *time.Time
	Reasons     []valueobject.BlockReason
	ExcludeID   *uuid.UUID
	WithBooking bool
}

// Overlapping фильтр жёстких пересечений с интервалом.
func Overlapping(ownerID uuid.UUID, r valueobject.TimeRange, excludeID *uuid.UUID) BlockFilter {
	from, to := r.Start, r.End
	return BlockFilter{
		OwnerID:   ownerID,
		From:      &from,
		To:        &to,
		Reasons:   valueobject.BlockingReasons(),
		ExcludeID: excludeID,
	}
}
