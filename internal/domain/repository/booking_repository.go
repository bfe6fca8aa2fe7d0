package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	// Update сохраняет статус и поля переходов. Оплата и счёт не затрагиваются.
	Update(ctx context.Context, booking *entity.Booking) error
	// UpdatePayment сохраняет только payment_status и сессию оплаты.
	UpdatePayment(ctx context.Context, booking *entity.Booking) error
	AttachInvoice(ctx context.Context, bookingID, invoiceID uuid.UUID, at time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// FindByIDForUpdate блокирует строку до конца транзакции из ctx.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*entity.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error)
}

type BookingRole string

const (
	BookingRoleClient BookingRole = "client"
	BookingRoleTalent BookingRole = "talent"
	BookingRoleBoth   BookingRole = "both"
)

// BookingFilter выборка бронирований пользователя. From/To отбирают пересечение с [From, To).
type BookingFilter struct {
	UserID     uuid.UUID
	Role       BookingRole
	Statuses   []valueobject.BookingStatus
	From       *time.Time
	To         *time.Time
	StartsFrom *time.Time
	StartsTo   *time.Time
}
