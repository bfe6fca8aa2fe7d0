package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendar"
)

type CreateBookingInput struct {
	ClientID           uuid.UUID
	TalentID           uuid.UUID
	Start              time.Time
	End                time.Time
	TotalAmount        float64
	Currency           string
	ServiceDescription string
	ClientMessage      *string
}

type CreateBookingUseCase struct {
	deps Deps
}

func NewCreateBookingUseCase(deps Deps) *CreateBookingUseCase {
	return &CreateBookingUseCase{deps: deps}
}

// Execute создаёт запрос на бронирование. Время в календаре не резервируется до принятия.
func (uc *CreateBookingUseCase) Execute(ctx context.Context, input CreateBookingInput) (*entity.Booking, error) {
	r, err := valueobject.NewTimeRange(input.Start, input.End)
	if err != nil {
		return nil, err
	}
	if r.Start.Before(uc.deps.now().Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "booking cannot start in the past")
	}

	b, err := entity.NewBooking(entity.NewBookingParams{
		ClientID:           input.ClientID,
		TalentID:           input.TalentID,
		Range:              r,
		TotalAmount:        input.TotalAmount,
		Currency:           input.Currency,
		ServiceDescription: input.ServiceDescription,
		ClientMessage:      input.ClientMessage,
		Source:             valueobject.BookingSourceDirect,
	})
	if err != nil {
		return nil, err
	}

	free, err := calendar.IsRangeFree(ctx, uc.deps.Blocks, b.TalentID, b.Range, nil)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apperror.ErrDatesNotAvailable
	}

	if err := uc.deps.Bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	fx := uc.deps.Effects
	fx.Notify(ctx, port.Notification{
		UserID:  b.TalentID,
		Type:    "booking_request",
		Title:   "New booking request",
		Message: "You have a new booking request: " + b.ServiceDescription,
		Data:    bookingData(b),
		Link:    bookingLink(b.ID),
	})
	fx.Email(ctx, b.TalentID, "New booking request", "booking_request", bookingData(b))
	fx.InvalidateFeed(ctx, b.ClientID, b.TalentID)

	return b, nil
}
