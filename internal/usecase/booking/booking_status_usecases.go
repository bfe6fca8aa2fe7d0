package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/goroutine"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

// load находит бронирование и проверяет, что пользователь его участник.
func load(ctx context.Context, deps Deps, bookingID, userID uuid.UUID) (*entity.Booking, error) {
	b, err := deps.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, apperror.ErrNotParty
	}
	return b, nil
}

// lockForUpdate как load, но блокирует строку до конца транзакции. Переходы статуса читают бронирование только так.
func lockForUpdate(ctx context.Context, deps Deps, bookingID, userID uuid.UUID) (*entity.Booking, error) {
	b, err := deps.Bookings.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, apperror.ErrNotParty
	}
	return b, nil
}

// transition блокирует бронирование, применяет apply и сохраняет статус в одной транзакции.
func transition(ctx context.Context, deps Deps, bookingID, userID uuid.UUID, apply func(ctx context.Context, b *entity.Booking) error) (*entity.Booking, error) {
	var b *entity.Booking
	err := deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = lockForUpdate(ctx, deps, bookingID, userID)
		if err != nil {
			return err
		}
		if err := apply(ctx, b); err != nil {
			return err
		}
		return deps.Bookings.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

type AcceptBookingUseCase struct {
	deps Deps
}

func NewAcceptBookingUseCase(deps Deps) *AcceptBookingUseCase {
	return &AcceptBookingUseCase{deps: deps}
}

func (uc *AcceptBookingUseCase) Execute(ctx context.Context, bookingID, talentID uuid.UUID, response *string) (*entity.Booking, error) {
	var b *entity.Booking
	err := uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = transition(ctx, uc.deps, bookingID, talentID, func(ctx context.Context, b *entity.Booking) error {
			if b.TalentID != talentID {
				return apperror.New(apperror.ErrCodeForbidden, "only the talent can accept this booking")
			}
			return b.Accept(response, uc.deps.now().Now())
		})
		if err != nil {
			return err
		}
		return Reserve(ctx, uc.deps.Blocks, b, uc.deps.Timezone)
	})
	if err != nil {
		return nil, err
	}

	fx := uc.deps.Effects
	fx.Notify(ctx, port.Notification{
		UserID:  b.ClientID,
		Type:    "booking_accepted",
		Title:   "Booking confirmed",
		Message: "Your booking request was accepted",
		Data:    bookingData(b),
		Link:    bookingLink(b.ID),
	})
	fx.Email(ctx, b.ClientID, "Your booking is confirmed", "booking_accepted", bookingData(b))
	fx.InvalidateFeed(ctx, b.ClientID, b.TalentID)

	return b, nil
}

type DeclineBookingUseCase struct {
	deps Deps
}

func NewDeclineBookingUseCase(deps Deps) *DeclineBookingUseCase {
	return &DeclineBookingUseCase{deps: deps}
}

func (uc *DeclineBookingUseCase) Execute(ctx context.Context, bookingID, talentID uuid.UUID, response *string) (*entity.Booking, error) {
	b, err := transition(ctx, uc.deps, bookingID, talentID, func(ctx context.Context, b *entity.Booking) error {
		if b.TalentID != talentID {
			return apperror.New(apperror.ErrCodeForbidden, "only the talent can decline this booking")
		}
		return b.Decline(response, uc.deps.now().Now())
	})
	if err != nil {
		return nil, err
	}

	fx := uc.deps.Effects
	data := func() map[string]any {
		d := bookingData(b)
		d["response"] = *b.TalentResponse
		return d
	}
	fx.Notify(ctx, port.Notification{
		UserID:  b.ClientID,
		Type:    "booking_declined",
		Title:   "Booking declined",
		Message: *b.TalentResponse,
		Data:    data(),
		Link:    bookingLink(b.ID),
	})
	fx.Email(ctx, b.ClientID, "Your booking request was declined", "booking_declined", data())
	fx.InvalidateFeed(ctx, b.ClientID, b.TalentID)

	return b, nil
}

type CancelBookingUseCase struct {
	deps Deps
}

func NewCancelBookingUseCase(deps Deps) *CancelBookingUseCase {
	return &CancelBookingUseCase{deps: deps}
}

// Execute отменяет бронирование. Блок календаря освобождается в той же транзакции.
func (uc *CancelBookingUseCase) Execute(ctx context.Context, bookingID, userID uuid.UUID, reason string) (*entity.Booking, error) {
	var b *entity.Booking
	err := uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var hadBlock bool
		var err error
		b, err = transition(ctx, uc.deps, bookingID, userID, func(ctx context.Context, b *entity.Booking) error {
			var err error
			hadBlock, err = b.Cancel(userID, reason, uc.deps.now().Now())
			return err
		})
		if err != nil {
			return err
		}
		if hadBlock {
			if _, err := uc.deps.Blocks.DeleteByBookingID(ctx, b.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	other := b.Counterparty(userID)
	data := func() map[string]any {
		d := bookingData(b)
		d["reason"] = *b.CancellationReason
		return d
	}

	fx := uc.deps.Effects
	fx.Notify(ctx, port.Notification{
		UserID:  other,
		Type:    "booking_cancelled",
		Title:   "Booking cancelled",
		Message: "A booking was cancelled: " + *b.CancellationReason,
		Data:    data(),
		Link:    bookingLink(b.ID),
	})
	fx.Email(ctx, other, "A booking was cancelled", "booking_cancelled", data())
	fx.InvalidateFeed(ctx, b.ClientID, b.TalentID)

	return b, nil
}

type StartBookingUseCase struct {
	deps Deps
}

func NewStartBookingUseCase(deps Deps) *StartBookingUseCase {
	return &StartBookingUseCase{deps: deps}
}

func (uc *StartBookingUseCase) Execute(ctx context.Context, bookingID, userID uuid.UUID) (*entity.Booking, error) {
	b, err := transition(ctx, uc.deps, bookingID, userID, func(ctx context.Context, b *entity.Booking) error {
		return b.Start(uc.deps.now().Now())
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Effects.Notify(ctx, port.Notification{
		UserID:  b.Counterparty(userID),
		Type:    "booking_started",
		Title:   "Booking started",
		Message: "Your booking is now in progress",
		Data:    bookingData(b),
		Link:    bookingLink(b.ID),
	})
	uc.deps.Effects.InvalidateFeed(ctx, b.ClientID, b.TalentID)

	return b, nil
}

type CompleteBookingUseCase struct {
	deps Deps
}

func NewCompleteBookingUseCase(deps Deps) *CompleteBookingUseCase {
	return &CompleteBookingUseCase{deps: deps}
}

// Execute завершает бронирование. Блок календаря остаётся как история.
func (uc *CompleteBookingUseCase) Execute(ctx context.Context, bookingID, userID uuid.UUID) (*entity.Booking, error) {
	b, err := transition(ctx, uc.deps, bookingID, userID, func(ctx context.Context, b *entity.Booking) error {
		return b.Complete(uc.deps.now().Now())
	})
	if err != nil {
		return nil, err
	}

	fx := uc.deps.Effects
	if uc.deps.Invoices != nil {
		goroutine.BestEffort(ctx, "invoice", func(ctx context.Context) error {
			_, err := uc.deps.Invoices.GenerateForBooking(ctx, b.ID)
			return err
		})
	}
	for _, party := range []uuid.UUID{b.ClientID, b.TalentID} {
		fx.Notify(ctx, port.Notification{
			UserID:  party,
			Type:    "booking_completed",
			Title:   "Booking completed",
			Message: "Your booking has been completed",
			Data:    bookingData(b),
			Link:    bookingLink(b.ID),
		})
		fx.Email(ctx, party, "Booking completed", "booking_completed", bookingData(b))
	}
	fx.InvalidateFeed(ctx, b.ClientID, b.TalentID)

	return b, nil
}
