package joboffer

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/usecase/booking"
)

type ConvertToBookingUseCase struct {
	deps Deps
}

func NewConvertToBookingUseCase(deps Deps) *ConvertToBookingUseCase {
	return &ConvertToBookingUseCase{deps: deps}
}

// Execute превращает принятое предложение в подтверждённое бронирование.
// Строка предложения блокируется до конца транзакции, поэтому повторная
// конвертация видит converted_to_booking_id и получает ErrAlreadyConverted.
func (uc *ConvertToBookingUseCase) Execute(ctx context.Context, offerID, actorID uuid.UUID) (*entity.Booking, error) {
	var (
		offer *entity.JobOffer
		b     *entity.Booking
	)
	err := uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		offer, err = uc.deps.Offers.FindByIDForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if !offer.IsParty(actorID) {
			return apperror.New(apperror.ErrCodeForbidden, "you are not part of this offer")
		}
		if offer.IsConverted() {
			return apperror.ErrAlreadyConverted
		}
		if offer.Status != valueobject.JobOfferStatusAccepted {
			return apperror.New(apperror.ErrCodeBadRequest, "only accepted offers can be converted to a booking")
		}

		r, hasTimes, err := offer.BookingRange(uc.deps.location())
		if err != nil {
			return err
		}

		sourceID := offer.ID
		b, err = entity.NewBooking(entity.NewBookingParams{
			ClientID:           offer.SenderID,
			TalentID:           offer.RecipientID,
			Range:              r,
			TotalAmount:        offer.Budget.TotalFor(r, hasTimes),
			Currency:           offer.Budget.Currency,
			ServiceDescription: serviceDescription(offer),
			Source:             valueobject.BookingSourceJobOffer,
			SourceID:           &sourceID,
		})
		if err != nil {
			return err
		}

		clk := uc.deps.Clock
		if clk == nil {
			clk = clock.Real{}
		}
		if err := booking.CreateConfirmed(ctx, uc.deps.Bookings, uc.deps.Blocks, b, clk, offer.Timezone); err != nil {
			return err
		}

		if err := offer.MarkConverted(b.ID, uc.deps.now()); err != nil {
			return err
		}
		return uc.deps.Offers.Update(ctx, offer)
	})
	if err != nil {
		return nil, err
	}

	link := "/bookings/" + b.ID.String()
	for _, party := range []uuid.UUID{offer.SenderID, offer.RecipientID} {
		uc.deps.Effects.Notify(ctx, port.Notification{
			UserID:  party,
			Type:    "job_offer_converted",
			Title:   "Booking confirmed",
			Message: "A booking was created from the offer: " + offer.Title,
			Data:    map[string]any{"offer_id": offer.ID.String(), "booking_id": b.ID.String()},
			Link:    &link,
		})
	}
	uc.deps.Effects.InvalidateFeed(ctx, offer.SenderID, offer.RecipientID)

	return b, nil
}

func serviceDescription(o *entity.JobOffer) string {
	parts := []string{o.Title}
	if o.RoleTitle != nil && strings.TrimSpace(*o.RoleTitle) != "" {
		parts = append(parts, *o.RoleTitle)
	}
	if o.Location != nil && strings.TrimSpace(*o.Location) != "" {
		parts = append(parts, *o.Location)
	}
	return strings.Join(parts, " | ")
}
