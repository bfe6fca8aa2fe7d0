package joboffer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

type SendOfferUseCase struct {
	deps Deps
}

func NewSendOfferUseCase(deps Deps) *SendOfferUseCase {
	return &SendOfferUseCase{deps: deps}
}

func (uc *SendOfferUseCase) Execute(ctx context.Context, senderID, recipientID uuid.UUID, input TermsInput) (*entity.JobOffer, error) {
	terms, err := uc.deps.terms(input)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.checkMessage(ctx, terms.MessageID, senderID, recipientID); err != nil {
		return nil, err
	}
	offer, err := entity.NewJobOffer(senderID, recipientID, terms, uc.deps.now())
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	uc.deps.notify(ctx, recipientID, "job_offer_received", "New job offer", "You received a job offer: "+offer.Title, offer)
	uc.deps.Effects.Email(ctx, recipientID, "You received a job offer", "job_offer_received", map[string]any{"title": offer.Title})
	return offer, nil
}

type MarkViewedUseCase struct {
	deps Deps
}

func NewMarkViewedUseCase(deps Deps) *MarkViewedUseCase {
	return &MarkViewedUseCase{deps: deps}
}

// Execute отмечает предложение просмотренным. Для непросматриваемых статусов ничего не делает.
func (uc *MarkViewedUseCase) Execute(ctx context.Context, offerID, recipientID uuid.UUID) (*entity.JobOffer, error) {
	offer, err := uc.deps.Offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.RecipientID != recipientID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the recipient can view this offer")
	}

	now := uc.deps.now()
	if offer.RefreshExpiry(now) || offer.MarkViewed(now) {
		if err := uc.deps.Offers.Update(ctx, offer); err != nil {
			return nil, err
		}
	}
	return offer, nil
}

type RespondOfferUseCase struct {
	deps   Deps
	accept bool
}

func NewAcceptOfferUseCase(deps Deps) *RespondOfferUseCase {
	return &RespondOfferUseCase{deps: deps, accept: true}
}

func NewRejectOfferUseCase(deps Deps) *RespondOfferUseCase {
	return &RespondOfferUseCase{deps: deps, accept: false}
}

func (uc *RespondOfferUseCase) Execute(ctx context.Context, offerID, recipientID uuid.UUID, message *string) (*entity.JobOffer, error) {
	offer, err := uc.deps.Offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.RecipientID != recipientID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the recipient can respond to this offer")
	}

	now := uc.deps.now()
	if uc.accept {
		err = offer.Accept(message, now)
	} else {
		err = offer.Reject(message, now)
	}
	if err != nil {
		return nil, uc.deps.persistExpiry(ctx, offer, err)
	}
	if err := uc.deps.Offers.Update(ctx, offer); err != nil {
		return nil, err
	}

	if uc.accept {
		uc.deps.notify(ctx, offer.SenderID, "job_offer_accepted", "Offer accepted", "Your offer was accepted: "+offer.Title, offer)
		uc.deps.Effects.Email(ctx, offer.SenderID, "Your job offer was accepted", "job_offer_accepted", map[string]any{"title": offer.Title})
	} else {
		uc.deps.notify(ctx, offer.SenderID, "job_offer_rejected", "Offer declined", "Your offer was declined: "+offer.Title, offer)
	}
	return offer, nil
}

type WithdrawOfferUseCase struct {
	deps Deps
}

func NewWithdrawOfferUseCase(deps Deps) *WithdrawOfferUseCase {
	return &WithdrawOfferUseCase{deps: deps}
}

func (uc *WithdrawOfferUseCase) Execute(ctx context.Context, offerID, senderID uuid.UUID) (*entity.JobOffer, error) {
	offer, err := uc.deps.Offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.SenderID != senderID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the sender can withdraw this offer")
	}

	if err := offer.Withdraw(uc.deps.now()); err != nil {
		return nil, uc.deps.persistExpiry(ctx, offer, err)
	}
	if err := uc.deps.Offers.Update(ctx, offer); err != nil {
		return nil, err
	}

	uc.deps.notify(ctx, offer.RecipientID, "job_offer_withdrawn", "Offer withdrawn", "An offer was withdrawn: "+offer.Title, offer)
	return offer, nil
}

type CounterOfferUseCase struct {
	deps Deps
}

func NewCounterOfferUseCase(deps Deps) *CounterOfferUseCase {
	return &CounterOfferUseCase{deps: deps}
}

// Execute закрывает предложение как countered и создаёт встречное с обратными сторонами.
func (uc *CounterOfferUseCase) Execute(ctx context.Context, offerID, recipientID uuid.UUID, input TermsInput, message *string) (*entity.JobOffer, error) {
	terms, err := uc.deps.terms(input)
	if err != nil {
		return nil, err
	}

	var counter *entity.JobOffer
	err = uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		offer, err := uc.deps.Offers.FindByIDForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.RecipientID != recipientID {
			return apperror.New(apperror.ErrCodeForbidden, "only the recipient can counter this offer")
		}
		if err := uc.deps.checkMessage(ctx, terms.MessageID, offer.SenderID, offer.RecipientID); err != nil {
			return err
		}

		counter, err = offer.Counter(terms, message, uc.deps.now())
		if err != nil {
			return err
		}
		if err := uc.deps.Offers.Update(ctx, offer); err != nil {
			return err
		}
		return uc.deps.Offers.Create(ctx, counter)
	})
	if err != nil {
		return nil, err
	}

	uc.deps.notify(ctx, counter.RecipientID, "job_offer_countered", "Counter offer", "You received a counter offer: "+counter.Title, counter)
	return counter, nil
}

type GetOfferUseCase struct {
	deps Deps
}

func NewGetOfferUseCase(deps Deps) *GetOfferUseCase {
	return &GetOfferUseCase{deps: deps}
}

func (uc *GetOfferUseCase) Execute(ctx context.Context, offerID, viewerID uuid.UUID) (*entity.JobOffer, error) {
	offer, err := uc.deps.Offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(viewerID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "you are not part of this offer")
	}
	offer.RefreshExpiry(uc.deps.now())
	return offer, nil
}

type ListOffersUseCase struct {
	deps Deps
}

func NewListOffersUseCase(deps Deps) *ListOffersUseCase {
	return &ListOffersUseCase{deps: deps}
}

func (uc *ListOffersUseCase) Received(ctx context.Context, userID uuid.UUID, status string) ([]*entity.JobOffer, error) {
	return uc.list(ctx, repository.OfferFilter{RecipientID: &userID}, status)
}

func (uc *ListOffersUseCase) Sent(ctx context.Context, userID uuid.UUID, status string) ([]*entity.JobOffer, error) {
	return uc.list(ctx, repository.OfferFilter{SenderID: &userID}, status)
}

func (uc *ListOffersUseCase) list(ctx context.Context, filter repository.OfferFilter, status string) ([]*entity.JobOffer, error) {
	if status != "" {
		s, err := valueobject.NewJobOfferStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = &s
	}

	offers, err := uc.deps.Offers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := uc.deps.now()
	for _, o := range offers {
		o.RefreshExpiry(now)
	}
	return offers, nil
}

type SummaryUseCase struct {
	deps Deps
}

func NewSummaryUseCase(deps Deps) *SummaryUseCase {
	return &SummaryUseCase{deps: deps}
}

func (uc *SummaryUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.OffersSummary, error) {
	received, err := uc.deps.Offers.List(ctx, repository.OfferFilter{RecipientID: &userID})
	if err != nil {
		return nil, err
	}
	sent, err := uc.deps.Offers.List(ctx, repository.OfferFilter{SenderID: &userID})
	if err != nil {
		return nil, err
	}

	now := uc.deps.now()
	return &entity.OffersSummary{
		Received: count(received, now),
		Sent:     count(sent, now),
	}, nil
}

func count(offers []*entity.JobOffer, now time.Time) entity.OfferCounts {
	var c entity.OfferCounts
	for _, o := range offers {
		o.RefreshExpiry(now)
		c.Total++
		switch o.Status {
		case valueobject.JobOfferStatusPending, valueobject.JobOfferStatusViewed:
			c.Pending++
		case valueobject.JobOfferStatusAccepted:
			c.Accepted++
		case valueobject.JobOfferStatusRejected:
			c.Rejected++
		}
	}
	return c
}
