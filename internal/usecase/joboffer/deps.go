package joboffer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

type Deps struct {
	Offers   repository.JobOfferRepository
	Bookings repository.BookingRepository
	Blocks   repository.CalendarBlockRepository
	Messages repository.MessageRepository
	Tx       repository.Transactor
	Clock    clock.Clock
	Effects  *effects.Effects

	DefaultExpiryDays int
	// Location зона по умолчанию для предложений без своей зоны.
	Location *time.Location
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now().UTC()
	}
	return d.Clock.Now()
}

func (d Deps) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// TermsInput условия предложения в том виде, в каком их присылает клиент.
type TermsInput struct {
	Title          string
	Description    string
	EventType      *string
	Location       *string
	EventDate      *string
	StartTime      *string
	EndTime        *string
	Timezone       string
	BudgetType     string
	BudgetAmount   *float64
	Currency       string
	RoleType       *string
	RoleTitle      *string
	RequiredSkills []string
	MessageID      *uuid.UUID
	ExpiresInDays  *int
}

func (d Deps) terms(in TermsInput) (entity.OfferTerms, error) {
	budgetType := in.BudgetType
	if budgetType == "" {
		budgetType = string(valueobject.BudgetTypeNegotiable)
	}
	budget, err := valueobject.NewOfferBudget(budgetType, in.BudgetAmount, in.Currency)
	if err != nil {
		return entity.OfferTerms{}, err
	}

	terms := entity.OfferTerms{
		Title:          in.Title,
		Description:    in.Description,
		EventType:      in.EventType,
		Location:       in.Location,
		Timezone:       in.Timezone,
		Budget:         budget,
		RoleTitle:      in.RoleTitle,
		RequiredSkills: in.RequiredSkills,
		MessageID:      in.MessageID,
		ExpiresInDays:  d.DefaultExpiryDays,
	}
	if terms.Timezone == "" {
		terms.Timezone = d.location().String()
	}
	if terms.RequiredSkills == nil {
		terms.RequiredSkills = []string{}
	}
	if in.ExpiresInDays != nil {
		if *in.ExpiresInDays < 0 || *in.ExpiresInDays > 365 {
			return entity.OfferTerms{}, apperror.New(apperror.ErrCodeValidation, "expires_in_days must be between 0 and 365")
		}
		terms.ExpiresInDays = *in.ExpiresInDays
	}

	if in.EventDate != nil && *in.EventDate != "" {
		date, err := valueobject.ParseDate(*in.EventDate)
		if err != nil {
			return entity.OfferTerms{}, err
		}
		terms.EventDate = &date
	}
	for _, pair := range []struct {
		src *string
		dst **valueobject.ClockTime
	}{{in.StartTime, &terms.StartTime}, {in.EndTime, &terms.EndTime}} {
		if pair.src == nil || *pair.src == "" {
			continue
		}
		c, err := valueobject.ParseClock(*pair.src)
		if err != nil {
			return entity.OfferTerms{}, err
		}
		*pair.dst = &c
	}
	if in.RoleType != nil && *in.RoleType != "" {
		rt, err := valueobject.NewRoleType(*in.RoleType)
		if err != nil {
			return entity.OfferTerms{}, err
		}
		terms.RoleType = &rt
	}
	return terms, nil
}

// checkMessage проверяет, что message_id ссылается на сообщение между сторонами предложения.
func (d Deps) checkMessage(ctx context.Context, id *uuid.UUID, a, b uuid.UUID) error {
	if id == nil || d.Messages == nil {
		return nil
	}
	msg, err := d.Messages.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, apperror.ErrMessageNotFound) {
			return apperror.New(apperror.ErrCodeValidation, "message_id does not reference an existing message")
		}
		return err
	}
	if !msg.Between(a, b) {
		return apperror.New(apperror.ErrCodeValidation, "message_id must reference a message between sender and recipient")
	}
	return nil
}

// persistExpiry сохраняет статус expired, если переход упёрся в истёкший срок.
func (d Deps) persistExpiry(ctx context.Context, o *entity.JobOffer, err error) error {
	if errors.Is(err, apperror.ErrOfferExpired) {
		if uerr := d.Offers.Update(ctx, o); uerr != nil {
			return uerr
		}
	}
	return err
}

func offerLink(id uuid.UUID) *string {
	link := "/job-offers/" + id.String()
	return &link
}

func (d Deps) notify(ctx context.Context, userID uuid.UUID, kind, title, message string, o *entity.JobOffer) {
	d.Effects.Notify(ctx, port.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    map[string]any{"offer_id": o.ID.String(), "title": o.Title, "status": string(o.Status)},
		Link:    offerLink(o.ID),
	})
}
