package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/validation"
)

// JobOffer частное предложение работы от одного участника другому.
type JobOffer struct {
	ID                   uuid.UUID
	SenderID             uuid.UUID
	RecipientID          uuid.UUID
	MessageID            *uuid.UUID
	Title                string
	Description          string
	EventType            *string
	Location             *string
	EventDate            *time.Time
	StartTime            *valueobject.ClockTime
	EndTime              *valueobject.ClockTime
	Timezone             string
	Budget               valueobject.OfferBudget
	RoleType             *valueobject.RoleType
	RoleTitle            *string
	RequiredSkills       []string
	Status               valueobject.JobOfferStatus
	ResponseMessage      *string
	RespondedAt          *time.Time
	ExpiresAt            *time.Time
	ConvertedToBookingID *uuid.UUID
	OriginalOfferID      *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Sender    *ProfileSummary
	Recipient *ProfileSummary
}

type OfferTerms struct {
	Title          string
	Description    string
	EventType      *string
	Location       *string
	EventDate      *time.Time
	StartTime      *valueobject.ClockTime
	EndTime        *valueobject.ClockTime
	Timezone       string
	Budget         valueobject.OfferBudget
	RoleType       *valueobject.RoleType
	RoleTitle      *string
	RequiredSkills []string
	MessageID      *uuid.UUID
	ExpiresInDays  int
}

func NewJobOffer(senderID, recipientID uuid.UUID, terms OfferTerms, now time.Time) (*JobOffer, error) {
	if senderID == recipientID {
		return nil, apperror.New(apperror.ErrCodeValidation, "you cannot send an offer to yourself")
	}
	if strings.TrimSpace(terms.Title) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "offer title is required")
	}
	if strings.TrimSpace(terms.Description) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "offer description is required")
	}
	if err := validation.ValidateAll(
		validation.Field{Name: "title", Value: &terms.Title, Max: validation.MaxTitleLength},
		validation.Field{Name: "description", Value: &terms.Description, Max: validation.MaxDescriptionLength},
		validation.Field{Name: "location", Value: terms.Location, Max: validation.MaxLocationLength},
	); err != nil {
		return nil, err
	}
	if (terms.StartTime == nil) != (terms.EndTime == nil) {
		return nil, apperror.New(apperror.ErrCodeValidation, "start and end time must be provided together")
	}
	if terms.StartTime != nil && terms.EventDate == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "event date is required when times are set")
	}

	var expiresAt *time.Time
	if terms.ExpiresInDays > 0 {
		e := now.AddDate(0, 0, terms.ExpiresInDays)
		expiresAt = &e
	}

	return &JobOffer{
		ID:             uuid.New(),
		SenderID:       senderID,
		RecipientID:    recipientID,
		MessageID:      terms.MessageID,
		Title:          strings.TrimSpace(terms.Title),
		Description:    strings.TrimSpace(terms.Description),
		EventType:      terms.EventType,
		Location:       terms.Location,
		EventDate:      terms.EventDate,
		StartTime:      terms.StartTime,
		EndTime:        terms.EndTime,
		Timezone:       terms.Timezone,
		Budget:         terms.Budget,
		RoleType:       terms.RoleType,
		RoleTitle:      terms.RoleTitle,
		RequiredSkills: terms.RequiredSkills,
		Status:         valueobject.JobOfferStatusPending,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RefreshExpiry переводит просроченное открытое предложение в expired.
// Возвращает true, если статус изменился.
func (o *JobOffer) RefreshExpiry(now time.Time) bool {
	if o.Status.IsOpen() && o.ExpiresAt != nil && !now.Before(*o.ExpiresAt) {
		o.Status = valueobject.JobOfferStatusExpired
		o.UpdatedAt = now
		return true
	}
	return false
}

func (o *JobOffer) IsParty(userID uuid.UUID) bool {
	return o.SenderID == userID || o.RecipientID == userID
}

func (o *JobOffer) IsConverted() bool {
	return o.ConvertedToBookingID != nil
}

func (o *JobOffer) transition(to valueobject.JobOfferStatus, now time.Time) error {
	if o.RefreshExpiry(now) {
		return apperror.ErrOfferExpired
	}
	if !o.Status.CanTransitionTo(to) {
		return apperror.New(apperror.ErrCodeBadRequest, "job offer cannot be "+string(to)+" in its current status")
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// MarkViewed возвращает false, если предложение уже было просмотрено или закрыто.
func (o *JobOffer) MarkViewed(now time.Time) bool {
	if o.Status != valueobject.JobOfferStatusPending {
		return false
	}
	return o.transition(valueobject.JobOfferStatusViewed, now) == nil
}

func (o *JobOffer) Accept(message *string, now time.Time) error {
	if err := o.transition(valueobject.JobOfferStatusAccepted, now); err != nil {
		return err
	}
	o.ResponseMessage = message
	o.RespondedAt = &now
	return nil
}

func (o *JobOffer) Reject(message *string, now time.Time) error {
	if err := o.transition(valueobject.JobOfferStatusRejected, now); err != nil {
		return err
	}
	o.ResponseMessage = message
	o.RespondedAt = &now
	return nil
}

func (o *JobOffer) Withdraw(now time.Time) error {
	if o.Status != valueobject.JobOfferStatusPending {
		return apperror.New(apperror.ErrCodeBadRequest, "only pending offers can be withdrawn")
	}
	return o.transition(valueobject.JobOfferStatusWithdrawn, now)
}

// Counter закрывает предложение и создаёт встречное с обратными сторонами.
func (o *JobOffer) Counter(terms OfferTerms, message *string, now time.Time) (*JobOffer, error) {
	counter, err := NewJobOffer(o.RecipientID, o.SenderID, terms, now)
	if err != nil {
		return nil, err
	}
	if err := o.transition(valueobject.JobOfferStatusCountered, now); err != nil {
		return nil, err
	}
	o.ResponseMessage = message
	o.RespondedAt = &now

	originalID := o.ID
	counter.OriginalOfferID = &originalID
	return counter, nil
}

// BookingRange интервал бронирования, в которое превращается предложение.
func (o *JobOffer) BookingRange(fallback *time.Location) (valueobject.TimeRange, bool, error) {
	if o.EventDate == nil {
		return valueobject.TimeRange{}, false, apperror.New(apperror.ErrCodeValidation, "offer has no event date to book")
	}
	loc := valueobject.LoadLocation(o.Timezone, fallback)
	r, hasTimes := valueobject.EventRange(*o.EventDate, o.StartTime, o.EndTime, loc)
	return r, hasTimes, nil
}

// MarkConverted фиксирует созданное бронирование. Повторный вызов запрещён.
func (o *JobOffer) MarkConverted(bookingID uuid.UUID, now time.Time) error {
	if o.IsConverted() {
		return apperror.ErrAlreadyConverted
	}
	if o.Status != valueobject.JobOfferStatusAccepted {
		return apperror.New(apperror.ErrCodeBadRequest, "only accepted offers can be converted to a booking")
	}
	o.ConvertedToBookingID = &bookingID
	o.UpdatedAt = now
	return nil
}

// OffersSummary счётчики предложений пользователя.
type OffersSummary struct {
	Received OfferCounts
	Sent     OfferCounts
}

type OfferCounts struct {
	Total    int
	Pending  int
	Accepted int
	Rejected int
}
