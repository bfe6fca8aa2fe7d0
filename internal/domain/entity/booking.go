package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/validation"
)

const defaultDeclineResponse = "Declined by freelancer"

type Booking struct {
	ID                 uuid.UUID
	ClientID           uuid.UUID
	TalentID           uuid.UUID
	Range              valueobject.TimeRange
	Status             valueobject.BookingStatus
	PaymentStatus      valueobject.PaymentStatus
	TotalAmount        valueobject.Money
	ServiceDescription string
	ClientMessage      *string
	TalentResponse     *string
	CancellationReason *string
	Source             valueobject.BookingSource
	SourceID           *uuid.UUID
	CheckoutSessionID  *string
	InvoiceID          *uuid.UUID
	AcceptedAt         *time.Time
	DeclinedAt         *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Профили сторон, если выборка их присоединяла.
	Client *ProfileSummary
	Talent *ProfileSummary
}

type NewBookingParams struct {
	ClientID           uuid.UUID
	TalentID           uuid.UUID
	Range              valueobject.TimeRange
	TotalAmount        float64
	Currency           string
	ServiceDescription string
	ClientMessage      *string
	Source             valueobject.BookingSource
	SourceID           *uuid.UUID
}

func NewBooking(p NewBookingParams) (*Booking, error) {
	if p.ClientID == uuid.Nil || p.TalentID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "client and talent are required")
	}
	if p.ClientID == p.TalentID {
		return nil, apperror.New(apperror.ErrCodeValidation, "you cannot book yourself")
	}
	if !p.Range.Start.Before(p.Range.End) {
		return nil, apperror.New(apperror.ErrCodeValidation, "End date must be after start date")
	}
	if strings.TrimSpace(p.ServiceDescription) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "service description is required")
	}
	if err := validation.ValidateAll(
		validation.Field{Name: "service description", Value: &p.ServiceDescription, Max: validation.MaxDescriptionLength},
		validation.Field{Name: "client message", Value: p.ClientMessage, Max: validation.MaxMessageLength},
	); err != nil {
		return nil, err
	}

	amount, err := valueobject.NewMoney(p.TotalAmount, p.Currency)
	if err != nil {
		return nil, err
	}

	source := p.Source
	if source == "" {
		source = valueobject.BookingSourceDirect
	}

	now := time.Now().UTC()
	return &Booking{
		ID:                 uuid.New(),
		ClientID:           p.ClientID,
		TalentID:           p.TalentID,
		Range:              p.Range,
		Status:             valueobject.BookingStatusPending,
		PaymentStatus:      valueobject.PaymentStatusUnpaid,
		TotalAmount:        amount,
		ServiceDescription: p.ServiceDescription,
		ClientMessage:      p.ClientMessage,
		Source:             source,
		SourceID:           p.SourceID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (b *Booking) IsParty(userID uuid.UUID) bool {
	return b.ClientID == userID || b.TalentID == userID
}

// Counterparty возвращает вторую сторону бронирования.
func (b *Booking) Counterparty(userID uuid.UUID) uuid.UUID {
	if b.ClientID == userID {
		return b.TalentID
	}
	return b.ClientID
}

func (b *Booking) Accept(response *string, now time.Time) error {
	if !b.Status.CanTransitionTo(valueobject.BookingStatusAccepted) {
		return apperror.New(apperror.ErrCodeBadRequest, "only pending bookings can be accepted")
	}
	if err := validation.ValidateOptional("response", response, validation.MaxMessageLength); err != nil {
		return err
	}
	b.Status = valueobject.BookingStatusAccepted
	b.TalentResponse = response
	b.AcceptedAt = &now
	b.UpdatedAt = now
	return nil
}

// Confirm переводит только что созданное бронирование сразу в accepted:
// обе стороны уже договорились через предложение или отбор заявки.
func (b *Booking) Confirm(now time.Time) error {
	return b.Accept(nil, now)
}

func (b *Booking) Decline(response *string, now time.Time) error {
	if !b.Status.CanTransitionTo(valueobject.BookingStatusDeclined) {
		return apperror.New(apperror.ErrCodeBadRequest, "only pending bookings can be declined")
	}
	if err := validation.ValidateOptional("response", response, validation.MaxMessageLength); err != nil {
		return err
	}
	if response == nil || strings.TrimSpace(*response) == "" {
		r := defaultDeclineResponse
		response = &r
	}
	b.Status = valueobject.BookingStatusDeclined
	b.TalentResponse = response
	b.DeclinedAt = &now
	b.UpdatedAt = now
	return nil
}

// Cancel возвращает true, если у бронирования был блок календаря, который нужно освободить.
func (b *Booking) Cancel(actorID uuid.UUID, reason string, now time.Time) (bool, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, apperror.New(apperror.ErrCodeValidation, "cancellation reason is required")
	}
	if err := validation.ValidateLength("cancellation reason", reason, 1, validation.MaxReasonLength); err != nil {
		return false, err
	}
	if !b.Status.CanTransitionTo(valueobject.BookingStatusCancelled) {
		return false, apperror.New(apperror.ErrCodeBadRequest, "booking cannot be cancelled in its current status")
	}
	if b.Status == valueobject.BookingStatusPending && actorID != b.ClientID {
		return false, apperror.New(apperror.ErrCodeForbidden, "a pending booking can only be cancelled by the client; decline it instead")
	}

	hadBlock := b.Status.HoldsCalendar()
	b.Status = valueobject.BookingStatusCancelled
	b.CancellationReason = &reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	return hadBlock, nil
}

func (b *Booking) Start(now time.Time) error {
	if !b.Status.CanTransitionTo(valueobject.BookingStatusInProgress) {
		return apperror.New(apperror.ErrCodeBadRequest, "only accepted bookings can be started")
	}
	if now.Before(b.Range.Start) {
		return apperror.New(apperror.ErrCodeBadRequest, "booking cannot start before its start time")
	}
	b.Status = valueobject.BookingStatusInProgress
	b.StartedAt = &now
	b.UpdatedAt = now
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if !b.Status.CanTransitionTo(valueobject.BookingStatusCompleted) {
		return apperror.New(apperror.ErrCodeBadRequest, "only accepted or in-progress bookings can be completed")
	}
	if now.Before(b.Range.End) {
		return apperror.New(apperror.ErrCodeBadRequest, "booking cannot be completed before its end time")
	}
	b.Status = valueobject.BookingStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	return nil
}

// StartCheckout фиксирует сессию оплаты.
func (b *Booking) StartCheckout(sessionID string, now time.Time) error {
	if b.Status != valueobject.BookingStatusAccepted &&
		b.Status != valueobject.BookingStatusInProgress &&
		b.Status != valueobject.BookingStatusCompleted {
		return apperror.New(apperror.ErrCodeBadRequest, "only confirmed bookings can be paid")
	}
	if b.PaymentStatus != valueobject.PaymentStatusUnpaid {
		return apperror.New(apperror.ErrCodeConflict, "booking payment is already in progress or settled")
	}
	b.PaymentStatus = valueobject.PaymentStatusPending
	b.CheckoutSessionID = &sessionID
	b.UpdatedAt = now
	return nil
}

// SetPaymentStatus единственное изменение, разрешённое после завершения или отмены.
func (b *Booking) SetPaymentStatus(status valueobject.PaymentStatus, now time.Time) {
	b.PaymentStatus = status
	b.UpdatedAt = now
}

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == valueobject.PaymentStatusPaid
}

// BookingStats сводка бронирований пользователя.
type BookingStats struct {
	AsClient    map[valueobject.BookingStatus]int
	AsTalent    map[valueobject.BookingStatus]int
	TotalSpent  float64
	TotalEarned float64
	ClientTotal int
	TalentTotal int
}
