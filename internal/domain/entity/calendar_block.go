package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/validation"
)

type CalendarBlock struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Range             valueobject.TimeRange
	Reason            valueobject.BlockReason
	BookingID         *uuid.UUID
	Title             *string
	Notes             *string
	VisibilityMessage *string
	Timezone          string
	IsRecurring       bool
	RecurrencePattern *valueobject.RecurrencePattern
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Заполняется при выборке с присоединённым бронированием.
	Booking *BookingSummary
}

// BookingSummary краткие данные бронирования для отображения блока.
type BookingSummary struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	TalentID    uuid.UUID
	TotalAmount float64
	Status      valueobject.BookingStatus
	ClientName  *string
	TalentName  *string
}

type BlockDetails struct {
	Title             *string
	Notes             *string
	VisibilityMessage *string
	Timezone          string
	IsRecurring       bool
	RecurrencePattern *valueobject.RecurrencePattern
}

func NewCalendarBlock(ownerID uuid.UUID, r valueobject.TimeRange, reason valueobject.BlockReason, details BlockDetails) (*CalendarBlock, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "block owner is required")
	}
	if !reason.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid block reason")
	}
	if details.IsRecurring && details.RecurrencePattern == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "recurrence pattern is required for recurring blocks")
	}
	if err := validateBlockText(details.Title, details.Notes, details.VisibilityMessage); err != nil {
		return nil, err
	}

	title := details.Title
	if title == nil || *title == "" {
		t := reason.DefaultTitle()
		title = &t
	}

	now := time.Now().UTC()
	return &CalendarBlock{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Range:             r,
		Reason:            reason,
		Title:             title,
		Notes:             details.Notes,
		VisibilityMessage: details.VisibilityMessage,
		Timezone:          details.Timezone,
		IsRecurring:       details.IsRecurring,
		RecurrencePattern: details.RecurrencePattern,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// NewBookingBlock блок, который закрепляет время за принятым бронированием.
func NewBookingBlock(b *Booking, timezone string) *CalendarBlock {
	title := valueobject.BlockReasonBooking.DefaultTitle()
	notes := "Automatically blocked by booking"
	bookingID := b.ID
	now := time.Now().UTC()
	return &CalendarBlock{
		ID:        uuid.New(),
		OwnerID:   b.TalentID,
		Range:     b.Range,
		Reason:    valueobject.BlockReasonBooking,
		BookingID: &bookingID,
		Title:     &title,
		Notes:     &notes,
		Timezone:  timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (b *CalendarBlock) IsOwnedBy(userID uuid.UUID) bool {
	return b.OwnerID == userID
}

// IsManaged: блоки бронирований меняются только через бронирование.
func (b *CalendarBlock) IsManaged() bool {
	return b.Reason == valueobject.BlockReasonBooking || b.BookingID != nil
}

func (b *CalendarBlock) Conflicts(r valueobject.TimeRange) bool {
	return b.Reason.IsBlocking() && b.Range.Overlaps(r)
}

// BlockPatch частичное изменение блока.
type BlockPatch struct {
	Start             *time.Time
	End               *time.Time
	Reason            *valueobject.BlockReason
	Title             *string
	Notes             *string
	VisibilityMessage *string
	IsRecurring       *bool
	RecurrencePattern *valueobject.RecurrencePattern
}

func (b *CalendarBlock) Apply(p BlockPatch) error {
	if b.IsManaged() {
		return apperror.New(apperror.ErrCodeBadRequest, "booking blocks are managed by their booking")
	}

	start, end := b.Range.Start, b.Range.End
	if p.Start != nil {
		start = *p.Start
	}
	if p.End != nil {
		end = *p.End
	}
	r, err := valueobject.NewTimeRange(start, end)
	if err != nil {
		return err
	}
	if err := validateBlockText(p.Title, p.Notes, p.VisibilityMessage); err != nil {
		return err
	}

	if p.Reason != nil {
		if *p.Reason == valueobject.BlockReasonBooking {
			return apperror.New(apperror.ErrCodeValidation, "booking blocks are created by accepting a booking")
		}
		b.Reason = *p.Reason
	}
	if p.Title != nil {
		b.Title = p.Title
	}
	if p.Notes != nil {
		b.Notes = p.Notes
	}
	if p.VisibilityMessage != nil {
		b.VisibilityMessage = p.VisibilityMessage
	}
	if p.IsRecurring != nil {
		b.IsRecurring = *p.IsRecurring
		if !b.IsRecurring {
			b.RecurrencePattern = nil
		}
	}
	if p.RecurrencePattern != nil {
		b.RecurrencePattern = p.RecurrencePattern
	}
	if b.IsRecurring && b.RecurrencePattern == nil {
		return apperror.New(apperror.ErrCodeValidation, "recurrence pattern is required for recurring blocks")
	}

	b.Range = r
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func validateBlockText(title, notes, visibility *string) error {
	return validation.ValidateAll(
		validation.Field{Name: "title", Value: title, Max: validation.MaxTitleLength},
		validation.Field{Name: "notes", Value: notes, Max: validation.MaxNotesLength},
		validation.Field{Name: "visibility message", Value: visibility, Max: validation.MaxMessageLength},
	)
}
