package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/validation"
)

// AvailabilityRequest необязывающий вопрос «свободен ли талант в этот день».
// Время в календаре не резервирует.
type AvailabilityRequest struct {
	ID              uuid.UUID
	RequesterID     uuid.UUID
	TalentID        uuid.UUID
	RequestedDate   time.Time
	StartTime       *valueobject.ClockTime
	EndTime         *valueobject.ClockTime
	Message         *string
	Status          valueobject.AvailabilityRequestStatus
	ResponseMessage *string
	RespondedAt     *time.Time
	ExpiresAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Requester *ProfileSummary
	Talent    *ProfileSummary
}

type NewAvailabilityRequestParams struct {
	RequesterID   uuid.UUID
	TalentID      uuid.UUID
	RequestedDate time.Time
	StartTime     *valueobject.ClockTime
	EndTime       *valueobject.ClockTime
	Message       *string
	TTL           time.Duration
}

func NewAvailabilityRequest(p NewAvailabilityRequestParams, now time.Time) (*AvailabilityRequest, error) {
	if p.RequesterID == p.TalentID {
		return nil, apperror.New(apperror.ErrCodeValidation, "you cannot request your own availability")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	date := time.Date(p.RequestedDate.Year(), p.RequestedDate.Month(), p.RequestedDate.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return nil, apperror.New(apperror.ErrCodeValidation, "requested date cannot be in the past")
	}
	if (p.StartTime == nil) != (p.EndTime == nil) {
		return nil, apperror.New(apperror.ErrCodeValidation, "start and end time must be provided together")
	}
	if p.StartTime != nil && !p.StartTime.Before(*p.EndTime) {
		return nil, apperror.New(apperror.ErrCodeValidation, "end time must be after start time")
	}
	if err := validation.ValidateOptional("message", p.Message, validation.MaxMessageLength); err != nil {
		return nil, err
	}
	if p.TTL <= 0 {
		return nil, apperror.New(apperror.ErrCodeInternal, "availability request ttl is not configured")
	}

	return &AvailabilityRequest{
		ID:            uuid.New(),
		RequesterID:   p.RequesterID,
		TalentID:      p.TalentID,
		RequestedDate: date,
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		Message:       p.Message,
		Status:        valueobject.AvailabilityRequestPending,
		ExpiresAt:     now.Add(p.TTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (r *AvailabilityRequest) IsExpired(now time.Time) bool {
	return r.Status == valueobject.AvailabilityRequestExpired ||
		(r.Status == valueobject.AvailabilityRequestPending && !now.Before(r.ExpiresAt))
}

// Respond отвечает на запрос один раз.
func (r *AvailabilityRequest) Respond(status valueobject.AvailabilityRequestStatus, message *string, now time.Time) error {
	if r.IsExpired(now) {
		r.Status = valueobject.AvailabilityRequestExpired
		return apperror.ErrRequestExpired
	}
	if r.Status != valueobject.AvailabilityRequestPending {
		return apperror.ErrAlreadyAnswered
	}
	if status != valueobject.AvailabilityRequestAvailable && status != valueobject.AvailabilityRequestUnavailable {
		return apperror.New(apperror.ErrCodeValidation, "status must be available or unavailable")
	}
	if err := validation.ValidateOptional("message", message, validation.MaxMessageLength); err != nil {
		return err
	}
	r.Status = status
	r.ResponseMessage = message
	r.RespondedAt = &now
	r.UpdatedAt = now
	return nil
}
