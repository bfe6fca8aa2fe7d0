package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/validation"
)

type JobPosting struct {
	ID          uuid.UUID
	OrganiserID uuid.UUID
	Title       string
	Description string
	Location    *string
	EventType   *string
	StartAt     *time.Time
	EndAt       *time.Time
	Budget      *float64
	Status      valueobject.JobPostingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewJobPosting(organiserID uuid.UUID, title, description string, location, eventType *string, start, end *time.Time, budget *float64) (*JobPosting, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "job title is required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "job description is required")
	}
	if err := validation.ValidateAll(
		validation.Field{Name: "title", Value: &title, Max: validation.MaxTitleLength},
		validation.Field{Name: "description", Value: &description, Max: validation.MaxDescriptionLength},
		validation.Field{Name: "location", Value: location, Max: validation.MaxLocationLength},
	); err != nil {
		return nil, err
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, apperror.New(apperror.ErrCodeValidation, "End date must be after start date")
	}
	if budget != nil && *budget < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "budget cannot be negative")
	}

	now := time.Now().UTC()
	return &JobPosting{
		ID:          uuid.New(),
		OrganiserID: organiserID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Location:    location,
		EventType:   eventType,
		StartAt:     start,
		EndAt:       end,
		Budget:      budget,
		Status:      valueobject.JobPostingStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (j *JobPosting) IsOwnedBy(userID uuid.UUID) bool {
	return j.OrganiserID == userID
}

// EventRange интервал работы. Без конца считается один день от начала.
func (j *JobPosting) EventRange() (valueobject.TimeRange, bool) {
	if j.StartAt == nil {
		return valueobject.TimeRange{}, false
	}
	end := j.StartAt.Add(24 * time.Hour)
	if j.EndAt != nil && j.EndAt.After(*j.StartAt) {
		end = *j.EndAt
	}
	return valueobject.TimeRange{Start: *j.StartAt, End: end}, true
}

type JobApplication struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	ApplicantID  uuid.UUID
	CoverLetter  *string
	ProposedRate *float64
	Status       valueobject.JobApplicationStatus
	BookingID    *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Job *JobPosting
}

func NewJobApplication(job *JobPosting, applicantID uuid.UUID, coverLetter *string, proposedRate *float64) (*JobApplication, error) {
	if job.Status != valueobject.JobPostingStatusOpen {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "job is not open for applications")
	}
	if job.IsOwnedBy(applicantID) {
		return nil, apperror.New(apperror.ErrCodeValidation, "you cannot apply to your own job")
	}
	if proposedRate != nil && *proposedRate < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "proposed rate cannot be negative")
	}
	if err := validation.ValidateOptional("cover letter", coverLetter, validation.MaxMessageLength); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &JobApplication{
		ID:           uuid.New(),
		JobID:        job.ID,
		ApplicantID:  applicantID,
		CoverLetter:  coverLetter,
		ProposedRate: proposedRate,
		Status:       valueobject.JobApplicationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		Job:          job,
	}, nil
}

func (a *JobApplication) Select(bookingID uuid.UUID, now time.Time) error {
	if a.Status != valueobject.JobApplicationPending {
		return apperror.New(apperror.ErrCodeBadRequest, "only pending applications can be selected")
	}
	a.Status = valueobject.JobApplicationSelected
	a.BookingID = &bookingID
	a.UpdatedAt = now
	return nil
}
