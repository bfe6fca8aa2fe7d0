package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/usecase/job"
)

type CreateJobRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"required"`
	Location    *string    `json:"location"`
	EventType   *string    `json:"event_type"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Budget      *float64   `json:"budget" binding:"omitempty,gte=0"`
}

func (r CreateJobRequest) ToInput() job.CreatePostingInput {
	return job.CreatePostingInput{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		EventType:   r.EventType,
		StartAt:     r.StartAt,
		EndAt:       r.EndAt,
		Budget:      r.Budget,
	}
}

type ApplyJobRequest struct {
	CoverLetter  *string  `json:"cover_letter"`
	ProposedRate *float64 `json:"proposed_rate" binding:"omitempty,gte=0"`
}

type JobPostingResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrganiserID uuid.UUID  `json:"organiser_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    *string    `json:"location"`
	EventType   *string    `json:"event_type"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Budget      *float64   `json:"budget"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToJobPostingResponse(j *entity.JobPosting) JobPostingResponse {
	return JobPostingResponse{
		ID:          j.ID,
		OrganiserID: j.OrganiserID,
		Title:       j.Title,
		Description: j.Description,
		Location:    j.Location,
		EventType:   j.EventType,
		StartAt:     j.StartAt,
		EndAt:       j.EndAt,
		Budget:      j.Budget,
		Status:      string(j.Status),
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

type JobApplicationResponse struct {
	ID           uuid.UUID           `json:"id"`
	JobID        uuid.UUID           `json:"job_id"`
	ApplicantID  uuid.UUID           `json:"applicant_id"`
	CoverLetter  *string             `json:"cover_letter"`
	ProposedRate *float64            `json:"proposed_rate"`
	Status       string              `json:"status"`
	BookingID    *uuid.UUID          `json:"booking_id"`
	CreatedAt    time.Time           `json:"created_at"`
	Job          *JobPostingResponse `json:"job,omitempty"`
}

func ToJobApplicationResponse(a *entity.JobApplication) JobApplicationResponse {
	resp := JobApplicationResponse{
		ID:           a.ID,
		JobID:        a.JobID,
		ApplicantID:  a.ApplicantID,
		CoverLetter:  a.CoverLetter,
		ProposedRate: a.ProposedRate,
		Status:       string(a.Status),
		BookingID:    a.BookingID,
		CreatedAt:    a.CreatedAt,
	}
	if a.Job != nil {
		j := ToJobPostingResponse(a.Job)
		resp.Job = &j
	}
	return resp
}
