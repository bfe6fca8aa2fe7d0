package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
)

type JobRepository interface {
	CreatePosting(ctx context.Context, job *entity.JobPosting) error
	UpdatePosting(ctx context.Context, job *entity.JobPosting) error
	FindPostingByID(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error)
	ListByOrganiser(ctx context.Context, organiserID uuid.UUID) ([]*entity.JobPosting, error)

	CreateApplication(ctx context.Context, app *entity.JobApplication) error
	UpdateApplication(ctx context.Context, app *entity.JobApplication) error
	FindApplicationByID(ctx context.Context, id uuid.UUID) (*entity.JobApplication, error)
	HasApplied(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error)
	// ListApplicationsByApplicant возвращает заявки с заполненным Job.
	ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*entity.JobApplication, error)
}
