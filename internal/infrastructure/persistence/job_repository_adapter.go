package persistence

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

var jobPostingColumns = []string{
	"j.id", "j.organiser_id", "j.title", "j.description", "j.location", "j.event_type",
	"j.start_at", "j.end_at", "j.budget", "j.status", "j.created_at", "j.updated_at",
}

type JobRepositoryAdapter struct {
	db *sqlx.DB
}

func NewJobRepositoryAdapter(db *sqlx.DB) *JobRepositoryAdapter {
	return &JobRepositoryAdapter{db: db}
}

type jobPostingRow struct {
	ID          uuid.UUID  `db:"id"`
	OrganiserID uuid.UUID  `db:"organiser_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Location    *string    `db:"location"`
	EventType   *string    `db:"event_type"`
	StartAt     *time.Time `db:"start_at"`
	EndAt       *time.Time `db:"end_at"`
	Budget      *float64   `db:"budget"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r jobPostingRow) toEntity() *entity.JobPosting {
	return &entity.JobPosting{
		ID:          r.ID,
		OrganiserID: r.OrganiserID,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		EventType:   r.EventType,
		StartAt:     r.StartAt,
		EndAt:       r.EndAt,
		Budget:      r.Budget,
		Status:      valueobject.JobPostingStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type jobApplicationRow struct {
	AppID        uuid.UUID  `db:"app_id"`
	JobID        uuid.UUID  `db:"job_id"`
	ApplicantID  uuid.UUID  `db:"applicant_id"`
	CoverLetter  *string    `db:"cover_letter"`
	ProposedRate *float64   `db:"proposed_rate"`
	AppStatus    string     `db:"app_status"`
	BookingID    *uuid.UUID `db:"booking_id"`
	AppCreatedAt time.Time  `db:"app_created_at"`
	AppUpdatedAt time.Time  `db:"app_updated_at"`
	jobPostingRow
}

func (r jobApplicationRow) toEntity() *entity.JobApplication {
	return &entity.JobApplication{
		ID:           r.AppID,
		JobID:        r.JobID,
		ApplicantID:  r.ApplicantID,
		CoverLetter:  r.CoverLetter,
		ProposedRate: r.ProposedRate,
		Status:       valueobject.JobApplicationStatus(r.AppStatus),
		BookingID:    r.BookingID,
		CreatedAt:    r.AppCreatedAt,
		UpdatedAt:    r.AppUpdatedAt,
		Job:          r.jobPostingRow.toEntity(),
	}
}

func (r *JobRepositoryAdapter) CreatePosting(ctx context.Context, j *entity.JobPosting) error {
	q := psql.Insert("job_postings").
		Columns("id", "organiser_id", "title", "description", "location", "event_type", "start_at", "end_at",
			"budget", "status", "created_at", "updated_at").
		Values(j.ID, j.OrganiserID, j.Title, j.Description, j.Location, j.EventType, j.StartAt, j.EndAt,
			j.Budget, string(j.Status), j.CreatedAt, j.UpdatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create job posting")
	}
	return nil
}

func (r *JobRepositoryAdapter) UpdatePosting(ctx context.Context, j *entity.JobPosting) error {
	q := psql.Update("job_postings").
		Set("status", string(j.Status)).
		Set("updated_at", j.UpdatedAt).
		Where(squirrel.Eq{"id": j.ID})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, nil, "failed to update job posting")
	}
	if rows == 0 {
		return apperror.ErrJobNotFound
	}
	return nil
}

func (r *JobRepositoryAdapter) FindPostingByID(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error) {
	var row jobPostingRow
	q := psql.Select(jobPostingColumns...).From("job_postings j").Where(squirrel.Eq{"j.id": id})
	if err := get(ctx, r.db, &row, q); err != nil {
		return nil, mapError(err, apperror.ErrJobNotFound, nil, "failed to load job posting")
	}
	return row.toEntity(), nil
}

func (r *JobRepositoryAdapter) ListByOrganiser(ctx context.Context, organiserID uuid.UUID) ([]*entity.JobPosting, error) {
	q := psql.Select(jobPostingColumns...).
		From("job_postings j").
		Where(squirrel.Eq{"j.organiser_id": organiserID}).
		OrderBy("j.start_at ASC NULLS LAST", "j.created_at DESC")

	var rows []jobPostingRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to list job postings")
	}
	out := make([]*entity.JobPosting, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *JobRepositoryAdapter) CreateApplication(ctx context.Context, a *entity.JobApplication) error {
	q := psql.Insert("job_applications").
		Columns("id", "job_id", "applicant_id", "cover_letter", "proposed_rate", "status", "created_at", "updated_at").
		Values(a.ID, a.JobID, a.ApplicantID, a.CoverLetter, a.ProposedRate, string(a.Status), a.CreatedAt, a.UpdatedAt)

	if _, err := exec(ctx, r.db, q); err != nil {
		return mapError(err, nil, nil, "failed to create job application")
	}
	return nil
}

func (r *JobRepositoryAdapter) UpdateApplication(ctx context.Context, a *entity.JobApplication) error {
	q := psql.Update("job_applications").
		Set("status", string(a.Status)).
		Set("booking_id", a.BookingID).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID})

	rows, err := exec(ctx, r.db, q)
	if err != nil {
		return mapError(err, nil, nil, "failed to update job application")
	}
	if rows == 0 {
		return apperror.ErrApplicationNotFound
	}
	return nil
}

func (r *JobRepositoryAdapter) FindApplicationByID(ctx context.Context, id uuid.UUID) (*entity.JobApplication, error) {
	var row jobApplicationRow
	if err := get(ctx, r.db, &row, selectApplications().Where(squirrel.Eq{"a.id": id})); err != nil {
		return nil, mapError(err, apperror.ErrApplicationNotFound, nil, "failed to load job application")
	}
	return row.toEntity(), nil
}

func (r *JobRepositoryAdapter) HasApplied(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error) {
	var exists bool
	q := psql.Select("1").
		From("job_applications").
		Where(squirrel.Eq{"job_id": jobID, "applicant_id": applicantID}).
		Prefix("SELECT EXISTS (").
		Suffix(")")
	if err := get(ctx, r.db, &exists, q); err != nil {
		return false, mapError(err, nil, nil, "failed to check job application")
	}
	return exists, nil
}

func (r *JobRepositoryAdapter) ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*entity.JobApplication, error) {
	q := selectApplications().
		Where(squirrel.Eq{"a.applicant_id": applicantID}).
		OrderBy("a.created_at DESC")

	var rows []jobApplicationRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to list job applications")
	}
	out := make([]*entity.JobApplication, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// selectApplications столбцы заявки префиксованы, чтобы не пересекаться со встроенной вакансией.
func selectApplications() squirrel.SelectBuilder {
	return psql.Select(
		"a.id AS app_id", "a.job_id", "a.applicant_id", "a.cover_letter", "a.proposed_rate",
		"a.status AS app_status", "a.booking_id", "a.created_at AS app_created_at", "a.updated_at AS app_updated_at",
		"j.id", "j.organiser_id", "j.title", "j.description", "j.location", "j.event_type",
		"j.start_at", "j.end_at", "j.budget", "j.status", "j.created_at", "j.updated_at",
	).
		From("job_applications a").
		Join("job_postings j ON j.id = a.job_id")
}
