package job

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/usecase/booking"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

type Deps struct {
	Jobs     repository.JobRepository
	Bookings repository.BookingRepository
	Blocks   repository.CalendarBlockRepository
	Tx       repository.Transactor
	Clock    clock.Clock
	Effects  *effects.Effects
	Currency string
	Timezone string
}

func (d Deps) clock() clock.Clock {
	if d.Clock == nil {
		return clock.Real{}
	}
	return d.Clock
}

type CreatePostingInput struct {
	Title       string
	Description string
	Location    *string
	EventType   *string
	StartAt     *time.Time
	EndAt       *time.Time
	Budget      *float64
}

type CreatePostingUseCase struct {
	deps Deps
}

func NewCreatePostingUseCase(deps Deps) *CreatePostingUseCase {
	return &CreatePostingUseCase{deps: deps}
}

func (uc *CreatePostingUseCase) Execute(ctx context.Context, organiserID uuid.UUID, in CreatePostingInput) (*entity.JobPosting, error) {
	if in.StartAt != nil && in.StartAt.Before(uc.deps.clock().Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "job cannot start in the past")
	}
	posting, err := entity.NewJobPosting(organiserID, in.Title, in.Description, in.Location, in.EventType, in.StartAt, in.EndAt, in.Budget)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Jobs.CreatePosting(ctx, posting); err != nil {
		return nil, err
	}
	uc.deps.Effects.InvalidateFeed(ctx, organiserID)
	return posting, nil
}

type ApplyInput struct {
	CoverLetter  *string
	ProposedRate *float64
}

type ApplyUseCase struct {
	deps Deps
}

func NewApplyUseCase(deps Deps) *ApplyUseCase {
	return &ApplyUseCase{deps: deps}
}

// Execute подаёт заявку на открытую работу. Одна заявка на работу от пользователя.
func (uc *ApplyUseCase) Execute(ctx context.Context, jobID, applicantID uuid.UUID, in ApplyInput) (*entity.JobApplication, error) {
	posting, err := uc.deps.Jobs.FindPostingByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	applied, err := uc.deps.Jobs.HasApplied(ctx, jobID, applicantID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, apperror.ErrAlreadyApplied
	}

	app, err := entity.NewJobApplication(posting, applicantID, in.CoverLetter, in.ProposedRate)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Jobs.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	link := "/jobs/" + posting.ID.String()
	uc.deps.Effects.Notify(ctx, port.Notification{
		UserID:  posting.OrganiserID,
		Type:    "job_application",
		Title:   "New application",
		Message: "Someone applied to your job: " + posting.Title,
		Data:    map[string]any{"job_id": posting.ID.String(), "application_id": app.ID.String()},
		Link:    &link,
	})
	uc.deps.Effects.InvalidateFeed(ctx, applicantID)
	return app, nil
}

type ListUseCase struct {
	deps Deps
}

func NewListUseCase(deps Deps) *ListUseCase {
	return &ListUseCase{deps: deps}
}

// Mine работы, опубликованные организатором, от новых к старым.
func (uc *ListUseCase) Mine(ctx context.Context, organiserID uuid.UUID) ([]*entity.JobPosting, error) {
	jobs, err := uc.deps.Jobs.ListByOrganiser(ctx, organiserID)
	if err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs, nil
}

// Applied заявки пользователя вместе с работами.
func (uc *ListUseCase) Applied(ctx context.Context, applicantID uuid.UUID) ([]*entity.JobApplication, error) {
	apps, err := uc.deps.Jobs.ListApplicationsByApplicant(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
	return apps, nil
}

type SelectApplicantUseCase struct {
	deps Deps
}

func NewSelectApplicantUseCase(deps Deps) *SelectApplicantUseCase {
	return &SelectApplicantUseCase{deps: deps}
}

// Execute выбирает исполнителя и в той же транзакции создаёт подтверждённое
// бронирование на даты работы вместе с блоком календаря.
func (uc *SelectApplicantUseCase) Execute(ctx context.Context, applicationID, organiserID uuid.UUID) (*entity.Booking, error) {
	var (
		app *entity.JobApplication
		b   *entity.Booking
	)
	err := uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		app, err = uc.deps.Jobs.FindApplicationByID(ctx, applicationID)
		if err != nil {
			return err
		}
		posting := app.Job
		if posting == nil {
			if posting, err = uc.deps.Jobs.FindPostingByID(ctx, app.JobID); err != nil {
				return err
			}
		}
		if !posting.IsOwnedBy(organiserID) {
			return apperror.New(apperror.ErrCodeForbidden, "only the job organiser can select an applicant")
		}
		if posting.Status != valueobject.JobPostingStatusOpen && posting.Status != valueobject.JobPostingStatusInProgress {
			return apperror.New(apperror.ErrCodeBadRequest, "job is no longer accepting selections")
		}
		r, ok := posting.EventRange()
		if !ok {
			return apperror.New(apperror.ErrCodeValidation, "job has no dates to book")
		}

		amount := 0.0
		switch {
		case app.ProposedRate != nil:
			amount = *app.ProposedRate
		case posting.Budget != nil:
			amount = *posting.Budget
		}
		sourceID := app.ID
		b, err = entity.NewBooking(entity.NewBookingParams{
			ClientID:           posting.OrganiserID,
			TalentID:           app.ApplicantID,
			Range:              r,
			TotalAmount:        amount,
			Currency:           uc.deps.Currency,
			ServiceDescription: posting.Title,
			Source:             valueobject.BookingSourceJobSelection,
			SourceID:           &sourceID,
		})
		if err != nil {
			return err
		}
		if err := booking.CreateConfirmed(ctx, uc.deps.Bookings, uc.deps.Blocks, b, uc.deps.clock(), uc.deps.Timezone); err != nil {
			return err
		}

		now := uc.deps.clock().Now()
		if err := app.Select(b.ID, now); err != nil {
			return err
		}
		if err := uc.deps.Jobs.UpdateApplication(ctx, app); err != nil {
			return err
		}
		posting.Status = valueobject.JobPostingStatusFilled
		posting.UpdatedAt = now
		app.Job = posting
		return uc.deps.Jobs.UpdatePosting(ctx, posting)
	})
	if err != nil {
		return nil, err
	}

	link := "/bookings/" + b.ID.String()
	uc.deps.Effects.Notify(ctx, port.Notification{
		UserID:  app.ApplicantID,
		Type:    "job_application_selected",
		Title:   "You were selected",
		Message: "You were selected for: " + app.Job.Title,
		Data:    map[string]any{"job_id": app.JobID.String(), "booking_id": b.ID.String()},
		Link:    &link,
	})
	uc.deps.Effects.InvalidateFeed(ctx, b.ClientID, b.TalentID)
	return b, nil
}
