package job_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/testutil/memrepo"
	"github.com/ties-together/marketplace-backend/internal/usecase/job"
)

type fixture struct {
	store     *memrepo.Store
	deps      job.Deps
	organiser uuid.UUID
	talent    uuid.UUID
}

func newFixture() *fixture {
	store := memrepo.New()
	return &fixture{
		store: store,
		deps: job.Deps{
			Jobs:     store.Jobs(),
			Bookings: store.Bookings(),
			Blocks:   store.Blocks(),
			Tx:       store,
			Clock:    &clock.Fixed{T: time.Date(2030, time.July, 1, 9, 0, 0, 0, time.UTC)},
			Currency: "AUD",
			Timezone: "UTC",
		},
		organiser: uuid.New(),
		talent:    uuid.New(),
	}
}

func at(day, hour int) *time.Time {
	t := time.Date(2030, time.August, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func floatPtr(f float64) *float64 { return &f }

func (f *fixture) posting(t *testing.T) *entity.JobPosting {
	t.Helper()
	p, err := job.NewCreatePostingUseCase(f.deps).Execute(context.Background(), f.organiser, job.CreatePostingInput{
		Title:       "Festival MC",
		Description: "Host the main stage",
		StartAt:     at(10, 12),
		EndAt:       at(10, 20),
		Budget:      floatPtr(900),
	})
	require.NoError(t, err)
	return p
}

func TestCreatePosting(t *testing.T) {
	f := newFixture()
	p := f.posting(t)
	assert.Equal(t, valueobject.JobPostingStatusOpen, p.Status)

	_, err := job.NewCreatePostingUseCase(f.deps).Execute(context.Background(), f.organiser, job.CreatePostingInput{
		Title:       "Late",
		Description: "In the past",
		StartAt:     &time.Time{},
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = job.NewCreatePostingUseCase(f.deps).Execute(context.Background(), f.organiser, job.CreatePostingInput{
		Title:       "Backwards",
		Description: "End before start",
		StartAt:     at(10, 20),
		EndAt:       at(10, 12),
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestApply_OncePerApplicant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.posting(t)
	apply := job.NewApplyUseCase(f.deps)

	app, err := apply.Execute(ctx, p.ID, f.talent, job.ApplyInput{ProposedRate: floatPtr(750)})
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobApplicationPending, app.Status)

	_, err = apply.Execute(ctx, p.ID, f.talent, job.ApplyInput{})
	assert.True(t, errors.Is(err, apperror.ErrAlreadyApplied))

	_, err = apply.Execute(ctx, p.ID, f.organiser, job.ApplyInput{})
	assert.True(t, apperror.IsValidation(err))

	_, err = apply.Execute(ctx, uuid.New(), f.talent, job.ApplyInput{})
	assert.True(t, apperror.IsNotFound(err))
}

func TestSelectApplicant_CreatesConfirmedBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.posting(t)
	app, err := job.NewApplyUseCase(f.deps).Execute(ctx, p.ID, f.talent, job.ApplyInput{ProposedRate: floatPtr(750)})
	require.NoError(t, err)

	sel := job.NewSelectApplicantUseCase(f.deps)
	_, err = sel.Execute(ctx, app.ID, f.talent)
	assert.True(t, apperror.IsForbidden(err))

	b, err := sel.Execute(ctx, app.ID, f.organiser)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusAccepted, b.Status)
	assert.Equal(t, valueobject.BookingSourceJobSelection, b.Source)
	assert.Equal(t, f.organiser, b.ClientID)
	assert.Equal(t, f.talent, b.TalentID)
	assert.InDelta(t, 750.0, b.TotalAmount.Amount, 0.001)
	assert.Len(t, f.store.AllBlocks(f.talent), 1)

	stored, err := f.store.Jobs().FindApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobApplicationSelected, stored.Status)
	require.NotNil(t, stored.BookingID)
	assert.Equal(t, b.ID, *stored.BookingID)
	assert.Equal(t, valueobject.JobPostingStatusFilled, stored.Job.Status)

	_, err = sel.Execute(ctx, app.ID, f.organiser)
	assert.Error(t, err)
	assert.Equal(t, 1, f.store.BookingCount())
}

func TestSelectApplicant_ConflictRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.posting(t)
	app, err := job.NewApplyUseCase(f.deps).Execute(ctx, p.ID, f.talent, job.ApplyInput{})
	require.NoError(t, err)

	busy, err := entity.NewCalendarBlock(f.talent, valueobject.TimeRange{Start: *at(10, 18), End: *at(10, 23)}, valueobject.BlockReasonManual, entity.BlockDetails{})
	require.NoError(t, err)
	require.NoError(t, f.store.Blocks().Create(ctx, busy))

	_, err = job.NewSelectApplicantUseCase(f.deps).Execute(ctx, app.ID, f.organiser)
	assert.True(t, errors.Is(err, apperror.ErrDatesNotAvailable), "got %v", err)
	assert.Equal(t, 0, f.store.BookingCount())

	stored, err := f.store.Jobs().FindApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobApplicationPending, stored.Status)
	assert.Equal(t, valueobject.JobPostingStatusOpen, stored.Job.Status)
}

func TestLists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.posting(t)
	_, err := job.NewApplyUseCase(f.deps).Execute(ctx, p.ID, f.talent, job.ApplyInput{})
	require.NoError(t, err)

	list := job.NewListUseCase(f.deps)
	mine, err := list.Mine(ctx, f.organiser)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)

	applied, err := list.Applied(ctx, f.talent)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.NotNil(t, applied[0].Job)
	assert.Equal(t, "Festival MC", applied[0].Job.Title)
}
