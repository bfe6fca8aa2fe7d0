package joboffer_test

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
	"github.com/ties-together/marketplace-backend/internal/usecase/joboffer"
)

type fixture struct {
	store     *memrepo.Store
	clock     *clock.Fixed
	deps      joboffer.Deps
	sender    uuid.UUID
	recipient uuid.UUID
}

func newFixture() *fixture {
	store := memrepo.New()
	clk := &clock.Fixed{T: time.Date(2030, time.July, 1, 9, 0, 0, 0, time.UTC)}
	return &fixture{
		store: store,
		clock: clk,
		deps: joboffer.Deps{
			Offers:            store.Offers(),
			Bookings:          store.Bookings(),
			Blocks:            store.Blocks(),
			Messages:          store.Messages(),
			Tx:                store,
			Clock:             clk,
			DefaultExpiryDays: 7,
			Location:          time.UTC,
		},
		sender:    uuid.New(),
		recipient: uuid.New(),
	}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func terms() joboffer.TermsInput {
	return joboffer.TermsInput{
		Title:        "Wedding photographer",
		Description:  "Ceremony and reception coverage",
		Location:     strPtr("Bondi Pavilion"),
		EventDate:    strPtr("2030-07-20"),
		StartTime:    strPtr("14:00"),
		EndTime:      strPtr("22:00"),
		Timezone:     "UTC",
		BudgetType:   "fixed",
		BudgetAmount: floatPtr(1500),
	}
}

func (f *fixture) send(t *testing.T, in joboffer.TermsInput) *entity.JobOffer {
	t.Helper()
	o, err := joboffer.NewSendOfferUseCase(f.deps).Execute(context.Background(), f.sender, f.recipient, in)
	require.NoError(t, err)
	return o
}

func (f *fixture) acceptedOffer(t *testing.T, in joboffer.TermsInput) *entity.JobOffer {
	t.Helper()
	o := f.send(t, in)
	o, err := joboffer.NewAcceptOfferUseCase(f.deps).Execute(context.Background(), o.ID, f.recipient, strPtr("happy to"))
	require.NoError(t, err)
	return o
}

func TestScenario_ConvertOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	offer := f.acceptedOffer(t, terms())

	convert := joboffer.NewConvertToBookingUseCase(f.deps)
	b, err := convert.Execute(ctx, offer.ID, f.recipient)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, valueobject.BookingStatusAccepted, b.Status)
	assert.Equal(t, f.sender, b.ClientID)
	assert.Equal(t, f.recipient, b.TalentID)
	assert.Equal(t, valueobject.BookingSourceJobOffer, b.Source)
	assert.InDelta(t, 1500.0, b.TotalAmount.Amount, 0.001)
	assert.True(t, b.Range.Start.Equal(time.Date(2030, time.July, 20, 14, 0, 0, 0, time.UTC)))
	assert.True(t, b.Range.End.Equal(time.Date(2030, time.July, 20, 22, 0, 0, 0, time.UTC)))

	stored, err := f.store.Offers().FindByID(ctx, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ConvertedToBookingID)
	assert.Equal(t, b.ID, *stored.ConvertedToBookingID)

	_, err = convert.Execute(ctx, offer.ID, f.sender)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrAlreadyConverted))
	assert.Contains(t, err.Error(), "already converted")

	assert.Equal(t, 1, f.store.BookingCount())
	assert.Len(t, f.store.AllBlocks(f.recipient), 1)
}

func TestConvert_ConflictRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	offer := f.acceptedOffer(t, terms())

	busy := &entity.CalendarBlock{
		ID:      uuid.New(),
		OwnerID: f.recipient,
		Range:   valueobject.TimeRange{Start: time.Date(2030, time.July, 20, 20, 0, 0, 0, time.UTC), End: time.Date(2030, time.July, 20, 23, 0, 0, 0, time.UTC)},
		Reason:  valueobject.BlockReasonUnavailable,
	}
	require.NoError(t, f.store.Blocks().Create(ctx, busy))

	_, err := joboffer.NewConvertToBookingUseCase(f.deps).Execute(ctx, offer.ID, f.sender)
	assert.True(t, errors.Is(err, apperror.ErrDatesNotAvailable), "got %v", err)

	assert.Equal(t, 0, f.store.BookingCount())
	stored, err := f.store.Offers().FindByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ConvertedToBookingID)
}

func TestConvert_Preconditions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	convert := joboffer.NewConvertToBookingUseCase(f.deps)

	pending := f.send(t, terms())
	_, err := convert.Execute(ctx, pending.ID, f.sender)
	assert.Error(t, err, "pending offers cannot be converted")

	accepted := f.acceptedOffer(t, terms())
	_, err = convert.Execute(ctx, accepted.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	noDate := terms()
	noDate.EventDate, noDate.StartTime, noDate.EndTime = nil, nil, nil
	undated := f.acceptedOffer(t, noDate)
	_, err = convert.Execute(ctx, undated.ID, f.sender)
	assert.True(t, apperror.IsValidation(err))

	_, err = convert.Execute(ctx, uuid.New(), f.sender)
	assert.True(t, apperror.IsNotFound(err))
}

func TestConvert_HourlyAndWholeDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	convert := joboffer.NewConvertToBookingUseCase(f.deps)

	hourly := terms()
	hourly.BudgetType = "hourly"
	hourly.BudgetAmount = floatPtr(120)
	b, err := convert.Execute(ctx, f.acceptedOffer(t, hourly).ID, f.sender)
	require.NoError(t, err)
	assert.InDelta(t, 960.0, b.TotalAmount.Amount, 0.001)

	allDay := terms()
	allDay.EventDate = strPtr("2030-07-25")
	allDay.StartTime, allDay.EndTime = nil, nil
	b, err = convert.Execute(ctx, f.acceptedOffer(t, allDay).ID, f.sender)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, b.Range.Duration())
	assert.True(t, b.Range.Start.Equal(time.Date(2030, time.July, 25, 0, 0, 0, 0, time.UTC)))
}

func TestSend_Validation(t *testing.T) {
	f := newFixture()
	send := joboffer.NewSendOfferUseCase(f.deps)

	_, err := send.Execute(context.Background(), f.sender, f.sender, terms())
	assert.True(t, apperror.IsValidation(err))

	noTitle := terms()
	noTitle.Title = " "
	_, err = send.Execute(context.Background(), f.sender, f.recipient, noTitle)
	assert.True(t, apperror.IsValidation(err))

	noAmount := terms()
	noAmount.BudgetAmount = nil
	_, err = send.Execute(context.Background(), f.sender, f.recipient, noAmount)
	assert.True(t, apperror.IsValidation(err))

	badRole := terms()
	badRole.RoleType = strPtr("caterer")
	_, err = send.Execute(context.Background(), f.sender, f.recipient, badRole)
	assert.True(t, apperror.IsValidation(err))
}

func TestSend_DefaultExpiry(t *testing.T) {
	f := newFixture()
	o := f.send(t, terms())
	require.NotNil(t, o.ExpiresAt)
	assert.True(t, o.ExpiresAt.Equal(f.clock.T.AddDate(0, 0, 7)))
	assert.Equal(t, valueobject.JobOfferStatusPending, o.Status)
}

func TestViewAcceptReject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.send(t, terms())

	viewed, err := joboffer.NewMarkViewedUseCase(f.deps).Execute(ctx, o.ID, f.recipient)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobOfferStatusViewed, viewed.Status)

	// Повторный просмотр ничего не меняет.
	viewed, err = joboffer.NewMarkViewedUseCase(f.deps).Execute(ctx, o.ID, f.recipient)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobOfferStatusViewed, viewed.Status)

	_, err = joboffer.NewAcceptOfferUseCase(f.deps).Execute(ctx, o.ID, f.sender, nil)
	assert.True(t, apperror.IsForbidden(err))

	rejected, err := joboffer.NewRejectOfferUseCase(f.deps).Execute(ctx, o.ID, f.recipient, strPtr("booked"))
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobOfferStatusRejected, rejected.Status)
	assert.NotNil(t, rejected.RespondedAt)

	_, err = joboffer.NewAcceptOfferUseCase(f.deps).Execute(ctx, o.ID, f.recipient, nil)
	assert.Error(t, err, "rejected offers are terminal")
}

func TestWithdraw(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	withdraw := joboffer.NewWithdrawOfferUseCase(f.deps)

	o := f.send(t, terms())
	_, err := withdraw.Execute(ctx, o.ID, f.recipient)
	assert.True(t, apperror.IsForbidden(err))

	w, err := withdraw.Execute(ctx, o.ID, f.sender)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobOfferStatusWithdrawn, w.Status)

	viewed := f.send(t, terms())
	_, err = joboffer.NewMarkViewedUseCase(f.deps).Execute(ctx, viewed.ID, f.recipient)
	require.NoError(t, err)
	_, err = withdraw.Execute(ctx, viewed.ID, f.sender)
	assert.Error(t, err, "only pending offers can be withdrawn")
}

func TestExpiredOfferRejectsTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.send(t, terms())

	f.clock.Advance(8 * 24 * time.Hour)
	_, err := joboffer.NewAcceptOfferUseCase(f.deps).Execute(ctx, o.ID, f.recipient, nil)
	assert.True(t, errors.Is(err, apperror.ErrOfferExpired))

	stored, err := f.store.Offers().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobOfferStatusExpired, stored.Status)

	got, err := joboffer.NewGetOfferUseCase(f.deps).Execute(ctx, o.ID, f.sender)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobOfferStatusExpired, got.Status)
}

func TestCounter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.send(t, terms())

	counterTerms := terms()
	counterTerms.BudgetAmount = floatPtr(1800)
	counter, err := joboffer.NewCounterOfferUseCase(f.deps).Execute(ctx, o.ID, f.recipient, counterTerms, strPtr("a bit more please"))
	require.NoError(t, err)

	assert.Equal(t, f.recipient, counter.SenderID)
	assert.Equal(t, f.sender, counter.RecipientID)
	require.NotNil(t, counter.OriginalOfferID)
	assert.Equal(t, o.ID, *counter.OriginalOfferID)
	assert.Equal(t, valueobject.JobOfferStatusPending, counter.Status)

	original, err := f.store.Offers().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobOfferStatusCountered, original.Status)

	_, err = joboffer.NewCounterOfferUseCase(f.deps).Execute(ctx, o.ID, f.recipient, counterTerms, nil)
	assert.Error(t, err, "countered offers cannot be countered again")
}

func TestListsAndSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.send(t, terms())
	viewed := f.send(t, terms())
	_, err := joboffer.NewMarkViewedUseCase(f.deps).Execute(ctx, viewed.ID, f.recipient)
	require.NoError(t, err)
	f.acceptedOffer(t, terms())
	rejected := f.send(t, terms())
	_, err = joboffer.NewRejectOfferUseCase(f.deps).Execute(ctx, rejected.ID, f.recipient, nil)
	require.NoError(t, err)

	list := joboffer.NewListOffersUseCase(f.deps)
	received, err := list.Received(ctx, f.recipient, "")
	require.NoError(t, err)
	assert.Len(t, received, 4)

	accepted, err := list.Sent(ctx, f.sender, "accepted")
	require.NoError(t, err)
	assert.Len(t, accepted, 1)

	_, err = list.Sent(ctx, f.sender, "archived")
	assert.True(t, apperror.IsValidation(err))

	summary, err := joboffer.NewSummaryUseCase(f.deps).Execute(ctx, f.recipient)
	require.NoError(t, err)
	assert.Equal(t, entity.OfferCounts{Total: 4, Pending: 2, Accepted: 1, Rejected: 1}, summary.Received)
	assert.Equal(t, entity.OfferCounts{}, summary.Sent)

	_, err = joboffer.NewGetOfferUseCase(f.deps).Execute(ctx, viewed.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
}

func (f *fixture) message(t *testing.T, from, to uuid.UUID) *entity.Message {
	t.Helper()
	ctx := context.Background()
	conv, err := entity.NewConversation(from, to, f.clock.T)
	require.NoError(t, err)
	require.NoError(t, f.store.Conversations().Create(ctx, conv))
	msg, err := entity.NewMessage(conv, from, "Are you free on the 20th?", entity.MessageContextNone, nil, f.clock.T)
	require.NoError(t, err)
	require.NoError(t, f.store.Messages().Create(ctx, msg))
	return msg
}

func TestSend_LinksMessageBetweenParties(t *testing.T) {
	f := newFixture()
	msg := f.message(t, f.recipient, f.sender)

	in := terms()
	in.MessageID = &msg.ID
	o := f.send(t, in)
	require.NotNil(t, o.MessageID)
	assert.Equal(t, msg.ID, *o.MessageID)

	stranger := f.message(t, f.sender, uuid.New())
	in.MessageID = &stranger.ID
	_, err := joboffer.NewSendOfferUseCase(f.deps).Execute(context.Background(), f.sender, f.recipient, in)
	assert.True(t, apperror.IsValidation(err))

	missing := uuid.New()
	in.MessageID = &missing
	_, err = joboffer.NewSendOfferUseCase(f.deps).Execute(context.Background(), f.sender, f.recipient, in)
	assert.True(t, apperror.IsValidation(err))
}
