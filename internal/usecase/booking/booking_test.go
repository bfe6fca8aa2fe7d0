package booking_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/testutil/memrepo"
	"github.com/ties-together/marketplace-backend/internal/usecase/booking"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []port.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, msg port.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) has(userID uuid.UUID, kind string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.sent {
		if s.UserID == userID && s.Type == kind {
			return true
		}
	}
	return false
}

type fakeIssuer struct {
	mu     sync.Mutex
	issued []uuid.UUID
}

func (f *fakeIssuer) GenerateForBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, bookingID)
	return &entity.Invoice{BookingID: bookingID}, nil
}

func (f *fakeIssuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.issued)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req port.CheckoutRequest) (*port.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if s := args.Get(0); s != nil {
		return s.(*port.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixture struct {
	store    *memrepo.Store
	clock    *clock.Fixed
	notifier *recordingNotifier
	issuer   *fakeIssuer
	deps     booking.Deps
	client   uuid.UUID
	talent   uuid.UUID
}

func newFixture() *fixture {
	store := memrepo.New()
	f := &fixture{
		store:    store,
		clock:    &clock.Fixed{T: time.Date(2030, time.July, 1, 8, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
		issuer:   &fakeIssuer{},
		client:   uuid.New(),
		talent:   uuid.New(),
	}
	f.deps = booking.Deps{
		Bookings: store.Bookings(),
		Blocks:   store.Blocks(),
		Tx:       store,
		Clock:    f.clock,
		Effects:  &effects.Effects{Notifier: f.notifier},
		Invoices: f.issuer,
		Timezone: "UTC",
	}
	store.AddProfile(entity.Profile{ID: f.client, DisplayName: "Casey Client", Email: "client@example.com"})
	store.AddProfile(entity.Profile{ID: f.talent, DisplayName: "Taylor Talent", Email: "talent@example.com"})
	return f
}

func jul10(hour int) time.Time {
	return time.Date(2030, time.July, 10, hour, 0, 0, 0, time.UTC)
}

func (f *fixture) create(t *testing.T, start, end time.Time) (*entity.Booking, error) {
	t.Helper()
	return booking.NewCreateBookingUseCase(f.deps).Execute(context.Background(), booking.CreateBookingInput{
		ClientID:           f.client,
		TalentID:           f.talent,
		Start:              start,
		End:                end,
		TotalAmount:        800,
		ServiceDescription: "Wedding DJ set",
	})
}

func (f *fixture) accepted(t *testing.T, start, end time.Time) *entity.Booking {
	t.Helper()
	b, err := f.create(t, start, end)
	require.NoError(t, err)
	b, err = booking.NewAcceptBookingUseCase(f.deps).Execute(context.Background(), b.ID, f.talent, nil)
	require.NoError(t, err)
	return b
}

func bookingBlocks(store *memrepo.Store, talent, bookingID uuid.UUID) []entity.CalendarBlock {
	var out []entity.CalendarBlock
	for _, b := range store.AllBlocks(talent) {
		if b.BookingID != nil && *b.BookingID == bookingID {
			out = append(out, b)
		}
	}
	return out
}

func TestScenario_AcceptedBookingBlocksOverlappingRequest(t *testing.T) {
	f := newFixture()

	a := f.accepted(t, jul10(9), jul10(17))
	assert.Equal(t, valueobject.BookingStatusAccepted, a.Status)

	blocks := bookingBlocks(f.store, f.talent, a.ID)
	require.Len(t, blocks, 1)
	assert.Equal(t, valueobject.BlockReasonBooking, blocks[0].Reason)
	assert.True(t, blocks[0].Range.Start.Equal(jul10(9)))
	assert.True(t, blocks[0].Range.End.Equal(jul10(17)))

	_, err := f.create(t, jul10(10), jul10(15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrDatesNotAvailable))
	assert.Contains(t, err.Error(), "not available")
}

func TestScenario_CancelReleasesCalendar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.accepted(t, jul10(9), jul10(17))

	cancelled, err := booking.NewCancelBookingUseCase(f.deps).Execute(ctx, a.ID, f.client, "double booked elsewhere")
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, "double booked elsewhere", *cancelled.CancellationReason)
	assert.Empty(t, bookingBlocks(f.store, f.talent, a.ID))

	b, err := f.create(t, jul10(10), jul10(15))
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusPending, b.Status)
}

func TestAccept_ConflictRollsBackStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Оба запроса созданы, пока календарь свободен.
	first, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)
	second, err := f.create(t, jul10(12), jul10(20))
	require.NoError(t, err)

	accept := booking.NewAcceptBookingUseCase(f.deps)
	_, err = accept.Execute(ctx, first.ID, f.talent, nil)
	require.NoError(t, err)

	_, err = accept.Execute(ctx, second.ID, f.talent, nil)
	assert.True(t, errors.Is(err, apperror.ErrDatesNotAvailable), "got %v", err)

	reloaded, err := f.store.Bookings().FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusPending, reloaded.Status)
	assert.Empty(t, bookingBlocks(f.store, f.talent, second.ID))
}

func TestAccept_StorageExclusionMapsToDatesNotAvailable(t *testing.T) {
	f := newFixture()
	b, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)

	// Конкурентная вставка прошла мимо предварительной проверки.
	f.store.FailOn["blocks.Create"] = apperror.ErrBlockOverlap

	_, err = booking.NewAcceptBookingUseCase(f.deps).Execute(context.Background(), b.ID, f.talent, nil)
	assert.True(t, errors.Is(err, apperror.ErrDatesNotAvailable), "got %v", err)
}

func TestAccept_OnlyTalent(t *testing.T) {
	f := newFixture()
	b, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)

	_, err = booking.NewAcceptBookingUseCase(f.deps).Execute(context.Background(), b.ID, f.client, nil)
	assert.True(t, apperror.IsForbidden(err))

	_, err = booking.NewAcceptBookingUseCase(f.deps).Execute(context.Background(), b.ID, uuid.New(), nil)
	assert.True(t, errors.Is(err, apperror.ErrNotParty))
}

func TestAccept_NotifiesClient(t *testing.T) {
	f := newFixture()
	f.accepted(t, jul10(9), jul10(17))

	assert.Eventually(t, func() bool { return f.notifier.has(f.talent, "booking_request") }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return f.notifier.has(f.client, "booking_accepted") }, time.Second, 10*time.Millisecond)
}

func TestDecline_DefaultResponseAndNoBlock(t *testing.T) {
	f := newFixture()
	b, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)

	declined, err := booking.NewDeclineBookingUseCase(f.deps).Execute(context.Background(), b.ID, f.talent, nil)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusDeclined, declined.Status)
	assert.Equal(t, "Declined by freelancer", *declined.TalentResponse)
	assert.Empty(t, f.store.AllBlocks(f.talent))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	uc := booking.NewCreateBookingUseCase(f.deps)

	tests := []struct {
		name  string
		input booking.CreateBookingInput
	}{
		{"self booking", booking.CreateBookingInput{ClientID: f.client, TalentID: f.client, Start: jul10(9), End: jul10(10), ServiceDescription: "x"}},
		{"end before start", booking.CreateBookingInput{ClientID: f.client, TalentID: f.talent, Start: jul10(10), End: jul10(9), ServiceDescription: "x"}},
		{"negative amount", booking.CreateBookingInput{ClientID: f.client, TalentID: f.talent, Start: jul10(9), End: jul10(10), TotalAmount: -1, ServiceDescription: "x"}},
		{"in the past", booking.CreateBookingInput{ClientID: f.client, TalentID: f.talent, Start: f.clock.T.Add(-time.Hour), End: f.clock.T.Add(time.Hour), ServiceDescription: "x"}},
		{"missing description", booking.CreateBookingInput{ClientID: f.client, TalentID: f.talent, Start: jul10(9), End: jul10(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.input)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.store.BookingCount())
}

func TestCreate_AvailabilityWindowDoesNotBlock(t *testing.T) {
	f := newFixture()
	window := &entity.CalendarBlock{
		ID:      uuid.New(),
		OwnerID: f.talent,
		Range:   valueobject.TimeRange{Start: jul10(8), End: jul10(22)},
		Reason:  valueobject.BlockReasonAvailability,
	}
	require.NoError(t, f.store.Blocks().Create(context.Background(), window))

	_, err := f.create(t, jul10(9), jul10(17))
	assert.NoError(t, err)
}

func TestCancel_PendingOnlyByClient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)

	cancel := booking.NewCancelBookingUseCase(f.deps)
	_, err = cancel.Execute(ctx, b.ID, f.talent, "busy")
	assert.True(t, apperror.IsForbidden(err))

	_, err = cancel.Execute(ctx, b.ID, f.client, "  ")
	assert.True(t, apperror.IsValidation(err))

	cancelled, err := cancel.Execute(ctx, b.ID, f.client, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusCancelled, cancelled.Status)

	_, err = cancel.Execute(ctx, b.ID, f.client, "again")
	assert.Error(t, err)
}

func TestCancel_InProgressByTalentReleasesBlock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.accepted(t, jul10(9), jul10(17))

	f.clock.T = jul10(10)
	_, err := booking.NewStartBookingUseCase(f.deps).Execute(ctx, a.ID, f.talent)
	require.NoError(t, err)

	_, err = booking.NewCancelBookingUseCase(f.deps).Execute(ctx, a.ID, f.talent, "illness")
	require.NoError(t, err)
	assert.Empty(t, bookingBlocks(f.store, f.talent, a.ID))
}

func TestStart_NotBeforeStartTime(t *testing.T) {
	f := newFixture()
	a := f.accepted(t, jul10(9), jul10(17))

	_, err := booking.NewStartBookingUseCase(f.deps).Execute(context.Background(), a.ID, f.client)
	assert.Error(t, err)

	f.clock.T = jul10(9)
	started, err := booking.NewStartBookingUseCase(f.deps).Execute(context.Background(), a.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusInProgress, started.Status)
}

func TestComplete_RequiresEndAndConfirmedStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	complete := booking.NewCompleteBookingUseCase(f.deps)

	pending, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)
	f.clock.T = jul10(18)
	_, err = complete.Execute(ctx, pending.ID, f.client)
	assert.Error(t, err, "pending bookings cannot be completed")

	f.clock.T = time.Date(2030, time.July, 1, 8, 0, 0, 0, time.UTC)
	a := f.accepted(t, time.Date(2030, time.July, 11, 9, 0, 0, 0, time.UTC), time.Date(2030, time.July, 11, 17, 0, 0, 0, time.UTC))

	f.clock.T = time.Date(2030, time.July, 11, 16, 59, 0, 0, time.UTC)
	_, err = complete.Execute(ctx, a.ID, f.client)
	assert.Error(t, err, "cannot complete before the end")

	f.clock.T = time.Date(2030, time.July, 11, 17, 0, 0, 0, time.UTC)
	done, err := complete.Execute(ctx, a.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusCompleted, done.Status)

	// Блок остаётся как история.
	assert.Len(t, bookingBlocks(f.store, f.talent, a.ID), 1)
	assert.Eventually(t, func() bool { return f.issuer.count() == 1 }, time.Second, 10*time.Millisecond)

	_, err = booking.NewCancelBookingUseCase(f.deps).Execute(ctx, a.ID, f.client, "too late")
	assert.Error(t, err, "completed bookings are immutable")
}

func TestGet_OnlyParties(t *testing.T) {
	f := newFixture()
	b, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)

	got, err := booking.NewGetBookingUseCase(f.deps).Execute(context.Background(), b.ID, f.talent)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = booking.NewGetBookingUseCase(f.deps).Execute(context.Background(), b.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	assert.Contains(t, err.Error(), "You are not part of this booking")
}

func TestListAndStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.accepted(t, jul10(9), jul10(12))
	_, err := f.create(t, jul10(13), jul10(15))
	require.NoError(t, err)

	f.clock.T = jul10(12)
	_, err = booking.NewCompleteBookingUseCase(f.deps).Execute(ctx, a.ID, f.talent)
	require.NoError(t, err)

	list := booking.NewListBookingsUseCase(f.deps)
	all, err := list.Execute(ctx, booking.ListBookingsInput{UserID: f.client})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := list.Execute(ctx, booking.ListBookingsInput{UserID: f.talent, Role: "talent", Statuses: []string{"requested"}})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = list.Execute(ctx, booking.ListBookingsInput{UserID: f.talent, Role: "admin"})
	assert.True(t, apperror.IsValidation(err))

	stats, err := booking.NewBookingStatsUseCase(f.deps).Execute(ctx, f.client)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ClientTotal)
	assert.Equal(t, 1, stats.AsClient[valueobject.BookingStatusCompleted])
	assert.Equal(t, 1, stats.AsClient[valueobject.BookingStatusPending])
	assert.InDelta(t, 800.0, stats.TotalSpent, 0.001)
	assert.Zero(t, stats.TotalEarned)

	talentStats, err := booking.NewBookingStatsUseCase(f.deps).Execute(ctx, f.talent)
	require.NoError(t, err)
	assert.InDelta(t, 800.0, talentStats.TotalEarned, 0.001)
}

func TestUpcoming(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.accepted(t, jul10(9), jul10(12))
	f.accepted(t, time.Date(2030, time.August, 20, 9, 0, 0, 0, time.UTC), time.Date(2030, time.August, 20, 12, 0, 0, 0, time.UTC))
	_, err := f.create(t, jul10(13), jul10(15))
	require.NoError(t, err)

	got, err := booking.NewUpcomingBookingsUseCase(f.deps).Execute(ctx, f.talent, 14)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Range.Start.Equal(jul10(9)))
}

func TestCheckoutAndWebhook(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.accepted(t, jul10(9), jul10(17))

	gw := new(mockGateway)
	gw.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req port.CheckoutRequest) bool {
		return req.BookingID == a.ID && req.AmountCents == 80000 && req.PayerEmail == "client@example.com" && req.PayeeName == "Taylor Talent"
	})).Return(&port.CheckoutSession{ID: "cs_123", URL: "https://pay.example.com/cs_123"}, nil).Once()

	checkout := booking.NewCreateCheckoutUseCase(f.deps, f.store.Profiles(), gw, "https://app.example.com/")

	_, err := checkout.Execute(ctx, a.ID, f.talent)
	assert.True(t, apperror.IsForbidden(err))

	res, err := checkout.Execute(ctx, a.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_123", res.URL)
	assert.Equal(t, valueobject.PaymentStatusPending, res.Booking.PaymentStatus)

	_, err = checkout.Execute(ctx, a.ID, f.client)
	assert.True(t, apperror.IsConflict(err))
	gw.AssertExpectations(t)

	inv := entity.NewInvoice(a, "INV-203007-0001", 10, 30, f.clock.Now())
	require.NoError(t, f.store.Invoices().Create(ctx, inv))

	webhook := booking.NewApplyPaymentUpdateUseCase(f.deps, f.store.Invoices())
	paid, err := webhook.Execute(ctx, booking.PaymentUpdate{SessionID: "cs_123", Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, valueobject.BookingStatusAccepted, paid.Status, "payment never changes the lifecycle status")

	stored, err := f.store.Invoices().FindByBookingID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.InvoiceStatusPaid, stored.Status)

	_, err = webhook.Execute(ctx, booking.PaymentUpdate{SessionID: "unknown", Status: "paid"})
	assert.True(t, apperror.IsNotFound(err))

	_, err = webhook.Execute(ctx, booking.PaymentUpdate{SessionID: "cs_123", Status: "bogus"})
	assert.True(t, apperror.IsValidation(err))
}

func TestCheckout_PendingBookingRejected(t *testing.T) {
	f := newFixture()
	b, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)

	gw := new(mockGateway)
	_, err = booking.NewCreateCheckoutUseCase(f.deps, f.store.Profiles(), gw, "").Execute(context.Background(), b.ID, f.client)
	assert.Error(t, err)
	gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

// Свойство: принятые бронирования одного таланта никогда не пересекаются.
func TestProperty_AcceptedBookingBlocksNeverIntersect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	accept := booking.NewAcceptBookingUseCase(f.deps)

	var pending []*entity.Booking
	for h := 8; h < 20; h += 2 {
		b, err := f.create(t, jul10(h), jul10(h+3))
		require.NoError(t, err)
		pending = append(pending, b)
	}
	for _, b := range pending {
		_, _ = accept.Execute(ctx, b.ID, f.talent, nil)
	}

	blocks := f.store.AllBlocks(f.talent)
	require.NotEmpty(t, blocks)
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			assert.False(t, blocks[i].Range.Overlaps(blocks[j].Range), "blocks %d and %d intersect", i, j)
		}
	}

	for _, p := range pending {
		b, err := f.store.Bookings().FindByID(ctx, p.ID)
		require.NoError(t, err)
		hasBlock := len(bookingBlocks(f.store, f.talent, b.ID)) == 1
		assert.Equal(t, b.Status == valueobject.BookingStatusAccepted, hasBlock)
	}
}

// encodingNotifier сериализует данные уведомления, как это делает сохранение в базу.
type encodingNotifier struct {
	mu   sync.Mutex
	data []map[string]any
}

func (n *encodingNotifier) Notify(ctx context.Context, msg port.Notification) error {
	if _, err := json.Marshal(msg.Data); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = append(n.data, msg.Data)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []port.EmailMessage
}

func (m *recordingMailer) Send(ctx context.Context, msg port.EmailMessage) error {
	if _, err := json.Marshal(msg.Data); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestDeclineAndCancel_EmailDoesNotShareNotificationData(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	notifier := &encodingNotifier{}
	mailer := &recordingMailer{}
	f.deps.Effects = &effects.Effects{Notifier: notifier, Mailer: mailer, Profiles: f.store.Profiles()}

	decline := booking.NewDeclineBookingUseCase(f.deps)
	cancel := booking.NewCancelBookingUseCase(f.deps)
	for i := 0; i < 10; i++ {
		b, err := f.create(t, jul10(9), jul10(10))
		require.NoError(t, err)
		_, err = decline.Execute(ctx, b.ID, f.talent, nil)
		require.NoError(t, err)

		b, err = f.create(t, jul10(11), jul10(12))
		require.NoError(t, err)
		_, err = cancel.Execute(ctx, b.ID, f.client, "plans changed")
		require.NoError(t, err)
	}

	// Создание тоже пишет таланту: 20 писем о запросах и 20 об ответах.
	require.Eventually(t, func() bool { return mailer.count() == 40 }, 2*time.Second, 10*time.Millisecond)

	mailer.mu.Lock()
	for _, msg := range mailer.sent {
		assert.NotEmpty(t, msg.Data["name"])
	}
	mailer.mu.Unlock()

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.data) == 40
	}, 2*time.Second, 10*time.Millisecond)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	for _, data := range notifier.data {
		assert.NotContains(t, data, "name")
	}
}

// pausingBookings останавливает первый захват строки, пока тест не разрешит продолжить.
type pausingBookings struct {
	repository.BookingRepository
	once   sync.Once
	locked chan struct{}
	resume chan struct{}
}

func newPausingBookings(inner repository.BookingRepository) *pausingBookings {
	return &pausingBookings{BookingRepository: inner, locked: make(chan struct{}), resume: make(chan struct{})}
}

func (r *pausingBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, err := r.BookingRepository.FindByIDForUpdate(ctx, id)
	r.once.Do(func() {
		close(r.locked)
		<-r.resume
	})
	return b, err
}

// waitsForLock запускает cancel и проверяет, что он не завершается, пока строка занята.
func waitsForLock(t *testing.T, paused *pausingBookings, cancel func() error) <-chan error {
	t.Helper()
	<-paused.locked

	done := make(chan error, 1)
	go func() { done <- cancel() }()

	select {
	case err := <-done:
		t.Errorf("cancel finished while the booking row was locked: %v", err)
		close(paused.resume)
		ch := make(chan error, 1)
		ch <- err
		return ch
	case <-time.After(50 * time.Millisecond):
	}
	close(paused.resume)
	return done
}

func TestWebhook_DoesNotResurrectCancelledBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.accepted(t, jul10(9), jul10(17))

	paused := newPausingBookings(f.store.Bookings())
	webhookDeps := f.deps
	webhookDeps.Bookings = paused
	webhook := booking.NewApplyPaymentUpdateUseCase(webhookDeps, f.store.Invoices())

	webhookDone := make(chan error, 1)
	go func() {
		_, err := webhook.Execute(ctx, booking.PaymentUpdate{BookingID: &a.ID, Status: "paid"})
		webhookDone <- err
	}()

	cancelDone := waitsForLock(t, paused, func() error {
		_, err := booking.NewCancelBookingUseCase(f.deps).Execute(ctx, a.ID, f.client, "venue closed")
		return err
	})
	require.NoError(t, <-webhookDone)
	require.NoError(t, <-cancelDone)

	stored, err := f.store.Bookings().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusCancelled, stored.Status)
	assert.Equal(t, valueobject.PaymentStatusPaid, stored.PaymentStatus)
	assert.Empty(t, bookingBlocks(f.store, f.talent, a.ID))
}

func TestAcceptAndCancel_CancelledBookingKeepsNoBlock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b, err := f.create(t, jul10(9), jul10(17))
	require.NoError(t, err)

	paused := newPausingBookings(f.store.Bookings())
	acceptDeps := f.deps
	acceptDeps.Bookings = paused

	acceptDone := make(chan error, 1)
	go func() {
		_, err := booking.NewAcceptBookingUseCase(acceptDeps).Execute(ctx, b.ID, f.talent, nil)
		acceptDone <- err
	}()

	cancelDone := waitsForLock(t, paused, func() error {
		_, err := booking.NewCancelBookingUseCase(f.deps).Execute(ctx, b.ID, f.client, "found someone else")
		return err
	})
	require.NoError(t, <-acceptDone)
	require.NoError(t, <-cancelDone)

	stored, err := f.store.Bookings().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusCancelled, stored.Status)
	assert.Empty(t, bookingBlocks(f.store, f.talent, b.ID))
}

func TestCheckout_KeepsStatusChangedDuringGatewayCall(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.accepted(t, jul10(9), jul10(17))

	gw := new(mockGateway)
	gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			_, err := booking.NewCancelBookingUseCase(f.deps).Execute(ctx, a.ID, f.talent, "illness")
			require.NoError(t, err)
		}).
		Return(&port.CheckoutSession{ID: "cs_late", URL: "https://pay.example.com/cs_late"}, nil).Once()

	_, err := booking.NewCreateCheckoutUseCase(f.deps, f.store.Profiles(), gw, "").Execute(ctx, a.ID, f.client)
	assert.Error(t, err)

	stored, err := f.store.Bookings().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusCancelled, stored.Status)
	assert.Equal(t, valueobject.PaymentStatusUnpaid, stored.PaymentStatus)
}
