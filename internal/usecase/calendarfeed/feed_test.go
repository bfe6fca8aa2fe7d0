package calendarfeed_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/testutil/memrepo"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendarfeed"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func aug(day, hour int) time.Time {
	return time.Date(2030, time.August, day, hour, 0, 0, 0, time.UTC)
}

func span(from, to time.Time) valueobject.TimeRange {
	return valueobject.TimeRange{Start: from, End: to}
}

type world struct {
	store  *memrepo.Store
	user   uuid.UUID
	client uuid.UUID
	feed   *calendarfeed.FeedUseCase
	cache  *mapCache
}

// newWorld наполняет хранилище событиями всех четырёх видов для одного пользователя.
func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	store := memrepo.New()
	w := &world{store: store, user: uuid.New(), client: uuid.New(), cache: newMapCache()}

	paid := &entity.Booking{
		ID: uuid.New(), ClientID: w.client, TalentID: w.user,
		Range:              span(aug(5, 10), aug(5, 14)),
		Status:             valueobject.BookingStatusCompleted,
		PaymentStatus:      valueobject.PaymentStatusPaid,
		TotalAmount:        valueobject.Money{Amount: 400, Currency: "AUD"},
		ServiceDescription: "Jazz trio for a garden party",
		Client:             &entity.ProfileSummary{ID: w.client, DisplayName: "Harbour Events"},
	}
	pending := &entity.Booking{
		ID: uuid.New(), ClientID: w.user, TalentID: uuid.New(),
		Range:         span(aug(12, 18), aug(12, 22)),
		Status:        valueobject.BookingStatusPending,
		PaymentStatus: valueobject.PaymentStatusUnpaid,
	}
	for _, b := range []*entity.Booking{paid, pending} {
		require.NoError(t, store.Bookings().Create(ctx, b))
	}

	notes := "Family trip"
	trip, err := entity.NewCalendarBlock(w.user, span(aug(8, 0), aug(10, 0)), valueobject.BlockReasonManual, entity.BlockDetails{Notes: &notes})
	require.NoError(t, err)
	require.NoError(t, store.Blocks().Create(ctx, trip))

	bookingID := paid.ID
	require.NoError(t, store.Blocks().Create(ctx, &entity.CalendarBlock{
		ID: uuid.New(), OwnerID: w.user, Range: paid.Range, Reason: valueobject.BlockReasonBooking, BookingID: &bookingID,
	}))

	location := "Carriageworks"
	start, end := aug(20, 9), aug(20, 17)
	mine, err := entity.NewJobPosting(w.user, "Stage crew", "Load in", &location, nil, &start, &end, nil)
	require.NoError(t, err)
	require.NoError(t, store.Jobs().CreatePosting(ctx, mine))

	otherStart := aug(3, 19)
	theirs, err := entity.NewJobPosting(uuid.New(), "Wedding DJ", "Reception set", nil, nil, &otherStart, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Jobs().CreatePosting(ctx, theirs))
	app, err := entity.NewJobApplication(theirs, w.user, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Jobs().CreateApplication(ctx, app))

	w.feed = calendarfeed.NewFeedUseCase(store.Bookings(), store.Blocks(), store.Jobs(), w.cache, time.Minute)
	return w
}

func (w *world) query() calendarfeed.Query {
	return calendarfeed.Query{UserID: w.user, From: aug(1, 0), To: time.Date(2030, time.September, 1, 0, 0, 0, 0, time.UTC)}
}

func TestFeed_MergesSourcesInOrder(t *testing.T) {
	w := newWorld(t)
	feed, err := w.feed.Execute(context.Background(), w.query())
	require.NoError(t, err)
	assert.Empty(t, feed.Degraded)

	var kinds []calendarfeed.Kind
	for _, e := range feed.Events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []calendarfeed.Kind{
		calendarfeed.KindAppliedJob,
		calendarfeed.KindBooking,
		calendarfeed.KindBlock,
		calendarfeed.KindBooking,
		calendarfeed.KindJob,
	}, kinds, "booking blocks are represented by their booking")

	for i := 1; i < len(feed.Events); i++ {
		assert.False(t, feed.Events[i].Start.Before(feed.Events[i-1].Start))
	}
}

func TestFeed_StylesAndPayloads(t *testing.T) {
	w := newWorld(t)
	feed, err := w.feed.Execute(context.Background(), w.query())
	require.NoError(t, err)
	require.Len(t, feed.Events, 5)

	applied, paid, block, pending, job := feed.Events[0], feed.Events[1], feed.Events[2], feed.Events[3], feed.Events[4]

	assert.Equal(t, "applied", applied.Status)
	assert.Equal(t, "#06b6d4", applied.Color)
	require.NotNil(t, applied.Applied)
	assert.Equal(t, 24*time.Hour, applied.End.Sub(applied.Start))

	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, "Paid", paid.Label)
	require.NotNil(t, paid.Booking)
	assert.Equal(t, "talent", paid.Booking.Role)
	require.NotNil(t, paid.Booking.OtherPartyName)
	assert.Equal(t, "Harbour Events", *paid.Booking.OtherPartyName)

	assert.Equal(t, "Family trip", block.Title)
	assert.Equal(t, "Blocked", block.Label)
	assert.Equal(t, "#475569", block.Color)

	assert.Equal(t, "Booking", pending.Title)
	assert.Equal(t, "Pending", pending.Label)
	assert.Equal(t, "client", pending.Booking.Role)

	assert.Equal(t, "Open Job", job.Label)
	assert.Equal(t, "#a855f7", job.Color)
	assert.Nil(t, job.Booking)
}

func TestFeed_FilterAndSearch(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	q := w.query()
	q.Filter = calendarfeed.FilterJobs
	feed, err := w.feed.Execute(ctx, q)
	require.NoError(t, err)
	assert.Len(t, feed.Events, 2)

	q = w.query()
	q.Search = "harbour"
	feed, err = w.feed.Execute(ctx, q)
	require.NoError(t, err)
	require.Len(t, feed.Events, 1, "search covers the other party name")
	assert.Equal(t, calendarfeed.KindBooking, feed.Events[0].Kind)

	q.Search = "CARRIAGE"
	feed, err = w.feed.Execute(ctx, q)
	require.NoError(t, err)
	require.Len(t, feed.Events, 1, "search covers the location")
	assert.Equal(t, calendarfeed.KindJob, feed.Events[0].Kind)
}

func TestFeed_RangeIsHalfOpen(t *testing.T) {
	w := newWorld(t)
	q := w.query()
	q.From, q.To = aug(5, 14), aug(8, 0)
	feed, err := w.feed.Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, feed.Events)

	_, err = w.feed.Execute(context.Background(), calendarfeed.Query{UserID: w.user, From: aug(5, 0), To: aug(5, 0)})
	assert.True(t, apperror.IsValidation(err))
}

func TestFeed_SourceFailureDegrades(t *testing.T) {
	w := newWorld(t)
	w.store.FailOn["bookings.List"] = errors.New("connection reset")
	w.store.FailOn["jobs.ListApplicationsByApplicant"] = errors.New("timeout")

	feed, err := w.feed.Execute(context.Background(), w.query())
	require.NoError(t, err)
	assert.Equal(t, []string{calendarfeed.SourceAppliedJobs, calendarfeed.SourceBookings}, feed.Degraded)
	assert.Len(t, feed.Events, 2)
	assert.Empty(t, w.cache.data, "degraded feeds are not cached")
}

func TestFeed_CacheAndInvalidation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	first, err := w.feed.Execute(ctx, w.query())
	require.NoError(t, err)
	second, err := w.feed.Execute(ctx, w.query())
	require.NoError(t, err)
	assert.Equal(t, 1, w.cache.hits)
	assert.Equal(t, len(first.Events), len(second.Events))

	other := uuid.New()
	require.NoError(t, w.cache.Set(ctx, "feed:"+other.String()+":x", []byte("{}"), time.Minute))

	inv := calendarfeed.NewInvalidator(w.cache)
	require.NoError(t, inv.InvalidateUsers(ctx, w.user))
	assert.Len(t, w.cache.data, 1, "only the invalidated user's entries are dropped")

	_, err = w.feed.Execute(ctx, w.query())
	require.NoError(t, err)
	assert.Equal(t, 1, w.cache.hits)
}

func TestParseFilter(t *testing.T) {
	f, ok := calendarfeed.ParseFilter("")
	assert.True(t, ok)
	assert.Equal(t, calendarfeed.FilterAll, f)

	_, ok = calendarfeed.ParseFilter("offers")
	assert.False(t, ok)

	assert.Equal(t, "Open Job", calendarfeed.StyleFor("open").Label)
	assert.Equal(t, "Pending", calendarfeed.StyleFor("mystery").Label)
}
