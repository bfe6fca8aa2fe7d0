package calendarfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/goroutine"
	"github.com/ties-together/marketplace-backend/internal/logger"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

const (
	SourceBookings    = "bookings"
	SourceBlocks      = "blocks"
	SourceJobs        = "jobs"
	SourceAppliedJobs = "applied_jobs"

	maxRange       = 400 * 24 * time.Hour
	maxTitleLength = 50
)

type Query struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
	Filter Filter
	Search string
}

type Feed struct {
	Events []Event `json:"events"`
	// Degraded источники, которые не удалось прочитать. Их события в ленте отсутствуют.
	Degraded []string `json:"degraded"`
}

type FeedUseCase struct {
	bookings repository.BookingRepository
	blocks   repository.CalendarBlockRepository
	jobs     repository.JobRepository
	cache    Cache
	ttl      time.Duration
}

func NewFeedUseCase(bookings repository.BookingRepository, blocks repository.CalendarBlockRepository, jobs repository.JobRepository, cache Cache, ttl time.Duration) *FeedUseCase {
	return &FeedUseCase{bookings: bookings, blocks: blocks, jobs: jobs, cache: cache, ttl: ttl}
}

// Execute собирает ленту пользователя из четырёх источников, читая их параллельно.
// Ошибка источника не прерывает сборку, источник попадает в Degraded.
func (uc *FeedUseCase) Execute(ctx context.Context, q Query) (*Feed, error) {
	if !q.From.Before(q.To) {
		return nil, apperror.New(apperror.ErrCodeValidation, "from must be before to")
	}
	if q.To.Sub(q.From) > maxRange {
		return nil, apperror.New(apperror.ErrCodeValidation, "date range is too large")
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	q.Search = strings.TrimSpace(q.Search)

	key := cacheKey(q)
	if cached, ok := uc.fromCache(ctx, key); ok {
		return cached, nil
	}

	type source struct {
		name  string
		kinds []Kind
		fetch func(context.Context, Query) ([]Event, error)
	}
	sources := []source{
		{SourceBookings, []Kind{KindBooking}, uc.bookingEvents},
		{SourceBlocks, []Kind{KindBlock}, uc.blockEvents},
		{SourceJobs, []Kind{KindJob}, uc.jobEvents},
		{SourceAppliedJobs, []Kind{KindAppliedJob}, uc.appliedEvents},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		events   []Event
		degraded = []string{}
	)
	for _, s := range sources {
		if !q.Filter.includes(s.kinds[0]) {
			continue
		}
		s := s
		wg.Add(1)
		goroutine.SafeGo(func() {
			defer wg.Done()
			out, err := s.fetch(ctx, q)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.L().WithFields(logrus.Fields{
					"source":  s.name,
					"user_id": q.UserID.String(),
					"error":   err.Error(),
				}).Warn("calendar feed source failed")
				degraded = append(degraded, s.name)
				return
			}
			events = append(events, out...)
		})
	}
	wg.Wait()

	feed := &Feed{Events: assemble(events, q), Degraded: degraded}
	sort.Strings(feed.Degraded)
	if len(feed.Degraded) == 0 {
		uc.toCache(ctx, key, feed)
	}
	return feed, nil
}

// assemble оставляет события, пересекающие [From, To) и подходящие под поиск, и сортирует их.
func assemble(events []Event, q Query) []Event {
	needle := strings.ToLower(q.Search)
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !(e.Start.Before(q.To) && q.From.Before(e.End)) {
			continue
		}
		if needle != "" && !matches(e, needle) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func matches(e Event, needle string) bool {
	for _, f := range e.searchable() {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func (uc *FeedUseCase) bookingEvents(ctx context.Context, q Query) ([]Event, error) {
	from, to := q.From, q.To
	bookings, err := uc.bookings.List(ctx, repository.BookingFilter{
		UserID: q.UserID,
		Role:   repository.BookingRoleBoth,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(bookings))
	for _, b := range bookings {
		events = append(events, bookingEvent(b, q.UserID))
	}
	return events, nil
}

func bookingEvent(b *entity.Booking, viewer uuid.UUID) Event {
	status := string(b.Status)
	if b.Status == valueobject.BookingStatusCompleted && b.IsPaid() {
		status = "paid"
	}

	role, other, otherProfile := "client", b.TalentID, b.Talent
	if b.TalentID == viewer {
		role, other, otherProfile = "talent", b.ClientID, b.Client
	}
	var otherName *string
	if otherProfile != nil {
		name := otherProfile.DisplayName
		otherName = &name
	}

	title := strings.TrimSpace(b.ServiceDescription)
	if title == "" {
		title = "Booking"
	}
	style := StyleFor(status)
	return Event{
		ID:     "booking-" + b.ID.String(),
		Kind:   KindBooking,
		Title:  truncate(title, maxTitleLength),
		Start:  b.Range.Start,
		End:    b.Range.End,
		Status: status,
		Label:  style.Label,
		Color:  style.Color,
		Booking: &BookingEvent{
			BookingID:      b.ID,
			Role:           role,
			OtherPartyID:   other,
			OtherPartyName: otherName,
			Amount:         b.TotalAmount,
			PaymentStatus:  b.PaymentStatus,
		},
	}
}

// blockEvents не включает блоки бронирований: их показывает само бронирование.
func (uc *FeedUseCase) blockEvents(ctx context.Context, q Query) ([]Event, error) {
	from, to := q.From, q.To
	blocks, err := uc.blocks.List(ctx, repository.BlockFilter{OwnerID: q.UserID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(blocks))
	for _, b := range blocks {
		if b.Reason == valueobject.BlockReasonBooking {
			continue
		}
		events = append(events, blockEvent(b))
	}
	return events, nil
}

func blockEvent(b *entity.CalendarBlock) Event {
	title := "Blocked"
	for _, candidate := range []*string{b.Notes, b.VisibilityMessage, b.Title} {
		if candidate != nil && strings.TrimSpace(*candidate) != "" {
			title = *candidate
			break
		}
	}
	style := StyleFor(string(b.Reason))
	return Event{
		ID:     "block-" + b.ID.String(),
		Kind:   KindBlock,
		Title:  title,
		Start:  b.Range.Start,
		End:    b.Range.End,
		Status: string(b.Reason),
		Label:  style.Label,
		Color:  style.Color,
		Block: &BlockEvent{
			BlockID:           b.ID,
			Reason:            b.Reason,
			Notes:             b.Notes,
			VisibilityMessage: b.VisibilityMessage,
		},
	}
}

func (uc *FeedUseCase) jobEvents(ctx context.Context, q Query) ([]Event, error) {
	jobs, err := uc.jobs.ListByOrganiser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(jobs))
	for _, j := range jobs {
		r, ok := j.EventRange()
		if !ok {
			continue
		}
		style := StyleFor(string(j.Status))
		events = append(events, Event{
			ID:       "job-" + j.ID.String(),
			Kind:     KindJob,
			Title:    j.Title,
			Start:    r.Start,
			End:      r.End,
			Status:   string(j.Status),
			Label:    style.Label,
			Color:    style.Color,
			Location: j.Location,
			Job:      &JobEvent{JobID: j.ID, Budget: j.Budget},
		})
	}
	return events, nil
}

func (uc *FeedUseCase) appliedEvents(ctx context.Context, q Query) ([]Event, error) {
	apps, err := uc.jobs.ListApplicationsByApplicant(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(apps))
	for _, a := range apps {
		if a.Job == nil {
			continue
		}
		r, ok := a.Job.EventRange()
		if !ok {
			continue
		}
		status := "applied"
		if a.Status == valueobject.JobApplicationSelected {
			status = "selected"
		}
		style := StyleFor(status)
		events = append(events, Event{
			ID:       "applied-" + a.ID.String(),
			Kind:     KindAppliedJob,
			Title:    a.Job.Title,
			Start:    r.Start,
			End:      r.End,
			Status:   status,
			Label:    style.Label,
			Color:    style.Color,
			Location: a.Job.Location,
			Applied: &AppliedJobEvent{
				ApplicationID:     a.ID,
				JobID:             a.JobID,
				ApplicationStatus: string(a.Status),
				ProposedRate:      a.ProposedRate,
			},
		})
	}
	return events, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func cacheKey(q Query) string {
	return fmt.Sprintf("%s%d:%d:%s:%s", userPrefix(q.UserID), q.From.Unix(), q.To.Unix(), q.Filter, strings.ToLower(q.Search))
}

func (uc *FeedUseCase) fromCache(ctx context.Context, key string) (*Feed, bool) {
	if uc.cache == nil {
		return nil, false
	}
	raw, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		logger.L().WithError(err).Warn("calendar feed cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var feed Feed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, false
	}
	return &feed, true
}

func (uc *FeedUseCase) toCache(ctx context.Context, key string, feed *Feed) {
	if uc.cache == nil || uc.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(feed)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, raw, uc.ttl); err != nil {
		logger.L().WithError(err).Warn("calendar feed cache write failed")
	}
}
