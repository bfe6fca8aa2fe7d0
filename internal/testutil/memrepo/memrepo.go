// Package memrepo реализует репозитории домена в памяти для тестов сценариев.
// Ограничение исключения календаря и уникальные индексы повторяют схему Postgres.
package memrepo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

type Store struct {
	mu sync.Mutex

	blocks        map[uuid.UUID]entity.CalendarBlock
	bookings      map[uuid.UUID]entity.Booking
	requests      map[uuid.UUID]entity.AvailabilityRequest
	offers        map[uuid.UUID]entity.JobOffer
	jobs          map[uuid.UUID]entity.JobPosting
	applications  map[uuid.UUID]entity.JobApplication
	notifications map[uuid.UUID]entity.Notification
	invoices      map[uuid.UUID]entity.Invoice
	profiles      map[uuid.UUID]entity.Profile
	conversations map[uuid.UUID]entity.Conversation
	messages      map[uuid.UUID]entity.Message

	// rowLocks эмулируют SELECT ... FOR UPDATE: блокировка держится до конца транзакции.
	rowLocks map[uuid.UUID]*sync.Mutex

	invoiceSeq map[string]int

	// FailOn заставляет операцию с этим именем вернуть ошибку.
	FailOn map[string]error
}

func New() *Store {
	return &Store{
		blocks:        map[uuid.UUID]entity.CalendarBlock{},
		bookings:      map[uuid.UUID]entity.Booking{},
		requests:      map[uuid.UUID]entity.AvailabilityRequest{},
		offers:        map[uuid.UUID]entity.JobOffer{},
		jobs:          map[uuid.UUID]entity.JobPosting{},
		applications:  map[uuid.UUID]entity.JobApplication{},
		notifications: map[uuid.UUID]entity.Notification{},
		invoices:      map[uuid.UUID]entity.Invoice{},
		profiles:      map[uuid.UUID]entity.Profile{},
		conversations: map[uuid.UUID]entity.Conversation{},
		messages:      map[uuid.UUID]entity.Message{},
		rowLocks:      map[uuid.UUID]*sync.Mutex{},
		invoiceSeq:    map[string]int{},
		FailOn:        map[string]error{},
	}
}

func (s *Store) fail(op string) error {
	if err, ok := s.FailOn[op]; ok {
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type txKey struct{}

// txState блокировки строк, взятые транзакцией.
type txState struct {
	held []*sync.Mutex
}

// WithinTransaction откатывает все изменения, если fn вернула ошибку.
// Вложенный вызов переиспользует внешнюю транзакцию.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	tx := &txState{}
	defer func() {
		for _, m := range tx.held {
			m.Unlock()
		}
	}()

	s.mu.Lock()
	snapshot := struct {
		blocks        map[uuid.UUID]entity.CalendarBlock
		bookings      map[uuid.UUID]entity.Booking
		requests      map[uuid.UUID]entity.AvailabilityRequest
		offers        map[uuid.UUID]entity.JobOffer
		jobs          map[uuid.UUID]entity.JobPosting
		applications  map[uuid.UUID]entity.JobApplication
		invoices      map[uuid.UUID]entity.Invoice
		conversations map[uuid.UUID]entity.Conversation
		messages      map[uuid.UUID]entity.Message
	}{
		cloneMap(s.blocks), cloneMap(s.bookings), cloneMap(s.requests), cloneMap(s.offers),
		cloneMap(s.jobs), cloneMap(s.applications), cloneMap(s.invoices),
		cloneMap(s.conversations), cloneMap(s.messages),
	}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		s.mu.Lock()
		s.blocks, s.bookings, s.requests, s.offers = snapshot.blocks, snapshot.bookings, snapshot.requests, snapshot.offers
		s.jobs, s.applications, s.invoices = snapshot.jobs, snapshot.applications, snapshot.invoices
		s.conversations, s.messages = snapshot.conversations, snapshot.messages
		s.mu.Unlock()
		return err
	}
	return nil
}

// lockRow ждёт блокировку строки id. Вне транзакции ничего не делает, как и FOR UPDATE в autocommit.
func (s *Store) lockRow(ctx context.Context, id uuid.UUID) {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		return
	}

	s.mu.Lock()
	m, ok := s.rowLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[id] = m
	}
	s.mu.Unlock()

	for _, held := range tx.held {
		if held == m {
			return
		}
	}
	m.Lock()
	tx.held = append(tx.held, m)
}

func (s *Store) AddProfile(p entity.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// Blocks

type Blocks struct{ s *Store }

func (s *Store) Blocks() *Blocks { return &Blocks{s: s} }

func (r *Blocks) checkExclusion(b *entity.CalendarBlock) error {
	if !b.Reason.IsBlocking() {
		return nil
	}
	for id, other := range r.s.blocks {
		if id == b.ID || other.OwnerID != b.OwnerID {
			continue
		}
		if other.Conflicts(b.Range) {
			return apperror.ErrBlockOverlap
		}
	}
	return nil
}

func (r *Blocks) Create(ctx context.Context, b *entity.CalendarBlock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("blocks.Create"); err != nil {
		return err
	}
	if err := r.checkExclusion(b); err != nil {
		return err
	}
	r.s.blocks[b.ID] = *b
	return nil
}

func (r *Blocks) Update(ctx context.Context, b *entity.CalendarBlock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.blocks[b.ID]; !ok {
		return apperror.ErrBlockNotFound
	}
	if err := r.checkExclusion(b); err != nil {
		return err
	}
	r.s.blocks[b.ID] = *b
	return nil
}

func (r *Blocks) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.blocks, id)
	return nil
}

func (r *Blocks) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, b := range r.s.blocks {
		if b.BookingID != nil && *b.BookingID == bookingID {
			delete(r.s.blocks, id)
			n++
		}
	}
	return n, nil
}

func (r *Blocks) FindByID(ctx context.Context, id uuid.UUID) (*entity.CalendarBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.blocks[id]
	if !ok {
		return nil, apperror.ErrBlockNotFound
	}
	return &b, nil
}

func (r *Blocks) List(ctx context.Context, f repository.BlockFilter) ([]*entity.CalendarBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("blocks.List"); err != nil {
		return nil, err
	}

	var out []*entity.CalendarBlock
	for _, b := range r.s.blocks {
		if b.OwnerID != f.OwnerID {
			continue
		}
		if f.From != nil && !b.Range.End.After(*f.From) {
			continue
		}
		if f.To != nil && !b.Range.Start.Before(*f.To) {
			continue
		}
		if f.ExcludeID != nil && b.ID == *f.ExcludeID {
			continue
		}
		if len(f.Reasons) > 0 && !containsReason(f.Reasons, b.Reason) {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out, nil
}

func containsReason(reasons []valueobject.BlockReason, r valueobject.BlockReason) bool {
	for _, x := range reasons {
		if x == r {
			return true
		}
	}
	return false
}

// AllBlocks все блоки владельца, для проверок в тестах.
func (s *Store) AllBlocks(ownerID uuid.UUID) []entity.CalendarBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.CalendarBlock
	for _, b := range s.blocks {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out
}

// Bookings

type Bookings struct{ s *Store }

func (s *Store) Bookings() *Bookings { return &Bookings{s: s} }

func (r *Bookings) Create(ctx context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.Create"); err != nil {
		return err
	}
	if b.SourceID != nil {
		for _, other := range r.s.bookings {
			if other.Source == b.Source && other.SourceID != nil && *other.SourceID == *b.SourceID {
				return apperror.Wrap(errors.New("unique violation"), apperror.ErrCodeConflict, apperror.ErrAlreadyConverted.Message)
			}
		}
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *Bookings) Update(ctx context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.Update"); err != nil {
		return err
	}
	stored, ok := r.s.bookings[b.ID]
	if !ok {
		return apperror.ErrBookingNotFound
	}
	stored.Status = b.Status
	stored.TalentResponse = b.TalentResponse
	stored.CancellationReason = b.CancellationReason
	stored.AcceptedAt = b.AcceptedAt
	stored.DeclinedAt = b.DeclinedAt
	stored.StartedAt = b.StartedAt
	stored.CompletedAt = b.CompletedAt
	stored.CancelledAt = b.CancelledAt
	stored.UpdatedAt = b.UpdatedAt
	r.s.bookings[b.ID] = stored
	return nil
}

func (r *Bookings) UpdatePayment(ctx context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.bookings[b.ID]
	if !ok {
		return apperror.ErrBookingNotFound
	}
	stored.PaymentStatus = b.PaymentStatus
	stored.CheckoutSessionID = b.CheckoutSessionID
	stored.UpdatedAt = b.UpdatedAt
	r.s.bookings[b.ID] = stored
	return nil
}

func (r *Bookings) AttachInvoice(ctx context.Context, bookingID, invoiceID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.bookings[bookingID]
	if !ok {
		return apperror.ErrBookingNotFound
	}
	stored.InvoiceID = &invoiceID
	stored.UpdatedAt = at
	r.s.bookings[bookingID] = stored
	return nil
}

func (r *Bookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, apperror.ErrBookingNotFound
	}
	return &b, nil
}

func (r *Bookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.lockRow(ctx, id)
	return r.FindByID(ctx, id)
}

func (r *Bookings) FindByCheckoutSession(ctx context.Context, sessionID string) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.CheckoutSessionID != nil && *b.CheckoutSessionID == sessionID {
			b := b
			return &b, nil
		}
	}
	return nil, apperror.ErrBookingNotFound
}

func (r *Bookings) List(ctx context.Context, f repository.BookingFilter) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.List"); err != nil {
		return nil, err
	}

	var out []*entity.Booking
	for _, b := range r.s.bookings {
		switch f.Role {
		case repository.BookingRoleClient:
			if b.ClientID != f.UserID {
				continue
			}
		case repository.BookingRoleTalent:
			if b.TalentID != f.UserID {
				continue
			}
		default:
			if !b.IsParty(f.UserID) {
				continue
			}
		}
		if len(f.Statuses) > 0 && !containsBookingStatus(f.Statuses, b.Status) {
			continue
		}
		if f.From != nil && !b.Range.End.After(*f.From) {
			continue
		}
		if f.To != nil && !b.Range.Start.Before(*f.To) {
			continue
		}
		if f.StartsFrom != nil && b.Range.Start.Before(*f.StartsFrom) {
			continue
		}
		if f.StartsTo != nil && !b.Range.Start.Before(*f.StartsTo) {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Before(out[j].Range.Start) })
	return out, nil
}

func containsBookingStatus(statuses []valueobject.BookingStatus, s valueobject.BookingStatus) bool {
	for _, x := range statuses {
		if x == s {
			return true
		}
	}
	return false
}

// BookingCount число бронирований в хранилище.
func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// AvailabilityRequests

type Requests struct{ s *Store }

func (s *Store) Requests() *Requests { return &Requests{s: s} }

// Create повторяет частичный уникальный индекс по ожидающим запросам.
func (r *Requests) Create(ctx context.Context, req *entity.AvailabilityRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := req.RequestedDate.Format(valueobject.DateLayout)
	for _, other := range r.s.requests {
		if other.Status == valueobject.AvailabilityRequestPending && req.Status == valueobject.AvailabilityRequestPending &&
			other.RequesterID == req.RequesterID && other.TalentID == req.TalentID &&
			other.RequestedDate.Format(valueobject.DateLayout) == day {
			return apperror.Wrap(errors.New("unique violation"), apperror.ErrCodeConflict, apperror.ErrDuplicateRequest.Message)
		}
	}
	r.s.requests[req.ID] = *req
	return nil
}

func (r *Requests) Update(ctx context.Context, req *entity.AvailabilityRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("requests.Update"); err != nil {
		return err
	}
	stored, ok := r.s.requests[req.ID]
	if !ok {
		return apperror.ErrRequestNotFound
	}
	if stored.Status != valueobject.AvailabilityRequestPending {
		return apperror.ErrAlreadyAnswered
	}
	r.s.requests[req.ID] = *req
	return nil
}

func (r *Requests) FindByID(ctx context.Context, id uuid.UUID) (*entity.AvailabilityRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	return &req, nil
}

func (r *Requests) HasOpenDuplicate(ctx context.Context, requesterID, talentID uuid.UUID, date, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := date.Format(valueobject.DateLayout)
	for _, req := range r.s.requests {
		if req.RequesterID == requesterID && req.TalentID == talentID &&
			req.RequestedDate.Format(valueobject.DateLayout) == day &&
			req.Status == valueobject.AvailabilityRequestPending && now.Before(req.ExpiresAt) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Requests) collect(keep func(entity.AvailabilityRequest) bool) []*entity.AvailabilityRequest {
	var out []*entity.AvailabilityRequest
	for _, req := range r.s.requests {
		if keep(req) {
			req := req
			out = append(out, &req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedDate.Before(out[j].RequestedDate) })
	return out
}

func (r *Requests) ListPendingForTalent(ctx context.Context, talentID uuid.UUID, now time.Time) ([]*entity.AvailabilityRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(req entity.AvailabilityRequest) bool {
		return req.TalentID == talentID && req.Status == valueobject.AvailabilityRequestPending && now.Before(req.ExpiresAt)
	}), nil
}

func (r *Requests) ListByTalent(ctx context.Context, talentID uuid.UUID) ([]*entity.AvailabilityRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(req entity.AvailabilityRequest) bool { return req.TalentID == talentID }), nil
}

func (r *Requests) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*entity.AvailabilityRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(req entity.AvailabilityRequest) bool { return req.RequesterID == requesterID }), nil
}

func (r *Requests) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, req := range r.s.requests {
		if req.Status == valueobject.AvailabilityRequestPending && !now.Before(req.ExpiresAt) {
			req.Status = valueobject.AvailabilityRequestExpired
			req.UpdatedAt = now
			r.s.requests[id] = req
			n++
		}
	}
	return n, nil
}

// Offers

type Offers struct{ s *Store }

func (s *Store) Offers() *Offers { return &Offers{s: s} }

func (r *Offers) Create(ctx context.Context, o *entity.JobOffer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.offers[o.ID] = *o
	return nil
}

func (r *Offers) Update(ctx context.Context, o *entity.JobOffer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.offers[o.ID]; !ok {
		return apperror.ErrOfferNotFound
	}
	r.s.offers[o.ID] = *o
	return nil
}

func (r *Offers) FindByID(ctx context.Context, id uuid.UUID) (*entity.JobOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.offers[id]
	if !ok {
		return nil, apperror.ErrOfferNotFound
	}
	return &o, nil
}

func (r *Offers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.JobOffer, error) {
	r.s.lockRow(ctx, id)
	return r.FindByID(ctx, id)
}

func (r *Offers) List(ctx context.Context, f repository.OfferFilter) ([]*entity.JobOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.JobOffer
	for _, o := range r.s.offers {
		if f.SenderID != nil && o.SenderID != *f.SenderID {
			continue
		}
		if f.RecipientID != nil && o.RecipientID != *f.RecipientID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Jobs

type Jobs struct{ s *Store }

func (s *Store) Jobs() *Jobs { return &Jobs{s: s} }

func (r *Jobs) CreatePosting(ctx context.Context, j *entity.JobPosting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.jobs[j.ID] = *j
	return nil
}

func (r *Jobs) UpdatePosting(ctx context.Context, j *entity.JobPosting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[j.ID]; !ok {
		return apperror.ErrJobNotFound
	}
	r.s.jobs[j.ID] = *j
	return nil
}

func (r *Jobs) FindPostingByID(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, apperror.ErrJobNotFound
	}
	return &j, nil
}

func (r *Jobs) ListByOrganiser(ctx context.Context, organiserID uuid.UUID) ([]*entity.JobPosting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("jobs.ListByOrganiser"); err != nil {
		return nil, err
	}
	var out []*entity.JobPosting
	for _, j := range r.s.jobs {
		if j.OrganiserID == organiserID {
			j := j
			out = append(out, &j)
		}
	}
	return out, nil
}

func (r *Jobs) CreateApplication(ctx context.Context, a *entity.JobApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.applications {
		if other.JobID == a.JobID && other.ApplicantID == a.ApplicantID {
			return apperror.ErrAlreadyApplied
		}
	}
	stored := *a
	stored.Job = nil
	r.s.applications[a.ID] = stored
	return nil
}

func (r *Jobs) UpdateApplication(ctx context.Context, a *entity.JobApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.applications[a.ID]; !ok {
		return apperror.ErrApplicationNotFound
	}
	stored := *a
	stored.Job = nil
	r.s.applications[a.ID] = stored
	return nil
}

func (r *Jobs) withJob(a entity.JobApplication) *entity.JobApplication {
	if j, ok := r.s.jobs[a.JobID]; ok {
		a.Job = &j
	}
	return &a
}

func (r *Jobs) FindApplicationByID(ctx context.Context, id uuid.UUID) (*entity.JobApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, apperror.ErrApplicationNotFound
	}
	return r.withJob(a), nil
}

func (r *Jobs) HasApplied(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.applications {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Jobs) ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*entity.JobApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("jobs.ListApplicationsByApplicant"); err != nil {
		return nil, err
	}
	var out []*entity.JobApplication
	for _, a := range r.s.applications {
		if a.ApplicantID == applicantID {
			out = append(out, r.withJob(a))
		}
	}
	return out, nil
}

// Notifications

type Notifications struct{ s *Store }

func (s *Store) Notifications() *Notifications { return &Notifications{s: s} }

func (r *Notifications) Create(ctx context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *Notifications) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		n := n
		all = append(all, &n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *Notifications) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if item, ok := r.s.notifications[id]; ok && item.UserID == userID {
			item.IsRead = true
			r.s.notifications[id] = item
			n++
		}
	}
	return n, nil
}

func (r *Notifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, item := range r.s.notifications {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			r.s.notifications[id] = item
			n++
		}
	}
	return n, nil
}

func (r *Notifications) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, item := range r.s.notifications {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

// Invoices

type Invoices struct{ s *Store }

func (s *Store) Invoices() *Invoices { return &Invoices{s: s} }

func (r *Invoices) Create(ctx context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.invoices {
		if other.BookingID == inv.BookingID {
			return apperror.New(apperror.ErrCodeConflict, "invoice already exists for this booking")
		}
	}
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r *Invoices) Update(ctx context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[inv.ID]; !ok {
		return apperror.ErrInvoiceNotFound
	}
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r *Invoices) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		if inv.BookingID == bookingID {
			inv := inv
			return &inv, nil
		}
	}
	return nil, apperror.ErrInvoiceNotFound
}

func (r *Invoices) NextSequence(ctx context.Context, issued time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	period := issued.UTC().Format("200601")
	r.s.invoiceSeq[period]++
	return r.s.invoiceSeq[period], nil
}

// Profiles

type Profiles struct{ s *Store }

func (s *Store) Profiles() *Profiles { return &Profiles{s: s} }

func (r *Profiles) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, apperror.ErrProfileNotFound
	}
	return &p, nil
}

func (r *Profiles) Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(query)
	var out []*entity.Profile
	for _, p := range r.s.profiles {
		if p.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(p.DisplayName), needle) || strings.Contains(strings.ToLower(p.Email), needle) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Conversations

type Conversations struct{ s *Store }

func (s *Store) Conversations() *Conversations { return &Conversations{s: s} }

func (r *Conversations) Create(ctx context.Context, c *entity.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.conversations {
		if other.ParticipantA == c.ParticipantA && other.ParticipantB == c.ParticipantB {
			return apperror.Wrap(errors.New("unique violation"), apperror.ErrCodeConflict, "conversation already exists")
		}
	}
	r.s.conversations[c.ID] = *c
	return nil
}

func (r *Conversations) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, apperror.ErrConversationNotFound
	}
	return &c, nil
}

func (r *Conversations) FindByParticipants(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, b = entity.OrderedPair(a, b)
	for _, c := range r.s.conversations {
		if c.ParticipantA == a && c.ParticipantB == b {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *Conversations) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Conversation
	for _, c := range r.s.conversations {
		if c.IsParticipant(userID) {
			c := c
			out = append(out, &c)
		}
	}
	activity := func(c *entity.Conversation) time.Time {
		if c.LastMessageAt != nil {
			return *c.LastMessageAt
		}
		return c.CreatedAt
	}
	sort.Slice(out, func(i, j int) bool { return activity(out[i]).After(activity(out[j])) })
	return out, nil
}

func (r *Conversations) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return apperror.ErrConversationNotFound
	}
	c.LastMessageAt = &at
	c.UpdatedAt = at
	r.s.conversations[id] = c
	return nil
}

func (r *Conversations) SetJob(ctx context.Context, id, jobID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if ok && c.JobID == nil {
		c.JobID = &jobID
		r.s.conversations[id] = c
	}
	return nil
}

// Messages

type Messages struct{ s *Store }

func (s *Store) Messages() *Messages { return &Messages{s: s} }

func (r *Messages) Create(ctx context.Context, m *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("messages.Create"); err != nil {
		return err
	}
	if _, ok := r.s.conversations[m.ConversationID]; !ok {
		return apperror.New(apperror.ErrCodeValidation, "referenced record does not exist")
	}
	r.s.messages[m.ID] = *m
	return nil
}

func (r *Messages) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, apperror.ErrMessageNotFound
	}
	return &m, nil
}

func (r *Messages) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.messages[id]; !ok {
		return apperror.ErrMessageNotFound
	}
	delete(r.s.messages, id)
	for oid, o := range r.s.offers {
		if o.MessageID != nil && *o.MessageID == id {
			o.MessageID = nil
			r.s.offers[oid] = o
		}
	}
	return nil
}

// newestFirst сортирует как ORDER BY created_at DESC, id DESC.
func newestFirst(out []*entity.Message) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (r *Messages) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			m := m
			out = append(out, &m)
		}
	}
	newestFirst(out)
	return page(out, limit, offset), nil
}

func (r *Messages) GetLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	msgs, err := r.ListByConversation(ctx, conversationID, 1, 0)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

func (r *Messages) MarkRead(ctx context.Context, conversationID, recipientID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var n int64
	for id, m := range r.s.messages {
		if m.ConversationID != conversationID || m.RecipientID != recipientID || m.IsRead {
			continue
		}
		if len(ids) > 0 && !wanted[id] {
			continue
		}
		m.IsRead = true
		m.ReadAt = &at
		r.s.messages[id] = m
		n++
	}
	return n, nil
}

func (r *Messages) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[uuid.UUID]int{}
	for _, m := range r.s.messages {
		if m.RecipientID == userID && !m.IsRead {
			out[m.ConversationID]++
		}
	}
	return out, nil
}

func (r *Messages) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(query)
	var out []*entity.Message
	for _, m := range r.s.messages {
		if (m.SenderID == userID || m.RecipientID == userID) && strings.Contains(strings.ToLower(m.Body), needle) {
			m := m
			out = append(out, &m)
		}
	}
	newestFirst(out)
	return page(out, limit, 0), nil
}

var (
	_ repository.CalendarBlockRepository       = (*Blocks)(nil)
	_ repository.BookingRepository             = (*Bookings)(nil)
	_ repository.AvailabilityRequestRepository = (*Requests)(nil)
	_ repository.JobOfferRepository            = (*Offers)(nil)
	_ repository.JobRepository                 = (*Jobs)(nil)
	_ repository.NotificationRepository        = (*Notifications)(nil)
	_ repository.InvoiceRepository             = (*Invoices)(nil)
	_ repository.ProfileRepository             = (*Profiles)(nil)
	_ repository.ConversationRepository        = (*Conversations)(nil)
	_ repository.MessageRepository             = (*Messages)(nil)
	_ repository.Transactor                    = (*Store)(nil)
)
