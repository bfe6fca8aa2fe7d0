// Package availability обрабатывает запросы «свободен ли талант в этот день».
// Запросы ничего не резервируют: ни бронирований, ни блоков календаря.
package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/logger"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

type CreateRequestInput struct {
	RequesterID   uuid.UUID
	TalentID      uuid.UUID
	RequestedDate time.Time
	StartTime     *string
	EndTime       *string
	Message       *string
}

type CreateRequestUseCase struct {
	requests repository.AvailabilityRequestRepository
	clock    clock.Clock
	ttl      time.Duration
	effects  *effects.Effects
}

func NewCreateRequestUseCase(requests repository.AvailabilityRequestRepository, clk clock.Clock, ttl time.Duration, fx *effects.Effects) *CreateRequestUseCase {
	return &CreateRequestUseCase{requests: requests, clock: clk, ttl: ttl, effects: fx}
}

func (uc *CreateRequestUseCase) Execute(ctx context.Context, input CreateRequestInput) (*entity.AvailabilityRequest, error) {
	start, err := parseClock(input.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(input.EndTime)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	req, err := entity.NewAvailabilityRequest(entity.NewAvailabilityRequestParams{
		RequesterID:   input.RequesterID,
		TalentID:      input.TalentID,
		RequestedDate: input.RequestedDate,
		StartTime:     start,
		EndTime:       end,
		Message:       input.Message,
		TTL:           uc.ttl,
	}, now)
	if err != nil {
		return nil, err
	}

	// Просроченный, но ещё не закрытый запрос держит уникальный индекс.
	if _, err := uc.requests.ExpireOverdue(ctx, now); err != nil {
		return nil, err
	}

	dup, err := uc.requests.HasOpenDuplicate(ctx, req.RequesterID, req.TalentID, req.RequestedDate, now)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, apperror.ErrDuplicateRequest
	}

	if err := uc.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	date := req.RequestedDate.Format(valueobject.DateLayout)
	link := "/availability-requests"
	uc.effects.Notify(ctx, port.Notification{
		UserID:  req.TalentID,
		Type:    "availability_request",
		Title:   "Availability request",
		Message: "Someone asked whether you are available on " + date,
		Data:    map[string]any{"request_id": req.ID.String(), "date": date},
		Link:    &link,
	})
	uc.effects.Email(ctx, req.TalentID, "New availability request", "availability_request", map[string]any{"date": date})

	return req, nil
}

func parseClock(v *string) (*valueobject.ClockTime, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	c, err := valueobject.ParseClock(*v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type RespondInput struct {
	RequestID uuid.UUID
	TalentID  uuid.UUID
	Status    string
	Message   *string
}

type RespondUseCase struct {
	requests repository.AvailabilityRequestRepository
	clock    clock.Clock
	effects  *effects.Effects
}

func NewRespondUseCase(requests repository.AvailabilityRequestRepository, clk clock.Clock, fx *effects.Effects) *RespondUseCase {
	return &RespondUseCase{requests: requests, clock: clk, effects: fx}
}

func (uc *RespondUseCase) Execute(ctx context.Context, input RespondInput) (*entity.AvailabilityRequest, error) {
	status, err := valueobject.NewAvailabilityAnswer(input.Status)
	if err != nil {
		return nil, err
	}

	req, err := uc.requests.FindByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if req.TalentID != input.TalentID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the requested talent can respond")
	}

	wasPending := req.Status == valueobject.AvailabilityRequestPending
	if err := req.Respond(status, input.Message, uc.clock.Now()); err != nil {
		// Просроченный запрос фиксируется, не дожидаясь уборщика.
		if wasPending && req.Status == valueobject.AvailabilityRequestExpired {
			req.UpdatedAt = uc.clock.Now()
			if uerr := uc.requests.Update(ctx, req); uerr != nil {
				logger.L().WithError(uerr).WithFields(logrus.Fields{
					"request_id": req.ID,
				}).Warn("failed to mark availability request expired")
			}
		}
		return nil, err
	}
	if err := uc.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	date := req.RequestedDate.Format(valueobject.DateLayout)
	link := "/availability-requests"
	uc.effects.Notify(ctx, port.Notification{
		UserID:  req.RequesterID,
		Type:    "availability_response",
		Title:   "Availability response",
		Message: "The talent is " + string(req.Status) + " on " + date,
		Data:    map[string]any{"request_id": req.ID.String(), "date": date, "status": string(req.Status)},
		Link:    &link,
	})

	return req, nil
}

type BulkFailure struct {
	ID    uuid.UUID
	Error string
}

type BulkResult struct {
	Updated  []*entity.AvailabilityRequest
	Failures []BulkFailure
}

type BulkRespondUseCase struct {
	respond *RespondUseCase
}

func NewBulkRespondUseCase(respond *RespondUseCase) *BulkRespondUseCase {
	return &BulkRespondUseCase{respond: respond}
}

// Execute отвечает на каждый запрос независимо: ошибка одного не мешает остальным.
func (uc *BulkRespondUseCase) Execute(ctx context.Context, ids []uuid.UUID, talentID uuid.UUID, status string, message *string) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "at least one request id is required")
	}
	if _, err := valueobject.NewAvailabilityAnswer(status); err != nil {
		return nil, err
	}

	result := &BulkResult{Updated: []*entity.AvailabilityRequest{}, Failures: []BulkFailure{}}
	for _, id := range ids {
		req, err := uc.respond.Execute(ctx, RespondInput{RequestID: id, TalentID: talentID, Status: status, Message: message})
		if err != nil {
			result.Failures = append(result.Failures, BulkFailure{ID: id, Error: errorMessage(err)})
			continue
		}
		result.Updated = append(result.Updated, req)
	}
	return result, nil
}

func errorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

type ListRequestsUseCase struct {
	requests repository.AvailabilityRequestRepository
	clock    clock.Clock
}

func NewListRequestsUseCase(requests repository.AvailabilityRequestRepository, clk clock.Clock) *ListRequestsUseCase {
	return &ListRequestsUseCase{requests: requests, clock: clk}
}

// Pending ожидающие ответа и не просроченные запросы к таланту, по дате.
func (uc *ListRequestsUseCase) Pending(ctx context.Context, talentID uuid.UUID) ([]*entity.AvailabilityRequest, error) {
	return uc.requests.ListPendingForTalent(ctx, talentID, uc.clock.Now())
}

func (uc *ListRequestsUseCase) Sent(ctx context.Context, requesterID uuid.UUID) ([]*entity.AvailabilityRequest, error) {
	return uc.requests.ListByRequester(ctx, requesterID)
}

type AllRequests struct {
	Sent     []*entity.AvailabilityRequest
	Received []*entity.AvailabilityRequest
}

func (uc *ListRequestsUseCase) All(ctx context.Context, userID uuid.UUID) (*AllRequests, error) {
	sent, err := uc.requests.ListByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := uc.requests.ListByTalent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AllRequests{Sent: sent, Received: received}, nil
}

type ExpireRequestsUseCase struct {
	requests repository.AvailabilityRequestRepository
	clock    clock.Clock
}

func NewExpireRequestsUseCase(requests repository.AvailabilityRequestRepository, clk clock.Clock) *ExpireRequestsUseCase {
	return &ExpireRequestsUseCase{requests: requests, clock: clk}
}

// Execute переводит просроченные ожидающие запросы в expired.
func (uc *ExpireRequestsUseCase) Execute(ctx context.Context) (int64, error) {
	return uc.requests.ExpireOverdue(ctx, uc.clock.Now())
}
