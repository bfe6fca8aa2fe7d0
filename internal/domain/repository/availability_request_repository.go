package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
)

type AvailabilityRequestRepository interface {
	// Create отклоняет второй ожидающий запрос на ту же дату с ErrDuplicateRequest.
	Create(ctx context.Context, req *entity.AvailabilityRequest) error
	// Update меняет только ожидающий запрос. Если запрос уже закрыт, возвращает ErrAlreadyAnswered.
	Update(ctx context.Context, req *entity.AvailabilityRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AvailabilityRequest, error)
	// HasOpenDuplicate ищет ожидающий и не просроченный запрос того же клиента тому же таланту на ту же дату.
	HasOpenDuplicate(ctx context.Context, requesterID, talentID uuid.UUID, date time.Time, now time.Time) (bool, error)
	ListPendingForTalent(ctx context.Context, talentID uuid.UUID, now time.Time) ([]*entity.AvailabilityRequest, error)
	ListByTalent(ctx context.Context, talentID uuid.UUID) ([]*entity.AvailabilityRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*entity.AvailabilityRequest, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
