package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
)

type JobOfferRepository interface {
	Create(ctx context.Context, offer *entity.JobOffer) error
	Update(ctx context.Context, offer *entity.JobOffer) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.JobOffer, error)
	// FindByIDForUpdate блокирует строку до конца транзакции из ctx.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.JobOffer, error)
	List(ctx context.Context, filter OfferFilter) ([]*entity.JobOffer, error)
}

type OfferFilter struct {
	SenderID    *uuid.UUID
	RecipientID *uuid.UUID
	Status      *valueobject.JobOfferStatus
}
