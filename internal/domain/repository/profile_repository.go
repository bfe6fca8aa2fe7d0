package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	// Search ищет по имени и почте, кроме excludeID.
	Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]*entity.Profile, error)
}
