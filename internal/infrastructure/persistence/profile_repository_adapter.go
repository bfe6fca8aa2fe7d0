package persistence

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

type ProfileRepositoryAdapter struct {
	db *sqlx.DB
}

func NewProfileRepositoryAdapter(db *sqlx.DB) *ProfileRepositoryAdapter {
	return &ProfileRepositoryAdapter{db: db}
}

type profileRow struct {
	ID          uuid.UUID `db:"id"`
	DisplayName string    `db:"display_name"`
	Email       string    `db:"email"`
	Role        string    `db:"role"`
	AvatarURL   *string   `db:"avatar_url"`
}

func (r *ProfileRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var row profileRow
	q := psql.Select("id", "display_name", "email", "role", "avatar_url").
		From("profiles").
		Where(squirrel.Eq{"id": id})
	if err := get(ctx, r.db, &row, q); err != nil {
		return nil, mapError(err, apperror.ErrProfileNotFound, nil, "failed to load profile")
	}
	return row.toEntity(), nil
}

func (r *ProfileRepositoryAdapter) Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]*entity.Profile, error) {
	pattern := "%" + escapeLike(query) + "%"
	q := psql.Select("id", "display_name", "email", "role", "avatar_url").
		From("profiles").
		Where(squirrel.NotEq{"id": excludeID}).
		Where(squirrel.Or{
			squirrel.ILike{"display_name": pattern},
			squirrel.ILike{"email": pattern},
		}).
		OrderBy("display_name").
		Limit(uint64(limit))

	var rows []profileRow
	if err := selectAll(ctx, r.db, &rows, q); err != nil {
		return nil, mapError(err, nil, nil, "failed to search profiles")
	}
	out := make([]*entity.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r profileRow) toEntity() *entity.Profile {
	return &entity.Profile{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		Email:       r.Email,
		Role:        r.Role,
		AvatarURL:   r.AvatarURL,
	}
}
