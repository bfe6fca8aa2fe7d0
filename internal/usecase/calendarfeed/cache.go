package calendarfeed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Cache хранилище готовых лент. Реализации: память процесса и Redis.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

func userPrefix(userID uuid.UUID) string {
	return "feed:" + userID.String() + ":"
}

// Invalidator сбрасывает ленты пользователей после изменений бронирований, блоков и предложений.
type Invalidator struct {
	cache Cache
}

func NewInvalidator(cache Cache) *Invalidator {
	return &Invalidator{cache: cache}
}

func (i *Invalidator) InvalidateUsers(ctx context.Context, userIDs ...uuid.UUID) error {
	if i == nil || i.cache == nil {
		return nil
	}
	var errs []error
	for _, id := range userIDs {
		if err := i.cache.DeleteByPrefix(ctx, userPrefix(id)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
