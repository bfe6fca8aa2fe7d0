package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

type ProfileSummaryResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
}

func ToProfileSummary(p *entity.ProfileSummary) *ProfileSummaryResponse {
	if p == nil {
		return nil
	}
	return &ProfileSummaryResponse{ID: p.ID, DisplayName: p.DisplayName, AvatarURL: p.AvatarURL}
}

// ParseTime принимает RFC3339 или дату YYYY-MM-DD (начало дня в loc).
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	d, err := valueobject.ParseDate(value)
	if err != nil {
		return time.Time{}, apperror.New(apperror.ErrCodeValidation, "time must be RFC3339 or YYYY-MM-DD")
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc).UTC(), nil
}

// ParseOptionalTime как ParseTime, но пустая строка даёт nil.
func ParseOptionalTime(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := ParseTime(value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func clockString(c *valueobject.ClockTime) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(valueobject.DateLayout)
	return &s
}

// MapSlice применяет fn к каждому элементу. Пустой вход даёт пустой (не nil) срез.
func MapSlice[T any, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
