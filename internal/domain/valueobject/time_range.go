package valueobject

import (
	"time"

	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

// TimeRange полуинтервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, apperror.New(apperror.ErrCodeValidation, "start and end are required")
	}
	if !start.Before(end) {
		return TimeRange{}, apperror.New(apperror.ErrCodeValidation, "End date must be after start date")
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps: [a,b) и [c,d) пересекаются тогда и только тогда, когда a < d и c < b.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains проверяет, что other целиком лежит внутри r.
func (r TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Days возвращает полночи каждого дня, который задевает интервал, в зоне loc.
func (r TimeRange) Days(loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	start := r.Start.In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	var days []time.Time
	for day.Before(r.End) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// DayRange возвращает сутки [00:00, 00:00 следующего дня) для date в зоне loc.
func DayRange(date time.Time, loc *time.Location) TimeRange {
	if loc == nil {
		loc = time.UTC
	}
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return TimeRange{Start: start.UTC(), End: start.AddDate(0, 0, 1).UTC()}
}
