package valueobject

import (
	"strings"
	"time"

	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	clockLayoutSecs = "15:04:05"
)

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperror.New(apperror.ErrCodeValidation, "date must be in YYYY-MM-DD format")
	}
	return d, nil
}

// ClockTime время суток без даты.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock принимает HH:MM и HH:MM:SS.
func ParseClock(value string) (ClockTime, error) {
	v := strings.TrimSpace(value)
	t, err := time.Parse(ClockLayout, v)
	if err != nil {
		t, err = time.Parse(clockLayoutSecs, v)
	}
	if err != nil {
		return ClockTime{}, apperror.New(apperror.ErrCodeValidation, "time must be in HH:MM format")
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format(ClockLayout)
}

func (c ClockTime) Before(other ClockTime) bool {
	return c.Hour*60+c.Minute < other.Hour*60+other.Minute
}

// On прикладывает время к дате в зоне loc.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// EventRange строит интервал события по дате и необязательным времени начала и конца.
// Без времени событие занимает весь день. Конец раньше начала означает переход через полночь.
func EventRange(date time.Time, start, end *ClockTime, loc *time.Location) (TimeRange, bool) {
	if start == nil || end == nil {
		return DayRange(time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, locOrUTC(loc)), loc), false
	}
	from := start.On(date, loc)
	to := end.On(date, loc)
	if !from.Before(to) {
		to = to.AddDate(0, 0, 1)
	}
	return TimeRange{Start: from.UTC(), End: to.UTC()}, true
}

// LoadLocation возвращает зону или fallback, если имя пустое или неизвестное.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return locOrUTC(fallback)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return locOrUTC(fallback)
	}
	return loc
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
