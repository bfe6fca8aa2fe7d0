package calendar

import "time"

// Settings параметры календаря из конфигурации.
type Settings struct {
	Location      *time.Location
	WorkStartHour int
	WorkEndHour   int
	SlotMinutes   int
	UpcomingDays  int
	MaxRangeDays  int
}

func DefaultSettings() Settings {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		loc = time.UTC
	}
	return Settings{
		Location:      loc,
		WorkStartHour: 9,
		WorkEndHour:   21,
		SlotMinutes:   60,
		UpcomingDays:  30,
		MaxRangeDays:  366,
	}
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s Settings) maxRange() time.Duration {
	days := s.MaxRangeDays
	if days <= 0 {
		days = 366
	}
	return time.Duration(days) * 24 * time.Hour
}
