package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
)

// DayAvailability доступность одного календарного дня.
type DayAvailability struct {
	Date              string
	IsAvailable       bool
	ConflictingBlocks []*entity.CalendarBlock
}

type CheckAvailabilityUseCase struct {
	blocks   repository.CalendarBlockRepository
	settings Settings
}

func NewCheckAvailabilityUseCase(blocks repository.CalendarBlockRepository, settings Settings) *CheckAvailabilityUseCase {
	return &CheckAvailabilityUseCase{blocks: blocks, settings: settings}
}

// Execute возвращает доступность по дням для дат from..to включительно.
func (uc *CheckAvailabilityUseCase) Execute(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]DayAvailability, error) {
	loc := uc.settings.location()
	first := valueobject.DayRange(time.Date(from.Year(), from.Month(), from.Day(), 12, 0, 0, 0, loc), loc)
	last := valueobject.DayRange(time.Date(to.Year(), to.Month(), to.Day(), 12, 0, 0, 0, loc), loc)
	if last.Start.Before(first.Start) {
		return nil, apperror.New(apperror.ErrCodeValidation, "End date must be after start date")
	}

	window := valueobject.TimeRange{Start: first.Start, End: last.End}
	if window.Duration() > uc.settings.maxRange() {
		return nil, apperror.New(apperror.ErrCodeValidation, "date range is too long")
	}

	blocks, err := uc.blocks.List(ctx, repository.Overlapping(ownerID, window, nil))
	if err != nil {
		return nil, err
	}

	var days []DayAvailability
	for _, day := range window.Days(loc) {
		dr := valueobject.DayRange(day, loc)
		d := DayAvailability{Date: day.Format(valueobject.DateLayout), IsAvailable: true}
		for _, b := range blocks {
			if b.Conflicts(dr) {
				d.IsAvailable = false
				d.ConflictingBlocks = append(d.ConflictingBlocks, b)
			}
		}
		days = append(days, d)
	}
	return days, nil
}

// AreDatesAvailable true, если в [start, end) нет блокирующих блоков.
func (uc *CheckAvailabilityUseCase) AreDatesAvailable(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	r, err := valueobject.NewTimeRange(start, end)
	if err != nil {
		return false, err
	}
	return IsRangeFree(ctx, uc.blocks, ownerID, r, nil)
}

type Slot struct {
	Start     time.Time
	End       time.Time
	Available bool
}

type SlotsInput struct {
	OwnerID     uuid.UUID
	Date        time.Time
	SlotMinutes int
	WorkStart   *int
	WorkEnd     *int
}

type AvailableSlotsUseCase struct {
	blocks   repository.CalendarBlockRepository
	settings Settings
	clock    clock.Clock
}

func NewAvailableSlotsUseCase(blocks repository.CalendarBlockRepository, settings Settings, clk clock.Clock) *AvailableSlotsUseCase {
	return &AvailableSlotsUseCase{blocks: blocks, settings: settings, clock: clk}
}

// Execute режет рабочие часы дня на слоты. Прошедшие слоты пропускаются.
// Если на день заданы окна доступности, слот должен целиком попадать в их объединение.
func (uc *AvailableSlotsUseCase) Execute(ctx context.Context, input SlotsInput) ([]Slot, error) {
	loc := uc.settings.location()

	slotMinutes := input.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = uc.settings.SlotMinutes
	}
	if slotMinutes <= 0 || slotMinutes > 24*60 {
		return nil, apperror.New(apperror.ErrCodeValidation, "slot length must be between 1 and 1440 minutes")
	}

	workStart, workEnd := uc.settings.WorkStartHour, uc.settings.WorkEndHour
	if input.WorkStart != nil {
		workStart = *input.WorkStart
	}
	if input.WorkEnd != nil {
		workEnd = *input.WorkEnd
	}
	if workStart < 0 || workEnd > 24 || workStart >= workEnd {
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid working hours")
	}

	dayStart := time.Date(input.Date.Year(), input.Date.Month(), input.Date.Day(), 0, 0, 0, 0, loc)
	open := dayStart.Add(time.Duration(workStart) * time.Hour)
	closeAt := dayStart.Add(time.Duration(workEnd) * time.Hour)
	day := valueobject.TimeRange{Start: open.UTC(), End: closeAt.UTC()}

	whole := valueobject.DayRange(dayStart, loc)
	blocks, err := uc.blocks.List(ctx, repository.BlockFilter{OwnerID: input.OwnerID, From: &whole.Start, To: &whole.End})
	if err != nil {
		return nil, err
	}

	var windows []valueobject.TimeRange
	for _, b := range blocks {
		if b.Reason == valueobject.BlockReasonAvailability {
			windows = append(windows, b.Range)
		}
	}
	windows = mergeWindows(windows)

	now := uc.clock.Now()
	step := time.Duration(slotMinutes) * time.Minute

	slots := []Slot{}
	for start := day.Start; !start.Add(step).After(day.End); start = start.Add(step) {
		if start.Before(now) {
			continue
		}
		slot := valueobject.TimeRange{Start: start, End: start.Add(step)}
		slots = append(slots, Slot{
			Start:     slot.Start,
			End:       slot.End,
			Available: slotFree(slot, blocks, windows),
		})
	}
	return slots, nil
}

func slotFree(slot valueobject.TimeRange, blocks []*entity.CalendarBlock, windows []valueobject.TimeRange) bool {
	for _, b := range blocks {
		if b.Conflicts(slot) {
			return false
		}
	}
	if len(windows) == 0 {
		return true
	}
	for _, w := range windows {
		if w.Contains(slot) {
			return true
		}
	}
	return false
}

// mergeWindows склеивает пересекающиеся и смежные окна.
func mergeWindows(windows []valueobject.TimeRange) []valueobject.TimeRange {
	if len(windows) < 2 {
		return windows
	}
	sorted := make([]valueobject.TimeRange, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := sorted[:1]
	for _, w := range sorted[1:] {
		cur := &merged[len(merged)-1]
		if w.Start.After(cur.End) {
			merged = append(merged, w)
			continue
		}
		if w.End.After(cur.End) {
			cur.End = w.End
		}
	}
	return merged
}

type UpcomingBlocksUseCase struct {
	blocks   repository.CalendarBlockRepository
	settings Settings
	clock    clock.Clock
}

func NewUpcomingBlocksUseCase(blocks repository.CalendarBlockRepository, settings Settings, clk clock.Clock) *UpcomingBlocksUseCase {
	return &UpcomingBlocksUseCase{blocks: blocks, settings: settings, clock: clk}
}

func (uc *UpcomingBlocksUseCase) Execute(ctx context.Context, ownerID uuid.UUID, days int) ([]*entity.CalendarBlock, error) {
	if days <= 0 {
		days = uc.settings.UpcomingDays
	}
	if days <= 0 || days > 366 {
		return nil, apperror.New(apperror.ErrCodeValidation, "days must be between 1 and 366")
	}

	from := uc.clock.Now()
	to := from.AddDate(0, 0, days)
	return uc.blocks.List(ctx, repository.BlockFilter{
		OwnerID:     ownerID,
		From:        &from,
		To:          &to,
		WithBooking: true,
	})
}
