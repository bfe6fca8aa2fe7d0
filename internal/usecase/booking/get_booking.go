package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

type GetBookingUseCase struct {
	deps Deps
}

func NewGetBookingUseCase(deps Deps) *GetBookingUseCase {
	return &GetBookingUseCase{deps: deps}
}

func (uc *GetBookingUseCase) Execute(ctx context.Context, bookingID, viewerID uuid.UUID) (*entity.Booking, error) {
	return load(ctx, uc.deps, bookingID, viewerID)
}

type ListBookingsInput struct {
	UserID   uuid.UUID
	Role     string
	Statuses []string
}

type ListBookingsUseCase struct {
	deps Deps
}

func NewListBookingsUseCase(deps Deps) *ListBookingsUseCase {
	return &ListBookingsUseCase{deps: deps}
}

func (uc *ListBookingsUseCase) Execute(ctx context.Context, input ListBookingsInput) ([]*entity.Booking, error) {
	role := repository.BookingRole(input.Role)
	switch role {
	case "":
		role = repository.BookingRoleBoth
	case repository.BookingRoleClient, repository.BookingRoleTalent, repository.BookingRoleBoth:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "role must be client, talent or both")
	}

	filter := repository.BookingFilter{UserID: input.UserID, Role: role}
	for _, s := range input.Statuses {
		status, err := valueobject.NewBookingStatus(s)
		if err != nil {
			return nil, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	return uc.deps.Bookings.List(ctx, filter)
}

type UpcomingBookingsUseCase struct {
	deps Deps
}

func NewUpcomingBookingsUseCase(deps Deps) *UpcomingBookingsUseCase {
	return &UpcomingBookingsUseCase{deps: deps}
}

// Execute подтверждённые бронирования, начинающиеся в ближайшие days дней.
func (uc *UpcomingBookingsUseCase) Execute(ctx context.Context, userID uuid.UUID, days int) ([]*entity.Booking, error) {
	if days <= 0 {
		days = 30
	}
	if days > 366 {
		return nil, apperror.New(apperror.ErrCodeValidation, "days must be between 1 and 366")
	}

	from := uc.deps.now().Now()
	to := from.Add(time.Duration(days) * 24 * time.Hour)
	return uc.deps.Bookings.List(ctx, repository.BookingFilter{
		UserID:     userID,
		Role:       repository.BookingRoleBoth,
		Statuses:   []valueobject.BookingStatus{valueobject.BookingStatusAccepted, valueobject.BookingStatusInProgress},
		StartsFrom: &from,
		StartsTo:   &to,
	})
}

type BookingStatsUseCase struct {
	deps Deps
}

func NewBookingStatsUseCase(deps Deps) *BookingStatsUseCase {
	return &BookingStatsUseCase{deps: deps}
}

func (uc *BookingStatsUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.BookingStats, error) {
	bookings, err := uc.deps.Bookings.List(ctx, repository.BookingFilter{UserID: userID, Role: repository.BookingRoleBoth})
	if err != nil {
		return nil, err
	}

	stats := &entity.BookingStats{
		AsClient: map[valueobject.BookingStatus]int{},
		AsTalent: map[valueobject.BookingStatus]int{},
	}
	for _, b := range bookings {
		completed := b.Status == valueobject.BookingStatusCompleted
		if b.ClientID == userID {
			stats.AsClient[b.Status]++
			stats.ClientTotal++
			if completed {
				stats.TotalSpent += b.TotalAmount.Amount
			}
		}
		if b.TalentID == userID {
			stats.AsTalent[b.Status]++
			stats.TalentTotal++
			if completed {
				stats.TotalEarned += b.TotalAmount.Amount
			}
		}
	}
	return stats, nil
}
