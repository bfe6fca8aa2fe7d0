package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

type CreateBlockInput struct {
	OwnerID           uuid.UUID
	Start             time.Time
	End               time.Time
	Reason            string
	Title             *string
	Notes             *string
	VisibilityMessage *string
	Timezone          string
	IsRecurring       bool
	RecurrencePattern *string
}

type CreateBlockUseCase struct {
	blocks   repository.CalendarBlockRepository
	settings Settings
	effects  *effects.Effects
}

func NewCreateBlockUseCase(blocks repository.CalendarBlockRepository, settings Settings, fx *effects.Effects) *CreateBlockUseCase {
	return &CreateBlockUseCase{blocks: blocks, settings: settings, effects: fx}
}

func (uc *CreateBlockUseCase) Execute(ctx context.Context, input CreateBlockInput) (*entity.CalendarBlock, error) {
	r, err := valueobject.NewTimeRange(input.Start, input.End)
	if err != nil {
		return nil, err
	}
	if r.Duration() > uc.settings.maxRange() {
		return nil, apperror.New(apperror.ErrCodeValidation, "block range is too long")
	}

	reason, err := valueobject.NewBlockReason(input.Reason)
	if err != nil {
		return nil, err
	}
	if reason == valueobject.BlockReasonBooking {
		return nil, apperror.New(apperror.ErrCodeValidation, "booking blocks are created by accepting a booking")
	}

	details := entity.BlockDetails{
		Title:             input.Title,
		Notes:             input.Notes,
		VisibilityMessage: input.VisibilityMessage,
		Timezone:          input.Timezone,
		IsRecurring:       input.IsRecurring,
	}
	if details.Timezone == "" {
		details.Timezone = uc.settings.location().String()
	}
	if input.RecurrencePattern != nil && *input.RecurrencePattern != "" {
		p, err := valueobject.NewRecurrencePattern(*input.RecurrencePattern)
		if err != nil {
			return nil, err
		}
		details.RecurrencePattern = &p
	}

	block, err := entity.NewCalendarBlock(input.OwnerID, r, reason, details)
	if err != nil {
		return nil, err
	}

	if reason.IsBlocking() {
		free, err := IsRangeFree(ctx, uc.blocks, input.OwnerID, r, nil)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, apperror.ErrBlockOverlap
		}
	}

	if err := uc.blocks.Create(ctx, block); err != nil {
		return nil, err
	}

	uc.effects.InvalidateFeed(ctx, block.OwnerID)
	return block, nil
}

type UpdateBlockUseCase struct {
	blocks   repository.CalendarBlockRepository
	settings Settings
	effects  *effects.Effects
}

func NewUpdateBlockUseCase(blocks repository.CalendarBlockRepository, settings Settings, fx *effects.Effects) *UpdateBlockUseCase {
	return &UpdateBlockUseCase{blocks: blocks, settings: settings, effects: fx}
}

func (uc *UpdateBlockUseCase) Execute(ctx context.Context, id, ownerID uuid.UUID, patch entity.BlockPatch) (*entity.CalendarBlock, error) {
	block, err := uc.blocks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !block.IsOwnedBy(ownerID) {
		return nil, apperror.ErrForbidden
	}

	if err := block.Apply(patch); err != nil {
		return nil, err
	}
	if block.Range.Duration() > uc.settings.maxRange() {
		return nil, apperror.New(apperror.ErrCodeValidation, "block range is too long")
	}

	if block.Reason.IsBlocking() {
		free, err := IsRangeFree(ctx, uc.blocks, ownerID, block.Range, &block.ID)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, apperror.ErrBlockOverlap
		}
	}

	if err := uc.blocks.Update(ctx, block); err != nil {
		return nil, err
	}

	uc.effects.InvalidateFeed(ctx, ownerID)
	return block, nil
}

type DeleteBlockUseCase struct {
	blocks  repository.CalendarBlockRepository
	effects *effects.Effects
}

func NewDeleteBlockUseCase(blocks repository.CalendarBlockRepository, fx *effects.Effects) *DeleteBlockUseCase {
	return &DeleteBlockUseCase{blocks: blocks, effects: fx}
}

// Execute идемпотентен: удаление отсутствующего блока не ошибка.
func (uc *DeleteBlockUseCase) Execute(ctx context.Context, id, ownerID uuid.UUID) error {
	block, err := uc.blocks.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrBlockNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !block.IsOwnedBy(ownerID) {
		return apperror.ErrForbidden
	}
	if block.IsManaged() {
		return apperror.New(apperror.ErrCodeBadRequest, "booking blocks are released by cancelling the booking")
	}

	if err := uc.blocks.Delete(ctx, id); err != nil {
		return err
	}

	uc.effects.InvalidateFeed(ctx, ownerID)
	return nil
}

type GetBlockUseCase struct {
	blocks repository.CalendarBlockRepository
}

func NewGetBlockUseCase(blocks repository.CalendarBlockRepository) *GetBlockUseCase {
	return &GetBlockUseCase{blocks: blocks}
}

func (uc *GetBlockUseCase) Execute(ctx context.Context, id, viewerID uuid.UUID) (*entity.CalendarBlock, error) {
	block, err := uc.blocks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !block.IsOwnedBy(viewerID) {
		return nil, apperror.ErrForbidden
	}
	return block, nil
}

type ListBlocksInput struct {
	OwnerID uuid.UUID
	From    *time.Time
	To      *time.Time
	Reasons []string
}

type ListBlocksUseCase struct {
	blocks repository.CalendarBlockRepository
}

func NewListBlocksUseCase(blocks repository.CalendarBlockRepository) *ListBlocksUseCase {
	return &ListBlocksUseCase{blocks: blocks}
}

func (uc *ListBlocksUseCase) Execute(ctx context.Context, input ListBlocksInput) ([]*entity.CalendarBlock, error) {
	if input.From != nil && input.To != nil && !input.From.Before(*input.To) {
		return nil, apperror.New(apperror.ErrCodeValidation, "End date must be after start date")
	}

	filter := repository.BlockFilter{
		OwnerID:     input.OwnerID,
		From:        input.From,
		To:          input.To,
		WithBooking: true,
	}
	for _, r := range input.Reasons {
		reason, err := valueobject.NewBlockReason(r)
		if err != nil {
			return nil, err
		}
		filter.Reasons = append(filter.Reasons, reason)
	}

	return uc.blocks.List(ctx, filter)
}

// IsRangeFree проверяет, что у владельца нет блокирующих блоков, пересекающих r.
func IsRangeFree(ctx context.Context, blocks repository.CalendarBlockRepository, ownerID uuid.UUID, r valueobject.TimeRange, excludeID *uuid.UUID) (bool, error) {
	conflicts, err := blocks.List(ctx, repository.Overlapping(ownerID, r, excludeID))
	if err != nil {
		return false, err
	}
	for _, b := range conflicts {
		if b.Conflicts(r) {
			return false, nil
		}
	}
	return true, nil
}
