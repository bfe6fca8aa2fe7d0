package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendar"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendarfeed"
)

// CalendarUseCases сценарии календаря, нужные хэндлеру.
type CalendarUseCases struct {
	Create       *calendar.CreateBlockUseCase
	Update       *calendar.UpdateBlockUseCase
	Delete       *calendar.DeleteBlockUseCase
	Get          *calendar.GetBlockUseCase
	List         *calendar.ListBlocksUseCase
	Availability *calendar.CheckAvailabilityUseCase
	Slots        *calendar.AvailableSlotsUseCase
	Upcoming     *calendar.UpcomingBlocksUseCase
	Feed         *calendarfeed.FeedUseCase
}

type CalendarHandler struct {
	uc  CalendarUseCases
	loc *time.Location
}

// NewCalendarHandler loc используется для дат без времени в query-параметрах.
func NewCalendarHandler(uc CalendarUseCases, loc *time.Location) *CalendarHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarHandler{uc: uc, loc: loc}
}

// ListBlocks GET /calendar/blocks?from&to&reasons
func (h *CalendarHandler) ListBlocks(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	from, ok := optionalTimeQuery(c, "from", h.loc)
	if !ok {
		return
	}
	to, ok := optionalTimeQuery(c, "to", h.loc)
	if !ok {
		return
	}

	blocks, err := h.uc.List.Execute(c.Request.Context(), calendar.ListBlocksInput{
		OwnerID: userID,
		From:    from,
		To:      to,
		Reasons: csvQuery(c, "reasons"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBlockResponses(blocks))
}

func (h *CalendarHandler) CreateBlock(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateBlockRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = string(valueobject.BlockReasonManual)
	}

	block, err := h.uc.Create.Execute(c.Request.Context(), calendar.CreateBlockInput{
		OwnerID:           userID,
		Start:             req.StartTime,
		End:               req.EndTime,
		Reason:            req.Reason,
		Title:             req.Title,
		Notes:             req.Notes,
		VisibilityMessage: req.VisibilityMessage,
		Timezone:          req.Timezone,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToBlockResponse(block))
}

func (h *CalendarHandler) GetBlock(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	block, err := h.uc.Get.Execute(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBlockResponse(block))
}

func (h *CalendarHandler) UpdateBlock(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := entity.BlockPatch{
		Start:             req.StartTime,
		End:               req.EndTime,
		Title:             req.Title,
		Notes:             req.Notes,
		VisibilityMessage: req.VisibilityMessage,
		IsRecurring:       req.IsRecurring,
	}
	if req.Reason != nil {
		reason, err := valueobject.NewBlockReason(*req.Reason)
		if err != nil {
			response.Error(c, err)
			return
		}
		patch.Reason = &reason
	}
	if req.RecurrencePattern != nil && *req.RecurrencePattern != "" {
		p, err := valueobject.NewRecurrencePattern(*req.RecurrencePattern)
		if err != nil {
			response.Error(c, err)
			return
		}
		patch.RecurrencePattern = &p
	}

	block, err := h.uc.Update.Execute(c.Request.Context(), id, userID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBlockResponse(block))
}

func (h *CalendarHandler) DeleteBlock(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.uc.Delete.Execute(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Availability GET /calendar/availability/:userId?from&to
func (h *CalendarHandler) Availability(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	ownerID, ok := paramUUID(c, "userId")
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from", h.loc)
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to", h.loc)
	if !ok {
		return
	}

	days, err := h.uc.Availability.Execute(c.Request.Context(), ownerID, from.In(h.loc), to.In(h.loc))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDayAvailabilityResponses(days))
}

// Slots GET /calendar/slots/:userId?date&slot_minutes&work_start&work_end
func (h *CalendarHandler) Slots(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	ownerID, ok := paramUUID(c, "userId")
	if !ok {
		return
	}
	date, err := valueobject.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	workStart, ok := parseOptionalIntQuery(c, "work_start")
	if !ok {
		return
	}
	workEnd, ok := parseOptionalIntQuery(c, "work_end")
	if !ok {
		return
	}

	slots, err := h.uc.Slots.Execute(c.Request.Context(), calendar.SlotsInput{
		OwnerID:     ownerID,
		Date:        date,
		SlotMinutes: parseIntQuery(c, "slot_minutes", 0),
		WorkStart:   workStart,
		WorkEnd:     workEnd,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSlotResponses(slots))
}

// Upcoming GET /calendar/upcoming?days
func (h *CalendarHandler) Upcoming(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	blocks, err := h.uc.Upcoming.Execute(c.Request.Context(), userID, parseIntQuery(c, "days", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBlockResponses(blocks))
}

// Feed GET /calendar/feed?from&to&filter&q
func (h *CalendarHandler) Feed(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from", h.loc)
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to", h.loc)
	if !ok {
		return
	}
	filter, valid := calendarfeed.ParseFilter(c.Query("filter"))
	if !valid {
		response.BadRequest(c, "filter must be one of all, bookings, jobs, blocks")
		return
	}

	feed, err := h.uc.Feed.Execute(c.Request.Context(), calendarfeed.Query{
		UserID: userID,
		From:   from,
		To:     to,
		Filter: filter,
		Search: c.Query("q"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, feed)
}
