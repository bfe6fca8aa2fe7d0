package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/availability"
)

type AvailabilityUseCases struct {
	Create      *availability.CreateRequestUseCase
	Respond     *availability.RespondUseCase
	BulkRespond *availability.BulkRespondUseCase
	List        *availability.ListRequestsUseCase
}

type AvailabilityHandler struct {
	uc AvailabilityUseCases
}

func NewAvailabilityHandler(uc AvailabilityUseCases) *AvailabilityHandler {
	return &AvailabilityHandler{uc: uc}
}

func (h *AvailabilityHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := valueobject.ParseDate(req.RequestedDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	created, err := h.uc.Create.Execute(c.Request.Context(), availability.CreateRequestInput{
		RequesterID:   userID,
		TalentID:      req.TalentID,
		RequestedDate: date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Message:       req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToAvailabilityRequestResponse(created))
}

// Pending GET /availability-requests/pending: входящие запросы таланта.
func (h *AvailabilityHandler) Pending(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.uc.List.Pending(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToAvailabilityRequestResponses(items))
}

func (h *AvailabilityHandler) Sent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.uc.List.Sent(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToAvailabilityRequestResponses(items))
}

func (h *AvailabilityHandler) All(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	all, err := h.uc.List.All(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToAllAvailabilityRequestsResponse(all))
}

func (h *AvailabilityHandler) Respond(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RespondAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.uc.Respond.Execute(c.Request.Context(), availability.RespondInput{
		RequestID: id,
		TalentID:  userID,
		Status:    req.Status,
		Message:   req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToAvailabilityRequestResponse(updated))
}

func (h *AvailabilityHandler) BulkRespond(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.BulkRespondAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.uc.BulkRespond.Execute(c.Request.Context(), req.IDs, userID, req.Status, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBulkRespondResponse(result))
}
