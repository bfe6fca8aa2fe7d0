package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/joboffer"
)

type JobOfferUseCases struct {
	Send     *joboffer.SendOfferUseCase
	View     *joboffer.MarkViewedUseCase
	Accept   *joboffer.RespondOfferUseCase
	Reject   *joboffer.RespondOfferUseCase
	Withdraw *joboffer.WithdrawOfferUseCase
	Counter  *joboffer.CounterOfferUseCase
	Convert  *joboffer.ConvertToBookingUseCase
	Get      *joboffer.GetOfferUseCase
	List     *joboffer.ListOffersUseCase
	Summary  *joboffer.SummaryUseCase
}

type JobOfferHandler struct {
	uc JobOfferUseCases
}

func NewJobOfferHandler(uc JobOfferUseCases) *JobOfferHandler {
	return &JobOfferHandler{uc: uc}
}

func (h *JobOfferHandler) Send(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.SendOfferRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.RecipientID == userID {
		response.BadRequest(c, "you cannot send an offer to yourself")
		return
	}

	offer, err := h.uc.Send.Execute(c.Request.Context(), userID, req.RecipientID, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToJobOfferResponse(offer))
}

// Received GET /job-offers/received?status=
func (h *JobOfferHandler) Received(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	offers, err := h.uc.List.Received(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobOfferResponses(offers))
}

func (h *JobOfferHandler) Sent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	offers, err := h.uc.List.Sent(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobOfferResponses(offers))
}

func (h *JobOfferHandler) Summary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	summary, err := h.uc.Summary.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOffersSummaryResponse(summary))
}

func (h *JobOfferHandler) Get(c *gin.Context) {
	h.act(c, nil, func(ctx context.Context, id, userID uuid.UUID) (*entity.JobOffer, error) {
		return h.uc.Get.Execute(ctx, id, userID)
	})
}

func (h *JobOfferHandler) View(c *gin.Context) {
	h.act(c, nil, func(ctx context.Context, id, userID uuid.UUID) (*entity.JobOffer, error) {
		return h.uc.View.Execute(ctx, id, userID)
	})
}

func (h *JobOfferHandler) Accept(c *gin.Context) {
	var req dto.OfferMessageRequest
	h.act(c, &req, func(ctx context.Context, id, userID uuid.UUID) (*entity.JobOffer, error) {
		return h.uc.Accept.Execute(ctx, id, userID, req.Message)
	})
}

func (h *JobOfferHandler) Reject(c *gin.Context) {
	var req dto.OfferMessageRequest
	h.act(c, &req, func(ctx context.Context, id, userID uuid.UUID) (*entity.JobOffer, error) {
		return h.uc.Reject.Execute(ctx, id, userID, req.Message)
	})
}

func (h *JobOfferHandler) Withdraw(c *gin.Context) {
	h.act(c, nil, func(ctx context.Context, id, userID uuid.UUID) (*entity.JobOffer, error) {
		return h.uc.Withdraw.Execute(ctx, id, userID)
	})
}

func (h *JobOfferHandler) act(c *gin.Context, body any, run func(ctx context.Context, id, userID uuid.UUID) (*entity.JobOffer, error)) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if body != nil && !bindOptionalJSON(c, body) {
		return
	}

	offer, err := run(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobOfferResponse(offer))
}

// Counter POST /job-offers/:id/counter: отвечает новым предложением.
func (h *JobOfferHandler) Counter(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CounterOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	counter, err := h.uc.Counter.Execute(c.Request.Context(), id, userID, req.ToInput(), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToJobOfferResponse(counter))
}

func (h *JobOfferHandler) Convert(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.uc.Convert.Execute(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ConvertOfferResponse{BookingID: b.ID, Booking: dto.ToBookingResponse(b)})
}
