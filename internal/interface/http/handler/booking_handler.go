package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/booking"
	"github.com/ties-together/marketplace-backend/internal/usecase/invoice"
)

type BookingUseCases struct {
	Create   *booking.CreateBookingUseCase
	Get      *booking.GetBookingUseCase
	List     *booking.ListBookingsUseCase
	Upcoming *booking.UpcomingBookingsUseCase
	Stats    *booking.BookingStatsUseCase
	Accept   *booking.AcceptBookingUseCase
	Decline  *booking.DeclineBookingUseCase
	Cancel   *booking.CancelBookingUseCase
	Start    *booking.StartBookingUseCase
	Complete *booking.CompleteBookingUseCase
	Checkout *booking.CreateCheckoutUseCase

	Invoice    *invoice.GetUseCase
	InvoicePDF *invoice.RenderPDFUseCase
}

type BookingHandler struct {
	uc BookingUseCases
}

func NewBookingHandler(uc BookingUseCases) *BookingHandler {
	return &BookingHandler{uc: uc}
}

func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.uc.Create.Execute(c.Request.Context(), booking.CreateBookingInput{
		ClientID:           userID,
		TalentID:           req.TalentID,
		Start:              req.StartDate,
		End:                req.EndDate,
		TotalAmount:        req.TotalAmount,
		Currency:           req.Currency,
		ServiceDescription: req.ServiceDescription,
		ClientMessage:      req.ClientMessage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToBookingResponse(b))
}

// List GET /bookings?role=client|talent|both&status=pending,accepted
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	bookings, err := h.uc.List.Execute(c.Request.Context(), booking.ListBookingsInput{
		UserID:   userID,
		Role:     c.Query("role"),
		Statuses: csvQuery(c, "status"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponses(bookings))
}

func (h *BookingHandler) Upcoming(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	bookings, err := h.uc.Upcoming.Execute(c.Request.Context(), userID, parseIntQuery(c, "days", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponses(bookings))
}

func (h *BookingHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.uc.Stats.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBookingStatsResponse(stats))
}

func (h *BookingHandler) Get(c *gin.Context) {
	h.transition(c, nil, func(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
		return h.uc.Get.Execute(ctx, id, userID)
	})
}

func (h *BookingHandler) Accept(c *gin.Context) {
	var req dto.BookingResponseRequest
	h.transition(c, &req, func(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
		return h.uc.Accept.Execute(ctx, id, userID, req.Response)
	})
}

func (h *BookingHandler) Decline(c *gin.Context) {
	var req dto.BookingResponseRequest
	h.transition(c, &req, func(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
		return h.uc.Decline.Execute(ctx, id, userID, req.Response)
	})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req dto.CancelBookingRequest
	h.transition(c, &req, func(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
		return h.uc.Cancel.Execute(ctx, id, userID, req.Reason)
	})
}

func (h *BookingHandler) Start(c *gin.Context) {
	h.transition(c, nil, func(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
		return h.uc.Start.Execute(ctx, id, userID)
	})
}

func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, nil, func(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
		return h.uc.Complete.Execute(ctx, id, userID)
	})
}

// transition общий каркас POST /bookings/:id/<action>: пользователь, id, необязательное тело.
func (h *BookingHandler) transition(c *gin.Context, body any, run func(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error)) {
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

	b, err := run(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(b))
}

func (h *BookingHandler) Checkout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.uc.Checkout.Execute(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToCheckoutResponse(result))
}

func (h *BookingHandler) Invoice(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	inv, err := h.uc.Invoice.Execute(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToInvoiceResponse(inv))
}

func (h *BookingHandler) InvoicePDF(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	pdf, filename, err := h.uc.InvoicePDF.Execute(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
