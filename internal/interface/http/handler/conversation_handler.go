package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/conversation"
)

type ConversationUseCases struct {
	Start    *conversation.StartConversationUseCase
	Send     *conversation.SendMessageUseCase
	AboutJob *conversation.SendAboutJobUseCase
	List     *conversation.ListConversationsUseCase
	Messages *conversation.ListMessagesUseCase
	MarkRead *conversation.MarkReadUseCase
	Delete   *conversation.DeleteMessageUseCase
	Search   *conversation.SearchUseCase
}

type ConversationHandler struct {
	uc ConversationUseCases
}

func NewConversationHandler(uc ConversationUseCases) *ConversationHandler {
	return &ConversationHandler{uc: uc}
}

// Start POST /conversations: ровно одно из user_id, booking_id, offer_id.
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.StartConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	given := 0
	for _, set := range []bool{req.UserID != nil, req.BookingID != nil, req.OfferID != nil} {
		if set {
			given++
		}
	}
	if given != 1 {
		response.BadRequest(c, "exactly one of user_id, booking_id or offer_id is required")
		return
	}

	ctx := c.Request.Context()
	var (
		conv *entity.Conversation
		err  error
	)
	switch {
	case req.UserID != nil:
		conv, err = h.uc.Start.WithUser(ctx, userID, *req.UserID)
	case req.BookingID != nil:
		conv, err = h.uc.Start.ForBooking(ctx, *req.BookingID, userID)
	default:
		conv, err = h.uc.Start.ForOffer(ctx, *req.OfferID, userID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToConversationResponse(conv))
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	previews, err := h.uc.List.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MapSlice(previews, dto.ToConversationPreviewResponse))
}

// Messages GET /conversations/:id/messages?limit&offset
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	msgs, err := h.uc.Messages.Execute(c.Request.Context(), id, userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MapSlice(msgs, dto.ToMessageResponse))
}

func (h *ConversationHandler) Send(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.uc.Send.Execute(c.Request.Context(), conversation.SendInput{
		ConversationID: id,
		SenderID:       userID,
		Body:           req.Body,
		ContextType:    req.ContextType,
		ContextID:      req.ContextID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToMessageResponse(msg))
}

func (h *ConversationHandler) MarkConversationRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	updated, err := h.uc.MarkRead.Conversation(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

func (h *ConversationHandler) MarkMessageRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	updated, err := h.uc.MarkRead.Message(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
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
	response.Success(c, gin.H{"deleted": true})
}

// SendAboutJob POST /jobs/:id/messages
func (h *ConversationHandler) SendAboutJob(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SendAboutJobRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.uc.AboutJob.Execute(c.Request.Context(), userID, req.RecipientID, jobID, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToMessageResponse(msg))
}

// SearchUsers GET /messages/users?q=
func (h *ConversationHandler) SearchUsers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	users, err := h.uc.Search.Users(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MapSlice(users, dto.ToUserSearchResponse))
}

// SearchMessages GET /messages/search?q=
func (h *ConversationHandler) SearchMessages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	msgs, err := h.uc.Search.Messages(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MapSlice(msgs, dto.ToMessageResponse))
}
