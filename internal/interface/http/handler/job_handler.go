package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/job"
)

type JobUseCases struct {
	Create *job.CreatePostingUseCase
	Apply  *job.ApplyUseCase
	List   *job.ListUseCase
	Select *job.SelectApplicantUseCase
}

type JobHandler struct {
	uc JobUseCases
}

func NewJobHandler(uc JobUseCases) *JobHandler {
	return &JobHandler{uc: uc}
}

func (h *JobHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateJobRequest
	if !bindJSON(c, &req) {
		return
	}

	posting, err := h.uc.Create.Execute(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToJobPostingResponse(posting))
}

func (h *JobHandler) Mine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postings, err := h.uc.List.Mine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MapSlice(postings, dto.ToJobPostingResponse))
}

func (h *JobHandler) Applied(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	apps, err := h.uc.List.Applied(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MapSlice(apps, dto.ToJobApplicationResponse))
}

func (h *JobHandler) Apply(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ApplyJobRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	app, err := h.uc.Apply.Execute(c.Request.Context(), jobID, userID, job.ApplyInput{
		CoverLetter:  req.CoverLetter,
		ProposedRate: req.ProposedRate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToJobApplicationResponse(app))
}

// Select POST /job-applications/:id/select: организатор выбирает исполнителя, создаётся бронирование.
func (h *JobHandler) Select(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	appID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.uc.Select.Execute(c.Request.Context(), appID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToBookingResponse(b))
}
