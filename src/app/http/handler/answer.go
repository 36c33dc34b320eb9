package handler

import (
	"github.com/gin-gonic/gin"

	"qnadonate/src/app/http/dto"
	"qnadonate/src/app/http/response"
	"qnadonate/src/app/middleware"
	"qnadonate/src/core/usecase"
)

// AnswerHandler handles answer endpoints.
type AnswerHandler struct {
	answerService *usecase.AnswerService
}

func NewAnswerHandler(answerService *usecase.AnswerService) *AnswerHandler {
	return &AnswerHandler{answerService: answerService}
}

// Create handles POST /v1/answers.
func (h *AnswerHandler) Create(c *gin.Context) {
	var req dto.CreateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid payload", middleware.GetRequestID(c))
		return
	}

	a, err := h.answerService.Create(c.Request.Context(), req.QuestionID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto.AnswerResponse{}.FromDomain(a))
}

// Get handles GET /v1/answers/:answer_id. An unknown id yields data: null.
func (h *AnswerHandler) Get(c *gin.Context) {
	a, err := h.answerService.Get(c.Request.Context(), c.Param("answer_id"))
	if err != nil {
		fail(c, err)
		return
	}
	if a == nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, dto.AnswerResponse{}.FromDomain(a))
}

// Donations handles GET /v1/answers/:answer_id/donations.
func (h *AnswerHandler) Donations(c *gin.Context) {
	ds, err := h.answerService.ListDonations(c.Request.Context(), c.Param("answer_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.Donations(ds))
}
