package handler

import (
	"github.com/gin-gonic/gin"

	"qnadonate/src/app/http/dto"
	"qnadonate/src/app/http/response"
	"qnadonate/src/app/middleware"
	"qnadonate/src/core/usecase"
)

// QuestionHandler handles question endpoints.
type QuestionHandler struct {
	questionService *usecase.QuestionService
}

func NewQuestionHandler(questionService *usecase.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// Create handles POST /v1/questions.
func (h *QuestionHandler) Create(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid payload", middleware.GetRequestID(c))
		return
	}

	q, err := h.questionService.Create(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto.QuestionResponse{}.FromDomain(q))
}

// List handles GET /v1/questions.
func (h *QuestionHandler) List(c *gin.Context) {
	qs, err := h.questionService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.Questions(qs))
}

// Get handles GET /v1/questions/:question_id. An unknown id yields data: null.
func (h *QuestionHandler) Get(c *gin.Context) {
	q, err := h.questionService.Get(c.Request.Context(), c.Param("question_id"))
	if err != nil {
		fail(c, err)
		return
	}
	if q == nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, dto.QuestionResponse{}.FromDomain(q))
}

// Answers handles GET /v1/questions/:question_id/answers.
func (h *QuestionHandler) Answers(c *gin.Context) {
	as, err := h.questionService.ListAnswers(c.Request.Context(), c.Param("question_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.Answers(as))
}

// fail attaches err for the logging middleware and writes the mapped response.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	response.FromDomainError(c, err, middleware.GetRequestID(c))
}
