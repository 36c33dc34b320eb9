package handler

import (
	"github.com/gin-gonic/gin"

	"qnadonate/src/app/http/dto"
	"qnadonate/src/app/http/response"
	"qnadonate/src/app/middleware"
	"qnadonate/src/core/usecase"
)

// DonationHandler handles donation endpoints.
type DonationHandler struct {
	donationService *usecase.DonationService
}

func NewDonationHandler(donationService *usecase.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// Donate handles POST /v1/donations.
func (h *DonationHandler) Donate(c *gin.Context) {
	var req dto.DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid payload", middleware.GetRequestID(c))
		return
	}

	d, err := h.donationService.Donate(c.Request.Context(), req.AnswerID, *req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto.DonationResponse{}.FromDomain(d))
}
