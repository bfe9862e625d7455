package handler

import (
	"net/http"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admin   service.AdminService
	reviews service.ReviewService
	logger  *zap.Logger
}

func NewAdminHandler(admin service.AdminService, reviews service.ReviewService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, reviews: reviews, logger: logger}
}

func (h *AdminHandler) Insight(c *gin.Context) {
	insight, err := h.admin.Insight(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, insight)
}

// SubmitReview POST /api/v1/reviews - заявка на модерацию адреса
func (h *AdminHandler) SubmitReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidRequest(c, err)
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), userID, &input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *AdminHandler) ListReviews(c *gin.Context) {
	page, err := pagination(c)
	if err != nil {
		invalidRequest(c, err)
		return
	}

	reviews, err := h.reviews.List(c.Request.Context(), page)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}
