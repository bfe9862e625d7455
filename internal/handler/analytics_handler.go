package handler

import (
	"net/http"

	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analytics service.AnalyticsService
	insight   service.InsightService
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics service.AnalyticsService, insight service.InsightService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, insight: insight, logger: logger}
}

// Summary GET /api/v1/analytics - сводка по ссылкам владельца
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.analytics.Summarize(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Clicks GET /api/v1/clicks?filter=24h|7 days|28 days&startDate=&endDate=&shortCode=
func (h *AnalyticsHandler) Clicks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	start, err := optionalDate(c, "startDate", false)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	end, err := optionalDate(c, "endDate", true)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	insight, err := h.insight.Build(c.Request.Context(), service.InsightQuery{
		UserID:    userID,
		Filter:    c.Query("filter"),
		StartDate: start,
		EndDate:   end,
		ShortCode: c.Query("shortCode"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, insight)
}
