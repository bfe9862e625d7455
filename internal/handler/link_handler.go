package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service        service.LinkService
	clickProcessor service.ClickProcessor
	baseURL        string
	fallbackURL    string
	logger         *zap.Logger
}

func NewLinkHandler(
	service service.LinkService,
	clickProcessor service.ClickProcessor,
	baseURL, fallbackURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:        service,
		clickProcessor: clickProcessor,
		baseURL:        baseURL,
		fallbackURL:    fallbackURL,
		logger:         logger,
	}
}

// LinkResponse ссылка вместе с готовым коротким адресом
type LinkResponse struct {
	*models.Link
	ShortURL string `json:"short_url"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *LinkHandler) response(link *models.Link) LinkResponse {
	return LinkResponse{Link: link, ShortURL: h.baseURL + "/" + link.ShortCode}
}

// CreateLink godoc
// @Summary Create a short link
// @Description Create a new shortened URL with optional code, type, expiration, UTM and tags
// @Tags links
// @Accept json
// @Produce json
// @Param request body models.CreateLinkInput true "Link creation request"
// @Success 201 {object} LinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		invalidRequest(c, err)
		return
	}

	link, err := h.service.Create(c.Request.Context(), userID, &input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Link created", zap.Int64("link_id", link.ID), zap.String("short_code", link.ShortCode))
	c.JSON(http.StatusCreated, h.response(link))
}

// ListOwn GET /api/v1/links?page=&limit=&deleted=
func (h *LinkHandler) ListOwn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := pagination(c)
	if err != nil {
		invalidRequest(c, err)
		return
	}
	deleted, err := optionalBool(c, "deleted")
	if err != nil {
		invalidRequest(c, err)
		return
	}

	links, err := h.service.ListOwn(c.Request.Context(), userID, deleted, page)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// ListAll GET /api/v1/links/all?show_me=&deleted=&expired=
func (h *LinkHandler) ListAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := pagination(c)
	if err != nil {
		invalidRequest(c, err)
		return
	}

	var filter service.AllLinksFilter
	showMe, err := optionalBool(c, "show_me")
	if err != nil {
		invalidRequest(c, err)
		return
	}
	filter.ShowMe = showMe != nil && *showMe
	if filter.Deleted, err = optionalBool(c, "deleted"); err != nil {
		invalidRequest(c, err)
		return
	}
	if filter.Expired, err = optionalBool(c, "expired"); err != nil {
		invalidRequest(c, err)
		return
	}

	links, err := h.service.ListAll(c.Request.Context(), userID, filter, page)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

func (h *LinkHandler) GetLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	link, err := h.service.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.response(link))
}

// UpdateLink godoc
// @Summary Update a short link
// @Description Partially update a link; tags, when given, replace the current set
// @Tags links
// @Accept json
// @Produce json
// @Param id path int true "Link ID"
// @Param request body models.UpdateLinkInput true "Fields to change"
// @Success 200 {object} LinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/links/{id} [patch]
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input models.UpdateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidRequest(c, err)
		return
	}

	link, err := h.service.Update(c.Request.Context(), userID, id, &input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.response(link))
}

// DeleteLink godoc
// @Summary Delete a short link
// @Description Soft delete a link; it can be restored later
// @Tags links
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{id} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Link deleted successfully"})
}

func (h *LinkHandler) RestoreLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Restore(c.Request.Context(), userID, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Link restored successfully"})
}

func (h *LinkHandler) ArchiveLink(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *LinkHandler) UnarchiveLink(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *LinkHandler) setArchived(c *gin.Context, archived bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	link, err := h.service.SetArchived(c.Request.Context(), userID, id, archived)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.response(link))
}

func (h *LinkHandler) RemoveUTM(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	link, err := h.service.RemoveUTM(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.response(link))
}

// GetStats godoc
// @Summary Get click statistics for a short link
// @Description Get total and unique click counts for a shortened URL
// @Tags links
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} models.LinkStats
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{id}/stats [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Redirect to the original URL by short code and record the click asynchronously
// @Tags links
// @Param code path string true "Short code"
// @Success 307
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	res, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		h.logger.Debug("Link not resolved", zap.String("code", code), zap.Error(err))
		if h.fallbackURL != "" && (errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrGone)) {
			c.Redirect(http.StatusFound, h.fallbackURL)
			return
		}
		writeError(c, h.logger, err)
		return
	}

	// Асинхронная запись статистики
	clickEvent := &models.ClickEvent{
		LinkID:    res.LinkID,
		ShortCode: res.ShortCode,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := h.clickProcessor.Enqueue(c.Request.Context(), clickEvent); err != nil {
		h.logger.Debug("Failed to record click (non-blocking)", zap.Error(err))
	}

	c.Redirect(http.StatusTemporaryRedirect, res.Destination)
}
