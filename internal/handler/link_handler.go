package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/qr"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
	"github.com/SergeiKhy/shortlink-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type LinkHandler struct {
	links     service.LinkService
	analytics service.AnalyticsService
	clicks    service.ClickRecorder
	baseURL   string
	logger    *zap.Logger
}

func NewLinkHandler(
	links service.LinkService,
	analytics service.AnalyticsService,
	clicks service.ClickRecorder,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		links:     links,
		analytics: analytics,
		clicks:    clicks,
		baseURL:   baseURL,
		logger:    logger,
	}
}

type CreateLinkRequest struct {
	URL         string  `json:"url" binding:"omitempty,http_url"`
	CustomAlias *string `json:"customAlias,omitempty"`
}

type LinkResponse struct {
	Code           string    `json:"code"`
	DestinationURL string    `json:"destination_url"`
	ShortURL       string    `json:"short_url"`
	CreatedAt      time.Time `json:"created_at"`
}

type QRLinks struct {
	PNG  string `json:"png"`
	JPEG string `json:"jpeg"`
	SVG  string `json:"svg"`
}

type CreateLinkResponse struct {
	LinkResponse
	QRCode QRLinks `json:"qr_code"`
}

type ListedLinkResponse struct {
	LinkResponse
	ClickCount int64 `json:"click_count"`
}

type AnalyticsResponse struct {
	LinkResponse
	models.Analytics
}

type DeleteLinkResponse struct {
	Message string       `json:"message"`
	Data    LinkResponse `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Home godoc
// @Summary Service banner
// @Tags system
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func Home(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to Url Shortener")
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "url-shortener"})
}

// ListLinks godoc
// @Summary List short links
// @Description List all links in creation order with their click counts
// @Tags links
// @Produce json
// @Success 200 {array} ListedLinkResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.links.ListLinks(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]ListedLinkResponse, 0, len(links))
	for i := range links {
		response = append(response, ListedLinkResponse{
			LinkResponse: h.project(&links[i].Link),
			ClickCount:   links[i].ClickCount,
		})
	}

	c.JSON(http.StatusOK, response)
}

// CreateLink godoc
// @Summary Create a short link
// @Description Create a new shortened URL. Without an alias an existing link for the same URL is returned.
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link creation request"
// @Success 200 {object} CreateLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			h.respondError(c, service.ErrInvalidURL)
			return
		}

		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be JSON",
		})
		return
	}

	link, err := h.links.CreateLink(c.Request.Context(), &models.CreateLinkInput{
		DestinationURL: req.URL,
		CustomAlias:    req.CustomAlias,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateLinkResponse{
		LinkResponse: h.project(link),
		QRCode:       h.qrLinks(link.Code),
	})
}

// GetAnalytics godoc
// @Summary Get click analytics
// @Description Grouped click counts and the ten most recent clicks for a short link
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} AnalyticsResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code}/analytics [get]
func (h *LinkHandler) GetAnalytics(c *gin.Context) {
	result, err := h.analytics.GetAnalytics(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		LinkResponse: h.project(result.Link),
		Analytics:    result.Analytics,
	})
}

// GetQRCode godoc
// @Summary QR code for a short link
// @Tags links
// @Produce png,jpeg,svg
// @Param code path string true "Short code"
// @Param format query string false "png, jpeg or svg" default(png)
// @Param download query bool false "Send as attachment"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code}/qr [get]
func (h *LinkHandler) GetQRCode(c *gin.Context) {
	format, err := qr.ParseFormat(c.Query("format"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	link, err := h.links.GetLink(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	img, err := qr.Render(h.shortURL(link.Code), format)
	if err != nil {
		h.respondError(c, err)
		return
	}

	disposition := "inline"
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		disposition = `attachment; filename="` + link.Code + "." + img.Extension + `"`
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// DeleteLink godoc
// @Summary Delete a short link
// @Description Delete a shortened URL and all its clicks
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} DeleteLinkResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	link, err := h.links.DeleteLink(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteLinkResponse{
		Message: "Link deleted successfully",
		Data:    h.project(link),
	})
}

// Redirect godoc
// @Summary Redirect to destination URL
// @Description Records the click and redirects to the destination URL
// @Tags links
// @Param code path string true "Short code"
// @Success 302
// @Failure 404 {object} ErrorResponse
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	link, err := h.links.GetLink(c.Request.Context(), code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Клик пишется до редиректа; ошибка записи редирект не отменяет
	_, err = h.clicks.Record(c.Request.Context(), &models.ClickEvent{
		LinkCode:  link.Code,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})
	if err != nil {
		h.logger.Error("Failed to record click", zap.String("code", code), zap.Error(err))
	}

	c.Redirect(http.StatusFound, link.DestinationURL)
}

func (h *LinkHandler) shortURL(code string) string {
	return h.baseURL + "/" + code
}

func (h *LinkHandler) project(link *models.Link) LinkResponse {
	return LinkResponse{
		Code:           link.Code,
		DestinationURL: link.DestinationURL,
		ShortURL:       h.shortURL(link.Code),
		CreatedAt:      link.CreatedAt,
	}
}

func (h *LinkHandler) qrLinks(code string) QRLinks {
	base := h.baseURL + "/api/v1/links/" + code + "/qr?format="
	return QRLinks{
		PNG:  base + string(qr.FormatPNG),
		JPEG: base + string(qr.FormatJPEG),
		SVG:  base + string(qr.FormatSVG),
	}
}

// respondError переводит ошибки сервисов в HTTP-ответ
func (h *LinkHandler) respondError(c *gin.Context, err error) {
	var (
		status   int
		response ErrorResponse
	)

	switch {
	case errors.Is(err, service.ErrURLRequired):
		status, response = http.StatusBadRequest, ErrorResponse{"url_required", "URL is required"}
	case errors.Is(err, service.ErrInvalidURL):
		status, response = http.StatusBadRequest, ErrorResponse{"invalid_url", "Invalid URL format"}
	case errors.Is(err, service.ErrInvalidAlias):
		status, response = http.StatusBadRequest, ErrorResponse{"invalid_alias", "Custom alias must be 3-20 characters: letters, digits, '_' or '-'"}
	case errors.Is(err, qr.ErrUnsupportedFormat):
		status, response = http.StatusBadRequest, ErrorResponse{"invalid_format", "Format must be png, jpeg or svg"}
	case errors.Is(err, service.ErrAliasTaken):
		status, response = http.StatusConflict, ErrorResponse{"alias_taken", "Custom alias is already in use"}
	case errors.Is(err, repository.ErrLinkNotFound):
		status, response = http.StatusNotFound, ErrorResponse{"not_found", "Link not found"}
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
		return
	}

	h.logger.Warn("Request rejected",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	)
	c.JSON(status, response)
}
