package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/promo-links/internal/middleware"
	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/SergeiKhy/promo-links/internal/repository"
	"github.com/SergeiKhy/promo-links/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

type LinkHandler struct {
	service service.LinkService
	journal repository.JournalRepository
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates the link handler. journal may be nil when the
// Postgres journal is disabled.
func NewLinkHandler(service service.LinkService, journal repository.JournalRepository, baseURL string, logger *zap.Logger) *LinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		service: service,
		journal: journal,
		baseURL: baseURL,
		logger:  logger,
	}
}

// CreateLinkRequest accepts both `url` and the legacy `longUrl` field.
type CreateLinkRequest struct {
	URL        string `json:"url"`
	LongURL    string `json:"longUrl"`
	VisitLimit *int   `json:"visit_limit,omitempty"`
	TTLSeconds *int   `json:"ttl_seconds,omitempty"`
}

type CreateLinkResponse struct {
	ShortCode  string    `json:"short_code"`
	ShortURL   string    `json:"short_url"`
	TargetURL  string    `json:"target_url"`
	OwnerID    string    `json:"owner_id"`
	VisitLimit int       `json:"visit_limit"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type UpdateLinkRequest struct {
	VisitLimit int `json:"visit_limit" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateLink godoc
// @Summary Create a short link
// @Description Create a short link limited by visit count and lifetime
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link creation request"
// @Success 201 {object} CreateLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	target := req.URL
	if target == "" {
		target = req.LongURL
	}

	owner, ok := middleware.OwnerID(c)
	if !ok {
		owner = uuid.NewString()
	}

	input := &models.CreateLinkInput{
		TargetURL: target,
		OwnerID:   owner,
	}
	if req.VisitLimit != nil {
		if *req.VisitLimit <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "visit_limit must be positive",
			})
			return
		}
		input.VisitLimit = *req.VisitLimit
	}
	if req.TTLSeconds != nil {
		if *req.TTLSeconds <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_ttl",
				Message: "ttl_seconds must be positive",
			})
			return
		}
		input.TTL = ttlFromSeconds(*req.TTLSeconds)
	}

	link, err := h.service.CreateLink(c.Request.Context(), input)
	if err != nil {
		h.logger.Warn("Failed to create link", zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateLinkResponse{
		ShortCode:  link.ID,
		ShortURL:   h.baseURL + link.ID,
		TargetURL:  link.TargetURL,
		OwnerID:    link.OwnerID,
		VisitLimit: link.VisitLimit,
		ExpiresAt:  link.ExpiresAt(),
		CreatedAt:  link.CreatedAt,
	})
}

// ttlFromSeconds переводит секунды в Duration без переполнения int64;
// слишком большие значения насыщаются, потолок LINK_MAX_TTL применяет сервис
func ttlFromSeconds(seconds int) time.Duration {
	if int64(seconds) > math.MaxInt64/int64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds) * time.Second
}

// Redirect godoc
// @Summary Redirect to the target URL
// @Description Counts one visit and redirects while the link is within its limits
// @Tags links
// @Param code path string true "Short code"
// @Success 302 {object} nil
// @Failure 404 {object} ErrorResponse
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	target, err := h.service.ResolveLink(c.Request.Context(), code)
	if err != nil {
		h.logger.Debug("Link not resolvable", zap.String("code", code), zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

// GetStats godoc
// @Summary Get link state
// @Description Visit count, limit and lifecycle state of a link, for its owner
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} models.LinkStats
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code} [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	owner, ok := h.requireOwner(c)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), c.Param("code"), owner)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// UpdateLink godoc
// @Summary Change the visit limit
// @Tags links
// @Accept json
// @Produce json
// @Param code path string true "Short code"
// @Param request body UpdateLinkRequest true "New visit limit"
// @Success 200 {object} models.LinkStats
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code} [patch]
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	owner, ok := h.requireOwner(c)
	if !ok {
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	stats, err := h.service.UpdateVisitLimit(c.Request.Context(), c.Param("code"), owner, req.VisitLimit)
	if err != nil {
		h.logger.Warn("Failed to update link", zap.String("code", c.Param("code")), zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// DeleteLink godoc
// @Summary Delete a short link
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	owner, ok := h.requireOwner(c)
	if !ok {
		return
	}

	code := c.Param("code")
	if err := h.service.DeleteLink(c.Request.Context(), code, owner); err != nil {
		h.logger.Warn("Failed to delete link", zap.String("code", code), zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// GetEvents godoc
// @Summary Lifecycle history of a link
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Param limit query int false "Max events" default(50)
// @Success 200 {array} models.LinkEvent
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code}/events [get]
func (h *LinkHandler) GetEvents(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "journal_disabled",
			Message: "Event journal is not configured",
		})
		return
	}

	owner, ok := h.requireOwner(c)
	if !ok {
		return
	}

	code := c.Param("code")
	if _, err := h.service.GetStats(c.Request.Context(), code, owner); err != nil {
		h.writeError(c, err)
		return
	}

	limit := defaultEventsLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxEventsLimit {
			limit = n
		}
	}

	events, err := h.journal.ListByLink(c.Request.Context(), code, limit)
	if err != nil {
		h.logger.Error("Failed to list link events", zap.String("code", code), zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *LinkHandler) requireOwner(c *gin.Context) (string, bool) {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_owner",
			Message: "Owner identity required: API key or " + middleware.OwnerHeader + " header",
		})
	}
	return owner, ok
}

// writeError maps service and store errors to HTTP responses
func (h *LinkHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSpamDomain):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "spam_domain",
			Message: "Domain is blacklisted",
		})
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_url",
			Message: "Invalid URL format",
		})
	case errors.Is(err, repository.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, repository.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found",
		})
	case errors.Is(err, repository.ErrLinkUnavailable):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "link_unavailable",
			Message: "Link expired or visit limit reached",
		})
	case errors.Is(err, repository.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "Link belongs to another owner",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
	}
}
