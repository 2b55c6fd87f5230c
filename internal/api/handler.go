package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devplatform/github-automation/internal/audit"
	"github.com/devplatform/github-automation/internal/db"
	"github.com/devplatform/github-automation/internal/models"
	"github.com/devplatform/github-automation/internal/webhook"
)

// Handler carries the dependencies of all HTTP endpoints.
type Handler struct {
	store  db.Store
	guard  *webhook.Guard
	router *webhook.Router
	audit  *audit.Logger
	logger *logrus.Logger
}

func NewHandler(store db.Store, guard *webhook.Guard, router *webhook.Router, auditLogger *audit.Logger, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		guard:  guard,
		router: router,
		audit:  auditLogger,
		logger: logger,
	}
}

// ErrorResponse is the error body shape for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse is the paginated envelope shared by the query endpoints.
type ListResponse struct {
	Items       any   `json:"items"`
	Total       int64 `json:"total"`
	Pages       int64 `json:"pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
}

// HandleWebhook ingests a GitHub webhook delivery. Validation failures are
// rejected with 400 and leave no trace; duplicate deliveries return the
// original event id with 200.
func (h *Handler) HandleWebhook(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}

	delivery, err := h.guard.Verify(c.Request.Header, body)
	if err != nil {
		var rejection *webhook.RejectionError
		if errors.As(err, &rejection) {
			h.logger.WithFields(logrus.Fields{
				"reason":      rejection.Reason,
				"delivery_id": c.GetHeader(webhook.HeaderDelivery),
			}).Warn("Rejected webhook delivery")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: rejection.Message})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid webhook request"})
		return
	}

	repo := repositoryFromPayload(&delivery.Repository)
	event := &models.WebhookEvent{
		EventType:  delivery.EventType,
		DeliveryID: delivery.DeliveryID,
		Payload:    delivery.Body,
	}
	receipt := &models.ActionLog{
		ActionType: models.ActionWebhookReceived,
		Message:    "Received " + delivery.EventType + " webhook for " + repo.FullName,
		Level:      models.LevelInfo,
		Details: map[string]any{
			"event_type":   delivery.EventType,
			"delivery_id":  delivery.DeliveryID,
			"repository":   repo.FullName,
			"payload_size": len(delivery.Body),
		},
	}

	if err := h.store.AcceptDelivery(c.Request.Context(), repo, event, receipt); err != nil {
		if errors.Is(err, db.ErrDuplicateDelivery) {
			existing, lookupErr := h.store.GetWebhookEventByDeliveryID(c.Request.Context(), delivery.DeliveryID)
			if lookupErr != nil {
				h.logger.WithError(lookupErr).Error("Failed to load duplicate delivery")
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"message":  "Already processed",
				"event_id": existing.ID,
			})
			return
		}
		h.serverError(c, repo, delivery, start, err, "Failed to accept webhook delivery")
		return
	}

	if err := h.router.Dispatch(c.Request.Context(), event); err != nil {
		h.serverError(c, repo, delivery, start, err, "Failed to process webhook delivery")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Webhook processed",
		"event_id":   event.ID,
		"event_type": event.EventType,
		"repository": repo.FullName,
	})
}

// serverError responds 500 and records a webhook_error audit entry. The audit
// write is best effort and never masks the original failure.
func (h *Handler) serverError(c *gin.Context, repo *models.Repository, delivery *webhook.Delivery, start time.Time, err error, msg string) {
	h.logger.WithError(err).WithFields(logrus.Fields{
		"delivery_id": delivery.DeliveryID,
		"repository":  repo.FullName,
	}).Error(msg)

	elapsed := time.Since(start).Milliseconds()
	entry := &models.ActionLog{
		ActionType: models.ActionWebhookError,
		Message:    "Webhook processing failed for " + repo.FullName,
		Level:      models.LevelError,
		Details: map[string]any{
			"event_type":  delivery.EventType,
			"delivery_id": delivery.DeliveryID,
			"error":       err.Error(),
		},
		DurationMS: &elapsed,
	}
	if repo.ID != 0 {
		entry.RepositoryID = &repo.ID
	}
	h.audit.Record(c.Request.Context(), entry)

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// Health reports liveness and store reachability.
func (h *Handler) Health(c *gin.Context) {
	status := "healthy"
	dbStatus := "connected"
	code := http.StatusOK
	if err := h.store.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func repositoryFromPayload(p *models.RepositoryPayload) *models.Repository {
	return &models.Repository{
		GitHubID:    p.ID,
		Name:        p.Name,
		FullName:    p.FullName,
		URL:         p.HTMLURL,
		CloneURL:    p.CloneURL,
		Description: p.Description,
		Language:    p.Language,
		Stars:       p.Stars,
		Forks:       p.Forks,
		OpenIssues:  p.OpenIssues,
		Private:     p.Private,
	}
}

// pagination reads page/per_page query params, clamping per_page to max.
func pagination(c *gin.Context, defaultPerPage, maxPerPage int) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, (page - 1) * perPage
}

func pages(total int64, perPage int) int64 {
	if perPage <= 0 {
		return 0
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}
