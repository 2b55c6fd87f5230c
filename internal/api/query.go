package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devplatform/github-automation/internal/db"
)

// ListWebhookEvents returns stored webhook deliveries, newest first.
func (h *Handler) ListWebhookEvents(c *gin.Context) {
	page, perPage, offset := pagination(c, 20, 100)

	events, total, err := h.store.ListWebhookEvents(c.Request.Context(), perPage, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list webhook events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list webhook events"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:       events,
		Total:       total,
		Pages:       pages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	})
}

// ListCommitAnalyses returns commit analyses, optionally filtered by
// repository_id, newest first.
func (h *Handler) ListCommitAnalyses(c *gin.Context) {
	page, perPage, offset := pagination(c, 20, 100)

	var repositoryID int64
	if raw := c.Query("repository_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid repository_id parameter"})
			return
		}
		repositoryID = id
	}

	analyses, total, err := h.store.ListCommitAnalyses(c.Request.Context(), repositoryID, perPage, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list commit analyses")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list commit analyses"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:       analyses,
		Total:       total,
		Pages:       pages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	})
}

// ListActionLogs returns audit log entries, optionally filtered by level,
// action_type, repository_id and since, newest first.
func (h *Handler) ListActionLogs(c *gin.Context) {
	page, perPage, offset := pagination(c, 50, 200)

	filter := db.ActionLogFilter{
		Level:      c.Query("level"),
		ActionType: c.Query("action_type"),
	}
	if raw := c.Query("repository_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid repository_id parameter"})
			return
		}
		filter.RepositoryID = id
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid since parameter (use RFC3339 format)"})
			return
		}
		filter.Since = &since
	}

	logs, total, err := h.store.ListActionLogs(c.Request.Context(), filter, perPage, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list action logs")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list action logs"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:       logs,
		Total:       total,
		Pages:       pages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	})
}

// ListRepositories returns all repositories seen via webhooks.
func (h *Handler) ListRepositories(c *gin.Context) {
	page, perPage, offset := pagination(c, 20, 100)

	repos, total, err := h.store.ListRepositories(c.Request.Context(), perPage, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list repositories")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list repositories"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:       repos,
		Total:       total,
		Pages:       pages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	})
}

// GetRepository returns one repository by internal id, together with its most
// recent analyses and analysis total.
func (h *Handler) GetRepository(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid repository id"})
		return
	}

	repo, err := h.store.GetRepository(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Repository not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get repository")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get repository"})
		return
	}

	recent, total, err := h.store.ListCommitAnalyses(c.Request.Context(), id, 5, 0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load recent analyses")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get repository"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"repository":      repo,
		"recent_analyses": recent,
		"total_analyses":  total,
	})
}
