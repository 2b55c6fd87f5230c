package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devplatform/github-automation/internal/db"
)

// GetStatistics returns aggregate dashboard counters.
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.store.GetStatistics(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute statistics")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to compute statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetActivity returns daily webhook and analysis volume for the last N days
// (default 7, max 90).
func (h *Handler) GetActivity(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	activity, err := h.store.GetActivity(c.Request.Context(), days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute activity")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to compute activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "activity": activity})
}

// GetLogLevels returns action log counts grouped by level.
func (h *Handler) GetLogLevels(c *gin.Context) {
	counts, err := h.store.GetLogLevelCounts(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to count log levels")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to count log levels"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ExportLogs streams action logs as a CSV download. The same filters as the
// log listing apply; without an explicit since the window is the last 30
// days, and the export is capped at 10000 rows.
func (h *Handler) ExportLogs(c *gin.Context) {
	filter := db.ActionLogFilter{
		Level:      c.Query("level"),
		ActionType: c.Query("action_type"),
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid since parameter (use RFC3339 format)"})
			return
		}
		filter.Since = &since
	} else {
		since := time.Now().UTC().AddDate(0, 0, -30)
		filter.Since = &since
	}

	logs, _, err := h.store.ListActionLogs(c.Request.Context(), filter, 10000, 0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to export action logs")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to export action logs"})
		return
	}

	filename := fmt.Sprintf("action_logs_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "created_at", "level", "action_type", "repository_id", "message", "duration_ms"})
	for _, entry := range logs {
		repoID := ""
		if entry.RepositoryID != nil {
			repoID = strconv.FormatInt(*entry.RepositoryID, 10)
		}
		duration := ""
		if entry.DurationMS != nil {
			duration = strconv.FormatInt(*entry.DurationMS, 10)
		}
		_ = w.Write([]string{
			strconv.FormatInt(entry.ID, 10),
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.Level,
			entry.ActionType,
			repoID,
			entry.Message,
			duration,
		})
	}
	w.Flush()
}

// GetSystemHealth returns pipeline health derived from recent log and
// webhook data.
func (h *Handler) GetSystemHealth(c *gin.Context) {
	health, err := h.store.GetSystemHealth(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute system health")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to compute system health"})
		return
	}
	c.JSON(http.StatusOK, health)
}
