package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title GitHub Automation API
// @version 1.0
// @description Webhook ingestion, commit analysis and automated improvement PRs
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /
// @schemes http https

// SetupRouter configures all API endpoints and middleware.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// @Summary Service health
	// @Description Liveness and database reachability
	// @Tags health
	// @Produce json
	// @Success 200 {object} map[string]interface{}
	// @Failure 503 {object} map[string]interface{}
	// @Router /health [get]
	r.GET("/health", h.Health)

	wh := r.Group("/webhook")
	{
		// @Summary Ingest a GitHub webhook
		// @Description Validates, stores and synchronously processes a webhook delivery
		// @Tags webhook
		// @Accept json
		// @Produce json
		// @Param X-GitHub-Event header string true "GitHub event type"
		// @Param X-GitHub-Delivery header string true "GitHub delivery id"
		// @Param X-Hub-Signature-256 header string false "HMAC payload signature"
		// @Success 200 {object} map[string]interface{}
		// @Failure 400 {object} ErrorResponse
		// @Failure 500 {object} ErrorResponse
		// @Router /webhook/github [post]
		wh.POST("/github", h.HandleWebhook)

		// @Summary List webhook events
		// @Tags webhook
		// @Produce json
		// @Param page query int false "Page number" default(1)
		// @Param per_page query int false "Items per page" default(20)
		// @Success 200 {object} ListResponse
		// @Failure 500 {object} ErrorResponse
		// @Router /webhook/events [get]
		wh.GET("/events", h.ListWebhookEvents)

		// @Summary List commit analyses
		// @Tags webhook
		// @Produce json
		// @Param repository_id query int false "Filter by repository id"
		// @Param page query int false "Page number" default(1)
		// @Param per_page query int false "Items per page" default(20)
		// @Success 200 {object} ListResponse
		// @Failure 400 {object} ErrorResponse
		// @Failure 500 {object} ErrorResponse
		// @Router /webhook/commits [get]
		wh.GET("/commits", h.ListCommitAnalyses)

		// @Summary List action logs
		// @Tags webhook
		// @Produce json
		// @Param level query string false "Filter by level"
		// @Param action_type query string false "Filter by action type"
		// @Param repository_id query int false "Filter by repository id"
		// @Param since query string false "Filter entries since this date (RFC3339)"
		// @Param page query int false "Page number" default(1)
		// @Param per_page query int false "Items per page" default(50)
		// @Success 200 {object} ListResponse
		// @Failure 400 {object} ErrorResponse
		// @Failure 500 {object} ErrorResponse
		// @Router /webhook/logs [get]
		wh.GET("/logs", h.ListActionLogs)
	}

	apiGroup := r.Group("/api")
	{
		// @Summary List repositories
		// @Tags repositories
		// @Produce json
		// @Success 200 {object} ListResponse
		// @Failure 500 {object} ErrorResponse
		// @Router /api/repositories [get]
		apiGroup.GET("/repositories", h.ListRepositories)

		// @Summary Get repository details
		// @Tags repositories
		// @Produce json
		// @Param id path int true "Repository ID"
		// @Success 200 {object} map[string]interface{}
		// @Failure 404 {object} ErrorResponse
		// @Failure 500 {object} ErrorResponse
		// @Router /api/repositories/{id} [get]
		apiGroup.GET("/repositories/:id", h.GetRepository)
	}

	admin := r.Group("/admin/api")
	{
		// @Summary Dashboard statistics
		// @Tags admin
		// @Produce json
		// @Success 200 {object} models.Statistics
		// @Failure 500 {object} ErrorResponse
		// @Router /admin/api/statistics [get]
		admin.GET("/statistics", h.GetStatistics)

		// @Summary Daily activity
		// @Tags admin
		// @Produce json
		// @Param days query int false "Number of days" default(7)
		// @Success 200 {object} map[string]interface{}
		// @Failure 500 {object} ErrorResponse
		// @Router /admin/api/activity [get]
		admin.GET("/activity", h.GetActivity)

		// @Summary Log level counts
		// @Tags admin
		// @Produce json
		// @Success 200 {object} map[string]int64
		// @Failure 500 {object} ErrorResponse
		// @Router /admin/api/log-levels [get]
		admin.GET("/log-levels", h.GetLogLevels)

		// @Summary Export action logs as CSV
		// @Tags admin
		// @Produce text/csv
		// @Param level query string false "Filter by level"
		// @Param action_type query string false "Filter by action type"
		// @Param since query string false "Filter entries since this date (RFC3339)"
		// @Success 200 {string} string "CSV file"
		// @Failure 500 {object} ErrorResponse
		// @Router /admin/api/export-logs [get]
		admin.GET("/export-logs", h.ExportLogs)

		// @Summary System health
		// @Tags admin
		// @Produce json
		// @Success 200 {object} models.SystemHealth
		// @Failure 500 {object} ErrorResponse
		// @Router /admin/api/system-health [get]
		admin.GET("/system-health", h.GetSystemHealth)
	}

	return r
}
