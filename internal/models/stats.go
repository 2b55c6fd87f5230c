package models

// Statistics aggregates dashboard counters over the whole store.
type Statistics struct {
	TotalRepositories int64   `json:"total_repositories"`
	TotalWebhooks     int64   `json:"total_webhooks"`
	TotalAnalyses     int64   `json:"total_analyses"`
	TotalPRs          int64   `json:"total_prs"`
	RecentWebhooks    int64   `json:"recent_webhooks"`
	RecentAnalyses    int64   `json:"recent_analyses"`
	ProcessingRate    float64 `json:"processing_rate"`
}

// ActivityPoint is one day of webhook/analysis volume.
type ActivityPoint struct {
	Date     string `json:"date"`
	Webhooks int64  `json:"webhooks"`
	Analyses int64  `json:"analyses"`
}

// SystemHealth is a point-in-time view of pipeline health.
type SystemHealth struct {
	DatabaseHealthy     bool    `json:"database_healthy"`
	ErrorRate1h         float64 `json:"error_rate_1h"`
	UnprocessedWebhooks int64   `json:"unprocessed_webhooks"`
	AvgProcessingTimeMS float64 `json:"avg_processing_time_ms"`
	SystemStatus        string  `json:"system_status"`
}
