package models

import (
	"encoding/json"
	"time"
)

// WebhookEvent is one accepted webhook delivery. DeliveryID is the idempotency
// key; the store enforces its uniqueness. Processed flips to true exactly once,
// after every commit in the delivery has been attempted.
type WebhookEvent struct {
	ID           int64           `json:"id"`
	EventType    string          `json:"event_type"`
	RepositoryID int64           `json:"repository_id"`
	DeliveryID   string          `json:"github_delivery_id"`
	Payload      json.RawMessage `json:"payload"`
	Processed    bool            `json:"processed"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
}

// CommitAnalysis is one row per non-merge commit within a push event. The row
// is created before analysis is attempted so a crash mid-analysis still leaves
// a record. Scores are clamped to [0,100] and only set once AnalyzedAt is set.
type CommitAnalysis struct {
	ID             int64             `json:"id"`
	WebhookEventID int64             `json:"webhook_event_id"`
	RepositoryID   int64             `json:"repository_id"`
	CommitSHA      string            `json:"commit_sha"`
	CommitMessage  string            `json:"commit_message"`
	AuthorName     string            `json:"author_name"`
	AuthorEmail    string            `json:"author_email"`
	Analysis       *CommitAssessment `json:"analysis,omitempty"`
	Suggestions    []Suggestion      `json:"suggestions,omitempty"`
	RiskScore      *int              `json:"risk_score,omitempty"`
	QualityScore   *int              `json:"quality_score,omitempty"`
	PRGenerated    bool              `json:"pr_generated"`
	PRURL          string            `json:"pr_url,omitempty"`
	PRTitle        string            `json:"pr_title,omitempty"`
	PRDescription  string            `json:"pr_description,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	AnalyzedAt     *time.Time        `json:"analyzed_at,omitempty"`
}

// Action types recorded in the audit trail.
const (
	ActionWebhookReceived = "webhook_received"
	ActionWebhookError    = "webhook_error"
	ActionCommitAnalyzed  = "commit_analyzed"
	ActionAnalysisError   = "analysis_error"
	ActionPRGenerated     = "pr_generated"
	ActionPREvent         = "pr_event"
)

// Log severity levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// ActionLog is an append-only audit record of one pipeline state transition.
// Rows are never mutated or deleted after insertion.
type ActionLog struct {
	ID               int64          `json:"id"`
	ActionType       string         `json:"action_type"`
	RepositoryID     *int64         `json:"repository_id,omitempty"`
	CommitAnalysisID *int64         `json:"commit_analysis_id,omitempty"`
	Message          string         `json:"message"`
	Level            string         `json:"level"`
	Details          map[string]any `json:"details,omitempty"`
	DurationMS       *int64         `json:"duration_ms,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}
