package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/devplatform/github-automation/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrDuplicateDelivery is returned when a webhook delivery id has already been
// accepted. Duplicate deliveries are idempotent successes, not failures.
var ErrDuplicateDelivery = errors.New("webhook delivery already accepted")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ActionLogFilter narrows action log queries. Zero values mean "no filter".
type ActionLogFilter struct {
	Level        string
	ActionType   string
	RepositoryID int64
	Since        *time.Time
}

// Store defines the interface for database operations
type Store interface {
	// Repository operations
	UpsertRepository(ctx context.Context, repo *models.Repository) error
	GetRepository(ctx context.Context, id int64) (*models.Repository, error)
	ListRepositories(ctx context.Context, limit, offset int) ([]*models.Repository, int64, error)

	// Webhook delivery operations
	AcceptDelivery(ctx context.Context, repo *models.Repository, event *models.WebhookEvent, receipt *models.ActionLog) error
	GetWebhookEventByDeliveryID(ctx context.Context, deliveryID string) (*models.WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, eventID int64, processedAt time.Time) error
	ListWebhookEvents(ctx context.Context, limit, offset int) ([]*models.WebhookEvent, int64, error)

	// Commit analysis operations
	InsertCommitAnalysis(ctx context.Context, analysis *models.CommitAnalysis) error
	UpdateAnalysisResult(ctx context.Context, analysis *models.CommitAnalysis) error
	UpdateAnalysisPR(ctx context.Context, analysis *models.CommitAnalysis) error
	ListCommitAnalyses(ctx context.Context, repositoryID int64, limit, offset int) ([]*models.CommitAnalysis, int64, error)

	// Action log operations
	InsertActionLog(ctx context.Context, entry *models.ActionLog) error
	ListActionLogs(ctx context.Context, filter ActionLogFilter, limit, offset int) ([]*models.ActionLog, int64, error)

	// Dashboard queries
	GetStatistics(ctx context.Context) (*models.Statistics, error)
	GetActivity(ctx context.Context, days int) ([]*models.ActivityPoint, error)
	GetLogLevelCounts(ctx context.Context) (map[string]int64, error)
	GetSystemHealth(ctx context.Context) (*models.SystemHealth, error)

	Ping(ctx context.Context) error
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Migrate() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
