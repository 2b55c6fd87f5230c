package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devplatform/github-automation/internal/models"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repository upserts can run
// inside or outside a delivery transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *PostgresStore) UpsertRepository(ctx context.Context, repo *models.Repository) error {
	return upsertRepository(ctx, s.db, repo)
}

// upsertRepository creates the repository on first sight and opportunistically
// refreshes its metadata afterwards. The ON CONFLICT clause resolves the race
// of two first-time webhooks for the same repository.
func upsertRepository(ctx context.Context, q dbtx, repo *models.Repository) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO repositories (github_id, name, full_name, html_url, clone_url, description, language, stars, forks, open_issues, private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (github_id) DO UPDATE SET
			name = EXCLUDED.name,
			full_name = EXCLUDED.full_name,
			html_url = EXCLUDED.html_url,
			clone_url = EXCLUDED.clone_url,
			description = EXCLUDED.description,
			language = EXCLUDED.language,
			stars = EXCLUDED.stars,
			forks = EXCLUDED.forks,
			open_issues = EXCLUDED.open_issues,
			private = EXCLUDED.private,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		repo.GitHubID, repo.Name, repo.FullName, repo.URL, repo.CloneURL,
		repo.Description, repo.Language, repo.Stars, repo.Forks, repo.OpenIssues, repo.Private,
	).Scan(&repo.ID, &repo.CreatedAt, &repo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRepository(ctx context.Context, id int64) (*models.Repository, error) {
	var repo models.Repository
	err := s.db.QueryRowContext(ctx, `
		SELECT id, github_id, name, full_name, html_url, clone_url, description, language, stars, forks, open_issues, private, created_at, updated_at
		FROM repositories WHERE id = $1`, id).Scan(
		&repo.ID, &repo.GitHubID, &repo.Name, &repo.FullName, &repo.URL, &repo.CloneURL,
		&repo.Description, &repo.Language, &repo.Stars, &repo.Forks, &repo.OpenIssues, &repo.Private,
		&repo.CreatedAt, &repo.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	return &repo, nil
}

func (s *PostgresStore) ListRepositories(ctx context.Context, limit, offset int) ([]*models.Repository, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repositories`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count repositories: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, github_id, name, full_name, html_url, clone_url, description, language, stars, forks, open_issues, private, created_at, updated_at
		FROM repositories
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var repos []*models.Repository
	for rows.Next() {
		var repo models.Repository
		if err := rows.Scan(
			&repo.ID, &repo.GitHubID, &repo.Name, &repo.FullName, &repo.URL, &repo.CloneURL,
			&repo.Description, &repo.Language, &repo.Stars, &repo.Forks, &repo.OpenIssues, &repo.Private,
			&repo.CreatedAt, &repo.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, &repo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating repositories: %w", err)
	}

	return repos, total, nil
}

// AcceptDelivery records a verified webhook delivery: the repository upsert,
// the webhook event row and the receipt log are committed as one atomic unit.
// A delivery id that already exists returns ErrDuplicateDelivery and leaves
// the store untouched; the unique constraint is the race arbiter for
// concurrent duplicates.
func (s *PostgresStore) AcceptDelivery(ctx context.Context, repo *models.Repository, event *models.WebhookEvent, receipt *models.ActionLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertRepository(ctx, tx, repo); err != nil {
		return err
	}

	event.RepositoryID = repo.ID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO webhook_events (event_type, repository_id, github_delivery_id, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		event.EventType, event.RepositoryID, event.DeliveryID, []byte(event.Payload),
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDelivery
		}
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}

	receipt.RepositoryID = &repo.ID
	if err := insertActionLog(ctx, tx, receipt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delivery: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetWebhookEventByDeliveryID(ctx context.Context, deliveryID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	var processedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event_type, repository_id, github_delivery_id, payload, processed, created_at, processed_at
		FROM webhook_events WHERE github_delivery_id = $1`, deliveryID).Scan(
		&event.ID, &event.EventType, &event.RepositoryID, &event.DeliveryID,
		(*[]byte)(&event.Payload), &event.Processed, &event.CreatedAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}
	if processedAt.Valid {
		event.ProcessedAt = &processedAt.Time
	}
	return &event, nil
}

func (s *PostgresStore) MarkWebhookProcessed(ctx context.Context, eventID int64, processedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE webhook_events
		SET processed = TRUE, processed_at = $2
		WHERE id = $1 AND processed = FALSE`, eventID, processedAt)
	if err != nil {
		return fmt.Errorf("failed to mark webhook processed: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListWebhookEvents(ctx context.Context, limit, offset int) ([]*models.WebhookEvent, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count webhook events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, repository_id, github_delivery_id, payload, processed, created_at, processed_at
		FROM webhook_events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query webhook events: %w", err)
	}
	defer rows.Close()

	var events []*models.WebhookEvent
	for rows.Next() {
		var event models.WebhookEvent
		var processedAt sql.NullTime
		if err := rows.Scan(
			&event.ID, &event.EventType, &event.RepositoryID, &event.DeliveryID,
			(*[]byte)(&event.Payload), &event.Processed, &event.CreatedAt, &processedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan webhook event: %w", err)
		}
		if processedAt.Valid {
			event.ProcessedAt = &processedAt.Time
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating webhook events: %w", err)
	}

	return events, total, nil
}

func (s *PostgresStore) InsertCommitAnalysis(ctx context.Context, analysis *models.CommitAnalysis) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO commit_analyses (webhook_event_id, repository_id, commit_sha, commit_message, author_name, author_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`,
		analysis.WebhookEventID, analysis.RepositoryID, analysis.CommitSHA,
		analysis.CommitMessage, analysis.AuthorName, analysis.AuthorEmail,
	).Scan(&analysis.ID, &analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert commit analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAnalysisResult(ctx context.Context, analysis *models.CommitAnalysis) error {
	assessmentJSON, err := json.Marshal(analysis.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	suggestionsJSON, err := json.Marshal(analysis.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE commit_analyses
		SET analysis = $2, suggestions = $3, risk_score = $4, quality_score = $5, analyzed_at = $6
		WHERE id = $1`,
		analysis.ID, assessmentJSON, suggestionsJSON,
		analysis.RiskScore, analysis.QualityScore, analysis.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("failed to update analysis result: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAnalysisPR(ctx context.Context, analysis *models.CommitAnalysis) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE commit_analyses
		SET pr_generated = $2, pr_url = $3, pr_title = $4, pr_description = $5
		WHERE id = $1`,
		analysis.ID, analysis.PRGenerated, analysis.PRURL, analysis.PRTitle, analysis.PRDescription)
	if err != nil {
		return fmt.Errorf("failed to update analysis PR fields: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCommitAnalyses(ctx context.Context, repositoryID int64, limit, offset int) ([]*models.CommitAnalysis, int64, error) {
	baseQuery := `FROM commit_analyses`
	args := []interface{}{}
	if repositoryID > 0 {
		baseQuery += ` WHERE repository_id = $1`
		args = append(args, repositoryID)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count commit analyses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, webhook_event_id, repository_id, commit_sha, commit_message, author_name, author_email,
			analysis, suggestions, risk_score, quality_score,
			pr_generated, pr_url, pr_title, pr_description, created_at, analyzed_at
		%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, baseQuery, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query commit analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.CommitAnalysis
	for rows.Next() {
		analysis, err := scanCommitAnalysis(rows)
		if err != nil {
			return nil, 0, err
		}
		analyses = append(analyses, analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating commit analyses: %w", err)
	}

	return analyses, total, nil
}

func scanCommitAnalysis(rows *sql.Rows) (*models.CommitAnalysis, error) {
	var analysis models.CommitAnalysis
	var assessmentJSON, suggestionsJSON []byte
	var riskScore, qualityScore sql.NullInt64
	var prURL, prTitle, prDescription sql.NullString
	var analyzedAt sql.NullTime

	if err := rows.Scan(
		&analysis.ID, &analysis.WebhookEventID, &analysis.RepositoryID,
		&analysis.CommitSHA, &analysis.CommitMessage, &analysis.AuthorName, &analysis.AuthorEmail,
		&assessmentJSON, &suggestionsJSON, &riskScore, &qualityScore,
		&analysis.PRGenerated, &prURL, &prTitle, &prDescription,
		&analysis.CreatedAt, &analyzedAt); err != nil {
		return nil, fmt.Errorf("failed to scan commit analysis: %w", err)
	}

	if len(assessmentJSON) > 0 {
		var assessment models.CommitAssessment
		if err := json.Unmarshal(assessmentJSON, &assessment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		analysis.Analysis = &assessment
	}
	if len(suggestionsJSON) > 0 {
		if err := json.Unmarshal(suggestionsJSON, &analysis.Suggestions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal suggestions: %w", err)
		}
	}
	if riskScore.Valid {
		v := int(riskScore.Int64)
		analysis.RiskScore = &v
	}
	if qualityScore.Valid {
		v := int(qualityScore.Int64)
		analysis.QualityScore = &v
	}
	analysis.PRURL = prURL.String
	analysis.PRTitle = prTitle.String
	analysis.PRDescription = prDescription.String
	if analyzedAt.Valid {
		analysis.AnalyzedAt = &analyzedAt.Time
	}

	return &analysis, nil
}

func (s *PostgresStore) InsertActionLog(ctx context.Context, entry *models.ActionLog) error {
	return insertActionLog(ctx, s.db, entry)
}

func insertActionLog(ctx context.Context, q dbtx, entry *models.ActionLog) error {
	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal log details: %w", err)
		}
	}

	err := q.QueryRowContext(ctx, `
		INSERT INTO action_logs (action_type, repository_id, commit_analysis_id, message, level, details, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`,
		entry.ActionType, entry.RepositoryID, entry.CommitAnalysisID,
		entry.Message, entry.Level, detailsJSON, entry.DurationMS,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert action log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActionLogs(ctx context.Context, filter ActionLogFilter, limit, offset int) ([]*models.ActionLog, int64, error) {
	baseQuery := `FROM action_logs WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filter.Level != "" {
		argCount++
		baseQuery += fmt.Sprintf(" AND level = $%d", argCount)
		args = append(args, filter.Level)
	}
	if filter.ActionType != "" {
		argCount++
		baseQuery += fmt.Sprintf(" AND action_type = $%d", argCount)
		args = append(args, filter.ActionType)
	}
	if filter.RepositoryID > 0 {
		argCount++
		baseQuery += fmt.Sprintf(" AND repository_id = $%d", argCount)
		args = append(args, filter.RepositoryID)
	}
	if filter.Since != nil {
		argCount++
		baseQuery += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filter.Since)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count action logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, action_type, repository_id, commit_analysis_id, message, level, details, duration_ms, created_at
		%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, baseQuery, argCount+1, argCount+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query action logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ActionLog
	for rows.Next() {
		var entry models.ActionLog
		var repositoryID, commitAnalysisID, durationMS sql.NullInt64
		var detailsJSON []byte
		if err := rows.Scan(
			&entry.ID, &entry.ActionType, &repositoryID, &commitAnalysisID,
			&entry.Message, &entry.Level, &detailsJSON, &durationMS, &entry.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan action log: %w", err)
		}
		if repositoryID.Valid {
			entry.RepositoryID = &repositoryID.Int64
		}
		if commitAnalysisID.Valid {
			entry.CommitAnalysisID = &commitAnalysisID.Int64
		}
		if durationMS.Valid {
			entry.DurationMS = &durationMS.Int64
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal log details: %w", err)
			}
		}
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating action logs: %w", err)
	}

	return logs, total, nil
}

func (s *PostgresStore) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	var stats models.Statistics
	var processedWebhooks int64

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM repositories),
			(SELECT COUNT(*) FROM webhook_events),
			(SELECT COUNT(*) FROM commit_analyses),
			(SELECT COUNT(*) FROM commit_analyses WHERE pr_generated = TRUE),
			(SELECT COUNT(*) FROM webhook_events WHERE created_at >= NOW() - INTERVAL '24 hours'),
			(SELECT COUNT(*) FROM commit_analyses WHERE created_at >= NOW() - INTERVAL '24 hours'),
			(SELECT COUNT(*) FROM webhook_events WHERE processed = TRUE)`).Scan(
		&stats.TotalRepositories, &stats.TotalWebhooks, &stats.TotalAnalyses, &stats.TotalPRs,
		&stats.RecentWebhooks, &stats.RecentAnalyses, &processedWebhooks)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	if stats.TotalWebhooks > 0 {
		stats.ProcessingRate = float64(processedWebhooks) / float64(stats.TotalWebhooks) * 100
	}

	return &stats, nil
}

func (s *PostgresStore) GetActivity(ctx context.Context, days int) ([]*models.ActivityPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			to_char(day, 'MM/DD'),
			(SELECT COUNT(*) FROM webhook_events w WHERE w.created_at >= day AND w.created_at < day + INTERVAL '1 day'),
			(SELECT COUNT(*) FROM commit_analyses c WHERE c.created_at >= day AND c.created_at < day + INTERVAL '1 day')
		FROM generate_series(
			date_trunc('day', NOW()) - ($1::int - 1) * INTERVAL '1 day',
			date_trunc('day', NOW()),
			INTERVAL '1 day') AS day`, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var points []*models.ActivityPoint
	for rows.Next() {
		var point models.ActivityPoint
		if err := rows.Scan(&point.Date, &point.Webhooks, &point.Analyses); err != nil {
			return nil, fmt.Errorf("failed to scan activity point: %w", err)
		}
		points = append(points, &point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity points: %w", err)
	}

	return points, nil
}

func (s *PostgresStore) GetLogLevelCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, COUNT(*) FROM action_logs GROUP BY level`)
	if err != nil {
		return nil, fmt.Errorf("failed to query log levels: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var level string
		var count int64
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan log level count: %w", err)
		}
		counts[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log level counts: %w", err)
	}

	return counts, nil
}

func (s *PostgresStore) GetSystemHealth(ctx context.Context) (*models.SystemHealth, error) {
	health := &models.SystemHealth{DatabaseHealthy: true}
	if err := s.db.PingContext(ctx); err != nil {
		health.DatabaseHealthy = false
	}

	var totalLogs, errorLogs int64
	var avgDuration sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM action_logs WHERE created_at >= NOW() - INTERVAL '1 hour'),
			(SELECT COUNT(*) FROM action_logs WHERE created_at >= NOW() - INTERVAL '1 hour' AND level = 'error'),
			(SELECT COUNT(*) FROM webhook_events WHERE processed = FALSE),
			(SELECT AVG(duration_ms) FROM action_logs WHERE duration_ms IS NOT NULL)`).Scan(
		&totalLogs, &errorLogs, &health.UnprocessedWebhooks, &avgDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to get system health: %w", err)
	}

	if totalLogs > 0 {
		health.ErrorRate1h = float64(errorLogs) / float64(totalLogs) * 100
	}
	if avgDuration.Valid {
		health.AvgProcessingTimeMS = avgDuration.Float64
	}

	health.SystemStatus = "healthy"
	if !health.DatabaseHealthy || health.ErrorRate1h >= 10 {
		health.SystemStatus = "warning"
	}

	return health, nil
}
