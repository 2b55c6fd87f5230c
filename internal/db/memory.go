package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devplatform/github-automation/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local development. It
// mirrors the uniqueness semantics of the postgres store: delivery ids and
// repository github ids are unique, and duplicate deliveries return
// ErrDuplicateDelivery.
type MemoryStore struct {
	mu sync.Mutex

	repositories []*models.Repository
	events       []*models.WebhookEvent
	analyses     []*models.CommitAnalysis
	logs         []*models.ActionLog

	nextRepositoryID int64
	nextEventID      int64
	nextAnalysisID   int64
	nextLogID        int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextRepositoryID: 1,
		nextEventID:      1,
		nextAnalysisID:   1,
		nextLogID:        1,
	}
}

func (s *MemoryStore) UpsertRepository(ctx context.Context, repo *models.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertRepositoryLocked(repo)
	return nil
}

func (s *MemoryStore) upsertRepositoryLocked(repo *models.Repository) {
	now := time.Now().UTC()
	for _, existing := range s.repositories {
		if existing.GitHubID == repo.GitHubID {
			id, createdAt := existing.ID, existing.CreatedAt
			*existing = *repo
			existing.ID = id
			existing.CreatedAt = createdAt
			existing.UpdatedAt = now
			repo.ID = id
			repo.CreatedAt = createdAt
			repo.UpdatedAt = now
			return
		}
	}
	repo.ID = s.nextRepositoryID
	s.nextRepositoryID++
	repo.CreatedAt = now
	repo.UpdatedAt = now
	stored := *repo
	s.repositories = append(s.repositories, &stored)
}

func (s *MemoryStore) GetRepository(ctx context.Context, id int64) (*models.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, repo := range s.repositories {
		if repo.ID == id {
			copied := *repo
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListRepositories(ctx context.Context, limit, offset int) ([]*models.Repository, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := int64(len(s.repositories))
	sorted := make([]*models.Repository, len(s.repositories))
	copy(sorted, s.repositories)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	var out []*models.Repository
	for i := offset; i < len(sorted) && len(out) < limit; i++ {
		copied := *sorted[i]
		out = append(out, &copied)
	}
	return out, total, nil
}

func (s *MemoryStore) AcceptDelivery(ctx context.Context, repo *models.Repository, event *models.WebhookEvent, receipt *models.ActionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.events {
		if existing.DeliveryID == event.DeliveryID {
			return ErrDuplicateDelivery
		}
	}

	s.upsertRepositoryLocked(repo)

	event.ID = s.nextEventID
	s.nextEventID++
	event.RepositoryID = repo.ID
	event.CreatedAt = time.Now().UTC()
	stored := *event
	s.events = append(s.events, &stored)

	receipt.RepositoryID = &repo.ID
	s.insertActionLogLocked(receipt)
	return nil
}

func (s *MemoryStore) GetWebhookEventByDeliveryID(ctx context.Context, deliveryID string) (*models.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.DeliveryID == deliveryID {
			copied := *event
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) MarkWebhookProcessed(ctx context.Context, eventID int64, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.ID == eventID && !event.Processed {
			event.Processed = true
			at := processedAt
			event.ProcessedAt = &at
		}
	}
	return nil
}

func (s *MemoryStore) ListWebhookEvents(ctx context.Context, limit, offset int) ([]*models.WebhookEvent, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := int64(len(s.events))
	var out []*models.WebhookEvent
	for i := len(s.events) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		copied := *s.events[i]
		out = append(out, &copied)
	}
	return out, total, nil
}

func (s *MemoryStore) InsertCommitAnalysis(ctx context.Context, analysis *models.CommitAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	analysis.ID = s.nextAnalysisID
	s.nextAnalysisID++
	analysis.CreatedAt = time.Now().UTC()
	stored := *analysis
	s.analyses = append(s.analyses, &stored)
	return nil
}

func (s *MemoryStore) UpdateAnalysisResult(ctx context.Context, analysis *models.CommitAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.analyses {
		if existing.ID == analysis.ID {
			existing.Analysis = analysis.Analysis
			existing.Suggestions = analysis.Suggestions
			existing.RiskScore = analysis.RiskScore
			existing.QualityScore = analysis.QualityScore
			existing.AnalyzedAt = analysis.AnalyzedAt
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) UpdateAnalysisPR(ctx context.Context, analysis *models.CommitAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.analyses {
		if existing.ID == analysis.ID {
			existing.PRGenerated = analysis.PRGenerated
			existing.PRURL = analysis.PRURL
			existing.PRTitle = analysis.PRTitle
			existing.PRDescription = analysis.PRDescription
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListCommitAnalyses(ctx context.Context, repositoryID int64, limit, offset int) ([]*models.CommitAnalysis, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.CommitAnalysis
	for _, analysis := range s.analyses {
		if repositoryID > 0 && analysis.RepositoryID != repositoryID {
			continue
		}
		matched = append(matched, analysis)
	}

	total := int64(len(matched))
	var out []*models.CommitAnalysis
	for i := len(matched) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		copied := *matched[i]
		out = append(out, &copied)
	}
	return out, total, nil
}

func (s *MemoryStore) InsertActionLog(ctx context.Context, entry *models.ActionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertActionLogLocked(entry)
	return nil
}

func (s *MemoryStore) insertActionLogLocked(entry *models.ActionLog) {
	entry.ID = s.nextLogID
	s.nextLogID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	stored := *entry
	s.logs = append(s.logs, &stored)
}

func (s *MemoryStore) ListActionLogs(ctx context.Context, filter ActionLogFilter, limit, offset int) ([]*models.ActionLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.ActionLog
	for _, entry := range s.logs {
		if filter.Level != "" && entry.Level != filter.Level {
			continue
		}
		if filter.ActionType != "" && entry.ActionType != filter.ActionType {
			continue
		}
		if filter.RepositoryID > 0 && (entry.RepositoryID == nil || *entry.RepositoryID != filter.RepositoryID) {
			continue
		}
		if filter.Since != nil && entry.CreatedAt.Before(*filter.Since) {
			continue
		}
		matched = append(matched, entry)
	}

	total := int64(len(matched))
	var out []*models.ActionLog
	for i := len(matched) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		copied := *matched[i]
		out = append(out, &copied)
	}
	return out, total, nil
}

func (s *MemoryStore) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &models.Statistics{
		TotalRepositories: int64(len(s.repositories)),
		TotalWebhooks:     int64(len(s.events)),
		TotalAnalyses:     int64(len(s.analyses)),
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	var processed int64
	for _, event := range s.events {
		if event.Processed {
			processed++
		}
		if event.CreatedAt.After(cutoff) {
			stats.RecentWebhooks++
		}
	}
	for _, analysis := range s.analyses {
		if analysis.PRGenerated {
			stats.TotalPRs++
		}
		if analysis.CreatedAt.After(cutoff) {
			stats.RecentAnalyses++
		}
	}
	if stats.TotalWebhooks > 0 {
		stats.ProcessingRate = float64(processed) / float64(stats.TotalWebhooks) * 100
	}
	return stats, nil
}

func (s *MemoryStore) GetActivity(ctx context.Context, days int) ([]*models.ActivityPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := make([]*models.ActivityPoint, 0, days)
	now := time.Now().UTC()
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Truncate(24 * time.Hour)
		next := day.Add(24 * time.Hour)
		point := &models.ActivityPoint{Date: day.Format("01/02")}
		for _, event := range s.events {
			if !event.CreatedAt.Before(day) && event.CreatedAt.Before(next) {
				point.Webhooks++
			}
		}
		for _, analysis := range s.analyses {
			if !analysis.CreatedAt.Before(day) && analysis.CreatedAt.Before(next) {
				point.Analyses++
			}
		}
		points = append(points, point)
	}
	return points, nil
}

func (s *MemoryStore) GetLogLevelCounts(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	for _, entry := range s.logs {
		counts[strings.ToLower(entry.Level)]++
	}
	return counts, nil
}

func (s *MemoryStore) GetSystemHealth(ctx context.Context) (*models.SystemHealth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	health := &models.SystemHealth{DatabaseHealthy: true, SystemStatus: "healthy"}

	cutoff := time.Now().UTC().Add(-time.Hour)
	var totalLogs, errorLogs int64
	var durationSum, durationCount int64
	for _, entry := range s.logs {
		if entry.CreatedAt.After(cutoff) {
			totalLogs++
			if entry.Level == models.LevelError {
				errorLogs++
			}
		}
		if entry.DurationMS != nil {
			durationSum += *entry.DurationMS
			durationCount++
		}
	}
	for _, event := range s.events {
		if !event.Processed {
			health.UnprocessedWebhooks++
		}
	}
	if totalLogs > 0 {
		health.ErrorRate1h = float64(errorLogs) / float64(totalLogs) * 100
	}
	if durationCount > 0 {
		health.AvgProcessingTimeMS = float64(durationSum) / float64(durationCount)
	}
	if health.ErrorRate1h >= 10 {
		health.SystemStatus = "warning"
	}
	return health, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
