package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplatform/github-automation/internal/models"
)

func acceptTestDelivery(t *testing.T, store *MemoryStore, deliveryID string) (*models.Repository, *models.WebhookEvent) {
	t.Helper()
	repo := &models.Repository{GitHubID: 42, Name: "demo", FullName: "acme/demo"}
	event := &models.WebhookEvent{EventType: "push", DeliveryID: deliveryID, Payload: []byte(`{}`)}
	receipt := &models.ActionLog{ActionType: models.ActionWebhookReceived, Message: "received"}
	require.NoError(t, store.AcceptDelivery(context.Background(), repo, event, receipt))
	return repo, event
}

func TestAcceptDeliveryRejectsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	_, first := acceptTestDelivery(t, store, "delivery-1")

	repo := &models.Repository{GitHubID: 42, Name: "demo", FullName: "acme/demo"}
	dup := &models.WebhookEvent{EventType: "push", DeliveryID: "delivery-1", Payload: []byte(`{}`)}
	err := store.AcceptDelivery(context.Background(), repo, dup, &models.ActionLog{})
	assert.ErrorIs(t, err, ErrDuplicateDelivery)

	// No second event or receipt was written.
	_, total, err := store.ListWebhookEvents(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	stored, err := store.GetWebhookEventByDeliveryID(context.Background(), "delivery-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
}

func TestAcceptDeliveryWritesReceipt(t *testing.T) {
	store := NewMemoryStore()
	repo, _ := acceptTestDelivery(t, store, "delivery-1")

	logs, total, err := store.ListActionLogs(context.Background(), ActionLogFilter{ActionType: models.ActionWebhookReceived}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.NotNil(t, logs[0].RepositoryID)
	assert.Equal(t, repo.ID, *logs[0].RepositoryID)
}

func TestUpsertRepositoryKeepsIdentity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &models.Repository{GitHubID: 42, Name: "demo", FullName: "acme/demo", Stars: 1}
	require.NoError(t, store.UpsertRepository(ctx, first))

	second := &models.Repository{GitHubID: 42, Name: "demo", FullName: "acme/demo", Stars: 9}
	require.NoError(t, store.UpsertRepository(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	stored, err := store.GetRepository(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, stored.Stars)

	_, total, err := store.ListRepositories(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestMarkWebhookProcessedIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	_, event := acceptTestDelivery(t, store, "delivery-1")

	firstAt := time.Now().UTC()
	require.NoError(t, store.MarkWebhookProcessed(context.Background(), event.ID, firstAt))
	require.NoError(t, store.MarkWebhookProcessed(context.Background(), event.ID, firstAt.Add(time.Hour)))

	stored, err := store.GetWebhookEventByDeliveryID(context.Background(), "delivery-1")
	require.NoError(t, err)
	assert.True(t, stored.Processed)
	require.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, firstAt, *stored.ProcessedAt)
}

func TestListActionLogsFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	repoID := int64(3)

	entries := []*models.ActionLog{
		{ActionType: models.ActionCommitAnalyzed, Level: models.LevelSuccess, RepositoryID: &repoID},
		{ActionType: models.ActionAnalysisError, Level: models.LevelError, RepositoryID: &repoID},
		{ActionType: models.ActionCommitAnalyzed, Level: models.LevelSuccess},
	}
	for _, entry := range entries {
		require.NoError(t, store.InsertActionLog(ctx, entry))
	}

	byLevel, total, err := store.ListActionLogs(ctx, ActionLogFilter{Level: models.LevelError}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.ActionAnalysisError, byLevel[0].ActionType)

	_, total, err = store.ListActionLogs(ctx, ActionLogFilter{ActionType: models.ActionCommitAnalyzed}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = store.ListActionLogs(ctx, ActionLogFilter{RepositoryID: repoID}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGetStatistics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, event := acceptTestDelivery(t, store, "delivery-1")
	acceptTestDelivery(t, store, "delivery-2")

	analysis := &models.CommitAnalysis{WebhookEventID: event.ID, RepositoryID: 1, CommitSHA: "aaa", PRGenerated: true}
	require.NoError(t, store.InsertCommitAnalysis(ctx, analysis))
	require.NoError(t, store.MarkWebhookProcessed(ctx, event.ID, time.Now().UTC()))

	stats, err := store.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRepositories)
	assert.Equal(t, int64(2), stats.TotalWebhooks)
	assert.Equal(t, int64(1), stats.TotalAnalyses)
	assert.Equal(t, int64(1), stats.TotalPRs)
	assert.InDelta(t, 50.0, stats.ProcessingRate, 0.01)
}

func TestGetSystemHealthCountsUnprocessed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, event := acceptTestDelivery(t, store, "delivery-1")
	acceptTestDelivery(t, store, "delivery-2")
	require.NoError(t, store.MarkWebhookProcessed(ctx, event.ID, time.Now().UTC()))

	health, err := store.GetSystemHealth(ctx)
	require.NoError(t, err)
	assert.True(t, health.DatabaseHealthy)
	assert.Equal(t, int64(1), health.UnprocessedWebhooks)
}
