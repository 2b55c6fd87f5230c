package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devplatform/github-automation/internal/audit"
	"github.com/devplatform/github-automation/internal/db"
	"github.com/devplatform/github-automation/internal/models"
	"github.com/devplatform/github-automation/internal/webhook"
)

// MockAnalyzer is a mock implementation of webhook.Analyzer
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzeCommit(ctx context.Context, commit *models.PushCommit, repo *models.Repository) (*models.AnalysisResult, error) {
	args := m.Called(ctx, commit, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisResult), args.Error(1)
}

// MockPRGenerator is a mock implementation of webhook.PRGenerator
type MockPRGenerator struct {
	mock.Mock
}

func (m *MockPRGenerator) CreateImprovementPR(ctx context.Context, repo *models.Repository, analysis *models.CommitAnalysis, suggestions []models.Suggestion) (*models.PullRequestResult, error) {
	args := m.Called(ctx, repo, analysis, suggestions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PullRequestResult), args.Error(1)
}

type testEnv struct {
	store     *db.MemoryStore
	analyzer  *MockAnalyzer
	generator *MockPRGenerator
	engine    *gin.Engine
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := db.NewMemoryStore()
	analyzer := new(MockAnalyzer)
	generator := new(MockPRGenerator)
	auditLogger := audit.New(store, logger)
	processor := webhook.NewProcessor(store, analyzer, generator, auditLogger, logger)
	router := webhook.NewRouter(processor, logger)
	guard := webhook.NewGuard(secret)
	handler := NewHandler(store, guard, router, auditLogger, logger)

	return &testEnv{
		store:     store,
		analyzer:  analyzer,
		generator: generator,
		engine:    SetupRouter(handler),
	}
}

func pushPayloadBody(t *testing.T) []byte {
	t.Helper()
	payload := map[string]any{
		"ref": "refs/heads/main",
		"repository": map[string]any{
			"id":               4242,
			"name":             "demo",
			"full_name":        "acme/demo",
			"html_url":         "https://github.com/acme/demo",
			"language":         "Go",
			"stargazers_count": 7,
		},
		"commits": []map[string]any{
			{
				"id":       "aaa1112223334445556667778889990001112223",
				"message":  "feat: add parser",
				"author":   map[string]string{"name": "Dev", "email": "dev@example.com"},
				"modified": []string{"parser.go"},
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func postWebhook(env *testEnv, event, deliveryID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/github", bytes.NewReader(body))
	if event != "" {
		req.Header.Set(webhook.HeaderEvent, event)
	}
	if deliveryID != "" {
		req.Header.Set(webhook.HeaderDelivery, deliveryID)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func TestHandleWebhookPushFromUnseenRepository(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyzer.On("AnalyzeCommit", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{
			Analysis:     models.CommitAssessment{CommitType: "feature"},
			RiskScore:    25,
			QualityScore: 85,
		}, nil).Once()

	w := postWebhook(env, "push", "delivery-1", pushPayloadBody(t))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "push", resp["event_type"])
	assert.Equal(t, "acme/demo", resp["repository"])

	// Repository was created from the payload.
	repos, total, err := env.store.ListRepositories(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, int64(4242), repos[0].GitHubID)
	assert.Equal(t, "acme/demo", repos[0].FullName)

	// The delivery is stored and fully processed.
	event, err := env.store.GetWebhookEventByDeliveryID(context.Background(), "delivery-1")
	require.NoError(t, err)
	assert.True(t, event.Processed)

	analyses, _, err := env.store.ListCommitAnalyses(context.Background(), 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, 25, *analyses[0].RiskScore)
	env.analyzer.AssertExpectations(t)
}

func TestHandleWebhookDuplicateDelivery(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyzer.On("AnalyzeCommit", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{RiskScore: 10, QualityScore: 90}, nil).Once()

	body := pushPayloadBody(t)
	first := postWebhook(env, "push", "delivery-1", body)
	require.Equal(t, http.StatusOK, first.Code)

	var firstResp map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))

	second := postWebhook(env, "push", "delivery-1", body)
	require.Equal(t, http.StatusOK, second.Code)

	var secondResp map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	assert.Equal(t, "Already processed", secondResp["message"])
	assert.Equal(t, firstResp["event_id"], secondResp["event_id"])

	// Exactly one stored event, one analysis.
	_, total, err := env.store.ListWebhookEvents(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	_, total, err = env.store.ListCommitAnalyses(context.Background(), 0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestHandleWebhookRejections(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		delivery string
		body     []byte
	}{
		{"missing headers", "", "", []byte(`{}`)},
		{"invalid payload", "push", "delivery-1", []byte("not json")},
		{"missing repository", "push", "delivery-1", []byte(`{"action":"opened"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			w := postWebhook(env, tt.event, tt.delivery, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			// Rejected deliveries leave no trace.
			_, total, err := env.store.ListWebhookEvents(context.Background(), 10, 0)
			require.NoError(t, err)
			assert.Zero(t, total)
		})
	}
}

func TestHandleWebhookBadSignature(t *testing.T) {
	env := newTestEnv(t, "topsecret")
	body := pushPayloadBody(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/github", bytes.NewReader(body))
	req.Header.Set(webhook.HeaderEvent, "push")
	req.Header.Set(webhook.HeaderDelivery, "delivery-1")
	req.Header.Set(webhook.HeaderSignature, "sha256=deadbeef")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEndpoints(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyzer.On("AnalyzeCommit", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{RiskScore: 10, QualityScore: 90}, nil).Once()
	postWebhook(env, "push", "delivery-1", pushPayloadBody(t))

	for _, path := range []string{"/webhook/events", "/webhook/commits", "/webhook/logs", "/api/repositories"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			env.engine.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)

			var resp ListResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.GreaterOrEqual(t, resp.Total, int64(1))
			assert.Equal(t, 1, resp.CurrentPage)
		})
	}
}

func TestListCommitAnalysesInvalidRepositoryID(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodGet, "/webhook/commits?repository_id=abc", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRepository(t *testing.T) {
	env := newTestEnv(t, "")
	repo := &models.Repository{GitHubID: 42, Name: "demo", FullName: "acme/demo"}
	require.NoError(t, env.store.UpsertRepository(context.Background(), repo))

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/repositories/1", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var got struct {
			Repository     models.Repository        `json:"repository"`
			RecentAnalyses []*models.CommitAnalysis `json:"recent_analyses"`
			TotalAnalyses  int64                    `json:"total_analyses"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "acme/demo", got.Repository.FullName)
		assert.Zero(t, got.TotalAnalyses)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/repositories/999", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/repositories/abc", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyzer.On("AnalyzeCommit", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{RiskScore: 10, QualityScore: 90}, nil).Once()
	postWebhook(env, "push", "delivery-1", pushPayloadBody(t))

	t.Run("statistics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/statistics", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var stats models.Statistics
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, int64(1), stats.TotalRepositories)
		assert.Equal(t, int64(1), stats.TotalWebhooks)
		assert.Equal(t, int64(1), stats.TotalAnalyses)
	})

	t.Run("activity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/activity?days=3", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Days     int                     `json:"days"`
			Activity []*models.ActivityPoint `json:"activity"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Days)
		assert.Len(t, resp.Activity, 3)
	})

	t.Run("log levels", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/log-levels", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var counts map[string]int64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
		assert.NotZero(t, counts[models.LevelInfo])
	})

	t.Run("export logs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/export-logs", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Body.String(), "action_type")
	})

	t.Run("system health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/system-health", nil)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var health models.SystemHealth
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
		assert.True(t, health.DatabaseHealthy)
	})
}
