package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"

	"github.com/devplatform/github-automation/internal/models"
)

const systemPrompt = "You are an expert software engineer and code reviewer. " +
	"Analyze commits and provide actionable improvement suggestions."

// DiffProvider supplies raw commit diffs to enrich prompts. Optional; a nil
// provider or a fetch failure means the prompt is built from payload data only.
type DiffProvider interface {
	GetCommitDiff(ctx context.Context, fullName, sha string) (string, error)
}

// Service analyzes commits with an OpenAI chat-completion call requesting a
// JSON object response. Provider failures of any kind (transport, timeout,
// malformed response) are replaced by a deterministic fallback result so the
// pipeline always receives a well-formed record.
type Service struct {
	client  openai.Client
	model   string
	timeout time.Duration
	diffs   DiffProvider
	logger  *logrus.Logger
}

func NewService(apiKey, model string, timeout time.Duration, diffs DiffProvider, logger *logrus.Logger) *Service {
	return &Service{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
		diffs:   diffs,
		logger:  logger,
	}
}

// AnalyzeCommit produces an AnalysisResult for one pushed commit. The
// returned scores are not trusted here; the caller clamps them before
// persistence.
func (s *Service) AnalyzeCommit(ctx context.Context, commit *models.PushCommit, repo *models.Repository) (*models.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var diff string
	if s.diffs != nil {
		d, err := s.diffs.GetCommitDiff(ctx, repo.FullName, commit.ID)
		if err != nil {
			s.logger.WithError(err).Debugf("No diff available for %s", commit.ID)
		} else {
			diff = d
		}
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildCommitPrompt(commit, repo, diff)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		s.logger.WithError(err).Warnf("Commit analysis call failed for %s, using fallback", commit.ID)
		return s.fallback(commit), nil
	}
	if len(resp.Choices) == 0 {
		s.logger.Warnf("Empty analysis response for %s, using fallback", commit.ID)
		return s.fallback(commit), nil
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		s.logger.WithError(err).Warnf("Malformed analysis response for %s, using fallback", commit.ID)
		return s.fallback(commit), nil
	}

	s.normalize(&result, commit)
	return &result, nil
}

// normalize fills in fields the model is allowed to omit.
func (s *Service) normalize(result *models.AnalysisResult, commit *models.PushCommit) {
	for i := range result.Suggestions {
		if result.Suggestions[i].ID == "" {
			result.Suggestions[i].ID = fmt.Sprintf("suggestion_%d_%s", i+1, shortSHA(commit.ID))
		}
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	result.Metadata["analysis_id"] = uuid.NewString()
	result.Metadata["analyzed_at"] = time.Now().UTC().Format(time.RFC3339)
	result.Metadata["commit_sha"] = commit.ID
	result.Metadata["model_used"] = s.model
	result.Metadata["suggestions_count"] = len(result.Suggestions)
}

// fallback is the deterministic analysis substituted when the provider is
// unavailable: mid-range scores, a single manual-review suggestion and no PR.
func (s *Service) fallback(commit *models.PushCommit) *models.AnalysisResult {
	return &models.AnalysisResult{
		Analysis: models.CommitAssessment{
			CommitType:       "unknown",
			Complexity:       "medium",
			CodeQuality:      "Unable to analyze - API error",
			SecurityConcerns: "Manual review recommended",
			PerformanceNotes: "No analysis available",
			BestPractices:    "Manual review recommended",
			TestingCoverage:  "Unknown",
		},
		RiskScore:    50,
		QualityScore: 50,
		Suggestions: []models.Suggestion{
			{
				ID:              fmt.Sprintf("fallback_%s", shortSHA(commit.ID)),
				Type:            models.SuggestionTypeCodeImprovement,
				Title:           "Manual Code Review Recommended",
				Description:     "Automated analysis failed. Please conduct manual code review.",
				Priority:        "medium",
				Implementation:  "Perform manual code review of the changes",
				Benefits:        "Ensures code quality and identifies potential issues",
				RiskLevel:       "low",
				Impact:          "Maintains code quality standards",
				FilesAffected:   commit.Modified,
				EstimatedEffort: "30 minutes",
			},
		},
		ShouldCreatePR: false,
		Metadata: map[string]any{
			"analysis_id": uuid.NewString(),
			"commit_sha":  commit.ID,
			"model_used": "fallback",
			"error":      "analysis provider unavailable",
		},
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
