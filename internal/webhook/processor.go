package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/github-automation/internal/audit"
	"github.com/devplatform/github-automation/internal/db"
	"github.com/devplatform/github-automation/internal/models"
)

// Analyzer is the commit analysis boundary. Implementations are expected to
// substitute a deterministic fallback result for provider failures; an error
// return is still treated as an isolated per-commit failure.
type Analyzer interface {
	AnalyzeCommit(ctx context.Context, commit *models.PushCommit, repo *models.Repository) (*models.AnalysisResult, error)
}

// PRGenerator is the improvement-PR boundary. Failures never affect the
// analysis already recorded for the commit.
type PRGenerator interface {
	CreateImprovementPR(ctx context.Context, repo *models.Repository, analysis *models.CommitAnalysis, suggestions []models.Suggestion) (*models.PullRequestResult, error)
}

// Processor runs the per-delivery state machine: it walks the commits of a
// push in payload order, analyzes each, conditionally opens improvement PRs,
// and marks the webhook processed exactly once after every commit has been
// attempted. Store failures are fatal to the push and leave the webhook
// unprocessed for a future re-drive; analyzer and PR failures are isolated
// per commit.
type Processor struct {
	store       db.Store
	analyzer    Analyzer
	prGenerator PRGenerator
	audit       *audit.Logger
	logger      *logrus.Logger
}

func NewProcessor(store db.Store, analyzer Analyzer, prGenerator PRGenerator, auditLogger *audit.Logger, logger *logrus.Logger) *Processor {
	return &Processor{
		store:       store,
		analyzer:    analyzer,
		prGenerator: prGenerator,
		audit:       auditLogger,
		logger:      logger,
	}
}

// ProcessPush handles a push delivery. Merge commits are skipped entirely;
// the remaining commits are processed sequentially so branch naming and
// default-branch head reads stay race-free within one push.
func (p *Processor) ProcessPush(ctx context.Context, event *models.WebhookEvent, payload *models.PushPayload) error {
	repo, err := p.store.GetRepository(ctx, event.RepositoryID)
	if err != nil {
		return fmt.Errorf("failed to load repository %d: %w", event.RepositoryID, err)
	}

	logger := p.logger.WithFields(logrus.Fields{
		"delivery_id": event.DeliveryID,
		"repository":  repo.FullName,
	})
	logger.Infof("Processing %d commits", len(payload.Commits))

	for i := range payload.Commits {
		commit := &payload.Commits[i]
		if commit.IsMerge() {
			continue
		}
		if err := p.processCommit(ctx, event, repo, commit); err != nil {
			return err
		}
	}

	if err := p.store.MarkWebhookProcessed(ctx, event.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark webhook processed: %w", err)
	}

	logger.Info("Push event processed")
	return nil
}

// processCommit records, analyzes and optionally opens a PR for a single
// commit. Only store errors propagate; they abort the whole push.
func (p *Processor) processCommit(ctx context.Context, event *models.WebhookEvent, repo *models.Repository, commit *models.PushCommit) error {
	analysis := &models.CommitAnalysis{
		WebhookEventID: event.ID,
		RepositoryID:   repo.ID,
		CommitSHA:      commit.ID,
		CommitMessage:  commit.Message,
		AuthorName:     commit.Author.Name,
		AuthorEmail:    commit.Author.Email,
	}

	// Persist before analyzing so a crash mid-analysis still leaves a record.
	if err := p.store.InsertCommitAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to insert commit analysis for %s: %w", commit.ID, err)
	}

	started := time.Now()
	result, err := p.analyzer.AnalyzeCommit(ctx, commit, repo)
	elapsed := time.Since(started).Milliseconds()

	if err != nil {
		p.logger.WithError(err).Errorf("Failed to analyze commit %s", commit.ID)
		p.audit.Record(ctx, &models.ActionLog{
			ActionType:       models.ActionAnalysisError,
			RepositoryID:     &repo.ID,
			CommitAnalysisID: &analysis.ID,
			Message:          fmt.Sprintf("Failed to analyze commit %s: %v", shortSHA(commit.ID), err),
			Level:            models.LevelError,
			Details: map[string]any{
				"commit_sha": commit.ID,
				"error":      err.Error(),
			},
			DurationMS: &elapsed,
		})
		return nil
	}

	risk := models.ClampScore(result.RiskScore)
	quality := models.ClampScore(result.QualityScore)
	now := time.Now().UTC()
	analysis.Analysis = &result.Analysis
	analysis.Suggestions = result.Suggestions
	analysis.RiskScore = &risk
	analysis.QualityScore = &quality
	analysis.AnalyzedAt = &now

	if err := p.store.UpdateAnalysisResult(ctx, analysis); err != nil {
		return fmt.Errorf("failed to store analysis for %s: %w", commit.ID, err)
	}

	p.audit.Record(ctx, &models.ActionLog{
		ActionType:       models.ActionCommitAnalyzed,
		RepositoryID:     &repo.ID,
		CommitAnalysisID: &analysis.ID,
		Message:          fmt.Sprintf("Analyzed commit %s by %s", shortSHA(commit.ID), commit.Author.Name),
		Level:            models.LevelSuccess,
		Details: map[string]any{
			"commit_sha":        commit.ID,
			"risk_score":        risk,
			"quality_score":     quality,
			"suggestions_count": len(result.Suggestions),
		},
		DurationMS: &elapsed,
	})

	if result.ShouldCreatePR {
		if err := p.generatePR(ctx, repo, analysis, result.Suggestions); err != nil {
			return err
		}
	}

	return nil
}

// generatePR attempts an improvement PR for the commit. Generation failures
// are non-fatal: the analysis already recorded stays untouched and no PR
// fields are set.
func (p *Processor) generatePR(ctx context.Context, repo *models.Repository, analysis *models.CommitAnalysis, suggestions []models.Suggestion) error {
	result, err := p.prGenerator.CreateImprovementPR(ctx, repo, analysis, suggestions)
	if err != nil {
		p.logger.WithError(err).Warnf("PR generation failed for commit %s", analysis.CommitSHA)
		return nil
	}

	analysis.PRGenerated = true
	analysis.PRURL = result.URL
	analysis.PRTitle = result.Title
	analysis.PRDescription = result.Description
	if err := p.store.UpdateAnalysisPR(ctx, analysis); err != nil {
		return fmt.Errorf("failed to store PR result for %s: %w", analysis.CommitSHA, err)
	}

	p.audit.Record(ctx, &models.ActionLog{
		ActionType:       models.ActionPRGenerated,
		RepositoryID:     &repo.ID,
		CommitAnalysisID: &analysis.ID,
		Message:          fmt.Sprintf("Generated PR for commit %s", shortSHA(analysis.CommitSHA)),
		Level:            models.LevelSuccess,
		Details: map[string]any{
			"pr_url":   result.URL,
			"pr_title": result.Title,
		},
	})

	return nil
}

// ProcessPullRequest records a pull_request delivery in the audit trail and
// marks it processed. No derived work is triggered.
func (p *Processor) ProcessPullRequest(ctx context.Context, event *models.WebhookEvent, payload *models.PullRequestPayload) error {
	repo, err := p.store.GetRepository(ctx, event.RepositoryID)
	if err != nil {
		return fmt.Errorf("failed to load repository %d: %w", event.RepositoryID, err)
	}

	p.audit.Record(ctx, &models.ActionLog{
		ActionType:   models.ActionPREvent,
		RepositoryID: &repo.ID,
		Message:      fmt.Sprintf("PR %s: %s", payload.Action, payload.PullRequest.Title),
		Level:        models.LevelInfo,
		Details: map[string]any{
			"action":    payload.Action,
			"pr_number": payload.PullRequest.Number,
			"pr_title":  payload.PullRequest.Title,
			"pr_url":    payload.PullRequest.HTMLURL,
			"author":    payload.PullRequest.User.Login,
		},
	})

	if err := p.store.MarkWebhookProcessed(ctx, event.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark webhook processed: %w", err)
	}

	p.logger.WithField("repository", repo.FullName).Infof("Processed PR %s event", payload.Action)
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
