package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/github-automation/internal/models"
)

const maxPRSuggestions = 3

// branchAPI is the subset of Client used by the generator, split out so tests
// can substitute a fake.
type branchAPI interface {
	GetDefaultBranch(ctx context.Context, fullName string) (string, error)
	GetBranchHead(ctx context.Context, fullName, branch string) (string, error)
	CreateBranch(ctx context.Context, fullName, branch, sha string) error
	CreateFile(ctx context.Context, fullName, branch, path, message string, content []byte) error
	CreatePullRequest(ctx context.Context, fullName, title, body, head, base string) (string, error)
}

// Generator turns analysis suggestions into an improvement pull request:
// a branch off the default branch carrying one markdown document per
// suggestion, then a PR summarizing the analysis.
type Generator struct {
	client branchAPI
	logger *logrus.Logger
}

func NewGenerator(client *Client, logger *logrus.Logger) *Generator {
	return &Generator{client: client, logger: logger}
}

// CreateImprovementPR opens a pull request documenting up to three
// code_improvement suggestions. Every failure is classified with a
// GenerationError so the caller can record why no PR exists.
func (g *Generator) CreateImprovementPR(ctx context.Context, repo *models.Repository, analysis *models.CommitAnalysis, suggestions []models.Suggestion) (*models.PullRequestResult, error) {
	selected := selectSuggestions(suggestions)
	if len(selected) == 0 {
		return nil, newGenerationError(ReasonNoSuggestions, nil)
	}

	baseBranch, err := g.client.GetDefaultBranch(ctx, repo.FullName)
	if err != nil {
		return nil, newGenerationError(ReasonNoBaseCommit, err)
	}
	baseSHA, err := g.client.GetBranchHead(ctx, repo.FullName, baseBranch)
	if err != nil {
		return nil, newGenerationError(ReasonNoBaseCommit, err)
	}

	branch := branchName(analysis.CommitSHA)
	if err := g.client.CreateBranch(ctx, repo.FullName, branch, baseSHA); err != nil {
		return nil, newGenerationError(ReasonBranchCreationFailed, err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	for i, s := range selected {
		path := fmt.Sprintf("improvements/suggestion_%d_%s.md", i+1, ts)
		message := fmt.Sprintf("Add improvement suggestion: %s", s.Title)
		if err := g.client.CreateFile(ctx, repo.FullName, branch, path, message, suggestionDocument(s, analysis)); err != nil {
			g.logger.WithError(err).Warnf("Failed to add suggestion file %s", path)
		}
	}

	title := fmt.Sprintf("🤖 Automated improvements for %s", shortSHA(analysis.CommitSHA))
	body := prBody(analysis, selected)
	url, err := g.client.CreatePullRequest(ctx, repo.FullName, title, body, branch, baseBranch)
	if err != nil {
		return nil, newGenerationError(ReasonPRCreationFailed, err)
	}

	g.logger.Infof("Created improvement PR %s for commit %s", url, shortSHA(analysis.CommitSHA))

	return &models.PullRequestResult{
		URL:               url,
		Title:             title,
		Description:       body,
		BranchName:        branch,
		ImprovementsCount: len(selected),
	}, nil
}

// selectSuggestions keeps only code improvements, capped at maxPRSuggestions.
func selectSuggestions(suggestions []models.Suggestion) []models.Suggestion {
	var selected []models.Suggestion
	for _, s := range suggestions {
		if s.Type != models.SuggestionTypeCodeImprovement {
			continue
		}
		selected = append(selected, s)
		if len(selected) == maxPRSuggestions {
			break
		}
	}
	return selected
}

func branchName(sha string) string {
	return fmt.Sprintf("auto-improvement-%s-%s", shortSHA(sha), time.Now().UTC().Format("20060102-150405"))
}

func suggestionDocument(s models.Suggestion, analysis *models.CommitAnalysis) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "**Commit:** `%s`\n\n", analysis.CommitSHA)
	fmt.Fprintf(&b, "**Priority:** %s | **Risk:** %s\n\n", s.Priority, s.RiskLevel)
	fmt.Fprintf(&b, "## Description\n\n%s\n\n", s.Description)
	if s.Implementation != "" {
		fmt.Fprintf(&b, "## Implementation\n\n%s\n\n", s.Implementation)
	}
	if s.Benefits != "" {
		fmt.Fprintf(&b, "## Benefits\n\n%s\n\n", s.Benefits)
	}
	if len(s.FilesAffected) > 0 {
		b.WriteString("## Files Affected\n\n")
		for _, f := range s.FilesAffected {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
		b.WriteString("\n")
	}
	if s.EstimatedEffort != "" {
		fmt.Fprintf(&b, "**Estimated effort:** %s\n", s.EstimatedEffort)
	}

	return []byte(b.String())
}

func prBody(analysis *models.CommitAnalysis, selected []models.Suggestion) string {
	var b strings.Builder

	b.WriteString("## Automated Code Improvements\n\n")
	fmt.Fprintf(&b, "This PR contains improvement suggestions for commit `%s`.\n\n", shortSHA(analysis.CommitSHA))
	if analysis.RiskScore != nil && analysis.QualityScore != nil {
		fmt.Fprintf(&b, "**Risk score:** %d/100 | **Quality score:** %d/100\n\n", *analysis.RiskScore, *analysis.QualityScore)
	}
	b.WriteString("### Suggestions\n\n")
	for i, s := range selected {
		fmt.Fprintf(&b, "%d. **%s** (%s priority): %s\n", i+1, s.Title, s.Priority, s.Description)
	}
	b.WriteString("\nEach suggestion is documented in detail under `improvements/`.\n")

	return b.String()
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
