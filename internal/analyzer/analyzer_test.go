package analyzer

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplatform/github-automation/internal/models"
)

func testService() *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Service{model: "gpt-4o", timeout: time.Second, logger: logger}
}

func testCommit() *models.PushCommit {
	return &models.PushCommit{
		ID:       "aaa1112223334445556667778889990001112223",
		Message:  "feat: add parser",
		Author:   models.CommitAuthor{Name: "Dev", Email: "dev@example.com"},
		Added:    []string{"parser.go"},
		Modified: []string{"main.go", "go.mod"},
	}
}

func TestBuildCommitPrompt(t *testing.T) {
	commit := testCommit()
	repo := &models.Repository{FullName: "acme/demo", Language: "Go"}

	prompt := buildCommitPrompt(commit, repo, "")

	assert.Contains(t, prompt, "Repository: acme/demo")
	assert.Contains(t, prompt, "Primary language: Go")
	assert.Contains(t, prompt, commit.ID)
	assert.Contains(t, prompt, "feat: add parser")
	assert.Contains(t, prompt, "Added files (1):")
	assert.Contains(t, prompt, "Modified files (2):")
	assert.NotContains(t, prompt, "Removed files")
	assert.Contains(t, prompt, `"should_create_pr"`)
}

func TestBuildCommitPromptCapsFileLists(t *testing.T) {
	commit := testCommit()
	commit.Modified = nil
	for i := 0; i < 25; i++ {
		commit.Modified = append(commit.Modified, "file.go")
	}

	prompt := buildCommitPrompt(commit, &models.Repository{FullName: "acme/demo"}, "")

	assert.Contains(t, prompt, "Modified files (25):")
	assert.Contains(t, prompt, "... and 15 more")
	assert.Equal(t, maxListedFiles, strings.Count(prompt, "  file.go\n"))
}

func TestBuildCommitPromptIncludesDiff(t *testing.T) {
	repo := &models.Repository{FullName: "acme/demo"}

	prompt := buildCommitPrompt(testCommit(), repo, "diff --git a/main.go b/main.go")
	assert.Contains(t, prompt, "diff --git a/main.go")

	long := strings.Repeat("x", maxDiffChars+100)
	prompt = buildCommitPrompt(testCommit(), repo, long)
	assert.Contains(t, prompt, "(diff truncated)")
	assert.NotContains(t, prompt, long)
}

func TestFallbackResult(t *testing.T) {
	svc := testService()
	commit := testCommit()

	result := svc.fallback(commit)

	assert.Equal(t, 50, result.RiskScore)
	assert.Equal(t, 50, result.QualityScore)
	assert.False(t, result.ShouldCreatePR)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "Manual Code Review Recommended", result.Suggestions[0].Title)
	assert.Equal(t, models.SuggestionTypeCodeImprovement, result.Suggestions[0].Type)
	assert.Equal(t, commit.Modified, result.Suggestions[0].FilesAffected)
	assert.Equal(t, "fallback", result.Metadata["model_used"])
}

func TestNormalizeFillsSuggestionIDs(t *testing.T) {
	svc := testService()
	commit := testCommit()
	result := &models.AnalysisResult{
		Suggestions: []models.Suggestion{
			{Title: "first"},
			{ID: "keep-me", Title: "second"},
			{Title: "third"},
		},
	}

	svc.normalize(result, commit)

	assert.Equal(t, "suggestion_1_aaa11122", result.Suggestions[0].ID)
	assert.Equal(t, "keep-me", result.Suggestions[1].ID)
	assert.Equal(t, "suggestion_3_aaa11122", result.Suggestions[2].ID)

	assert.Equal(t, commit.ID, result.Metadata["commit_sha"])
	assert.Equal(t, "gpt-4o", result.Metadata["model_used"])
	assert.Equal(t, 3, result.Metadata["suggestions_count"])
	assert.NotEmpty(t, result.Metadata["analysis_id"])
}
