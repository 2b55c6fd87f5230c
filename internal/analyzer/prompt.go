package analyzer

import (
	"fmt"
	"strings"

	"github.com/devplatform/github-automation/internal/models"
)

const (
	maxListedFiles = 10
	maxDiffChars   = 6000
)

// buildCommitPrompt renders the user message for a single commit. Changed
// file lists and the diff are capped so large commits stay inside the
// context window.
func buildCommitPrompt(commit *models.PushCommit, repo *models.Repository, diff string) string {
	var b strings.Builder

	b.WriteString("Analyze this commit and respond with a JSON object.\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", repo.FullName)
	if repo.Language != "" {
		fmt.Fprintf(&b, "Primary language: %s\n", repo.Language)
	}
	fmt.Fprintf(&b, "Commit SHA: %s\n", commit.ID)
	fmt.Fprintf(&b, "Author: %s\n", commit.Author.Name)
	if !commit.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", commit.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Message: %s\n\n", commit.Message)

	writeFileList(&b, "Added files", commit.Added)
	writeFileList(&b, "Modified files", commit.Modified)
	writeFileList(&b, "Removed files", commit.Removed)

	if diff != "" {
		if len(diff) > maxDiffChars {
			diff = diff[:maxDiffChars] + "\n... (diff truncated)"
		}
		fmt.Fprintf(&b, "Diff:\n```\n%s\n```\n", diff)
	}

	b.WriteString(`
Respond with JSON using exactly this structure:
{
  "analysis": {
    "commit_type": "feature|bugfix|refactor|docs|test|chore|unknown",
    "complexity": "low|medium|high",
    "code_quality": "assessment of code quality",
    "security_concerns": "any security issues found",
    "performance_notes": "performance considerations",
    "best_practices": "adherence to best practices",
    "testing_coverage": "testing implications"
  },
  "risk_score": 0-100,
  "quality_score": 0-100,
  "suggestions": [
    {
      "type": "code_improvement|security|performance|documentation|testing",
      "title": "short title",
      "description": "what to improve and why",
      "priority": "low|medium|high",
      "implementation": "how to implement the change",
      "benefits": "expected benefits",
      "risk_level": "low|medium|high",
      "impact": "impact of the change",
      "files_affected": ["path/to/file"],
      "estimated_effort": "time estimate"
    }
  ],
  "should_create_pr": true/false
}

Set should_create_pr to true only when there are concrete, low-risk
code_improvement suggestions worth applying automatically.`)

	return b.String()
}

func writeFileList(b *strings.Builder, label string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", label, len(files))
	for i, f := range files {
		if i == maxListedFiles {
			fmt.Fprintf(b, "  ... and %d more\n", len(files)-maxListedFiles)
			break
		}
		fmt.Fprintf(b, "  %s\n", f)
	}
	b.WriteString("\n")
}
