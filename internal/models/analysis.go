package models

// Suggestion types produced by the analyzer. Only code improvements are
// eligible for automated PR generation.
const (
	SuggestionTypeCodeImprovement = "code_improvement"
	SuggestionTypeSecurity        = "security"
	SuggestionTypePerformance     = "performance"
	SuggestionTypeTesting         = "testing"
	SuggestionTypeDocumentation   = "documentation"
)

// CommitAssessment is the structured portion of an analysis. The fields are
// free-text commentary keyed by concern.
type CommitAssessment struct {
	CommitType       string `json:"commit_type"`
	Complexity       string `json:"complexity"`
	CodeQuality      string `json:"code_quality"`
	SecurityConcerns string `json:"security_concerns"`
	PerformanceNotes string `json:"performance_notes"`
	BestPractices    string `json:"best_practices"`
	TestingCoverage  string `json:"testing_coverage"`
}

// Suggestion is one actionable improvement proposed by the analyzer.
type Suggestion struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	Implementation  string   `json:"implementation"`
	Benefits        string   `json:"benefits"`
	RiskLevel       string   `json:"risk_level"`
	Impact          string   `json:"impact"`
	FilesAffected   []string `json:"files_affected"`
	EstimatedEffort string   `json:"estimated_effort"`
}

// AnalysisResult is the analyzer boundary output for a single commit. Scores
// arrive untrusted and must be clamped by the caller before persistence.
type AnalysisResult struct {
	Analysis       CommitAssessment `json:"analysis"`
	RiskScore      int              `json:"risk_score"`
	QualityScore   int              `json:"quality_score"`
	Suggestions    []Suggestion     `json:"suggestions"`
	ShouldCreatePR bool             `json:"should_create_pr"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
}

// ClampScore bounds an analyzer-provided score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
