package github

import "fmt"

// Reason classifies why improvement PR generation was abandoned.
type Reason string

const (
	ReasonNoSuggestions        Reason = "no_suggestions"
	ReasonNoBaseCommit         Reason = "no_base_commit"
	ReasonBranchCreationFailed Reason = "branch_creation_failed"
	ReasonPRCreationFailed     Reason = "pr_creation_failed"
)

// GenerationError reports a failed PR generation attempt together with its
// classification.
type GenerationError struct {
	Reason Reason
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pr generation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("pr generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(reason Reason, err error) *GenerationError {
	return &GenerationError{Reason: reason, Err: err}
}
