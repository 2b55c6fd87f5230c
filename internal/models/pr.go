package models

// PullRequestResult is the output of a successful improvement-PR generation.
type PullRequestResult struct {
	URL               string `json:"pr_url"`
	Title             string `json:"pr_title"`
	Description       string `json:"pr_description"`
	BranchName        string `json:"branch_name"`
	ImprovementsCount int    `json:"improvements_count"`
}
