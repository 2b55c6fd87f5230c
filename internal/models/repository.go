package models

import "time"

// Repository is the identity anchor for all webhook-derived records. It is
// created the first time a webhook references an unseen repository and updated
// opportunistically from later deliveries.
type Repository struct {
	ID          int64     `json:"id"`
	GitHubID    int64     `json:"github_id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	URL         string    `json:"html_url"`
	CloneURL    string    `json:"clone_url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	OpenIssues  int       `json:"open_issues_count"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
