package models

import "time"

// RepositoryPayload is the repository sub-object common to all GitHub webhook
// payloads.
type RepositoryPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	CloneURL    string `json:"clone_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	OpenIssues  int    `json:"open_issues_count"`
	Private     bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
}

// CommitAuthor identifies the author of a pushed commit.
type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PushCommit is one commit inside a push payload.
type PushCommit struct {
	ID        string       `json:"id"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	URL       string       `json:"url"`
	Author    CommitAuthor `json:"author"`
	Parents   []string     `json:"parents"`
	Added     []string     `json:"added"`
	Modified  []string     `json:"modified"`
	Removed   []string     `json:"removed"`
}

// IsMerge reports whether the commit is a merge commit. Merge commits carry no
// net new authorship and are skipped by the push processor.
func (c *PushCommit) IsMerge() bool {
	return len(c.Parents) > 1
}

// PushPayload is the subset of a GitHub push event the pipeline consumes.
type PushPayload struct {
	Ref        string            `json:"ref"`
	Repository RepositoryPayload `json:"repository"`
	Commits    []PushCommit      `json:"commits"`
}

// PullRequestPayload is the subset of a GitHub pull_request event the pipeline
// consumes.
type PullRequestPayload struct {
	Action     string            `json:"action"`
	Repository RepositoryPayload `json:"repository"`
	PullRequest struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		User    struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"pull_request"`
}
