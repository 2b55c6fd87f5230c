package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub REST API operations the pipeline needs: reading
// branch heads and creating branches, files and pull requests.
type Client struct {
	api    *gh.Client
	logger *logrus.Logger
}

// NewClient creates an authenticated GitHub client with the given token.
func NewClient(token string, timeout time.Duration, logger *logrus.Logger) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = timeout

	return &Client{
		api:    gh.NewClient(httpClient),
		logger: logger,
	}
}

// GetDefaultBranch returns the default branch name of a repository.
func (c *Client) GetDefaultBranch(ctx context.Context, fullName string) (string, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return "", err
	}

	repo, _, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s: %w", fullName, err)
	}
	return repo.GetDefaultBranch(), nil
}

// GetBranchHead returns the commit SHA at the tip of a branch.
func (c *Client) GetBranchHead(ctx context.Context, fullName, branch string) (string, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return "", err
	}

	ref, _, err := c.api.Git.GetRef(ctx, owner, name, "heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("failed to get ref heads/%s: %w", branch, err)
	}
	return ref.GetObject().GetSHA(), nil
}

// CreateBranch creates a new branch pointing at the given commit SHA.
func (c *Client) CreateBranch(ctx context.Context, fullName, branch, sha string) error {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return err
	}

	_, _, err = c.api.Git.CreateRef(ctx, owner, name, &gh.Reference{
		Ref:    gh.String("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: gh.String(sha)},
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// CreateFile commits a new file to a branch.
func (c *Client) CreateFile(ctx context.Context, fullName, branch, path, message string, content []byte) error {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return err
	}

	_, _, err = c.api.Repositories.CreateFile(ctx, owner, name, path, &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: content,
		Branch:  gh.String(branch),
	})
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return nil
}

// CreatePullRequest opens a pull request from head into base and returns its URL.
func (c *Client) CreatePullRequest(ctx context.Context, fullName, title, body, head, base string) (string, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return "", err
	}

	pr, _, err := c.api.PullRequests.Create(ctx, owner, name, &gh.NewPullRequest{
		Title: gh.String(title),
		Body:  gh.String(body),
		Head:  gh.String(head),
		Base:  gh.String(base),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create pull request: %w", err)
	}
	return pr.GetHTMLURL(), nil
}

// GetCommitDiff returns the raw diff of a commit. Used to enrich analysis
// prompts; callers treat failures as "no diff available".
func (c *Client) GetCommitDiff(ctx context.Context, fullName, sha string) (string, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return "", err
	}

	diff, _, err := c.api.Repositories.GetCommitRaw(ctx, owner, name, sha, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", fmt.Errorf("failed to get diff for %s: %w", sha, err)
	}
	return diff, nil
}

func splitFullName(fullName string) (owner, name string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q, expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
