package hosting

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// GitHub implements Client against the GitHub REST API.
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a GitHub client authenticated with a personal access
// token.
func NewGitHub(ctx context.Context, token string) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitHub{client: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// NewGitHubWithHTTPClient creates a GitHub client over a custom HTTP client.
// Used by tests to point at a fake server.
func NewGitHubWithHTTPClient(httpClient *http.Client, baseURL string) (*GitHub, error) {
	client := github.NewClient(httpClient)
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("setting base URL: %w", err)
		}
	}
	return &GitHub{client: client}, nil
}

// CreateRepo creates a repository under the organization. "Already exists"
// is treated as success: the existing repository's clone URL is returned.
func (g *GitHub) CreateRepo(ctx context.Context, org, name, description, visibility, authMethod string) (string, error) {
	repo := &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(visibility == "private"),
		HasIssues:   github.Bool(true),
		HasWiki:     github.Bool(false),
	}

	created, resp, err := g.client.Repositories.Create(ctx, org, repo)
	if err == nil {
		return cloneURLFromRepo(created, org, name, authMethod), nil
	}

	// 422 with a name error means the repo already exists; fetch it and
	// return its URL instead of failing.
	if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
		existing, _, getErr := g.client.Repositories.Get(ctx, org, name)
		if getErr == nil {
			return cloneURLFromRepo(existing, org, name, authMethod), nil
		}
		// The repo is there but unreadable; fall back to the computed URL.
		return g.CloneURL(org, name, authMethod), nil
	}

	return "", fmt.Errorf("creating repository %s/%s: %w", org, name, err)
}

// RepoExists reports whether the repository exists. A 404 is a definitive
// no; other errors are propagated so auth failures are not mistaken for
// missing repositories.
func (g *GitHub) RepoExists(ctx context.Context, org, name string) (bool, error) {
	_, resp, err := g.client.Repositories.Get(ctx, org, name)
	if err == nil {
		return true, nil
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("checking repository %s/%s: %w", org, name, err)
}

// CloneURL computes the clone URL without a network call.
func (g *GitHub) CloneURL(org, name, authMethod string) string {
	if authMethod == "https" {
		return HTTPSCloneURL(org, name)
	}
	return SSHCloneURL(org, name)
}

// Archive marks the repository archived.
func (g *GitHub) Archive(ctx context.Context, org, name string) error {
	_, _, err := g.client.Repositories.Edit(ctx, org, name, &github.Repository{
		Archived: github.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("archiving repository %s/%s: %w", org, name, err)
	}
	return nil
}

// Delete removes the repository.
func (g *GitHub) Delete(ctx context.Context, org, name string) error {
	if _, err := g.client.Repositories.Delete(ctx, org, name); err != nil {
		return fmt.Errorf("deleting repository %s/%s: %w", org, name, err)
	}
	return nil
}

// DefaultBranch returns the repository's default branch, or "main" when the
// lookup fails.
func (g *GitHub) DefaultBranch(ctx context.Context, org, name string) string {
	repo, _, err := g.client.Repositories.Get(ctx, org, name)
	if err != nil || repo.GetDefaultBranch() == "" {
		return "main"
	}
	return repo.GetDefaultBranch()
}

// cloneURLFromRepo prefers the URL reported by the API, falling back to the
// computed form.
func cloneURLFromRepo(repo *github.Repository, org, name, authMethod string) string {
	if authMethod == "https" {
		if url := repo.GetCloneURL(); url != "" {
			return url
		}
		return HTTPSCloneURL(org, name)
	}
	if url := repo.GetSSHURL(); url != "" {
		return url
	}
	return SSHCloneURL(org, name)
}

// Compile-time verification that GitHub implements the boundary.
var _ Client = (*GitHub)(nil)
