// Package hosting is the boundary to the remote hosting API. The orchestrator
// depends only on the Client interface; the GitHub implementation lives in
// github.go.
package hosting

import (
	"context"
	"fmt"
)

// Client is the contract against the hosting API. All operations may fail
// with a transport or auth error, which callers propagate as a fatal error
// for the agent sync attempt in flight; nothing here retries internally.
type Client interface {
	// CreateRepo creates a repository under the organization and returns
	// its clone URL for the given auth method. A repository that already
	// exists is success: the existing clone URL is returned.
	CreateRepo(ctx context.Context, org, name, description, visibility, authMethod string) (string, error)
	// RepoExists reports whether the repository exists.
	RepoExists(ctx context.Context, org, name string) (bool, error)
	// CloneURL computes the clone URL for a repository known to exist,
	// without a network call.
	CloneURL(org, name, authMethod string) string
	// Archive marks the repository archived.
	Archive(ctx context.Context, org, name string) error
	// Delete removes the repository. Destructive and irreversible.
	Delete(ctx context.Context, org, name string) error
	// DefaultBranch returns the repository's default branch, falling back
	// to "main" when the lookup fails.
	DefaultBranch(ctx context.Context, org, name string) string
}

// SSHCloneURL returns the SSH clone URL for a GitHub-style remote.
func SSHCloneURL(org, name string) string {
	return fmt.Sprintf("git@github.com:%s/%s.git", org, name)
}

// HTTPSCloneURL returns the HTTPS clone URL for a GitHub-style remote.
func HTTPSCloneURL(org, name string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", org, name)
}
