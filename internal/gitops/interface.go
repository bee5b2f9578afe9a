// Package gitops provides the version-control port used to manage agent
// repositories: init, staging, commits, branches, remotes, and pushes.
package gitops

// Port defines the version-control operations the generator depends on.
// Implementations are expected to be stateless; every operation names the
// repository directory it acts on.
type Port interface {
	// Init initializes a repository in dir if none exists. Returns true
	// when a repository was newly created.
	Init(dir string) (bool, error)
	// HasRepo reports whether dir already contains a repository.
	HasRepo(dir string) bool
	// SetRemote adds the named remote, updates it in place when it points
	// elsewhere, and no-ops when it is already correct.
	SetRemote(dir, name, url string) error
	// RemoteURL returns the URL of the named remote, or "" if absent.
	RemoteURL(dir, name string) string
	// AddAll stages all changes.
	AddAll(dir string) error
	// Commit commits staged changes and returns the new commit SHA. A
	// clean working tree is not an error: the current HEAD SHA is
	// returned unchanged, so callers must not assume a returned SHA
	// implies new content.
	Commit(dir, message string) (string, error)
	// Head returns the SHA of the current HEAD commit.
	Head(dir string) (string, error)
	// EnsureBranch creates and checks out the branch if it does not exist
	// locally, and no-ops when it does.
	EnsureBranch(dir, branch string) error
	// Push pushes the branch to the origin remote, tracking the upstream.
	// Force is used for initial pushes only.
	Push(dir, branch string, force bool) error
}

// Compile-time verification that CLI implements the port.
var _ Port = (*CLI)(nil)
