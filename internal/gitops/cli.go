package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CLI implements Port by shelling out to the git command.
type CLI struct{}

// NewCLI creates the subprocess-backed port implementation.
func NewCLI() *CLI {
	return &CLI{}
}

// run executes a git command in dir and returns its trimmed output.
func (c *CLI) run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// runSilent executes a git command in dir and discards output.
func (c *CLI) runSilent(dir string, args ...string) error {
	_, err := c.run(dir, args...)
	return err
}

// HasRepo reports whether dir contains a .git directory.
func (c *CLI) HasRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// Init initializes a repository in dir if none exists. Returns true when a
// repository was newly created.
func (c *CLI) Init(dir string) (bool, error) {
	if c.HasRepo(dir) {
		return false, nil
	}
	if err := c.runSilent(dir, "init"); err != nil {
		return false, fmt.Errorf("init repository: %w", err)
	}
	return true, nil
}

// RemoteURL returns the URL of the named remote, or "" when it is absent.
func (c *CLI) RemoteURL(dir, name string) string {
	url, err := c.run(dir, "remote", "get-url", name)
	if err != nil {
		return ""
	}
	return url
}

// SetRemote adds the remote if absent, updates it in place if it points
// elsewhere, and no-ops when already correct.
func (c *CLI) SetRemote(dir, name, url string) error {
	current := c.RemoteURL(dir, name)
	switch {
	case current == url:
		return nil
	case current == "":
		if err := c.runSilent(dir, "remote", "add", name, url); err != nil {
			return fmt.Errorf("add remote %s: %w", name, err)
		}
	default:
		if err := c.runSilent(dir, "remote", "set-url", name, url); err != nil {
			return fmt.Errorf("update remote %s: %w", name, err)
		}
	}
	return nil
}

// AddAll stages all changes.
func (c *CLI) AddAll(dir string) error {
	if err := c.runSilent(dir, "add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	return nil
}

// Head returns the SHA of the current HEAD commit.
func (c *CLI) Head(dir string) (string, error) {
	sha, err := c.run(dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return sha, nil
}

// Commit commits staged changes and returns the new commit SHA. A clean
// working tree is detected structurally via git status before committing,
// rather than by matching the tool's error text, and is treated as a
// successful no-op returning the current HEAD.
func (c *CLI) Commit(dir, message string) (string, error) {
	status, err := c.run(dir, "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("check status: %w", err)
	}
	if status == "" {
		return c.Head(dir)
	}

	if err := c.runSilent(dir, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return c.Head(dir)
}

// branchExists reports whether the branch exists locally.
func (c *CLI) branchExists(dir, branch string) bool {
	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = dir
	return cmd.Run() == nil
}

// EnsureBranch creates and checks out the branch when it does not exist
// locally.
func (c *CLI) EnsureBranch(dir, branch string) error {
	if c.branchExists(dir, branch) {
		return nil
	}
	if err := c.runSilent(dir, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

// Push pushes the branch to origin, tracking the upstream. Force is used
// for initial pushes to overwrite a divergent remote initial commit, never
// for subsequent updates.
func (c *CLI) Push(dir, branch string, force bool) error {
	args := []string{"push", "-u"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, "origin", branch)
	if err := c.runSilent(dir, args...); err != nil {
		return fmt.Errorf("push %s: %w", branch, err)
	}
	return nil
}
