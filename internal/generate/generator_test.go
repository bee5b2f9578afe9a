package generate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/templateforge/agentsync/internal/gitops"
	"github.com/templateforge/agentsync/internal/render"
)

// fakePort records the version-control operations the workflow performs.
type fakePort struct {
	initNew   bool
	commitErr error
	pushErr   error

	calls      []string
	commitMsg  string
	pushBranch string
	pushForce  bool
	remoteURL  string
}

func (f *fakePort) Init(dir string) (bool, error) {
	f.calls = append(f.calls, "init")
	return f.initNew, nil
}

func (f *fakePort) HasRepo(dir string) bool { return !f.initNew }

func (f *fakePort) SetRemote(dir, name, url string) error {
	f.calls = append(f.calls, "remote")
	f.remoteURL = url
	return nil
}

func (f *fakePort) RemoteURL(dir, name string) string { return f.remoteURL }

func (f *fakePort) AddAll(dir string) error {
	f.calls = append(f.calls, "add")
	return nil
}

func (f *fakePort) Commit(dir, message string) (string, error) {
	f.calls = append(f.calls, "commit")
	f.commitMsg = message
	if f.commitErr != nil {
		return "", f.commitErr
	}
	return "deadbeef", nil
}

func (f *fakePort) Head(dir string) (string, error) { return "deadbeef", nil }

func (f *fakePort) EnsureBranch(dir, branch string) error {
	f.calls = append(f.calls, "branch")
	return nil
}

func (f *fakePort) Push(dir, branch string, force bool) error {
	f.calls = append(f.calls, "push")
	f.pushBranch = branch
	f.pushForce = force
	return f.pushErr
}

var _ gitops.Port = (*fakePort)(nil)

func setupRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(rel, content string) {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}

	write("agent-configs/chatbot/bot.json", `{"name": "bot", "purpose": "support"}`)
	write("templates/chatbot/README.md", "# {{.name}}\n")
	write("templates/chatbot/src/main.py", "PURPOSE = \"{{.purpose}}\"\n")
	return root
}

func newGenerator(root string, port gitops.Port) *Generator {
	return NewGenerator(root, render.NewTreeRenderer(), port)
}

func TestOutputDir(t *testing.T) {
	g := newGenerator("/repo", &fakePort{})
	got := g.OutputDir("agent-configs/chatbot/bot.json", "chatbot")
	want := filepath.Join("/repo", "generated", "chatbot", "bot")
	if got != want {
		t.Errorf("OutputDir = %q, want %q", got, want)
	}
}

func TestGenerate(t *testing.T) {
	root := setupRepo(t)
	g := newGenerator(root, &fakePort{})

	dir, err := g.Generate("agent-configs/chatbot/bot.json", "chatbot", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if dir != filepath.Join(root, "generated", "chatbot", "bot") {
		t.Errorf("unexpected output dir %q", dir)
	}

	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatalf("read README: %v", err)
	}
	if string(data) != "# bot\n" {
		t.Errorf("unexpected README contents: %q", data)
	}

	data, err = os.ReadFile(filepath.Join(dir, "src", "main.py"))
	if err != nil {
		t.Fatalf("read main.py: %v", err)
	}
	if string(data) != "PURPOSE = \"support\"\n" {
		t.Errorf("unexpected main.py contents: %q", data)
	}
}

func TestGenerateClearsStaleFilesKeepsGit(t *testing.T) {
	root := setupRepo(t)
	g := newGenerator(root, &fakePort{})

	outDir := g.OutputDir("agent-configs/chatbot/bot.json", "chatbot")
	if err := os.MkdirAll(filepath.Join(outDir, ".git"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, ".git", "HEAD"), []byte("ref"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "stale.txt"), []byte("old"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := g.Generate("agent-configs/chatbot/bot.json", "chatbot", ""); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "stale.txt")); !os.IsNotExist(err) {
		t.Error("expected stale file to be cleared")
	}
	if _, err := os.Stat(filepath.Join(outDir, ".git", "HEAD")); err != nil {
		t.Error("expected .git to survive regeneration")
	}
}

func TestGenerateMissingConfig(t *testing.T) {
	root := setupRepo(t)
	g := newGenerator(root, &fakePort{})

	if _, err := g.Generate("agent-configs/chatbot/missing.json", "chatbot", ""); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGenerateInvalidConfig(t *testing.T) {
	root := setupRepo(t)
	bad := filepath.Join(root, "agent-configs", "chatbot", "bad.json")
	if err := os.WriteFile(bad, []byte("[1, 2, 3]"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	g := newGenerator(root, &fakePort{})
	if _, err := g.Generate("agent-configs/chatbot/bad.json", "chatbot", ""); err == nil {
		t.Error("expected error for non-object config")
	}
}

func TestGenerateMissingTemplate(t *testing.T) {
	root := setupRepo(t)
	g := newGenerator(root, &fakePort{})

	if _, err := g.Generate("agent-configs/chatbot/bot.json", "nope", ""); err == nil {
		t.Error("expected error for missing template directory")
	}
}

func TestSyncAgentInitial(t *testing.T) {
	root := setupRepo(t)
	port := &fakePort{initNew: true}
	g := newGenerator(root, port)

	dir, sha, err := g.SyncAgent("agent-configs/chatbot/bot.json", "chatbot", "git@example.com:acme/bot.git", "main", true)
	if err != nil {
		t.Fatalf("SyncAgent failed: %v", err)
	}
	if dir == "" || sha != "deadbeef" {
		t.Errorf("unexpected result dir=%q sha=%q", dir, sha)
	}

	want := []string{"init", "remote", "add", "commit", "branch", "push"}
	if strings.Join(port.calls, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected operation order %v, want %v", port.calls, want)
	}
	if port.commitMsg != initialCommitMessage {
		t.Errorf("expected initial commit message, got %q", port.commitMsg)
	}
	if port.pushBranch != "main" || !port.pushForce {
		t.Errorf("expected forced push to main, got branch=%q force=%v", port.pushBranch, port.pushForce)
	}
	if port.remoteURL != "git@example.com:acme/bot.git" {
		t.Errorf("unexpected remote URL %q", port.remoteURL)
	}
}

func TestSyncAgentUpdate(t *testing.T) {
	root := setupRepo(t)
	port := &fakePort{initNew: false}
	g := newGenerator(root, port)

	_, _, err := g.SyncAgent("agent-configs/chatbot/bot.json", "chatbot", "url", "main", false)
	if err != nil {
		t.Fatalf("SyncAgent failed: %v", err)
	}

	if port.commitMsg != updateCommitMessage {
		t.Errorf("expected update commit message, got %q", port.commitMsg)
	}
	if port.pushForce {
		t.Error("updates must never force-push")
	}
}

func TestSyncAgentFreshRepoGetsInitialMessage(t *testing.T) {
	root := setupRepo(t)

	// Even on the update path, a repository that had to be initialized gets
	// the initial commit message.
	port := &fakePort{initNew: true}
	g := newGenerator(root, port)

	_, _, err := g.SyncAgent("agent-configs/chatbot/bot.json", "chatbot", "url", "main", false)
	if err != nil {
		t.Fatalf("SyncAgent failed: %v", err)
	}
	if port.commitMsg != initialCommitMessage {
		t.Errorf("expected initial commit message for a fresh repository, got %q", port.commitMsg)
	}
}

func TestSyncAgentPushFailureAborts(t *testing.T) {
	root := setupRepo(t)
	port := &fakePort{pushErr: errors.New("remote rejected")}
	g := newGenerator(root, port)

	_, _, err := g.SyncAgent("agent-configs/chatbot/bot.json", "chatbot", "url", "main", false)
	if err == nil {
		t.Fatal("expected push failure to propagate")
	}
	if !strings.Contains(err.Error(), "remote rejected") {
		t.Errorf("expected push error, got %v", err)
	}
}

func TestSyncAgentCommitFailureSkipsPush(t *testing.T) {
	root := setupRepo(t)
	port := &fakePort{commitErr: errors.New("hook rejected")}
	g := newGenerator(root, port)

	_, _, err := g.SyncAgent("agent-configs/chatbot/bot.json", "chatbot", "url", "main", false)
	if err == nil {
		t.Fatal("expected commit failure to propagate")
	}
	for _, call := range port.calls {
		if call == "push" {
			t.Error("push must not run after a failed commit")
		}
	}
}
