package detect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/templateforge/agentsync/pkg/models"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func commitAll(t *testing.T, w *git.Worktree, msg string) {
	t.Helper()
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestChangedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	repo, err := git.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	writeFile(t, tmpDir, "agent-configs/chatbot/bot.json", `{"name": "bot"}`)
	writeFile(t, tmpDir, "agent-configs/chatbot/old.json", `{"name": "old"}`)
	commitAll(t, w, "first")

	writeFile(t, tmpDir, "agent-configs/chatbot/bot.json", `{"name": "bot", "v": 2}`)
	writeFile(t, tmpDir, "templates/chatbot/README.md", "readme")
	if err := os.Remove(filepath.Join(tmpDir, "agent-configs/chatbot/old.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	commitAll(t, w, "second")

	files := New(tmpDir).ChangedFiles()

	want := []models.ChangedFile{
		{Status: models.ChangeModified, Path: "agent-configs/chatbot/bot.json"},
		{Status: models.ChangeDeleted, Path: "agent-configs/chatbot/old.json"},
		{Status: models.ChangeAdded, Path: "templates/chatbot/README.md"},
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d changed files, got %d: %v", len(want), len(files), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %+v, want %+v", i, files[i], want[i])
		}
	}
}

func TestChangedFilesRootCommit(t *testing.T) {
	tmpDir := t.TempDir()
	repo, err := git.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	writeFile(t, tmpDir, "agent-configs/chatbot/bot.json", "{}")
	commitAll(t, w, "root")

	if files := New(tmpDir).ChangedFiles(); files != nil {
		t.Errorf("root commit has no parent to diff against, got %v", files)
	}
}

func TestChangedFilesNoRepository(t *testing.T) {
	if files := New(t.TempDir()).ChangedFiles(); files != nil {
		t.Errorf("expected nil outside a repository, got %v", files)
	}
}

func TestCategorizeFiles(t *testing.T) {
	files := []models.ChangedFile{
		{Status: models.ChangeAdded, Path: "agent-configs/chatbot/new-bot.json"},
		{Status: models.ChangeModified, Path: "agent-configs/chatbot/support.json"},
		{Status: models.ChangeDeleted, Path: "agent-configs/pipeline/retired.json"},
		{Status: models.ChangeModified, Path: "templates/chatbot/src/main.py"},
		{Status: models.ChangeAdded, Path: "templates/chatbot/README.md"},
		{Status: models.ChangeModified, Path: "templates/pipeline/config.yaml"},
		{Status: models.ChangeModified, Path: "agent-configs/chatbot/notes.md"},
		{Status: models.ChangeModified, Path: "docs/guide.md"},
	}

	set := CategorizeFiles(files)

	if len(set.NewConfigs) != 1 || set.NewConfigs[0].Path != "agent-configs/chatbot/new-bot.json" {
		t.Errorf("unexpected new configs: %v", set.NewConfigs)
	}
	if set.NewConfigs[0].Template != "chatbot" {
		t.Errorf("expected template 'chatbot', got %q", set.NewConfigs[0].Template)
	}
	if len(set.ModifiedConfigs) != 1 || set.ModifiedConfigs[0].Path != "agent-configs/chatbot/support.json" {
		t.Errorf("unexpected modified configs: %v", set.ModifiedConfigs)
	}
	if len(set.DeletedConfigs) != 1 || set.DeletedConfigs[0].Path != "agent-configs/pipeline/retired.json" {
		t.Errorf("unexpected deleted configs: %v", set.DeletedConfigs)
	}

	if len(set.TemplateChanges) != 2 {
		t.Fatalf("expected 2 touched templates, got %v", set.TemplateChanges)
	}
	if len(set.TemplateChanges["chatbot"]) != 2 {
		t.Errorf("expected 2 chatbot template files, got %v", set.TemplateChanges["chatbot"])
	}
	if len(set.TemplateChanges["pipeline"]) != 1 {
		t.Errorf("expected 1 pipeline template file, got %v", set.TemplateChanges["pipeline"])
	}
}

func TestCategorizeFilesEmpty(t *testing.T) {
	set := CategorizeFiles(nil)
	if !set.Empty() {
		t.Error("expected empty change set")
	}
}

func TestCategorizeNonConfigExtensionIgnored(t *testing.T) {
	set := CategorizeFiles([]models.ChangedFile{
		{Status: models.ChangeAdded, Path: "agent-configs/chatbot/notes.txt"},
		{Status: models.ChangeAdded, Path: "agent-configs/README.md"},
	})
	if !set.Empty() {
		t.Errorf("non-.json files under the config root must be ignored, got %+v", set)
	}
}

func TestConfigsForTemplate(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "agent-configs/chatbot/b.json", "{}")
	writeFile(t, tmpDir, "agent-configs/chatbot/a.json", "{}")
	writeFile(t, tmpDir, "agent-configs/chatbot/notes.md", "x")
	if err := os.MkdirAll(filepath.Join(tmpDir, "agent-configs/chatbot/subdir"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	configs := New(tmpDir).ConfigsForTemplate("chatbot")
	want := []string{"agent-configs/chatbot/a.json", "agent-configs/chatbot/b.json"}
	if len(configs) != len(want) {
		t.Fatalf("expected %d configs, got %v", len(want), configs)
	}
	for i := range want {
		if configs[i] != want[i] {
			t.Errorf("configs[%d] = %q, want %q", i, configs[i], want[i])
		}
	}
}

func TestConfigsForTemplateMissing(t *testing.T) {
	if configs := New(t.TempDir()).ConfigsForTemplate("nope"); configs != nil {
		t.Errorf("expected nil for a missing template, got %v", configs)
	}
}

func TestTemplates(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "agent-configs/zeta/a.json", "{}")
	writeFile(t, tmpDir, "agent-configs/alpha/b.json", "{}")
	writeFile(t, tmpDir, "agent-configs/stray.json", "{}")

	templates := New(tmpDir).Templates()
	want := []string{"alpha", "zeta"}
	if len(templates) != len(want) {
		t.Fatalf("expected %v, got %v", want, templates)
	}
	for i := range want {
		if templates[i] != want[i] {
			t.Errorf("templates[%d] = %q, want %q", i, templates[i], want[i])
		}
	}
}
