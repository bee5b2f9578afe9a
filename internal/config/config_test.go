package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"github": {"org": "test-org"}}`)

	m := NewManager(tmpDir)
	m.SetWarnFunc(func(format string, args ...interface{}) {})

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GitHub.Org != "test-org" {
		t.Errorf("expected org 'test-org', got %q", cfg.GitHub.Org)
	}
	if cfg.GitHub.AuthMethod != "ssh" {
		t.Errorf("expected default auth_method 'ssh', got %q", cfg.GitHub.AuthMethod)
	}
	if cfg.GitHub.DefaultVisibility != "public" {
		t.Errorf("expected default visibility 'public', got %q", cfg.GitHub.DefaultVisibility)
	}
	if !cfg.Sync.AutoSyncOnCommit {
		t.Error("expected auto_sync_on_commit default true")
	}
	if !cfg.Sync.PushToMain {
		t.Error("expected push_to_main default true")
	}
	if cfg.AgentConfig.RepoNaming != "{config_stem}" {
		t.Errorf("expected default repo_naming '{config_stem}', got %q", cfg.AgentConfig.RepoNaming)
	}
	if cfg.RateLimits.NewReposPerDay != 0 {
		t.Errorf("expected default new_repos_per_day 0, got %d", cfg.RateLimits.NewReposPerDay)
	}
	if cfg.RateLimits.UpdatesPerHour != 0 {
		t.Errorf("expected default updates_per_hour 0, got %d", cfg.RateLimits.UpdatesPerHour)
	}
}

func TestLoadFullDocument(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{
	  "github": {
	    "org": "acme",
	    "token_env_var": "ACME_TOKEN",
	    "auth_method": "https",
	    "default_visibility": "private"
	  },
	  "sync": {"auto_sync_on_commit": false, "push_to_main": false},
	  "agent_config": {"repo_naming": "agent-{config_stem}"},
	  "rate_limits": {"new_repos_per_day": 5, "updates_per_hour": 10},
	  "excluded_configs": ["agent-configs/experimental/*"]
	}`)

	os.Setenv("ACME_TOKEN", "tok-123")
	defer os.Unsetenv("ACME_TOKEN")

	m := NewManager(tmpDir)

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GitHub.TokenEnvVar != "ACME_TOKEN" {
		t.Errorf("expected token_env_var 'ACME_TOKEN', got %q", cfg.GitHub.TokenEnvVar)
	}
	if m.AuthMethod() != "https" {
		t.Errorf("expected auth method 'https', got %q", m.AuthMethod())
	}
	if m.DefaultVisibility() != "private" {
		t.Errorf("expected visibility 'private', got %q", m.DefaultVisibility())
	}
	if m.AutoSync() {
		t.Error("expected AutoSync false")
	}
	if m.PushToMain() {
		t.Error("expected PushToMain false")
	}
	if m.NewReposPerDay() != 5 {
		t.Errorf("expected new_repos_per_day 5, got %d", m.NewReposPerDay())
	}
	if m.UpdatesPerHour() != 10 {
		t.Errorf("expected updates_per_hour 10, got %d", m.UpdatesPerHour())
	}

	token, err := m.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("expected token 'tok-123', got %q", token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadMissingOrg(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"github": {"auth_method": "ssh"}}`)

	m := NewManager(tmpDir)
	if _, err := m.Load(); err == nil {
		t.Error("expected error for missing github.org")
	}
}

func TestLoadMissingGitHubSection(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"sync": {"auto_sync_on_commit": true}}`)

	m := NewManager(tmpDir)
	if _, err := m.Load(); err == nil {
		t.Error("expected error for missing github section")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"github": {`)

	m := NewManager(tmpDir)
	if _, err := m.Load(); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMissingTokenWarnsButLoads(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"github": {"org": "acme", "token_env_var": "AGENTSYNC_TEST_UNSET_TOKEN"}}`)

	var warned bool
	m := NewManager(tmpDir)
	m.SetWarnFunc(func(format string, args ...interface{}) { warned = true })

	if _, err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !warned {
		t.Error("expected a warning for the unset token variable")
	}

	if _, err := m.Token(); err == nil {
		t.Error("expected Token to fail when the variable is unset")
	}
}

func TestEnvFileOverridesEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"github": {"org": "acme", "token_env_var": "AGENTSYNC_TEST_TOKEN"}}`)

	envFile := filepath.Join(tmpDir, EnvFileName)
	if err := os.WriteFile(envFile, []byte("AGENTSYNC_TEST_TOKEN=from-file\n"), 0644); err != nil {
		t.Fatalf("failed to write .env file: %v", err)
	}

	os.Setenv("AGENTSYNC_TEST_TOKEN", "from-shell")
	defer os.Unsetenv("AGENTSYNC_TEST_TOKEN")

	m := NewManager(tmpDir)
	token, err := m.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "from-file" {
		t.Errorf("expected .env value 'from-file' to win, got %q", token)
	}
}

func TestIsExcluded(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{
	  "github": {"org": "acme"},
	  "excluded_configs": ["agent-configs/experimental/*", "*-draft.json"]
	}`)

	m := NewManager(tmpDir)
	m.SetWarnFunc(func(format string, args ...interface{}) {})

	tests := []struct {
		path     string
		excluded bool
	}{
		{"agent-configs/experimental/bot.json", true},
		{"agent-configs/chatbot/bot.json", false},
		{"agent-configs/chatbot/bot-draft.json", true},
		{"agent-configs/experimental/nested/bot.json", false},
		{"agent-configs/chatbot/draft.json", false},
	}

	for _, tc := range tests {
		if got := m.IsExcluded(tc.path); got != tc.excluded {
			t.Errorf("IsExcluded(%q) = %v, want %v", tc.path, got, tc.excluded)
		}
	}
}

func TestRepoName(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{
	  "github": {"org": "acme"},
	  "agent_config": {"repo_naming": "{template}-{config_stem}-agent"}
	}`)

	m := NewManager(tmpDir)
	m.SetWarnFunc(func(format string, args ...interface{}) {})

	name := m.RepoName("agent-configs/chatbot/support-bot.json", "chatbot")
	if name != "chatbot-support-bot-agent" {
		t.Errorf("expected 'chatbot-support-bot-agent', got %q", name)
	}
}

func TestRepoNameDefaultPattern(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"github": {"org": "acme"}}`)

	m := NewManager(tmpDir)
	m.SetWarnFunc(func(format string, args ...interface{}) {})

	name := m.RepoName("agent-configs/chatbot/support-bot.json", "chatbot")
	if name != "support-bot" {
		t.Errorf("expected 'support-bot', got %q", name)
	}
}

func TestReload(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"github": {"org": "first"}}`)

	m := NewManager(tmpDir)
	m.SetWarnFunc(func(format string, args ...interface{}) {})

	org, err := m.Org()
	if err != nil {
		t.Fatalf("Org failed: %v", err)
	}
	if org != "first" {
		t.Errorf("expected org 'first', got %q", org)
	}

	writeConfig(t, tmpDir, `{"github": {"org": "second"}}`)
	m.Reload()

	org, err = m.Org()
	if err != nil {
		t.Fatalf("Org failed after reload: %v", err)
	}
	if org != "second" {
		t.Errorf("expected org 'second' after reload, got %q", org)
	}
}
