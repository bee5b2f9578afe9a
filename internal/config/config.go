// Package config handles loading and validation of the sync configuration
// document (.sync-config.json) and the optional .env override file.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the sync configuration document at the repo root.
	ConfigFileName = ".sync-config.json"
	// EnvFileName is the optional environment-override file.
	EnvFileName = ".env"
	// DefaultTokenEnvVar is the environment variable consulted for the
	// hosting token when the config does not name one.
	DefaultTokenEnvVar = "GITHUB_TOKEN"
)

// Config is the unmarshaled sync configuration document.
type Config struct {
	GitHub          GitHubConfig    `mapstructure:"github"`
	Sync            SyncConfig      `mapstructure:"sync"`
	AgentConfig     AgentConfig     `mapstructure:"agent_config"`
	RateLimits      RateLimitConfig `mapstructure:"rate_limits"`
	ExcludedConfigs []string        `mapstructure:"excluded_configs"`
}

// GitHubConfig holds hosting organization and auth settings.
type GitHubConfig struct {
	Org               string `mapstructure:"org"`
	TokenEnvVar       string `mapstructure:"token_env_var"`
	AuthMethod        string `mapstructure:"auth_method"`
	DefaultVisibility string `mapstructure:"default_visibility"`
}

// SyncConfig holds sync behavior toggles.
type SyncConfig struct {
	AutoSyncOnCommit bool `mapstructure:"auto_sync_on_commit"`
	PushToMain       bool `mapstructure:"push_to_main"`
}

// AgentConfig holds per-agent generation settings.
type AgentConfig struct {
	RepoNaming string `mapstructure:"repo_naming"`
}

// RateLimitConfig holds rate-limit thresholds. Zero means unlimited.
type RateLimitConfig struct {
	NewReposPerDay int `mapstructure:"new_repos_per_day"`
	UpdatesPerHour int `mapstructure:"updates_per_hour"`
}

// Manager loads the sync configuration once and caches it for the process
// lifetime. It is the only component that reads the config document.
type Manager struct {
	repoRoot string
	warnf    func(format string, args ...interface{})

	mu  sync.Mutex
	cfg *Config
}

// NewManager creates a configuration manager rooted at the monorepo root.
func NewManager(repoRoot string) *Manager {
	return &Manager{
		repoRoot: repoRoot,
		warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
		},
	}
}

// SetWarnFunc overrides where validation warnings go. Used by the
// orchestrator to mirror warnings into the debug log.
func (m *Manager) SetWarnFunc(warnf func(format string, args ...interface{})) {
	m.warnf = warnf
}

// Load returns the cached configuration, reading and validating it on first
// call. A missing or invalid document is a fatal configuration error.
func (m *Manager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg != nil {
		return m.cfg, nil
	}

	// The .env file is applied before the config document so that
	// credential lookups see its values. File entries win over the
	// inherited environment, matching the override contract.
	envFile := filepath.Join(m.repoRoot, EnvFileName)
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Overload(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", EnvFileName, err)
		}
	}

	configFile := filepath.Join(m.repoRoot, ConfigFileName)
	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("configuration file not found: %s (create it with your hosting org name)", configFile)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configFile)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", ConfigFileName, err)
	}

	if err := m.validate(v, cfg); err != nil {
		return nil, err
	}

	m.cfg = cfg
	return cfg, nil
}

// Reload drops the cached configuration so the next Load re-reads the
// document. Used by tests.
func (m *Manager) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = nil
}

// validate checks required fields. A missing token is a warning, not an
// error: operations that need it fail at the point of use.
func (m *Manager) validate(v *viper.Viper, cfg *Config) error {
	if !v.IsSet("github") {
		return fmt.Errorf("config missing 'github' section")
	}
	if cfg.GitHub.Org == "" {
		return fmt.Errorf("config missing 'github.org' field")
	}

	envVar := cfg.GitHub.TokenEnvVar
	if envVar == "" {
		envVar = DefaultTokenEnvVar
	}
	if os.Getenv(envVar) == "" {
		m.warnf("%s not set. Hosting operations will fail. Set it in your shell profile or %s file.", envVar, EnvFileName)
	}

	return nil
}

// setDefaults configures default values for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("github.auth_method", "ssh")
	v.SetDefault("github.default_visibility", "public")
	v.SetDefault("sync.auto_sync_on_commit", true)
	v.SetDefault("sync.push_to_main", true)
	v.SetDefault("agent_config.repo_naming", "{config_stem}")
	v.SetDefault("rate_limits.new_repos_per_day", 0)
	v.SetDefault("rate_limits.updates_per_hour", 0)
}

// Org returns the hosting organization name.
func (m *Manager) Org() (string, error) {
	cfg, err := m.Load()
	if err != nil {
		return "", err
	}
	return cfg.GitHub.Org, nil
}

// Token returns the hosting token from the environment. A missing token is
// an error here: this is the deferred failure point for credentials.
func (m *Manager) Token() (string, error) {
	cfg, err := m.Load()
	if err != nil {
		return "", err
	}

	envVar := cfg.GitHub.TokenEnvVar
	if envVar == "" {
		envVar = DefaultTokenEnvVar
	}

	token := os.Getenv(envVar)
	if token == "" {
		return "", fmt.Errorf("%s not set: set it in your shell profile or create a %s file with %s=<token>", envVar, EnvFileName, envVar)
	}
	return token, nil
}

// AuthMethod returns the clone-URL auth transport, "ssh" or "https".
// Unknown values fall back to ssh.
func (m *Manager) AuthMethod() string {
	cfg, err := m.Load()
	if err != nil {
		return "ssh"
	}
	if cfg.GitHub.AuthMethod == "https" {
		return "https"
	}
	return "ssh"
}

// DefaultVisibility returns the visibility for newly created repositories.
func (m *Manager) DefaultVisibility() string {
	cfg, err := m.Load()
	if err != nil {
		return "public"
	}
	if cfg.GitHub.DefaultVisibility == "private" {
		return "private"
	}
	return "public"
}

// AutoSync reports whether the post-commit hook should sync at all.
func (m *Manager) AutoSync() bool {
	cfg, err := m.Load()
	if err != nil {
		return true
	}
	return cfg.Sync.AutoSyncOnCommit
}

// PushToMain reports whether pushes go directly to the main branch.
func (m *Manager) PushToMain() bool {
	cfg, err := m.Load()
	if err != nil {
		return true
	}
	return cfg.Sync.PushToMain
}

// NewReposPerDay returns the creation limit for the 24-hour window.
// Zero means unlimited.
func (m *Manager) NewReposPerDay() int {
	cfg, err := m.Load()
	if err != nil {
		return 0
	}
	return cfg.RateLimits.NewReposPerDay
}

// UpdatesPerHour returns the update limit for the 1-hour window.
// Zero means unlimited.
func (m *Manager) UpdatesPerHour() int {
	cfg, err := m.Load()
	if err != nil {
		return 0
	}
	return cfg.RateLimits.UpdatesPerHour
}

// IsExcluded reports whether a config path matches an exclusion glob.
// Excluded configs are treated as no-op successes everywhere.
func (m *Manager) IsExcluded(configPath string) bool {
	cfg, err := m.Load()
	if err != nil {
		return false
	}

	normalized := filepath.ToSlash(configPath)
	for _, pattern := range cfg.ExcludedConfigs {
		if ok, err := path.Match(pattern, normalized); err == nil && ok {
			return true
		}
		// Patterns without a slash also match against the file name, so
		// "*-draft.json" excludes drafts under every template.
		if !strings.Contains(pattern, "/") {
			if ok, err := path.Match(pattern, path.Base(normalized)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// RepoNaming returns the repository naming pattern.
func (m *Manager) RepoNaming() string {
	cfg, err := m.Load()
	if err != nil || cfg.AgentConfig.RepoNaming == "" {
		return "{config_stem}"
	}
	return cfg.AgentConfig.RepoNaming
}

// RepoName derives the repository name for a config file from the naming
// pattern. Supported placeholders are {config_stem} and {template}; unknown
// placeholders are left intact.
func (m *Manager) RepoName(configPath, template string) string {
	pattern := m.RepoNaming()

	stem := strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
	name := strings.ReplaceAll(pattern, "{config_stem}", stem)
	name = strings.ReplaceAll(name, "{template}", template)
	return name
}
