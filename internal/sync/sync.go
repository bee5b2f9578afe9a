// Package sync orchestrates the end-to-end agent sync workflows: change
// detection, rate-limit gating, generation, publishing, and state
// bookkeeping. Agents are processed strictly sequentially; one agent's
// failure never halts its siblings and never escapes past this package.
package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/templateforge/agentsync/internal/config"
	"github.com/templateforge/agentsync/internal/detect"
	"github.com/templateforge/agentsync/internal/generate"
	"github.com/templateforge/agentsync/internal/gitops"
	"github.com/templateforge/agentsync/internal/hosting"
	"github.com/templateforge/agentsync/internal/ratelimit"
	"github.com/templateforge/agentsync/internal/render"
	"github.com/templateforge/agentsync/internal/state"
	"github.com/templateforge/agentsync/pkg/models"
)

// Syncer composes the sync subsystem. It owns its collaborators for the
// process lifetime; there is no ambient global state.
type Syncer struct {
	repoRoot  string
	cfg       *config.Manager
	store     state.Store
	limiter   *ratelimit.Limiter
	detector  *detect.Detector
	generator *generate.Generator

	// hostClient is initialized lazily so a missing credential only
	// fails runs that actually reach the hosting API.
	hostClient hosting.Client
	newClient  func(ctx context.Context, token string) hosting.Client

	log *DebugLogger
	out io.Writer
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithStore overrides the state store. Used by tests.
func WithStore(store state.Store) Option {
	return func(s *Syncer) { s.store = store }
}

// WithGenerator overrides the agent generator. Used by tests.
func WithGenerator(g *generate.Generator) Option {
	return func(s *Syncer) { s.generator = g }
}

// WithHostingClient injects a ready hosting client, bypassing the lazy
// token-based construction. Used by tests and dry runs.
func WithHostingClient(c hosting.Client) Option {
	return func(s *Syncer) { s.hostClient = c }
}

// WithOutput redirects console output.
func WithOutput(out io.Writer) Option {
	return func(s *Syncer) { s.out = out }
}

// WithLogger overrides the debug logger.
func WithLogger(log *DebugLogger) Option {
	return func(s *Syncer) { s.log = log }
}

// New assembles the sync subsystem rooted at the monorepo root.
func New(repoRoot string, opts ...Option) *Syncer {
	cfg := config.NewManager(repoRoot)
	tracker := state.NewTracker(repoRoot)

	s := &Syncer{
		repoRoot: repoRoot,
		cfg:      cfg,
		store:    tracker,
		detector: detect.New(repoRoot),
		newClient: func(ctx context.Context, token string) hosting.Client {
			return hosting.NewGitHub(ctx, token)
		},
		log: NewDebugLoggerForRepo(repoRoot),
		out: os.Stdout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.generator == nil {
		s.generator = generate.NewGenerator(repoRoot, render.NewTreeRenderer(), gitops.NewCLI())
	}
	s.limiter = ratelimit.New(s.store, cfg)

	cfg.SetWarnFunc(func(format string, args ...interface{}) {
		s.warnf(format, args...)
	})
	if tracker, ok := s.store.(*state.Tracker); ok {
		tracker.SetWarnFunc(func(format string, args ...interface{}) {
			s.warnf(format, args...)
		})
	}

	return s
}

// Config exposes the configuration manager to the CLI layer.
func (s *Syncer) Config() *config.Manager { return s.cfg }

// Store exposes the state store to the CLI layer.
func (s *Syncer) Store() state.Store { return s.store }

// Limiter exposes the rate limiter to the CLI layer.
func (s *Syncer) Limiter() *ratelimit.Limiter { return s.limiter }

// Close releases the debug log.
func (s *Syncer) Close() error { return s.log.Close() }

func (s *Syncer) infof(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
	s.log.Log(format, args...)
}

func (s *Syncer) warnf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, "[WARN] "+format+"\n", args...)
	s.log.Log("[WARN] "+format, args...)
}

// client returns the hosting client, building it from the configured token
// on first use. A missing credential fails here, at the point an API call
// is about to happen, not at config load.
func (s *Syncer) client(ctx context.Context) (hosting.Client, error) {
	if s.hostClient != nil {
		return s.hostClient, nil
	}

	token, err := s.cfg.Token()
	if err != nil {
		return nil, err
	}
	s.hostClient = s.newClient(ctx, token)
	return s.hostClient, nil
}

// pushBranch decides the branch updates land on. With push_to_main enabled
// (the default) everything goes to main; otherwise the repository's actual
// default branch is looked up, falling back to main.
func (s *Syncer) pushBranch(ctx context.Context, client hosting.Client, org, repoName string, initial bool) string {
	if initial || s.cfg.PushToMain() {
		return "main"
	}
	return client.DefaultBranch(ctx, org, repoName)
}

// SyncNewConfig syncs a newly added configuration file: resolve or create
// the remote repository, generate, commit, and push the initial tree.
// Returns true on success. Excluded configs are silent no-op successes.
// Failures are isolated: recorded against the agent, never raised.
func (s *Syncer) SyncNewConfig(ctx context.Context, configPath, templateName string) bool {
	if s.cfg.IsExcluded(configPath) {
		s.infof("Skipping excluded config: %s", configPath)
		return true
	}

	key := state.AgentKey(configPath)

	if ok, reason := s.limiter.CanCreateRepo(); !ok {
		s.warnf("Deferring new config %s: %s", configPath, reason)
		if err := s.store.MarkPending(key, "Rate limited: "+reason); err != nil {
			s.warnf("recording pending state for %s: %v", key, err)
		}
		return false
	}

	err := s.syncNew(ctx, key, configPath, templateName)
	if err != nil {
		s.infof("✗ Failed to sync new config %s: %v", configPath, err)
		if markErr := s.store.MarkFailed(key, err.Error()); markErr != nil {
			s.warnf("recording failure for %s: %v", key, markErr)
		}
		return false
	}
	return true
}

// syncNew is the fallible body of SyncNewConfig; SyncNewConfig is its
// terminal catch point.
func (s *Syncer) syncNew(ctx context.Context, key, configPath, templateName string) error {
	s.infof("Processing new config: %s", configPath)

	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	org, err := s.cfg.Org()
	if err != nil {
		return err
	}
	repoName := s.cfg.RepoName(configPath, templateName)
	authMethod := s.cfg.AuthMethod()

	var repoURL string
	repoCreated := false

	exists, err := client.RepoExists(ctx, org, repoName)
	if err != nil {
		return err
	}
	if exists {
		s.infof("Repository %s/%s already exists", org, repoName)
		repoURL = client.CloneURL(org, repoName, authMethod)
	} else {
		s.infof("Creating repository: %s/%s", org, repoName)
		description := fmt.Sprintf("Agent generated from %s template", templateName)
		repoURL, err = client.CreateRepo(ctx, org, repoName, description, s.cfg.DefaultVisibility(), authMethod)
		if err != nil {
			return err
		}
		repoCreated = true
	}

	agentDir, commitSHA, err := s.generator.SyncAgent(configPath, templateName, repoURL, "main", true)
	if err != nil {
		return err
	}

	if err := s.store.UpdateAgent(key, configPath, agentDir, org, repoName, repoURL, models.StatusSynced, commitSHA, ""); err != nil {
		return err
	}

	if repoCreated {
		if err := s.limiter.RecordRepoCreation(); err != nil {
			s.warnf("recording repo creation: %v", err)
		}
	}
	if err := s.limiter.RecordUpdate(); err != nil {
		s.warnf("recording update: %v", err)
	}

	s.infof("✓ Synced new agent: %s", repoName)
	return nil
}

// SyncModifiedConfig syncs a modified configuration file, reusing the
// remote URL on record. A modified config the tracker has never seen is
// treated as new. Returns true on success.
func (s *Syncer) SyncModifiedConfig(ctx context.Context, configPath, templateName string) bool {
	if s.cfg.IsExcluded(configPath) {
		s.infof("Skipping excluded config: %s", configPath)
		return true
	}

	key := state.AgentKey(configPath)
	record := s.store.Agent(key)
	if record == nil {
		s.warnf("Agent %s not tracked, treating as new", key)
		return s.SyncNewConfig(ctx, configPath, templateName)
	}

	if ok, reason := s.limiter.CanPushUpdate(); !ok {
		s.warnf("Deferring update %s: %s", configPath, reason)
		if err := s.store.MarkPending(key, "Rate limited: "+reason); err != nil {
			s.warnf("recording pending state for %s: %v", key, err)
		}
		return false
	}

	err := s.syncModified(ctx, key, configPath, templateName, record)
	if err != nil {
		s.infof("✗ Failed to sync modified config %s: %v", configPath, err)
		if markErr := s.store.MarkFailed(key, err.Error()); markErr != nil {
			s.warnf("recording failure for %s: %v", key, markErr)
		}
		return false
	}
	return true
}

// syncModified is the fallible body of SyncModifiedConfig.
func (s *Syncer) syncModified(ctx context.Context, key, configPath, templateName string, record *models.AgentRecord) error {
	s.infof("Processing modified config: %s", configPath)

	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	branch := s.pushBranch(ctx, client, record.RepoOrg, record.RepoName, false)
	agentDir, commitSHA, err := s.generator.SyncAgent(configPath, templateName, record.RepoURL, branch, false)
	if err != nil {
		return err
	}

	if err := s.store.UpdateAgent(key, configPath, agentDir, record.RepoOrg, record.RepoName, record.RepoURL, models.StatusSynced, commitSHA, ""); err != nil {
		return err
	}

	if err := s.limiter.RecordUpdate(); err != nil {
		s.warnf("recording update: %v", err)
	}

	s.infof("✓ Synced modified agent: %s", record.RepoName)
	return nil
}

// SyncTemplateChanges fans out a template change to every configuration
// currently using the template (full directory scan, not diff-based) and
// syncs each as a modification. Returns success/failure counts and the
// touched agent keys.
func (s *Syncer) SyncTemplateChanges(ctx context.Context, templateName string) (int, int, []string) {
	s.infof("Template %s changed, finding affected agents...", templateName)

	configs := s.detector.ConfigsForTemplate(templateName)
	if len(configs) == 0 {
		s.infof("No configs found for template %s", templateName)
		return 0, 0, nil
	}

	s.infof("Found %d agents using template %s", len(configs), templateName)

	success, failure := 0, 0
	var affected []string
	for _, configPath := range configs {
		if s.SyncModifiedConfig(ctx, configPath, templateName) {
			success++
		} else {
			failure++
		}
		if key := state.AgentKey(configPath); key != "" {
			affected = append(affected, key)
		}
	}
	return success, failure, affected
}

// RetryFailed re-attempts every agent currently failed or pending, without
// distinguishing why it was unhealthy. The template name is derived from
// the recorded config path. Returns (retried, succeeded).
func (s *Syncer) RetryFailed(ctx context.Context) (int, int) {
	keys := append(s.store.FailedAgents(), s.store.PendingAgents()...)
	if len(keys) == 0 {
		s.infof("No failed or pending agents to retry")
		return 0, 0
	}

	s.infof("Retrying %d agents...", len(keys))

	succeeded := 0
	var affected []string
	for _, key := range keys {
		record := s.store.Agent(key)
		if record == nil {
			continue
		}

		templateName := templateFromKey(key)
		if templateName == "" {
			continue
		}

		affected = append(affected, key)
		if s.SyncModifiedConfig(ctx, record.ConfigPath, templateName) {
			succeeded++
		}
	}

	status := models.BatchSuccess
	if succeeded < len(keys) {
		status = models.BatchPartialFailure
	}
	s.recordHistory(models.TriggerRetry, affected, status, 0, nil)

	s.infof("Retry complete: %d/%d succeeded", succeeded, len(keys))
	return len(keys), succeeded
}

// templateFromKey extracts the template segment of an agent key.
func templateFromKey(key string) string {
	return path.Dir(key)
}

// recordHistory appends a batch entry; history write failures are logged,
// never fatal to the batch result.
func (s *Syncer) recordHistory(trigger models.Trigger, affected []string, status models.BatchStatus, durationSeconds float64, changedFiles []string) {
	entry := newHistoryEntry(trigger, affected, status, durationSeconds, changedFiles)
	if err := s.store.AddHistory(entry); err != nil {
		s.warnf("recording sync history: %v", err)
	}
}
