// Package state owns the persisted sync-state document (.sync-state.json).
// All reads and writes of the document go through the Tracker; no other
// component touches the file.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/templateforge/agentsync/internal/config"
	"github.com/templateforge/agentsync/pkg/models"
)

// FileName is the state document at the monorepo root.
const FileName = ".sync-state.json"

// Version is the state document schema version.
const Version = "1.0"

// historyCap bounds sync_history; the oldest entry is evicted first.
const historyCap = 50

// RateTracking holds the raw sliding-window timestamps for both rate-limited
// resources, as RFC 3339 strings.
type RateTracking struct {
	// NewRepos are repository-creation events (24-hour window).
	NewRepos []string `json:"new_repos"`
	// Updates are push-update events (1-hour window).
	Updates []string `json:"updates"`
}

// Document is the persisted state document.
type Document struct {
	Version           string                          `json:"version"`
	LastSync          string                          `json:"last_sync,omitempty"`
	Agents            map[string]*models.AgentRecord  `json:"agents"`
	SyncHistory       []models.SyncHistoryEntry       `json:"sync_history"`
	RateLimitTracking RateTracking                    `json:"rate_limit_tracking"`
}

// Tracker loads the state document lazily, caches it in memory, and flushes
// every mutation to disk immediately so a crash loses at most the operation
// in flight.
type Tracker struct {
	path  string
	now   func() time.Time
	warnf func(format string, args ...interface{})

	mu  sync.Mutex
	doc *Document
}

// NewTracker creates a tracker for the state document at the monorepo root.
func NewTracker(repoRoot string) *Tracker {
	return &Tracker{
		path: filepath.Join(repoRoot, FileName),
		now:  time.Now,
		warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
		},
	}
}

// SetWarnFunc overrides where corruption warnings go.
func (t *Tracker) SetWarnFunc(warnf func(format string, args ...interface{})) {
	t.warnf = warnf
}

// emptyDocument returns a fresh state skeleton.
func emptyDocument() *Document {
	return &Document{
		Version:     Version,
		Agents:      map[string]*models.AgentRecord{},
		SyncHistory: []models.SyncHistoryEntry{},
	}
}

// load returns the cached document, reading it from disk on first call.
// An absent or corrupt file yields a fresh skeleton; corruption is logged,
// never fatal. Callers must hold t.mu.
func (t *Tracker) load() *Document {
	if t.doc != nil {
		return t.doc
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.warnf("reading state file %s: %v (starting fresh)", t.path, err)
		}
		t.doc = emptyDocument()
		return t.doc
	}

	doc := emptyDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		t.warnf("state file %s is corrupt: %v (starting fresh)", t.path, err)
		t.doc = emptyDocument()
		return t.doc
	}

	if doc.Agents == nil {
		doc.Agents = map[string]*models.AgentRecord{}
	}
	if doc.SyncHistory == nil {
		doc.SyncHistory = []models.SyncHistoryEntry{}
	}

	t.doc = doc
	return t.doc
}

// save flushes the cached document to disk. Callers must hold t.mu.
func (t *Tracker) save() error {
	data, err := json.MarshalIndent(t.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// timestamp formats the current time the way the document stores it.
func (t *Tracker) timestamp() string {
	return t.now().UTC().Format(time.RFC3339)
}

// AgentKey derives the stable agent key <template>/<config-stem> from a
// config path. It returns "" when the path does not have at least three
// segments rooted at the configuration root; callers must treat an empty
// key as untrackable and skip or fail.
func AgentKey(configPath string) string {
	parts := strings.Split(filepath.ToSlash(configPath), "/")
	if len(parts) < 3 || parts[0] != config.ConfigRoot {
		return ""
	}
	template := parts[1]
	stem := strings.TrimSuffix(parts[2], filepath.Ext(parts[2]))
	if template == "" || stem == "" {
		return ""
	}
	return template + "/" + stem
}

// Agent returns the record for a key, or nil if untracked.
func (t *Tracker) Agent(key string) *models.AgentRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.load().Agents[key]
	if !ok {
		return nil
	}
	clone := *rec
	return &clone
}

// AllAgents returns a copy of every tracked record keyed by agent key.
func (t *Tracker) AllAgents() map[string]models.AgentRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	agents := make(map[string]models.AgentRecord, len(t.load().Agents))
	for key, rec := range t.load().Agents {
		agents[key] = *rec
	}
	return agents
}

// UpdateAgent records the outcome of a sync attempt. On first sight of a key
// it creates a full record; afterwards it updates status and last_error
// unconditionally, advances last_synced and sync_count only on success, and
// updates last_commit_sha only when a non-empty SHA is supplied, so a failed
// attempt never erases the last known good commit.
func (t *Tracker) UpdateAgent(key, configPath, agentDir, repoOrg, repoName, repoURL string, status models.SyncStatus, commitSHA, errMsg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.load()
	now := t.timestamp()

	rec, ok := doc.Agents[key]
	if !ok {
		rec = &models.AgentRecord{
			ConfigPath: configPath,
			AgentDir:   agentDir,
			RepoOrg:    repoOrg,
			RepoName:   repoName,
			RepoURL:    repoURL,
			CreatedAt:  now,
			Status:     status,
			LastError:  errMsg,
		}
		if status == models.StatusSynced {
			rec.LastSynced = now
			rec.SyncCount = 1
		}
		if commitSHA != "" {
			rec.LastCommitSHA = commitSHA
		}
		doc.Agents[key] = rec
	} else {
		rec.ConfigPath = configPath
		rec.AgentDir = agentDir
		rec.RepoOrg = repoOrg
		rec.RepoName = repoName
		rec.RepoURL = repoURL
		rec.Status = status
		rec.LastError = errMsg
		if status == models.StatusSynced {
			rec.LastSynced = now
			rec.SyncCount++
		}
		if commitSHA != "" {
			rec.LastCommitSHA = commitSHA
		}
	}

	doc.LastSync = now
	return t.save()
}

// MarkFailed sets an existing agent's status to failed. It is a no-op when
// the key is untracked: an agent must exist before it can fail.
func (t *Tracker) MarkFailed(key, errMsg string) error {
	return t.mark(key, models.StatusFailed, errMsg)
}

// MarkPending sets an existing agent's status to pending with the deferral
// reason. No-op when the key is untracked.
func (t *Tracker) MarkPending(key, reason string) error {
	return t.mark(key, models.StatusPending, reason)
}

func (t *Tracker) mark(key string, status models.SyncStatus, msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.load()
	rec, ok := doc.Agents[key]
	if !ok {
		return nil
	}
	rec.Status = status
	rec.LastError = msg
	return t.save()
}

// DeleteAgent removes an agent from the document. No-op when untracked.
func (t *Tracker) DeleteAgent(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.load()
	if _, ok := doc.Agents[key]; !ok {
		return nil
	}
	delete(doc.Agents, key)
	return t.save()
}

// FailedAgents returns the keys of agents whose last attempt failed,
// sorted for deterministic iteration.
func (t *Tracker) FailedAgents() []string {
	return t.agentsWithStatus(models.StatusFailed)
}

// PendingAgents returns the keys of agents deferred by rate limiting,
// sorted for deterministic iteration.
func (t *Tracker) PendingAgents() []string {
	return t.agentsWithStatus(models.StatusPending)
}

func (t *Tracker) agentsWithStatus(status models.SyncStatus) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var keys []string
	for key, rec := range t.load().Agents {
		if rec.Status == status {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// AddHistory appends a sync-history entry, evicting the oldest entries
// beyond the cap.
func (t *Tracker) AddHistory(entry models.SyncHistoryEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.load()
	doc.SyncHistory = append(doc.SyncHistory, entry)
	if len(doc.SyncHistory) > historyCap {
		doc.SyncHistory = doc.SyncHistory[len(doc.SyncHistory)-historyCap:]
	}
	return t.save()
}

// History returns a copy of the sync history, oldest first.
func (t *Tracker) History() []models.SyncHistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.load()
	history := make([]models.SyncHistoryEntry, len(doc.SyncHistory))
	copy(history, doc.SyncHistory)
	return history
}

// RateTrackingData returns a copy of the sliding-window timestamps.
func (t *Tracker) RateTrackingData() RateTracking {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.load()
	rt := RateTracking{
		NewRepos: append([]string(nil), doc.RateLimitTracking.NewRepos...),
		Updates:  append([]string(nil), doc.RateLimitTracking.Updates...),
	}
	return rt
}

// SetRateTracking replaces the sliding-window timestamps and persists.
func (t *Tracker) SetRateTracking(rt RateTracking) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.load()
	doc.RateLimitTracking = rt
	return t.save()
}

// LastSync returns the timestamp of the last recorded mutation, or "" when
// the document has never been written.
func (t *Tracker) LastSync() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load().LastSync
}
