package state

import "github.com/templateforge/agentsync/pkg/models"

// AgentStore handles per-agent record persistence.
type AgentStore interface {
	Agent(key string) *models.AgentRecord
	AllAgents() map[string]models.AgentRecord
	UpdateAgent(key, configPath, agentDir, repoOrg, repoName, repoURL string, status models.SyncStatus, commitSHA, errMsg string) error
	MarkFailed(key, errMsg string) error
	MarkPending(key, reason string) error
	DeleteAgent(key string) error
	FailedAgents() []string
	PendingAgents() []string
}

// HistoryStore handles sync-history persistence.
type HistoryStore interface {
	AddHistory(entry models.SyncHistoryEntry) error
	History() []models.SyncHistoryEntry
	LastSync() string
}

// RateStore exposes the sliding-window timestamps to the rate limiter.
type RateStore interface {
	RateTrackingData() RateTracking
	SetRateTracking(rt RateTracking) error
}

// Store is the full persistence surface consumed by the orchestrator.
// It composes focused sub-interfaces so components depend only on what
// they use.
type Store interface {
	AgentStore
	HistoryStore
	RateStore
}

// Compile-time verification that Tracker implements all interfaces.
var (
	_ Store        = (*Tracker)(nil)
	_ AgentStore   = (*Tracker)(nil)
	_ HistoryStore = (*Tracker)(nil)
	_ RateStore    = (*Tracker)(nil)
)
