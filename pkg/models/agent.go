// Package models defines the shared domain types for agentsync: agent
// records, change sets, and sync history entries. These types map directly
// onto the persisted JSON documents.
package models

// SyncStatus represents the outcome of an agent's most recent sync attempt.
type SyncStatus string

const (
	// StatusSynced indicates the last sync attempt succeeded.
	StatusSynced SyncStatus = "synced"
	// StatusPending indicates the agent was deferred by rate limiting
	// and has not been attempted yet.
	StatusPending SyncStatus = "pending"
	// StatusFailed indicates the last sync attempt was made and broke.
	StatusFailed SyncStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SyncStatus) Valid() bool {
	switch s {
	case StatusSynced, StatusPending, StatusFailed:
		return true
	default:
		return false
	}
}

// AgentRecord holds the persisted sync state for one managed repository.
// A record's Status always reflects the outcome of the most recent sync
// attempt; SyncCount counts successes only, never attempts.
type AgentRecord struct {
	// ConfigPath is the configuration file path relative to the monorepo root.
	ConfigPath string `json:"config_path"`
	// AgentDir is the path of the materialized agent directory.
	AgentDir string `json:"agent_dir"`
	// RepoOrg is the hosting organization the repository lives under.
	RepoOrg string `json:"repo_org"`
	// RepoName is the repository name derived from the naming pattern.
	RepoName string `json:"repo_name"`
	// RepoURL is the clone URL used for pushes.
	RepoURL string `json:"repo_url"`
	// CreatedAt is when the agent was first tracked (RFC 3339, UTC).
	CreatedAt string `json:"created_at"`
	// LastSynced is when the agent last synced successfully; empty until
	// the first success.
	LastSynced string `json:"last_synced,omitempty"`
	// LastCommitSHA is the last known good commit; empty until the first
	// commit, never erased by a failed or deferred attempt.
	LastCommitSHA string `json:"last_commit_sha,omitempty"`
	// Status is the outcome of the most recent sync attempt.
	Status SyncStatus `json:"status"`
	// LastError is the error or deferral reason; empty when healthy.
	LastError string `json:"last_error,omitempty"`
	// SyncCount is the number of successful syncs.
	SyncCount int `json:"sync_count"`
}

// Healthy returns true if the agent's last attempt succeeded.
func (a *AgentRecord) Healthy() bool {
	return a.Status == StatusSynced
}
