package models

// Trigger identifies what started a sync batch.
type Trigger string

const (
	// TriggerPostCommitHook marks batches started by the post-commit hook.
	TriggerPostCommitHook Trigger = "post_commit_hook"
	// TriggerForced marks batches started by a forced sync.
	TriggerForced Trigger = "forced"
	// TriggerRetry marks batches started by a retry of unhealthy agents.
	TriggerRetry Trigger = "retry"
)

// BatchStatus is the aggregate outcome of a sync batch.
type BatchStatus string

const (
	// BatchSuccess indicates every agent in the batch synced.
	BatchSuccess BatchStatus = "success"
	// BatchPartialFailure indicates at least one agent failed or deferred.
	BatchPartialFailure BatchStatus = "partial_failure"
)

// SyncHistoryEntry records one completed sync batch. The persisted history
// keeps the most recent 50 entries, oldest evicted first.
type SyncHistoryEntry struct {
	// ID is a unique identifier for the batch run.
	ID string `json:"id"`
	// Timestamp is when the batch finished (RFC 3339, UTC).
	Timestamp string `json:"timestamp"`
	// Trigger identifies what started the batch.
	Trigger Trigger `json:"trigger"`
	// AffectedAgents lists the agent keys touched by the batch.
	AffectedAgents []string `json:"affected_agents"`
	// Status is the aggregate outcome across all phases.
	Status BatchStatus `json:"status"`
	// DurationSeconds is the wall-clock batch duration.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	// ChangedFiles is the raw changed-file list that drove the batch.
	ChangedFiles []string `json:"changed_files,omitempty"`
}
