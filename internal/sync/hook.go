package sync

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/templateforge/agentsync/internal/state"
	"github.com/templateforge/agentsync/pkg/models"
)

// Result aggregates one batch run.
type Result struct {
	// Success is the number of agents synced.
	Success int
	// Failure is the number of agents that failed or were deferred.
	Failure int
	// Affected lists the agent keys touched across all phases.
	Affected []string
}

// Failed reports whether the batch should exit non-zero.
func (r Result) Failed() bool { return r.Failure > 0 }

// newHistoryEntry builds a history entry for a finished batch.
func newHistoryEntry(trigger models.Trigger, affected []string, status models.BatchStatus, durationSeconds float64, changedFiles []string) models.SyncHistoryEntry {
	if affected == nil {
		affected = []string{}
	}
	return models.SyncHistoryEntry{
		ID:              uuid.NewString(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Trigger:         trigger,
		AffectedAgents:  affected,
		Status:          status,
		DurationSeconds: durationSeconds,
		ChangedFiles:    changedFiles,
	}
}

// RunHookMode is the event-driven entry point invoked after a monorepo
// commit. It classifies the changes since the previous revision and
// processes them in order: new configs, then modified configs, then
// per-template fan-out. One history entry is always recorded for the batch.
func (s *Syncer) RunHookMode(ctx context.Context) Result {
	start := time.Now()
	s.infof("=== Agent Sync Hook ===")

	changes := s.detector.Categorize()
	if changes.Empty() {
		s.infof("No agent-related changes detected")
		return Result{}
	}

	for _, deleted := range changes.DeletedConfigs {
		// Deleted configs do not trigger syncs; remote cleanup stays a
		// deliberate operator action.
		s.infof("Config deleted (remote left untouched): %s", deleted.Path)
	}

	var result Result

	for _, cc := range changes.NewConfigs {
		if cc.Template == "" {
			s.warnf("Skipping unparsable config path: %s", cc.Path)
			continue
		}
		if s.SyncNewConfig(ctx, cc.Path, cc.Template) {
			result.Success++
			if key := state.AgentKey(cc.Path); key != "" {
				result.Affected = append(result.Affected, key)
			}
		} else {
			result.Failure++
		}
	}

	for _, cc := range changes.ModifiedConfigs {
		if cc.Template == "" {
			s.warnf("Skipping unparsable config path: %s", cc.Path)
			continue
		}
		if s.SyncModifiedConfig(ctx, cc.Path, cc.Template) {
			result.Success++
			if key := state.AgentKey(cc.Path); key != "" {
				result.Affected = append(result.Affected, key)
			}
		} else {
			result.Failure++
		}
	}

	for _, templateName := range sortedTemplates(changes.TemplateChanges) {
		success, failure, affected := s.SyncTemplateChanges(ctx, templateName)
		result.Success += success
		result.Failure += failure
		result.Affected = append(result.Affected, affected...)
	}

	duration := time.Since(start)

	status := models.BatchSuccess
	if result.Failure > 0 {
		status = models.BatchPartialFailure
	}
	s.recordHistory(models.TriggerPostCommitHook, result.Affected, status, duration.Seconds(), changes.Files())

	s.printSummary(result, duration)
	return result
}

// printSummary emits the aggregate success/failure count every batch ends
// with.
func (s *Syncer) printSummary(result Result, duration time.Duration) {
	s.infof("=== Sync Summary ===")
	s.infof("✓ Success: %d", result.Success)
	if result.Failure > 0 {
		s.infof("✗ Failed: %d", result.Failure)
	}
	s.infof("Duration: %.1fs", duration.Seconds())
}

// sortedTemplates returns the changed template names in deterministic
// order; map iteration order would make batch processing order vary between
// runs.
func sortedTemplates(changes map[string][]string) []string {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
