package sync

import (
	"sort"

	"github.com/templateforge/agentsync/pkg/models"
)

// AgentSummary is one agent's line in a status report.
type AgentSummary struct {
	Key       string
	Status    models.SyncStatus
	LastError string
}

// StatusReport is the tracked-agent snapshot shown by the status command.
type StatusReport struct {
	// LastSync is when the state document was last written; empty when
	// no sync has ever run.
	LastSync string
	Total    int
	Synced   []AgentSummary
	Pending  []AgentSummary
	Failed   []AgentSummary
}

// Status builds the tracked-agent snapshot for reporting.
func (s *Syncer) Status() StatusReport {
	agents := s.store.AllAgents()

	report := StatusReport{
		LastSync: s.store.LastSync(),
		Total:    len(agents),
	}

	keys := make([]string, 0, len(agents))
	for key := range agents {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rec := agents[key]
		summary := AgentSummary{Key: key, Status: rec.Status, LastError: rec.LastError}
		switch rec.Status {
		case models.StatusSynced:
			report.Synced = append(report.Synced, summary)
		case models.StatusPending:
			report.Pending = append(report.Pending, summary)
		case models.StatusFailed:
			report.Failed = append(report.Failed, summary)
		}
	}

	return report
}
