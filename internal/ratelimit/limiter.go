// Package ratelimit provides sliding-window admission control over the two
// rate-limited hosting resources: repository creation (24-hour window) and
// repository updates (1-hour window). The windows are derived from the
// timestamps persisted in the state document; there is no separate store.
//
// Check and record are separate operations with no atomicity between them.
// The caller runs them in sequence under the single-process, sequential
// execution model; concurrent processes sharing one state file can both pass
// a check and jointly exceed a limit.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/templateforge/agentsync/internal/state"
)

const (
	// CreateWindow is the sliding window for repository creation.
	CreateWindow = 24 * time.Hour
	// UpdateWindow is the sliding window for repository updates.
	UpdateWindow = time.Hour
)

// Limits supplies the configured thresholds. Zero or negative means
// unlimited.
type Limits interface {
	NewReposPerDay() int
	UpdatesPerHour() int
}

// Limiter gates repository creation and updates against the persisted
// sliding windows.
type Limiter struct {
	store  state.RateStore
	limits Limits
	now    func() time.Time
}

// New creates a limiter over the given state store and limit source.
func New(store state.RateStore, limits Limits) *Limiter {
	return &Limiter{
		store:  store,
		limits: limits,
		now:    time.Now,
	}
}

// SetClock overrides the limiter's clock. Used by tests to simulate window
// expiry.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// prune returns the timestamps still inside the window. Unparsable
// timestamps are dropped. This is a read-side projection: nothing is
// persisted until a subsequent record call.
func (l *Limiter) prune(timestamps []string, window time.Duration) []string {
	cutoff := l.now().UTC().Add(-window)

	var kept []string
	for _, raw := range timestamps {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		if !ts.Before(cutoff) {
			kept = append(kept, raw)
		}
	}
	return kept
}

// CanCreateRepo reports whether a new repository may be created. When
// denied, the reason names the current usage and the oldest event in the
// window.
func (l *Limiter) CanCreateRepo() (bool, string) {
	limit := l.limits.NewReposPerDay()
	if limit <= 0 {
		return true, ""
	}

	inWindow := l.prune(l.store.RateTrackingData().NewRepos, CreateWindow)
	if len(inWindow) < limit {
		return true, ""
	}

	reason := fmt.Sprintf("rate limit reached: %d/%d repos created in last 24 hours", len(inWindow), limit)
	if len(inWindow) > 0 {
		reason += fmt.Sprintf(" (oldest %s expires after 24h)", inWindow[0])
	}
	return false, reason
}

// CanPushUpdate reports whether an update push may proceed.
func (l *Limiter) CanPushUpdate() (bool, string) {
	limit := l.limits.UpdatesPerHour()
	if limit <= 0 {
		return true, ""
	}

	inWindow := l.prune(l.store.RateTrackingData().Updates, UpdateWindow)
	if len(inWindow) < limit {
		return true, ""
	}

	reason := fmt.Sprintf("rate limit reached: %d/%d updates pushed in last hour", len(inWindow), limit)
	if len(inWindow) > 0 {
		reason += fmt.Sprintf(" (oldest %s expires after 1h)", inWindow[0])
	}
	return false, reason
}

// RecordRepoCreation appends a creation event, prunes the window, and
// persists.
func (l *Limiter) RecordRepoCreation() error {
	rt := l.store.RateTrackingData()
	rt.NewRepos = append(rt.NewRepos, l.timestamp())
	rt.NewRepos = l.prune(rt.NewRepos, CreateWindow)
	if err := l.store.SetRateTracking(rt); err != nil {
		return fmt.Errorf("recording repo creation: %w", err)
	}
	return nil
}

// RecordUpdate appends an update event, prunes the window, and persists.
func (l *Limiter) RecordUpdate() error {
	rt := l.store.RateTrackingData()
	rt.Updates = append(rt.Updates, l.timestamp())
	rt.Updates = l.prune(rt.Updates, UpdateWindow)
	if err := l.store.SetRateTracking(rt); err != nil {
		return fmt.Errorf("recording update: %w", err)
	}
	return nil
}

func (l *Limiter) timestamp() string {
	return l.now().UTC().Format(time.RFC3339)
}

// ResourceStatus describes one window for reporting.
type ResourceStatus struct {
	// Current is the number of events inside the window.
	Current int
	// Limit is the configured threshold; 0 means unlimited.
	Limit int
	// Remaining is Limit - Current, meaningful only when Limit > 0.
	Remaining int
	// Window is the human-readable window description.
	Window string
}

// Status is the rate-limit snapshot shown by the rate-status command.
type Status struct {
	NewRepos ResourceStatus
	Updates  ResourceStatus
}

// Status returns the current usage for both windows.
func (l *Limiter) Status() Status {
	rt := l.store.RateTrackingData()
	newRepos := l.prune(rt.NewRepos, CreateWindow)
	updates := l.prune(rt.Updates, UpdateWindow)

	st := Status{
		NewRepos: ResourceStatus{
			Current: len(newRepos),
			Limit:   l.limits.NewReposPerDay(),
			Window:  "last 24 hours",
		},
		Updates: ResourceStatus{
			Current: len(updates),
			Limit:   l.limits.UpdatesPerHour(),
			Window:  "last hour",
		},
	}
	if st.NewRepos.Limit > 0 {
		st.NewRepos.Remaining = st.NewRepos.Limit - st.NewRepos.Current
	}
	if st.Updates.Limit > 0 {
		st.Updates.Remaining = st.Updates.Limit - st.Updates.Current
	}
	return st
}
