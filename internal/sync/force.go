package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/templateforge/agentsync/internal/state"
	"github.com/templateforge/agentsync/pkg/models"
)

// ForceTemplate resyncs every configuration under one template, bypassing
// change detection entirely. Tracked agents take the modified path, unknown
// ones the new path.
func (s *Syncer) ForceTemplate(ctx context.Context, templateName string) Result {
	start := time.Now()
	result := s.forceTemplate(ctx, templateName)

	status := models.BatchSuccess
	if result.Failure > 0 {
		status = models.BatchPartialFailure
	}
	s.recordHistory(models.TriggerForced, result.Affected, status, time.Since(start).Seconds(), nil)

	s.printSummary(result, time.Since(start))
	return result
}

// ForceAll resyncs every configuration under every template directory.
func (s *Syncer) ForceAll(ctx context.Context) Result {
	start := time.Now()

	templates := s.detector.Templates()
	if len(templates) == 0 {
		s.warnf("No template directories found")
		return Result{}
	}
	s.infof("Found %d template directories", len(templates))

	var result Result
	for _, templateName := range templates {
		s.infof("Processing template: %s", templateName)
		tr := s.forceTemplate(ctx, templateName)
		result.Success += tr.Success
		result.Failure += tr.Failure
		result.Affected = append(result.Affected, tr.Affected...)
	}

	status := models.BatchSuccess
	if result.Failure > 0 {
		status = models.BatchPartialFailure
	}
	s.recordHistory(models.TriggerForced, result.Affected, status, time.Since(start).Seconds(), nil)

	s.printSummary(result, time.Since(start))
	return result
}

// forceTemplate is the per-template body shared by ForceTemplate and
// ForceAll; it records no history itself.
func (s *Syncer) forceTemplate(ctx context.Context, templateName string) Result {
	configs := s.detector.ConfigsForTemplate(templateName)
	if len(configs) == 0 {
		s.warnf("No config files found for template %s", templateName)
		return Result{}
	}

	s.infof("Found %d configs for template %q", len(configs), templateName)

	var result Result
	for _, configPath := range configs {
		key := state.AgentKey(configPath)

		var ok bool
		if key != "" && s.store.Agent(key) != nil {
			s.infof("Processing %s (existing, forcing update)", configPath)
			ok = s.SyncModifiedConfig(ctx, configPath, templateName)
		} else {
			s.infof("Processing %s (new)", configPath)
			ok = s.SyncNewConfig(ctx, configPath, templateName)
		}

		if ok {
			result.Success++
		} else {
			result.Failure++
		}
		if key != "" {
			result.Affected = append(result.Affected, key)
		}
	}
	return result
}

// DryRunTemplate lists the configurations a forced template sync would
// touch, without side effects.
func (s *Syncer) DryRunTemplate(templateName string) error {
	configs := s.detector.ConfigsForTemplate(templateName)
	if configs == nil {
		return fmt.Errorf("template not found: %s", templateName)
	}

	s.infof("Would sync %d configs:", len(configs))
	for _, configPath := range configs {
		s.infof("  - %s", configPath)
	}
	return nil
}

// DryRunAll lists per-template config counts for a forced full resync,
// without side effects.
func (s *Syncer) DryRunAll() {
	for _, templateName := range s.detector.Templates() {
		s.infof("%s: %d configs", templateName, len(s.detector.ConfigsForTemplate(templateName)))
	}
}
