// Package detect inspects the monorepo's version-control history to classify
// what changed since the last processed revision: new, modified, and deleted
// configuration files, plus touched template directories.
package detect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/templateforge/agentsync/internal/config"
	"github.com/templateforge/agentsync/pkg/models"
)

// Detector categorizes changes between the previous and current revision of
// the monorepo.
type Detector struct {
	repoRoot string
}

// New creates a detector rooted at the monorepo root.
func New(repoRoot string) *Detector {
	return &Detector{repoRoot: repoRoot}
}

// ChangedFiles returns the (status, path) pairs between HEAD~1 and HEAD.
// It fails soft: when the diff cannot be computed (no repository, no prior
// revision) it returns an empty list rather than an error, because a fresh
// repository with a single commit has no previous sync point to diff against.
func (d *Detector) ChangedFiles() []models.ChangedFile {
	repo, err := git.PlainOpen(d.repoRoot)
	if err != nil {
		return nil
	}

	headRef, err := repo.Head()
	if err != nil {
		return nil
	}

	head, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil
	}

	parent, err := head.Parent(0)
	if err != nil {
		// Root commit: nothing to diff against.
		return nil
	}

	parentTree, err := parent.Tree()
	if err != nil {
		return nil
	}
	headTree, err := head.Tree()
	if err != nil {
		return nil
	}

	changes, err := parentTree.Diff(headTree)
	if err != nil {
		return nil
	}

	var files []models.ChangedFile
	for _, change := range changes {
		cf, err := classifyChange(change)
		if err != nil {
			continue
		}
		files = append(files, cf)
	}

	// Tree diff order is not contractual; sort for stable processing order.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// classifyChange maps a go-git tree change to a (status, path) pair.
func classifyChange(change *object.Change) (models.ChangedFile, error) {
	action, err := change.Action()
	if err != nil {
		return models.ChangedFile{}, fmt.Errorf("change action: %w", err)
	}

	switch action {
	case merkletrie.Insert:
		return models.ChangedFile{Status: models.ChangeAdded, Path: change.To.Name}, nil
	case merkletrie.Delete:
		return models.ChangedFile{Status: models.ChangeDeleted, Path: change.From.Name}, nil
	case merkletrie.Modify:
		return models.ChangedFile{Status: models.ChangeModified, Path: change.To.Name}, nil
	default:
		return models.ChangedFile{}, fmt.Errorf("unknown change action %v", action)
	}
}

// Categorize partitions the changed files into the ChangeSet consumed by the
// orchestrator. Configuration changes carry their template name extracted
// from the path; a path that does not parse yields an empty template name,
// which callers skip. Template changes are collected per template,
// deduplicated.
func (d *Detector) Categorize() *models.ChangeSet {
	return CategorizeFiles(d.ChangedFiles())
}

// CategorizeFiles applies the classification rules to an explicit file list.
// Split out so the rules are testable without a repository.
func CategorizeFiles(files []models.ChangedFile) *models.ChangeSet {
	set := &models.ChangeSet{TemplateChanges: map[string][]string{}}

	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Path, config.ConfigRoot+"/") && strings.HasSuffix(f.Path, config.ConfigExt):
			cc := models.ConfigChange{Path: f.Path, Template: templateFromConfigPath(f.Path)}
			switch f.Status {
			case models.ChangeAdded:
				set.NewConfigs = append(set.NewConfigs, cc)
			case models.ChangeModified:
				set.ModifiedConfigs = append(set.ModifiedConfigs, cc)
			case models.ChangeDeleted:
				set.DeletedConfigs = append(set.DeletedConfigs, cc)
			}

		case strings.HasPrefix(f.Path, config.TemplateRoot+"/"):
			parts := strings.Split(f.Path, "/")
			if len(parts) < 2 || parts[1] == "" {
				continue
			}
			template := parts[1]
			set.TemplateChanges[template] = append(set.TemplateChanges[template], f.Path)
		}
	}

	return set
}

// templateFromConfigPath extracts the template name from a config path like
// agent-configs/<template>/<file>. Returns "" when the path has no template
// segment.
func templateFromConfigPath(configPath string) string {
	parts := strings.Split(configPath, "/")
	if len(parts) < 2 || parts[0] != config.ConfigRoot {
		return ""
	}
	return parts[1]
}

// ConfigsForTemplate lists every configuration file currently present under
// a template's configuration directory, relative to the repo root. This is a
// full directory scan, not diff-based: it is the fan-out source when a
// template itself changes.
func (d *Detector) ConfigsForTemplate(template string) []string {
	dir := filepath.Join(d.repoRoot, config.ConfigRoot, template)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var configs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), config.ConfigExt) {
			continue
		}
		configs = append(configs, filepath.ToSlash(filepath.Join(config.ConfigRoot, template, entry.Name())))
	}
	sort.Strings(configs)
	return configs
}

// Templates lists every template directory under the configuration root,
// used by forced full resyncs.
func (d *Detector) Templates() []string {
	entries, err := os.ReadDir(filepath.Join(d.repoRoot, config.ConfigRoot))
	if err != nil {
		return nil
	}

	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			templates = append(templates, entry.Name())
		}
	}
	sort.Strings(templates)
	return templates
}
