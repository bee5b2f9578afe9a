package models

// ChangeStatus classifies a changed file in version-control history.
type ChangeStatus string

const (
	// ChangeAdded indicates the file did not exist in the previous revision.
	ChangeAdded ChangeStatus = "A"
	// ChangeModified indicates the file's content changed.
	ChangeModified ChangeStatus = "M"
	// ChangeDeleted indicates the file was removed.
	ChangeDeleted ChangeStatus = "D"
)

// ChangedFile is one (status, path) pair from a revision diff.
type ChangedFile struct {
	Status ChangeStatus
	Path   string
}

// ConfigChange identifies a configuration file change and the template it
// belongs to. Template is empty when the path does not parse into
// <root>/<template>/<file>; callers must skip such entries.
type ConfigChange struct {
	Path     string
	Template string
}

// ChangeSet is the classified set of configuration and template changes
// detected since the last processed revision. It is ephemeral: produced per
// invocation and never persisted.
type ChangeSet struct {
	NewConfigs      []ConfigChange
	ModifiedConfigs []ConfigChange
	DeletedConfigs  []ConfigChange
	// TemplateChanges maps a template name to the files changed under it.
	TemplateChanges map[string][]string
}

// Empty returns true if the set contains nothing that requires a sync.
// Deleted configs do not trigger syncs (see ChangeSet consumers), but they
// still count as content for reporting purposes.
func (c *ChangeSet) Empty() bool {
	return len(c.NewConfigs) == 0 &&
		len(c.ModifiedConfigs) == 0 &&
		len(c.DeletedConfigs) == 0 &&
		len(c.TemplateChanges) == 0
}

// Files returns the flat list of changed file paths in the set, used for
// sync history entries.
func (c *ChangeSet) Files() []string {
	var files []string
	for _, cc := range c.NewConfigs {
		files = append(files, cc.Path)
	}
	for _, cc := range c.ModifiedConfigs {
		files = append(files, cc.Path)
	}
	for _, cc := range c.DeletedConfigs {
		files = append(files, cc.Path)
	}
	for _, changed := range c.TemplateChanges {
		files = append(files, changed...)
	}
	return files
}
