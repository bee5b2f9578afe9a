package config

// Monorepo layout. These directory names are part of the on-disk contract
// between the sync system and the template authors, not user-configurable.
const (
	// ConfigRoot holds one subdirectory per template, each containing the
	// JSON configuration files for that template's agents.
	ConfigRoot = "agent-configs"
	// TemplateRoot holds one parameterized source-tree skeleton per template.
	TemplateRoot = "templates"
	// GeneratedRoot holds the materialized agent working trees, laid out as
	// <template>/<config-stem>.
	GeneratedRoot = "generated"
	// ConfigExt is the extension a file must carry to be treated as an
	// agent configuration.
	ConfigExt = ".json"
)
