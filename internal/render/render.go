// Package render is the boundary to the template-rendering engine. The
// generator depends only on the Renderer interface; TreeRenderer is the
// shipped implementation, expanding a template directory into a materialized
// file tree with variable substitution in both entry names and contents.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// Renderer expands a template directory into outputDir using the given
// context. Implementations must support conditional exclusion of tree
// entries via an ignore predicate supplied at construction.
type Renderer interface {
	Render(templateDir, outputDir string, context map[string]interface{}) error
}

// defaultIgnore matches tree entries that never belong in a generated agent:
// version-control metadata, editor state, and build caches.
var defaultIgnore = regexp.MustCompile(`^(\.git|\.svn|\.hg|\.DS_Store|Thumbs\.db|\.vscode|\.idea|__pycache__|node_modules|build|dist|.*\.egg-info|.*\.pyc|.*\.pyo)$`)

// TreeRenderer implements Renderer on text/template.
type TreeRenderer struct {
	ignore func(name string) bool
}

// NewTreeRenderer creates a renderer with the default ignore predicate.
func NewTreeRenderer() *TreeRenderer {
	return &TreeRenderer{ignore: func(name string) bool { return defaultIgnore.MatchString(name) }}
}

// NewTreeRendererWithIgnore creates a renderer with a custom ignore
// predicate. A nil predicate ignores nothing.
func NewTreeRendererWithIgnore(ignore func(name string) bool) *TreeRenderer {
	if ignore == nil {
		ignore = func(string) bool { return false }
	}
	return &TreeRenderer{ignore: ignore}
}

// Render expands templateDir into outputDir. Both file names and file
// contents go through template substitution against the context. Entries
// matching the ignore predicate are skipped, directories recursively.
func (r *TreeRenderer) Render(templateDir, outputDir string, context map[string]interface{}) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(templateDir)
	if err != nil {
		return fmt.Errorf("reading template directory: %w", err)
	}

	for _, entry := range entries {
		if err := r.renderEntry(filepath.Join(templateDir, entry.Name()), outputDir, context); err != nil {
			return err
		}
	}
	return nil
}

// renderEntry expands one template tree entry into parentDir.
func (r *TreeRenderer) renderEntry(srcPath, parentDir string, context map[string]interface{}) error {
	name := filepath.Base(srcPath)
	if r.ignore(name) {
		return nil
	}

	renderedName, err := r.renderString(name, context)
	if err != nil {
		return fmt.Errorf("rendering entry name %q: %w", name, err)
	}

	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("reading template entry: %w", err)
	}

	destPath := filepath.Join(parentDir, renderedName)

	if info.IsDir() {
		if err := os.MkdirAll(destPath, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", destPath, err)
		}
		children, err := os.ReadDir(srcPath)
		if err != nil {
			return fmt.Errorf("reading template directory %s: %w", srcPath, err)
		}
		for _, child := range children {
			if err := r.renderEntry(filepath.Join(srcPath, child.Name()), destPath, context); err != nil {
				return err
			}
		}
		return nil
	}

	content, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading template file %s: %w", srcPath, err)
	}

	rendered, err := r.renderString(string(content), context)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", srcPath, err)
	}

	if err := os.WriteFile(destPath, []byte(rendered), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}

// renderString substitutes context variables into a template string.
func (r *TreeRenderer) renderString(text string, context map[string]interface{}) (string, error) {
	tmpl, err := template.New("entry").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, context); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Compile-time verification that TreeRenderer implements the boundary.
var _ Renderer = (*TreeRenderer)(nil)
