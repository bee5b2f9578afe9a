// Package generate regenerates agent source trees from their configurations
// and drives the local repository operations that publish them: init,
// remote setup, commit, and push.
package generate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/templateforge/agentsync/internal/config"
	"github.com/templateforge/agentsync/internal/gitops"
	"github.com/templateforge/agentsync/internal/render"
)

// Commit messages are part of the external contract: downstream tooling
// keys off them to distinguish initial publications from regenerations.
const (
	initialCommitMessage = "Initial commit: Agent generated from template"
	updateCommitMessage  = "Update: Regenerated from updated configuration"
)

// Generator renders agents from templates and manages their repositories.
type Generator struct {
	repoRoot string
	renderer render.Renderer
	git      gitops.Port
}

// NewGenerator creates a generator rooted at the monorepo root.
func NewGenerator(repoRoot string, renderer render.Renderer, git gitops.Port) *Generator {
	return &Generator{repoRoot: repoRoot, renderer: renderer, git: git}
}

// OutputDir returns the conventional output directory for a config file,
// as an absolute path under the monorepo root.
func (g *Generator) OutputDir(configPath, templateName string) string {
	stem := strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
	return filepath.Join(g.repoRoot, config.GeneratedRoot, templateName, stem)
}

// Generate regenerates one agent's source tree from its configuration.
// When outputDir is empty, the conventional location is used. An existing
// output directory is destructively cleared first, preserving only the
// version-control metadata, so no stale files from a previous template
// version survive regeneration.
func (g *Generator) Generate(configPath, templateName, outputDir string) (string, error) {
	configFile := filepath.Join(g.repoRoot, configPath)
	data, err := os.ReadFile(configFile)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s", configFile)
	}

	// The configuration shape belongs to the renderer's contract; only
	// "is a JSON object" is validated here.
	var context map[string]interface{}
	if err := json.Unmarshal(data, &context); err != nil {
		return "", fmt.Errorf("invalid JSON in config file %s: %w", configFile, err)
	}

	templateDir := filepath.Join(g.repoRoot, config.TemplateRoot, templateName)
	if info, err := os.Stat(templateDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("template directory not found: %s", templateDir)
	}

	if outputDir == "" {
		outputDir = g.OutputDir(configPath, templateName)
	}

	if _, err := os.Stat(outputDir); err == nil {
		if err := clearExceptGit(outputDir); err != nil {
			return "", fmt.Errorf("clearing agent directory: %w", err)
		}
	}

	if err := g.renderer.Render(templateDir, outputDir, context); err != nil {
		return "", fmt.Errorf("agent generation failed: %w", err)
	}

	return outputDir, nil
}

// clearExceptGit removes everything inside dir except the .git directory.
func clearExceptGit(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// SyncAgent runs the composed publish workflow for one agent: generate,
// init the repository if needed, point the remote, commit, and push. Force
// is applied only to initial pushes. Any step's failure aborts the whole
// operation; a commit that never got pushed is not a success.
func (g *Generator) SyncAgent(configPath, templateName, repoURL, branch string, initial bool) (string, string, error) {
	agentDir, err := g.Generate(configPath, templateName, "")
	if err != nil {
		return "", "", err
	}

	isNew, err := g.git.Init(agentDir)
	if err != nil {
		return "", "", err
	}

	if err := g.git.SetRemote(agentDir, "origin", repoURL); err != nil {
		return "", "", err
	}

	if err := g.git.AddAll(agentDir); err != nil {
		return "", "", err
	}

	message := updateCommitMessage
	if initial || isNew {
		message = initialCommitMessage
	}

	sha, err := g.git.Commit(agentDir, message)
	if err != nil {
		return "", "", err
	}

	if err := g.git.EnsureBranch(agentDir, branch); err != nil {
		return "", "", err
	}

	if err := g.git.Push(agentDir, branch, initial); err != nil {
		return "", "", err
	}

	return agentDir, sha, nil
}
