// Package localmodels writes the manifest and pull script for the local
// Ollama models used alongside the library.
package localmodels

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ManifestFile = "ollama-manifest.json"
	ScriptFile   = "pull-models.sh"
)

// ErrExists is returned when an output file exists and overwriting is off.
var ErrExists = fmt.Errorf("refusing to overwrite existing file: %w", fs.ErrExist)

// Model is one model to pull.
type Model struct {
	Name    string  `json:"name" yaml:"name"`
	Tag     string  `json:"tag,omitempty" yaml:"tag"`
	SizeGB  float64 `json:"size_gb,omitempty" yaml:"size_gb"`
	Purpose string  `json:"purpose,omitempty" yaml:"purpose"`
}

// PullTag is the tag passed to ollama pull.
func (m Model) PullTag() string {
	if m.Tag != "" {
		return m.Tag
	}
	return m.Name
}

// DefaultModels is the model set written when none is given.
var DefaultModels = []Model{
	{Name: "bge-m3", Tag: "bge-m3", SizeGB: 1.8, Purpose: "Multilingual embedding model"},
	{Name: "bge-reranker-v2-m3", Tag: "bge-reranker-v2-m3", SizeGB: 1.1, Purpose: "Cross-encoder reranker"},
	{Name: "llama3.1", Tag: "llama3.1:70b", SizeGB: 40.0, Purpose: "Primary chat/analysis model"},
	{Name: "codellama", Tag: "codellama:34b", SizeGB: 18.0, Purpose: "Code-focused assistant"},
}

// Manifest is the content of ollama-manifest.json.
type Manifest struct {
	GeneratedAt time.Time `json:"generated_at"`
	Models      []Model   `json:"models"`
}

// Paths are the files written by Ensure.
type Paths struct {
	Manifest string
	Script   string
}

// Manager writes model files into a directory.
type Manager struct {
	dir       string
	overwrite bool
	now       func() time.Time
}

// NewManager creates a new Manager writing into dir.
func NewManager(dir string, overwrite bool) *Manager {
	return &Manager{dir: dir, overwrite: overwrite, now: time.Now}
}

// Ensure writes both the manifest and the pull script. A nil models slice
// selects DefaultModels.
func (m *Manager) Ensure(models []Model) (Paths, error) {
	manifest, err := m.WriteManifest(models)
	if err != nil {
		return Paths{}, err
	}
	script, err := m.WritePullScript(models)
	if err != nil {
		return Paths{}, err
	}
	return Paths{Manifest: manifest, Script: script}, nil
}

// WriteManifest writes ollama-manifest.json and returns its path.
func (m *Manager) WriteManifest(models []Model) (string, error) {
	if models == nil {
		models = DefaultModels
	}
	data, err := json.MarshalIndent(Manifest{GeneratedAt: m.now().UTC(), Models: models}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(m.dir, ManifestFile)
	return path, m.write(path, data, 0644)
}

// WritePullScript writes an executable pull-models.sh and returns its path.
func (m *Manager) WritePullScript(models []Model) (string, error) {
	if models == nil {
		models = DefaultModels
	}
	lines := []string{"#!/usr/bin/env bash", "set -euo pipefail", ""}
	for _, model := range models {
		lines = append(lines, "ollama pull "+model.PullTag())
	}
	lines = append(lines, "")

	path := filepath.Join(m.dir, ScriptFile)
	if err := m.write(path, []byte(strings.Join(lines, "\n")), 0755); err != nil {
		return "", err
	}
	// WriteFile keeps the mode of an existing file.
	return path, os.Chmod(path, 0755)
}

func (m *Manager) write(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if !m.overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadModels reads a model list from a YAML file. The file is either a list
// of models or a mapping with a models key.
func LoadModels(path string) ([]Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}

	var models []Model
	if err := yaml.Unmarshal(data, &models); err != nil {
		var wrapped struct {
			Models []Model `yaml:"models"`
		}
		if err2 := yaml.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to parse models file %s: %w", path, err)
		}
		models = wrapped.Models
	}

	if len(models) == 0 {
		return nil, errors.New("models file lists no models")
	}
	for i, model := range models {
		if strings.TrimSpace(model.PullTag()) == "" {
			return nil, fmt.Errorf("model %d has neither name nor tag", i+1)
		}
	}
	return models, nil
}
