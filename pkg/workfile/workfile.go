// Package workfile persists the most recently fetched batch as a JSON array so
// an operator can inspect what a run was about to act on.
package workfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"xpurge/pkg/logger"
	"xpurge/pkg/twitter"
)

// Manager handles work file operations
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager writing to path
func NewManager(path string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{path: path, logger: log}
}

// Path returns the work file location
func (m *Manager) Path() string {
	return m.path
}

// Save overwrites the work file with batch, atomically
func (m *Manager) Save(batch []twitter.Tweet) error {
	if batch == nil {
		batch = []twitter.Tweet{}
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create work file directory: %w", err)
	}

	tempPath := m.path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temporary work file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(batch); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync work file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close work file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace work file: %w", err)
	}

	m.logger.DebugWithFields("Work file saved", map[string]interface{}{
		"path":  m.path,
		"count": len(batch),
	})
	return nil
}

// Load reads the last saved batch. A missing file yields an empty batch.
func (m *Manager) Load() ([]twitter.Tweet, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []twitter.Tweet{}, nil
		}
		return nil, fmt.Errorf("failed to read work file: %w", err)
	}

	var batch []twitter.Tweet
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode work file: %w", err)
	}
	return batch, nil
}

// Delete removes the work file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete work file: %w", err)
	}
	return nil
}

// Exists checks if a work file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
