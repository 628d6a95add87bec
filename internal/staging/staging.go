package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes to path+".tmp" through fn and renames into place, so
// readers never observe a partial file.
func WriteFile(destPath string, fn func(io.Writer) error) error {
	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	err = fn(f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Manager stages multi-file bundles under baseDir/.staging/<id> and moves
// them to baseDir/<id> only once every file has been written.
type Manager struct {
	baseDir     string
	stagingRoot string
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir:     baseDir,
		stagingRoot: filepath.Join(baseDir, ".staging"),
	}
}

func (m *Manager) FinalDir() string {
	return m.baseDir
}

func (m *Manager) StagingRoot() string {
	return m.stagingRoot
}

func (m *Manager) StagingDir(id string) string {
	return filepath.Join(m.stagingRoot, id)
}

func (m *Manager) BundleDir(id string) string {
	return filepath.Join(m.baseDir, id)
}

func (m *Manager) PrepareStaging(id string) error {
	return os.MkdirAll(m.StagingDir(id), 0750)
}

// WriteToStaging writes name inside the staging directory for id.
func (m *Manager) WriteToStaging(id, name string, fn func(io.Writer) error) (string, error) {
	path := filepath.Join(m.StagingDir(id), name)
	if err := WriteFile(path, fn); err != nil {
		return "", err
	}
	return path, nil
}

// CommitStaging moves every staged file for id into the final bundle directory.
func (m *Manager) CommitStaging(id string) error {
	stagingDir := m.StagingDir(id)
	finalDir := m.BundleDir(id)

	// Walk staging and move files
	err := filepath.Walk(stagingDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(finalDir, relPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
			return err
		}

		return os.Rename(path, destPath)
	})
	if err != nil {
		return fmt.Errorf("committing %s: %w", id, err)
	}
	return m.CleanupStaging(id)
}

func (m *Manager) CleanupStaging(id string) error {
	return os.RemoveAll(m.StagingDir(id))
}
