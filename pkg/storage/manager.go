package storage

import (
	"io"
	"os"
	"path/filepath"

	apperrors "magpie/pkg/errors"
)

// Manager writes downloaded files into one output directory. Writes go
// through a temp file and an atomic rename, so a cancelled or failed
// download never leaves a partial file under its final name. Files
// with the same name are overwritten silently.
type Manager struct {
	outputDir string
}

// NewManager creates the output directory tree if needed. Failure to
// create it (for example the path collides with an existing regular
// file) is a setup error raised before any download starts.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, apperrors.Wrapf(apperrors.KindSetup, err,
			"creating output directory %q", outputDir)
	}
	return &Manager{outputDir: outputDir}, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// Save writes the reader's contents to <outputDir>/<filename>
func (m *Manager) Save(r io.Reader, filename string) error {
	final := filepath.Join(m.outputDir, filename)

	tempFile := final + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return apperrors.Wrapf(apperrors.KindLocalIO, err, "creating %q", tempFile)
	}

	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(tempFile)
		return apperrors.Wrapf(apperrors.KindLocalIO, copyErr, "writing %q", final)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return apperrors.Wrapf(apperrors.KindLocalIO, closeErr, "closing %q", final)
	}

	if err := os.Rename(tempFile, final); err != nil {
		os.Remove(tempFile)
		return apperrors.Wrapf(apperrors.KindLocalIO, err, "renaming into %q", final)
	}
	return nil
}
