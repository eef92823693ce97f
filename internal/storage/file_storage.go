package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// FileStorage defines the interface for bill upload storage.
type FileStorage interface {
	// SaveUpload stores an uploaded bill under the run's folder and
	// returns the stored path.
	SaveUpload(runID, fileName string, content []byte) (string, error)

	// ValidatePath checks path security (no traversal, within base)
	ValidatePath(fullPath string) error
}

// LocalFileStorage implements FileStorage on the local filesystem, one
// folder per audit run.
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// SaveUpload writes the uploaded bill to baseDir/{runID}/{fileName}. The
// original file name is kept (minus any directory part) so the reader can
// dispatch on its extension.
func (s *LocalFileStorage) SaveUpload(runID, fileName string, content []byte) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("cannot store upload: empty run id")
	}

	base := filepath.Base(fileName)
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid upload file name: %q", fileName)
	}

	fullPath := filepath.Join(s.baseDir, sanitizeFolderName(runID), base)
	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		s.logger.Error("Failed to create upload folder",
			zap.String("run_id", runID),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		s.logger.Error("Failed to write upload",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Upload stored",
		zap.String("run_id", runID),
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	// Prefix alone is not enough: /tmp/base_evil starts with /tmp/base.
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

var unsafeFolderChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// sanitizeFolderName strips path separators and special characters so a
// run id can never traverse out of the base directory.
func sanitizeFolderName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	return unsafeFolderChars.ReplaceAllString(name, "")
}
