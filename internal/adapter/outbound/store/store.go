// Package store provides file-based persistence for the orchestrator's
// router/tester entry document. It mirrors the teacher's state.json
// store: atomic writes (write-tmp-then-rename), a same-directory
// backup, and file locking (flock for cross-process, a mutex for
// in-process) so concurrent orchestrator processes never observe a
// half-written document.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/engine-core/engine/internal/domain/orchestrator"
)

// FileStore persists an orchestrator.Document to a JSON file at path.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a FileStore backed by path. logger may be nil, in which
// case slog.Default() is used.
func New(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads and parses the document file. A missing file returns a
// zero-value Document, not an error: a fresh orchestrator starts empty.
func (s *FileStore) Load() (orchestrator.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("state file not found, starting empty", "path", s.path)
			return orchestrator.Document{}, nil
		}
		return orchestrator.Document{}, fmt.Errorf("read state file: %w", err)
	}

	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(s.path); statErr == nil {
			if mode := info.Mode().Perm(); mode&0077 != 0 {
				s.logger.Warn("state file has too-open permissions, should be 0600",
					"path", s.path, "mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	var doc orchestrator.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return orchestrator.Document{}, fmt.Errorf("parse state file: %w", err)
	}
	return doc, nil
}

// Save writes doc to disk atomically:
//  1. acquire in-process mutex
//  2. acquire flock on path+".lock"
//  3. back up the current file to path+".bak" (ignored if absent)
//  4. marshal doc as indented JSON
//  5. write path+".tmp" at 0600, fsync, rename over path
//  6. chmod path to 0600 as a safety net
//  7. release flock and mutex
func (s *FileStore) Save(doc orchestrator.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	if current, readErr := os.ReadFile(s.path); readErr == nil {
		if writeErr := os.WriteFile(s.path+".bak", current, 0600); writeErr != nil {
			s.logger.Warn("failed to write state backup", "error", writeErr)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	if err := os.Chmod(s.path, 0600); err != nil {
		s.logger.Warn("failed to set permissions on state file", "error", err)
	}
	s.logger.Debug("state saved", "path", s.path)
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to state: %w", err)
	}
	return nil
}
