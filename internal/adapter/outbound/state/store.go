package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/feastflow/storefront/internal/port/outbound"
)

// FileStateStore keeps every storage key in a single JSON document on disk.
// Writers serialise on a mutex inside the process and on an flock across
// processes, so two CLI invocations can share one file.
type FileStateStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStateStore returns a store backed by the file at path. Nothing is
// created until the first write.
func NewFileStateStore(path string, logger *slog.Logger) *FileStateStore {
	return &FileStateStore{path: path, logger: logger}
}

// Load parses the file. A missing file yields DefaultState; an unparsable
// one is an error.
func (s *FileStateStore) Load() (*AppState, error) {
	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Debug("no state file yet", "path", s.path)
		return s.DefaultState(), nil
	case err != nil:
		return nil, fmt.Errorf("read state file: %w", err)
	}

	s.checkMode()

	st := &AppState{}
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if st.Entries == nil {
		st.Entries = make(map[string]string)
	}
	return st, nil
}

// checkMode logs when group or other can read the file.
func (s *FileStateStore) checkMode() {
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		s.logger.Warn("state file is readable by other users",
			"path", s.path, "mode", fmt.Sprintf("%04o", perm))
	}
}

func (s *FileStateStore) Get(_ context.Context, key string) ([]byte, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	if v, ok := st.Entries[key]; ok {
		return []byte(v), nil
	}
	return nil, outbound.ErrNotFound
}

func (s *FileStateStore) Set(_ context.Context, key string, value []byte) error {
	return s.mutate(func(st *AppState) { st.Entries[key] = string(value) })
}

func (s *FileStateStore) Delete(_ context.Context, key string) error {
	return s.mutate(func(st *AppState) { delete(st.Entries, key) })
}

// mutate applies fn to the current document and writes it back. Corrupt
// content is discarded; commit keeps the old bytes in the .bak file.
func (s *FileStateStore) mutate(fn func(*AppState)) error {
	return s.locked(func() error {
		st, err := s.Load()
		if isDecodeError(err) {
			s.logger.Warn("discarding unreadable state file", "path", s.path, "error", err)
			st, err = s.DefaultState(), nil
		}
		if err != nil {
			return err
		}
		fn(st)
		return s.commit(st)
	})
}

func isDecodeError(err error) bool {
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syntax) || errors.As(err, &typ)
}

// Save replaces the file with st.
func (s *FileStateStore) Save(st *AppState) error {
	return s.locked(func() error { return s.commit(st) })
}

// locked runs fn under the mutex and the flock on path.lock.
func (s *FileStateStore) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	lock, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lock.Close()

	if err := flockLock(lock.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer func() { _ = flockUnlock(lock.Fd()) }()

	return fn()
}

// commit stamps st, copies the previous file to .bak and swaps in the new
// content. Callers hold both locks.
func (s *FileStateStore) commit(st *AppState) error {
	st.UpdatedAt = time.Now().UTC()
	if st.Version == "" {
		st.Version = SchemaVersion
	}

	body, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	body = append(body, '\n')

	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".bak", prev, 0o600); err != nil {
			s.logger.Warn("state backup failed", "error", err)
		}
	}

	if err := replaceFile(s.path, body); err != nil {
		return err
	}
	// Rename keeps the temp file's mode, but an older file may predate it.
	if err := os.Chmod(s.path, 0o600); err != nil {
		s.logger.Warn("chmod state file failed", "error", err)
	}
	s.logger.Debug("state written", "path", s.path, "entries", len(st.Entries))
	return nil
}

// replaceFile writes body next to path, syncs it and renames it into place.
// The temp file never outlives a failed call.
func replaceFile(path string, body []byte) (err error) {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(body); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// DefaultState is the empty document at the current schema version.
func (s *FileStateStore) DefaultState() *AppState {
	now := time.Now().UTC()
	return &AppState{
		Version:   SchemaVersion,
		Entries:   make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var _ outbound.Storage = (*FileStateStore)(nil)
