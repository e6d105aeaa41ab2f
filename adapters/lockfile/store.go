// Package lockfile implements the LockStore port using a flat JSON file.
package lockfile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/zerr"
)

// DefaultFilename is the lock file name looked up next to the descriptor.
const DefaultFilename = "pin.lock"

// Store implements ports.LockStore backed by a single JSON file.
// Writes are atomic: the record is written to a temporary file in the same
// directory and renamed into place, so readers never observe a partial record.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a LockStore backed by the file at the given path.
func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// lockedReferenceDTO is the persisted form of a pinned reference.
type lockedReferenceDTO struct {
	Locator     string `json:"locator"`
	Fingerprint string `json:"fingerprint"`
	Revision    string `json:"revision"`
}

// lockRecordDTO is the persisted form of the lock record. Input names are
// map keys, which encoding/json emits in sorted order, keeping diffs readable.
type lockRecordDTO struct {
	Version int                           `json:"version"`
	Inputs  map[string]lockedReferenceDTO `json:"inputs"`
}

// Read loads the persisted lock record.
// Absence of the lock file is not an error; it means no prior pins exist.
func (s *Store) Read() (domain.LockRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewLockRecord(), false, nil
		}
		readErr := zerr.Wrap(err, "failed to read lock file")
		return domain.LockRecord{}, false, zerr.With(readErr, "path", s.path)
	}

	var dto lockRecordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		corruptErr := zerr.Wrap(err, domain.ErrCorruptLock.Error())
		return domain.LockRecord{}, false, zerr.With(corruptErr, "path", s.path)
	}
	if dto.Version == 0 {
		return domain.LockRecord{}, false, domain.WithDetail(domain.ErrCorruptLock, "path", s.path)
	}

	record := domain.LockRecord{
		Version: dto.Version,
		Inputs:  make(map[string]domain.LockedReference, len(dto.Inputs)),
	}
	for name, ref := range dto.Inputs {
		record.Inputs[name] = domain.LockedReference{
			Name:        domain.NewInternedString(name),
			Locator:     ref.Locator,
			Fingerprint: domain.Fingerprint(ref.Fingerprint),
			Revision:    ref.Revision,
		}
	}

	return record, true, nil
}

// Write persists the lock record with write-then-rename discipline.
func (s *Store) Write(record domain.LockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dto := lockRecordDTO{
		Version: record.Version,
		Inputs:  make(map[string]lockedReferenceDTO, len(record.Inputs)),
	}
	for name, ref := range record.Inputs {
		dto.Inputs[name] = lockedReferenceDTO{
			Locator:     ref.Locator,
			Fingerprint: string(ref.Fingerprint),
			Revision:    ref.Revision,
		}
	}

	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal lock record")
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for lock file")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary lock file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to write temporary lock file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to sync temporary lock file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to close temporary lock file")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to replace lock file")
	}

	return nil
}
