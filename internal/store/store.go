// internal/store/store.go
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/models"

	"github.com/gofrs/flock"
)

const (
	recordsFile   = "records.json"
	checklistFile = "checklist.json"
	identityFile  = "identity.json"
	lockFile      = ".lock"
)

// timestampLayout renders record dates in the ko-KR 24-hour style the
// sheet expects, e.g. "2026. 08. 29. 14:03:05".
const timestampLayout = "2006. 01. 02. 15:04:05"

// Store is the device-local persistence layer: submitted application
// records, checklist state, and the last-used salesperson identity.
// Everything is JSON files under one data directory, guarded by a
// cross-process file lock and written via temp-file + rename.
type Store struct {
	dir string
	flk *flock.Flock
	log logger.Logger

	mu     sync.Mutex
	lastID int64
	now    func() time.Time
}

func New(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir: dir,
		flk: flock.New(filepath.Join(dir, lockFile)),
		log: log.WithFields(map[string]interface{}{"component": "store"}),
		now: time.Now,
	}, nil
}

// StampRecord assigns the record's id and date without persisting it.
// Ids are unix-millisecond strings, nudged forward when two submissions
// land in the same millisecond so they stay unique and monotonic per
// device.
func (s *Store) StampRecord(r models.ApplicationRecord) models.ApplicationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	r.ID = strconv.FormatInt(id, 10)
	r.Date = now.Format(timestampLayout)
	return r
}

// AppendRecord persists a stamped record. Records are append-only.
func (s *Store) AppendRecord(r models.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.ApplicationRecord
	if err := s.readJSON(recordsFile, &records); err != nil {
		return err
	}
	records = append(records, r)
	return s.writeJSON(recordsFile, records)
}

// Records returns all locally persisted application records.
func (s *Store) Records() ([]models.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.ApplicationRecord
	if err := s.readJSON(recordsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Checklist returns the persisted checklist items, nil when none were
// saved yet.
func (s *Store) Checklist() ([]models.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.ChecklistItem
	if err := s.readJSON(checklistFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveChecklist persists the checklist after every change.
func (s *Store) SaveChecklist(items []models.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(checklistFile, items)
}

// LastIdentity returns the last-used identity triple, zero when unset.
func (s *Store) LastIdentity() (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id models.Identity
	if err := s.readJSON(identityFile, &id); err != nil {
		return models.Identity{}, err
	}
	return id, nil
}

// SaveLastIdentity persists the identity captured at submission time so
// the self-scoped history view survives restarts.
func (s *Store) SaveLastIdentity(id models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(identityFile, id)
}

// Reset clears everything: records, checklist state, and the saved
// identity. This is the explicit app-restart semantics.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer s.flk.Unlock()

	for _, name := range []string{recordsFile, checklistFile, identityFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) readJSON(name string, v interface{}) error {
	if err := s.flk.RLock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer s.flk.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v interface{}) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer s.flk.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
