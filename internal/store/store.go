// Package store persists session metadata as one JSON file per session,
// written atomically (write-tmp + rename) so a crash mid-write never
// corrupts an existing record.
package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// schemaVersion is bumped whenever Record's on-disk shape changes in a way
// existing readers can't tolerate. Load surfaces a mismatch rather than
// silently dropping or misreading the record.
const schemaVersion = 1

// Record is the on-disk representation of one Session.
type Record struct {
	SchemaVersion  int               `json:"schema_version"`
	ID             uuid.UUID         `json:"id"`
	DisplayName    string            `json:"display_name"`
	WorkspacePath  string            `json:"workspace_path"`
	BranchName     string            `json:"branch_name"`
	WorktreePath   string            `json:"worktree_path"`
	TmuxName       string            `json:"tmux_name"`
	Mode           string            `json:"mode"` // "interactive" | "boss"
	BossPrompt     string            `json:"boss_prompt,omitempty"`
	Program        string            `json:"program"`
	Environment    map[string]string `json:"environment,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
}

// Store is the persistence contract the Session Manager depends on.
type Store interface {
	Save(r Record) error
	LoadAll() ([]Record, error)
	Delete(id uuid.UUID) error
}

// FileStore persists one Record per session under Dir/<id>.json.
type FileStore struct {
	Dir    string
	logger *slog.Logger

	mu sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Dir: dir, logger: logger}, nil
}

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.Dir, id.String()+".json")
}

// Save writes r to its own file via write-tmp + atomic rename.
func (s *FileStore) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.SchemaVersion = schemaVersion
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	target := s.path(r.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// LoadAll reads every record under Dir. Records whose schema_version does
// not match the current schema are skipped here with a warning log entry;
// LoadAllWithWarnings also returns their filenames. No caller turns them
// into Stopped sessions: they do not appear in the session list.
func (s *FileStore) LoadAll() ([]Record, error) {
	records, _, err := s.LoadAllWithWarnings()
	return records, err
}

// LoadAllWithWarnings is LoadAll plus the filenames of records that exist
// but could not be parsed or whose schema_version mismatched.
func (s *FileStore) LoadAllWithWarnings() ([]Record, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var records []Record
	var warnings []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			s.logger.Warn("store: reading record", "file", e.Name(), "err", err)
			warnings = append(warnings, e.Name())
			continue
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			s.logger.Warn("store: parsing record", "file", e.Name(), "err", err)
			warnings = append(warnings, e.Name())
			continue
		}
		if r.SchemaVersion != schemaVersion {
			s.logger.Warn("store: schema version mismatch", "file", e.Name(), "got", r.SchemaVersion, "want", schemaVersion)
			warnings = append(warnings, e.Name())
			continue
		}
		records = append(records, r)
	}
	return records, warnings, nil
}

// Delete removes id's record. Idempotent: a missing file is not an error.
func (s *FileStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// degradedStore is the Store returned by Default when the filesystem is
// read-only or the config directory is unavailable: writes no-op, reads
// return empty, and the first call logs a warning so the operator can see
// persistence is degraded. The Reconciler still runs against live tmux in
// this mode; sessions just won't survive a restart.
type degradedStore struct {
	logger *slog.Logger
	once   sync.Once
}

// Default returns a no-op Store for use when FileStore construction
// fails. The TUI start-up path does not fall back to it: a FileStore
// failure there ends start-up with an error.
func Default(logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &degradedStore{logger: logger}
}

func (d *degradedStore) warnOnce() {
	d.once.Do(func() {
		d.logger.Warn("store: running in degraded mode; session records will not survive a restart")
	})
}

func (d *degradedStore) Save(Record) error {
	d.warnOnce()
	return nil
}

func (d *degradedStore) LoadAll() ([]Record, error) {
	d.warnOnce()
	return nil, nil
}

func (d *degradedStore) Delete(uuid.UUID) error {
	d.warnOnce()
	return nil
}
