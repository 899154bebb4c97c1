package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

const (
	indexFileName     = "index.json"
	sessionsDirName   = "sessions"
	workspacesDirName = "workspaces"
	defaultDirPerm    = 0o755
	defaultFilePerm   = 0o644
)

// ErrNotFound is returned for a record name the store does not hold. It
// matches os.ErrNotExist.
var ErrNotFound = fmt.Errorf("record %w", os.ErrNotExist)

type Store struct {
	baseDir string
	mu      sync.Mutex
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func DefaultDataDir() string {
	if v := strings.TrimSpace(os.Getenv("LAZY_LAYOUT_DATA_DIR")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lazy-layout"
	}
	return filepath.Join(home, ".local", "share", "lazy-layout")
}

func (s *Store) SaveSession(rec snapshot.SessionRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return errors.New("empty session name")
	}
	if err := snapshot.Validate(rec.Layout); err != nil {
		return fmt.Errorf("session %q: %w", rec.Name, err)
	}
	if rec.Version == 0 {
		rec.Version = snapshot.FormatVersion
	}
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = time.Now().UTC()
	}
	return s.save(snapshot.KindSession, rec.Name, rec, snapshot.Record{
		CapturedAt: rec.CapturedAt.UTC(),
		Surfaces:   1,
		Panes:      len(rec.Layout.Leaves()),
	})
}

func (s *Store) SaveWorkspace(rec snapshot.WorkspaceRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return errors.New("empty workspace name")
	}
	if len(rec.Surfaces) == 0 {
		return fmt.Errorf("workspace %q has no surfaces", rec.Name)
	}
	panes := 0
	for i, sf := range rec.Surfaces {
		if err := snapshot.Validate(sf.Layout); err != nil {
			return fmt.Errorf("workspace %q surface %d: %w", rec.Name, i, err)
		}
		panes += len(sf.Layout.Leaves())
	}
	if rec.Version == 0 {
		rec.Version = snapshot.FormatVersion
	}
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = time.Now().UTC()
	}
	return s.save(snapshot.KindWorkspace, rec.Name, rec, snapshot.Record{
		CapturedAt: rec.CapturedAt.UTC(),
		Surfaces:   len(rec.Surfaces),
		Panes:      panes,
	})
}

func (s *Store) save(kind snapshot.RecordKind, name string, v any, meta snapshot.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLayout(); err != nil {
		return err
	}

	path := s.recordPath(kind, name)
	if err := writeJSONAtomic(path, v); err != nil {
		return err
	}

	idx, err := s.loadIndexUnlocked()
	if err != nil {
		return err
	}
	meta.Name, meta.Kind, meta.File = name, kind, path
	recordsOf(idx, kind)[name] = meta
	idx.Updated = time.Now().UTC()
	return writeJSONAtomic(s.indexPath(), idx)
}

func (s *Store) LoadSession(name string) (snapshot.SessionRecord, error) {
	var out snapshot.SessionRecord
	if err := s.load(snapshot.KindSession, name, &out); err != nil {
		return snapshot.SessionRecord{}, err
	}
	if err := checkVersion(out.Version); err != nil {
		return snapshot.SessionRecord{}, fmt.Errorf("session %q: %w", name, err)
	}
	return out, nil
}

func (s *Store) LoadWorkspace(name string) (snapshot.WorkspaceRecord, error) {
	var out snapshot.WorkspaceRecord
	if err := s.load(snapshot.KindWorkspace, name, &out); err != nil {
		return snapshot.WorkspaceRecord{}, err
	}
	if err := checkVersion(out.Version); err != nil {
		return snapshot.WorkspaceRecord{}, fmt.Errorf("workspace %q: %w", name, err)
	}
	return out, nil
}

func (s *Store) load(kind snapshot.RecordKind, name string, v any) error {
	b, err := os.ReadFile(s.recordPath(kind, name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s %q: %w", kind, name, err)
	}
	return nil
}

func checkVersion(v int) error {
	if v > snapshot.FormatVersion {
		return fmt.Errorf("format version %d is newer than supported %d", v, snapshot.FormatVersion)
	}
	return nil
}

// Delete removes a record and its index entry.
func (s *Store) Delete(kind snapshot.RecordKind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndexUnlocked()
	if err != nil {
		return err
	}
	records := recordsOf(idx, kind)
	if records == nil {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	_, indexed := records[name]
	err = os.Remove(s.recordPath(kind, name))
	if errors.Is(err, os.ErrNotExist) {
		if !indexed {
			return fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
		}
		err = nil
	}
	if err != nil {
		return err
	}
	if !indexed {
		return nil
	}
	delete(records, name)
	idx.Updated = time.Now().UTC()
	return writeJSONAtomic(s.indexPath(), idx)
}

// ListRecords returns records of both kinds, newest first.
func (s *Store) ListRecords() ([]snapshot.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndexUnlocked()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	records := make([]snapshot.Record, 0, len(idx.Sessions)+len(idx.Workspaces))
	for _, r := range idx.Sessions {
		records = append(records, r)
	}
	for _, r := range idx.Workspaces {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CapturedAt.Equal(records[j].CapturedAt) {
			if records[i].Name == records[j].Name {
				return records[i].Kind < records[j].Kind
			}
			return records[i].Name < records[j].Name
		}
		return records[i].CapturedAt.After(records[j].CapturedAt)
	})
	return records, nil
}

func (s *Store) LatestRecord() (snapshot.Record, error) {
	recs, err := s.ListRecords()
	if err != nil {
		return snapshot.Record{}, err
	}
	if len(recs) == 0 {
		return snapshot.Record{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *Store) ensureLayout() error {
	for _, dir := range []string{sessionsDirName, workspacesDirName} {
		if err := os.MkdirAll(filepath.Join(s.baseDir, dir), defaultDirPerm); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadIndexUnlocked() (snapshot.Index, error) {
	p := s.indexPath()
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot.Index{
				Version:    snapshot.FormatVersion,
				Updated:    time.Now().UTC(),
				Sessions:   map[string]snapshot.Record{},
				Workspaces: map[string]snapshot.Record{},
			}, nil
		}
		return snapshot.Index{}, err
	}
	var idx snapshot.Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return snapshot.Index{}, fmt.Errorf("decode index: %w", err)
	}
	if idx.Sessions == nil {
		idx.Sessions = map[string]snapshot.Record{}
	}
	if idx.Workspaces == nil {
		idx.Workspaces = map[string]snapshot.Record{}
	}
	if idx.Version == 0 {
		idx.Version = snapshot.FormatVersion
	}
	return idx, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.baseDir, indexFileName)
}

func (s *Store) recordPath(kind snapshot.RecordKind, name string) string {
	dir := sessionsDirName
	if kind == snapshot.KindWorkspace {
		dir = workspacesDirName
	}
	return filepath.Join(s.baseDir, dir, fileName(name)+".json")
}

// fileName maps a record name to a file name one-to-one. Separators,
// spaces and '%' are percent-encoded, so "work:1" and "work_1" never
// share a file.
func fileName(name string) string {
	return url.PathEscape(name)
}

func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), defaultFilePerm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func recordsOf(idx snapshot.Index, kind snapshot.RecordKind) map[string]snapshot.Record {
	switch kind {
	case snapshot.KindSession:
		return idx.Sessions
	case snapshot.KindWorkspace:
		return idx.Workspaces
	}
	return nil
}
