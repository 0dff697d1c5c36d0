// Package store is a filesystem-backed ports.Store: an in-memory
// catalogue of installed mods, snapshotted to a TOML file so a
// demonstration CLI invocation can pick up where a previous one left
// off without standing up a real database.
//
// Grounded on endpoints/profile/profile.go's load/mutate/persist shape
// (list, upsert, delete against a single backing store, each guarded
// by its own method rather than a generic CRUD layer) with the GORM
// model swapped for a plain map, since the install manager has no
// database collaborator of its own (spec.md's Store port is read/write
// only, not a query language) — and the persistence format swapped
// from SQL rows to TOML. (internal/config reads YAML, not TOML.)
package store

import (
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// record is the TOML-serializable projection of a ports.ModSummary:
// ModInfo and instruction-derived types don't round-trip cleanly
// through TOML's type system on their own, so attributes are kept as
// a plain string-keyed map and rules are flattened to their scalar
// fields.
type record struct {
	GameID        string                 `toml:"game_id"`
	ModID         string                 `toml:"mod_id"`
	Attributes    map[string]interface{} `toml:"attributes"`
	Rules         []ruleRecord           `toml:"rules"`
	FileOverrides []overrideRecord       `toml:"file_overrides"`
	NewestFileID  string                 `toml:"newest_file_id"`
	FileID        string                 `toml:"file_id"`
}

type ruleRecord struct {
	Type            string `toml:"type"`
	ReferenceID     string `toml:"reference_id,omitempty"`
	FileMD5         string `toml:"file_md5,omitempty"`
	LogicalFileName string `toml:"logical_file_name,omitempty"`
	FileExpression  string `toml:"file_expression,omitempty"`
	VersionMatch    string `toml:"version_match,omitempty"`
}

type overrideRecord struct {
	RelPath string `toml:"rel_path"`
}

// snapshot is the top-level document persisted to disk.
type snapshot struct {
	Mods    []record                   `toml:"mod"`
	Enabled map[string]map[string]bool `toml:"enabled"` // profile -> "gameID/modID" -> bool
}

// Store is a mutex-guarded in-memory catalogue, optionally backed by a
// TOML file on disk for cross-run persistence.
type Store struct {
	mu      sync.Mutex
	path    string
	mods    map[string]ports.ModSummary // "gameID/modID" -> summary
	enabled map[string]map[string]bool  // profile -> "gameID/modID" -> bool
}

// New returns an empty store. If path is non-empty and an existing
// snapshot is found there, it's loaded immediately.
func New(path string) (*Store, error) {
	s := &Store{
		path:    path,
		mods:    map[string]ports.ModSummary{},
		enabled: map[string]map[string]bool{},
	}
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, errors.Wrap(err, "loading store snapshot")
	}
	return s, nil
}

func modKey(gameID, modID string) string { return gameID + "/" + modID }

func (s *Store) ModExists(gameID, modID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mods[modKey(gameID, modID)]
	return ok, nil
}

func (s *Store) GetMod(gameID, modID string) (ports.ModSummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mods[modKey(gameID, modID)]
	return m, ok, nil
}

func (s *Store) SaveMod(gameID string, summary ports.ModSummary) error {
	s.mu.Lock()
	s.mods[modKey(gameID, summary.ModID)] = summary
	s.mu.Unlock()
	return s.persist()
}

func (s *Store) RemoveMod(gameID, modID string) error {
	s.mu.Lock()
	delete(s.mods, modKey(gameID, modID))
	s.mu.Unlock()
	return s.persist()
}

func (s *Store) SetModType(gameID, modID, modType string) error {
	s.mu.Lock()
	key := modKey(gameID, modID)
	m, ok := s.mods[key]
	if !ok {
		s.mu.Unlock()
		return errors.Errorf("no such mod %s", key)
	}
	if m.Attributes == nil {
		m.Attributes = model.ModInfo{}
	}
	m.Attributes["modType"] = modType
	s.mods[key] = m
	s.mu.Unlock()
	return s.persist()
}

func (s *Store) SetEnabled(profile, gameID, modID string, value bool) error {
	s.mu.Lock()
	if s.enabled[profile] == nil {
		s.enabled[profile] = map[string]bool{}
	}
	s.enabled[profile][modKey(gameID, modID)] = value
	s.mu.Unlock()
	return s.persist()
}

func (s *Store) IsEnabled(profile, gameID, modID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[profile][modKey(gameID, modID)], nil
}

func (s *Store) SetAttribute(gameID, modID, key string, value interface{}) error {
	s.mu.Lock()
	k := modKey(gameID, modID)
	m, ok := s.mods[k]
	if !ok {
		s.mu.Unlock()
		return errors.Errorf("no such mod %s", k)
	}
	if m.Attributes == nil {
		m.Attributes = model.ModInfo{}
	}
	m.Attributes[key] = value
	s.mods[k] = m
	s.mu.Unlock()
	return s.persist()
}

func (s *Store) AddRule(gameID, modID string, rule model.ModRule) error {
	s.mu.Lock()
	k := modKey(gameID, modID)
	m, ok := s.mods[k]
	if !ok {
		s.mu.Unlock()
		return errors.Errorf("no such mod %s", k)
	}
	m.Rules = append(m.Rules, rule)
	s.mods[k] = m
	s.mu.Unlock()
	return s.persist()
}

// persist writes the current in-memory state to s.path, a no-op when
// the store was constructed without a backing file (tests, one-shot
// in-process use).
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	doc := s.toSnapshotLocked()
	s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(doc); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s *Store) toSnapshotLocked() snapshot {
	doc := snapshot{Enabled: s.enabled}
	for _, m := range s.mods {
		rec := record{
			GameID:       m.GameID,
			ModID:        m.ModID,
			Attributes:   map[string]interface{}(m.Attributes),
			NewestFileID: m.NewestFileID,
			FileID:       m.FileID,
		}
		for _, r := range m.Rules {
			rec.Rules = append(rec.Rules, ruleRecord{
				Type:            string(r.Type),
				ReferenceID:     r.Reference.ID,
				FileMD5:         r.Reference.FileMD5,
				LogicalFileName: r.Reference.LogicalFileName,
				FileExpression:  r.Reference.FileExpression,
				VersionMatch:    r.Reference.VersionMatch,
			})
		}
		for _, o := range m.FileOverrides {
			rec.FileOverrides = append(rec.FileOverrides, overrideRecord{RelPath: o.RelPath})
		}
		doc.Mods = append(doc.Mods, rec)
	}
	return doc
}

func (s *Store) load() error {
	var doc snapshot
	if _, err := toml.DecodeFile(s.path, &doc); err != nil {
		return errors.WithStack(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.Enabled != nil {
		s.enabled = doc.Enabled
	}
	for _, rec := range doc.Mods {
		summary := ports.ModSummary{
			GameID:       rec.GameID,
			ModID:        rec.ModID,
			Attributes:   model.ModInfo(rec.Attributes),
			NewestFileID: rec.NewestFileID,
			FileID:       rec.FileID,
		}
		for _, rr := range rec.Rules {
			summary.Rules = append(summary.Rules, model.ModRule{
				Type: model.RuleType(rr.Type),
				Reference: model.Reference{
					ID:              rr.ReferenceID,
					FileMD5:         rr.FileMD5,
					LogicalFileName: rr.LogicalFileName,
					FileExpression:  rr.FileExpression,
					VersionMatch:    rr.VersionMatch,
				},
			})
		}
		for _, or := range rec.FileOverrides {
			summary.FileOverrides = append(summary.FileOverrides, ports.FileOverride{RelPath: or.RelPath})
		}
		s.mods[modKey(rec.GameID, rec.ModID)] = summary
	}
	return nil
}
