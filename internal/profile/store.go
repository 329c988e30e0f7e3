// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package profile persists saved connection profiles. On disk every
// profile carries a masked connection string; the real password lives
// in an AES-GCM envelope next to it and is spliced back in on load.
// Loading hardens against legacy shapes, unreadable secrets and
// duplicate entries, counting what it drops instead of failing.
package profile // import "github.com/toeirei/querydeck/internal/profile"

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/toeirei/querydeck/internal/debounce"
	"github.com/toeirei/querydeck/internal/dialect"
	"github.com/toeirei/querydeck/internal/keystore"
	"github.com/toeirei/querydeck/internal/logging"
	"github.com/toeirei/querydeck/internal/model"
)

// LoadResult is the outcome of reading the profile file. Dropped
// entries are counted, never propagated: a corrupt legacy record must
// not take the whole store down.
type LoadResult struct {
	Records    []model.ConnectionProfile
	Normalized int
	Skipped    int
}

// Store reads and writes the connection profile file. Writes funnel
// through a debounced writer unless the caller needs synchronous
// confirmation (SaveNow).
type Store struct {
	path   string
	keys   *keystore.KeyStore
	writer *debounce.Writer[[]model.ConnectionProfile]
}

// NewStore returns a Store over the profile file at path, using keys
// for credential encryption and delay for write coalescing.
func NewStore(path string, keys *keystore.KeyStore, delay time.Duration) *Store {
	s := &Store{path: path, keys: keys}
	s.writer = debounce.NewWriter("profiles", delay, s.writeFile)
	return s
}

// Load reads the profile file. A missing or empty file yields an empty
// result; a present-but-unreadable file propagates as an error because
// it signals an unusable data directory. Each entry is tried as
// canonical-with-secret, then canonical, then legacy; failures are
// skipped and counted. Duplicates on (dialect, masked connection
// string) keep the entry with the later parseable updatedAt.
func (s *Store) Load() (LoadResult, error) {
	var result LoadResult

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("failed to read profile file: %w", err)
	}
	if len(data) == 0 {
		return result, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		// Not a JSON array; treat the whole file as one bad record.
		result.Skipped++
		return result, nil
	}

	var records []model.ConnectionProfile
	for _, raw := range raws {
		rec, normalized, ok := s.decodeEntry(raw)
		if !ok {
			result.Skipped++
			continue
		}
		if normalized {
			result.Normalized++
		}
		records = append(records, rec)
	}

	result.Records, result.Skipped = dedupe(records, result.Skipped)
	return result, nil
}

// decodeEntry resolves one raw entry to a canonical profile. The bool
// results are (normalized, ok).
func (s *Store) decodeEntry(raw json.RawMessage) (model.ConnectionProfile, bool, bool) {
	var rec model.ConnectionProfile
	if err := json.Unmarshal(raw, &rec); err == nil && isCanonical(rec) {
		if rec.EncryptedPassword != nil {
			password, err := s.keys.Decrypt(rec.EncryptedPassword)
			if err != nil {
				logging.Warnf("profile: dropping %q, secret unreadable: %v", rec.Name, err)
				return model.ConnectionProfile{}, false, false
			}
			rec.ConnectionString = SplicePassword(rec.ConnectionString, password)
		}
		return rec, false, true
	}

	rec, ok := normalizeLegacy(raw)
	if !ok {
		return model.ConnectionProfile{}, false, false
	}
	return rec, true, true
}

// isCanonical reports whether a decoded record is already in the
// current shape: id present and the dialect name exact, not an alias.
func isCanonical(rec model.ConnectionProfile) bool {
	switch dialect.Dialect(rec.Type) {
	case dialect.PostgreSQL, dialect.MySQL, dialect.SQLite:
	default:
		return false
	}
	return rec.ID != "" && rec.ConnectionString != ""
}

// dedupe drops profiles sharing (dialect, masked connection string),
// keeping the later-updated one. Two profiles differing only in
// password to the same host and user collide here; that is
// last-writer-wins and worth a warning, since the dropped record may
// have carried a different secret.
func dedupe(records []model.ConnectionProfile, skipped int) ([]model.ConnectionProfile, int) {
	type slot struct {
		rec   model.ConnectionProfile
		index int
	}
	seen := make(map[string]slot)
	order := make([]string, 0, len(records))
	for _, rec := range records {
		key := rec.Type + "|" + MaskConnectionString(rec.ConnectionString)
		prev, dup := seen[key]
		if !dup {
			seen[key] = slot{rec: rec, index: len(order)}
			order = append(order, key)
			continue
		}
		skipped++
		if rec.UpdatedAt.After(prev.rec.UpdatedAt) {
			logging.Warnf("profile: duplicate of %q, keeping later-updated copy", rec.Name)
			seen[key] = slot{rec: rec, index: prev.index}
		}
	}
	out := make([]model.ConnectionProfile, 0, len(order))
	for _, key := range order {
		out = append(out, seen[key].rec)
	}
	return out, skipped
}

// Save stages the profiles for a debounced write. Passwords embedded in
// connection strings are extracted, encrypted and replaced by the
// asterisk mask before anything reaches the writer.
func (s *Store) Save(profiles []model.ConnectionProfile) error {
	prepared, err := s.prepare(profiles)
	if err != nil {
		return err
	}
	s.writer.Write(prepared)
	return nil
}

// SaveNow persists immediately, bypassing the debounce window, so CLI
// handlers can observe write errors synchronously.
func (s *Store) SaveNow(profiles []model.ConnectionProfile) error {
	prepared, err := s.prepare(profiles)
	if err != nil {
		return err
	}
	s.writer.Cancel()
	return s.writeFile(prepared)
}

// Flush forces any staged debounced write out to disk.
func (s *Store) Flush() error { return s.writer.Flush() }

func (s *Store) prepare(profiles []model.ConnectionProfile) ([]model.ConnectionProfile, error) {
	out := make([]model.ConnectionProfile, len(profiles))
	for i, p := range profiles {
		password, masked, found := ExtractPassword(p.ConnectionString)
		if found && !isMask(password) {
			secret, err := s.keys.Encrypt(password)
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt password for %q: %w", p.Name, err)
			}
			p.EncryptedPassword = secret
			p.ConnectionString = masked
		}
		out[i] = p
	}
	return out, nil
}

func (s *Store) writeFile(profiles []model.ConnectionProfile) error {
	if profiles == nil {
		profiles = []model.ConnectionProfile{}
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}
	return nil
}

// ErrNotFound is returned when a profile id does not exist.
var ErrNotFound = errors.New("profile not found")
