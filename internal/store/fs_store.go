// Package store persists act records, raw content and the corpus
// manifest on the local filesystem.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lexcorpus/crawler/internal/corpus"
)

const (
	recordsDir   = "records"
	rawDir       = "raw"
	manifestFile = "manifest.json"
)

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store writes per-document output under a base directory:
// records/<id>.json, raw/<id>.html and manifest.json. Writes for the
// same identifier overwrite, making re-runs idempotent.
type Store struct {
	baseDir string
}

// New creates the base directory layout.
func New(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	for _, sub := range []string{recordsDir, rawDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o750); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", sub, err)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

// PutRecord writes the record keyed by its document identifier.
func (s *Store) PutRecord(record corpus.ActRecord) error {
	if record.Document.ID == "" {
		return fmt.Errorf("record has no document identifier")
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.Document.ID, err)
	}
	path := s.recordPath(record.Document.ID)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write record %s: %w", record.Document.ID, err)
	}
	return nil
}

// ReadRecord loads a previously persisted record.
func (s *Store) ReadRecord(id string) (corpus.ActRecord, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		return corpus.ActRecord{}, fmt.Errorf("read record %s: %w", id, err)
	}
	var record corpus.ActRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return corpus.ActRecord{}, fmt.Errorf("unmarshal record %s: %w", id, err)
	}
	return record, nil
}

// HasRecord reports whether a record exists for the identifier.
func (s *Store) HasRecord(id string) bool {
	_, err := os.Stat(s.recordPath(id))
	return err == nil
}

// PutRaw caches the raw fetched content for the identifier.
func (s *Store) PutRaw(id string, data []byte) error {
	if err := os.WriteFile(s.rawPath(id), data, 0o600); err != nil {
		return fmt.Errorf("write raw content %s: %w", id, err)
	}
	return nil
}

// Raw returns the cached raw content for the identifier, if present.
func (s *Store) Raw(id string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.rawPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read raw content %s: %w", id, err)
	}
	return data, true, nil
}

// WriteManifest writes the corpus manifest for the run.
func (s *Store) WriteManifest(m corpus.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(s.baseDir, manifestFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.baseDir, recordsDir, safeName(id)+".json")
}

func (s *Store) rawPath(id string) string {
	return filepath.Join(s.baseDir, rawDir, safeName(id)+".html")
}

func safeName(id string) string {
	return invalidNameChars.ReplaceAllString(id, "_")
}
