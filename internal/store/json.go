// Package store reads and writes the offer record collection as a JSON array.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/pkg/models"
	"github.com/rs/zerolog/log"
)

// Load reads the enriched collection at enrichedPath when it exists, else the
// base collection at basePath. Any failure is a fatal INPUT error.
func Load(basePath, enrichedPath string) ([]models.OfferRecord, string, error) {
	path := basePath
	if enrichedPath != "" {
		if _, err := os.Stat(enrichedPath); err == nil {
			path = enrichedPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, enrichedPath, engine.FatalInputError(enrichedPath, err)
		}
	}

	records, err := ReadFile(path)
	if err != nil {
		return nil, path, err
	}

	log.Debug().Str("path", path).Int("records", len(records)).Msg("Records loaded")
	return records, path, nil
}

// ReadFile decodes a JSON array of records.
func ReadFile(path string) ([]models.OfferRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.FatalInputError(path, err)
	}

	var records []models.OfferRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, engine.FatalInputError(path, fmt.Errorf("decode records: %w", err))
	}
	if records == nil {
		return nil, engine.FatalInputError(path, errors.New("expected a JSON array of records"))
	}
	return records, nil
}

// Save writes records as indented JSON without HTML escaping. The file is
// written to a temporary sibling first and renamed into place, so readers
// never see a partial collection.
func Save(path string, records []models.OfferRecord) error {
	if records == nil {
		records = []models.OfferRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("records", len(records)).Msg("Records saved")
	return nil
}
