package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	indexFileName   = "index.json"
	indexBackupName = "index.json.bak"
	indexVersion    = 1
)

// indexEntry maps one composite key to its embedding and entry file
type indexEntry struct {
	Key       Key       `json:"key"`
	Embedding []float32 `json:"embedding"`
	File      string    `json:"file"`
	// Gen changes on every write of the key, so a stale reader cannot evict a newer entry
	Gen uint64 `json:"gen"`
}

type indexFile struct {
	Version int          `json:"version"`
	Entries []indexEntry `json:"entries"`
}

// loadIndex reads the index from dir. A missing or empty index yields an
// empty one; a corrupt index is copied to index.json.bak and reset.
func loadIndex(dir string) ([]indexEntry, error) {
	path := filepath.Join(dir, indexFileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		backup := filepath.Join(dir, indexBackupName)
		if werr := os.WriteFile(backup, data, 0o644); werr != nil {
			log.Error().Err(werr).Str("path", backup).Msg("failed to back up corrupt cache index")
		}
		log.Warn().Err(err).Str("backup", backup).Msg("cache index corrupt, starting empty")
		return nil, nil
	}

	valid := idx.Entries[:0]
	for _, e := range idx.Entries {
		if e.File == "" || e.Key.Prompt == "" {
			continue
		}
		valid = append(valid, e)
	}
	return valid, nil
}

// saveIndex writes the index atomically
func saveIndex(dir string, entries []indexEntry) error {
	data, err := json.Marshal(indexFile{Version: indexVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to marshal cache index: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, indexFileName), data)
}

// writeFileAtomic writes data to a temp file in the same directory and renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
