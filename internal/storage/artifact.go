// Package storage persists analysis artifacts: the JSON file consumers
// read, the last prompt for debugging, and an optional Postgres history.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
)

const (
	analysisFileName = "analysis.json"
	promptFileName   = "last_prompt.txt"

	artifactFileMode = 0o644
	artifactDirMode  = 0o755
)

// FileStore writes the analysis artifact with a write-then-swap so readers
// never observe a partial file, and keeps the last published bytes in
// memory for the health endpoint.
type FileStore struct {
	dir    string
	logger *zerolog.Logger

	mu   sync.RWMutex
	last []byte
}

func NewFileStore(dir string, logger *zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, artifactDirMode); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}

	return &FileStore{dir: dir, logger: logger}, nil
}

// Publish marshals the result and atomically replaces the analysis file.
func (s *FileStore) Publish(res *domain.AnalysisResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}

	target := filepath.Join(s.dir, analysisFileName)

	tmp, err := os.CreateTemp(s.dir, analysisFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}

	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("writing temp artifact: %w", err)
	}

	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("closing temp artifact: %w", err)
	}

	if err = os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("swapping artifact: %w", err)
	}

	s.mu.Lock()
	s.last = data
	s.mu.Unlock()

	s.logger.Info().Str("path", target).Int("bytes", len(data)).Msg("analysis published")

	return nil
}

// LastPublished returns the bytes of the most recently published result and
// whether anything has been published yet.
func (s *FileStore) LastPublished() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil, false
	}

	return s.last, true
}
