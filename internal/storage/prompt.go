package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// PromptFile stores the last prompt sent to a provider, overwritten each
// cycle.
type PromptFile struct {
	path string
}

func NewPromptFile(dir string) *PromptFile {
	return &PromptFile{path: filepath.Join(dir, promptFileName)}
}

func (p *PromptFile) SavePrompt(prompt string) error {
	if err := os.WriteFile(p.path, []byte(prompt), artifactFileMode); err != nil {
		return fmt.Errorf("writing prompt file: %w", err)
	}

	return nil
}
