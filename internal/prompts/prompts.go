// Package prompts reads reusable text prompts that can be put in front of a
// transcript, for example instructions for summarizing an interview.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidName is returned for prompt names that are not plain file names.
var ErrInvalidName = errors.New("invalid prompt name")

const ext = ".txt"

// Library is a directory of .txt prompts.
type Library struct {
	dir string
}

// New returns a Library reading from dir.
func New(dir string) *Library {
	return &Library{dir: dir}
}

// List returns the sorted prompt file names. A missing directory has no prompts.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list prompts: %w", err)
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && strings.HasSuffix(e.Name(), ext)
	})
	slices.Sort(names)
	return names, nil
}

// Read returns the trimmed content of the named prompt.
func (l *Library) Read(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || !strings.HasSuffix(name, ext) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	b, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("read prompt %q: %w", name, err)
	}
	return strings.TrimSpace(string(b)), nil
}
