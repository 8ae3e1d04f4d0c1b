package formatting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/embano1/interview-parser/internal/types"
)

// TranscriptFile is the file name written by TranscriptSaver.
const TranscriptFile = "transcript.txt"

// TranscriptSaver writes rendered transcripts into a directory.
type TranscriptSaver struct {
	path string
}

// NewTranscriptSaver creates dir if needed and returns a saver writing to
// dir/transcript.txt.
func NewTranscriptSaver(dir string) (*TranscriptSaver, error) {
	return NewTranscriptFileSaver(filepath.Join(dir, TranscriptFile))
}

// NewTranscriptFileSaver returns a saver writing to path, creating its
// parent directory.
func NewTranscriptFileSaver(path string) (*TranscriptSaver, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &TranscriptSaver{path: path}, nil
}

// Path returns the output file path.
func (s *TranscriptSaver) Path() string {
	return s.path
}

// Save writes the timestamped transcript of spans, replacing the file.
func (s *TranscriptSaver) Save(spans []types.MergedSpan) error {
	return s.SaveText(FormatTranscript(spans))
}

// SaveText writes text as is, replacing the file.
func (s *TranscriptSaver) SaveText(text string) error {
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript %q: %w", s.path, err)
	}
	return nil
}
