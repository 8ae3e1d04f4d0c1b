package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/embano1/interview-parser/internal/types"
)

// File is the YAML configuration file. Every field is optional; flags given
// on the command line take precedence.
type File struct {
	Input       string          `yaml:"input"`
	Output      string          `yaml:"output"`
	Language    string          `yaml:"language"`
	Diarization *bool           `yaml:"diarization"`
	Speakers    int             `yaml:"speakers"`
	Interval    *types.Interval `yaml:"interval"`
	TempDir     string          `yaml:"temp_dir"`
	Token       string          `yaml:"token"`
	Timeout     time.Duration   `yaml:"timeout"`

	AWS struct {
		Region       string        `yaml:"region"`
		Bucket       string        `yaml:"bucket"`
		PollInterval time.Duration `yaml:"poll_interval"`
		Upload       *bool         `yaml:"upload"`
	} `yaml:"aws"`

	Transcriber Backend `yaml:"transcriber"`
	Diarizer    Backend `yaml:"diarizer"`

	Prompts struct {
		Dir  string `yaml:"dir"`
		Name string `yaml:"name"`
	} `yaml:"prompts"`

	Merge struct {
		Strategy string `yaml:"strategy"`
	} `yaml:"merge"`

	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
}

// Backend selects a transcription or diarization backend.
type Backend struct {
	Backend string   `yaml:"backend"`
	Command []string `yaml:"command"`
}

// LoadFile reads and decodes a YAML configuration file. Unknown keys are errors.
func LoadFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var f File
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	return &f, nil
}
