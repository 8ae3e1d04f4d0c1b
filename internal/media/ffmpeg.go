// Package media prepares audio for transcription: extraction from video and
// cutting to an interval, both through ffmpeg.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/embano1/interview-parser/internal/types"
)

// ErrInvalidInterval is returned for cut intervals outside the audio.
var ErrInvalidInterval = errors.New("invalid interval")

// AudioProcessor extracts mono 16 kHz PCM WAV audio and cuts it. Files it
// creates are tracked and removed by Cleanup.
type AudioProcessor struct {
	ffmpeg string
	tmpDir string

	mu      sync.Mutex
	created []string
}

// Option configures an AudioProcessor.
type Option func(p *AudioProcessor)

// WithFFmpeg overrides the ffmpeg binary.
func WithFFmpeg(path string) Option {
	return func(p *AudioProcessor) { p.ffmpeg = path }
}

// WithTempDir sets where intermediate audio is written.
func WithTempDir(dir string) Option {
	return func(p *AudioProcessor) { p.tmpDir = dir }
}

// NewAudioProcessor creates an AudioProcessor.
func NewAudioProcessor(opts ...Option) *AudioProcessor {
	p := &AudioProcessor{ffmpeg: "ffmpeg"}
	for _, opt := range opts {
		opt(p)
	}
	if p.tmpDir == "" {
		p.tmpDir = os.TempDir()
	}
	return p
}

// GetAudio extracts audio from videoPath and, if interval is set, cuts it.
// It returns the path of the final audio file.
func (p *AudioProcessor) GetAudio(ctx context.Context, videoPath string, interval *types.Interval) (string, error) {
	audioPath, err := p.ExtractAudio(ctx, videoPath)
	if err != nil {
		return "", err
	}
	if interval == nil {
		return audioPath, nil
	}
	return p.CutAudio(ctx, audioPath, *interval)
}

// ExtractAudio writes the audio track of videoPath to a new WAV file.
func (p *AudioProcessor) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	if videoPath == "" {
		return "", errors.New("no video file given")
	}
	out, err := p.tempPath()
	if err != nil {
		return "", err
	}
	if err := p.run(ctx, extractArgs(videoPath, out)); err != nil {
		return "", fmt.Errorf("extract audio from %q: %w", videoPath, err)
	}
	return out, nil
}

// CutAudio writes the interval of audioPath to a new WAV file. The interval
// end is clamped to the audio duration.
func (p *AudioProcessor) CutAudio(ctx context.Context, audioPath string, interval types.Interval) (string, error) {
	if err := interval.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}

	duration, err := Duration(audioPath)
	if err != nil {
		return "", err
	}
	if interval.Start >= duration {
		return "", fmt.Errorf("%w: start %.2f is past the end of the audio (%.2fs)", ErrInvalidInterval, interval.Start, duration)
	}
	if interval.End > duration {
		log.Printf("Cut end %.2f exceeds audio duration, using %.2f", interval.End, duration)
		interval.End = duration
	}

	out, err := p.tempPath()
	if err != nil {
		return "", err
	}
	if err := p.run(ctx, cutArgs(audioPath, out, interval)); err != nil {
		return "", fmt.Errorf("cut audio %q to %s: %w", audioPath, interval, err)
	}
	return out, nil
}

// Cleanup removes every file created by the processor.
func (p *AudioProcessor) Cleanup() error {
	p.mu.Lock()
	created := p.created
	p.created = nil
	p.mu.Unlock()

	var errs []error
	for _, path := range created {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *AudioProcessor) tempPath() (string, error) {
	if err := os.MkdirAll(p.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(p.tmpDir, "audio-"+uuid.NewString()+".wav")

	p.mu.Lock()
	p.created = append(p.created, path)
	p.mu.Unlock()
	return path, nil
}

func (p *AudioProcessor) run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.ffmpeg, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if tail := lastLines(stderr.String(), 3); tail != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, tail)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

var pcmOutput = []string{"-acodec", "pcm_s16le", "-ac", "1", "-ar", "16000"}

func extractArgs(in, out string) []string {
	args := []string{"-y", "-loglevel", "error", "-i", in}
	args = append(args, pcmOutput...)
	return append(args, out)
}

func cutArgs(in, out string, interval types.Interval) []string {
	args := []string{
		"-y", "-loglevel", "error",
		"-ss", formatSeconds(interval.Start),
		"-to", formatSeconds(interval.End),
		"-i", in,
	}
	args = append(args, pcmOutput...)
	return append(args, out)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
