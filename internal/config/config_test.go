package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embano1/interview-parser/internal/types"
)

func inputFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	return path
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaults(t *testing.T) {
	t.Setenv(TokenEnv, "hf_env")
	in := inputFile(t)

	cfg, err := New([]string{"-f", in, "-b", "my-bucket"})
	require.NoError(t, err)

	assert.Equal(t, in, cfg.InputFilePath)
	assert.Equal(t, "out/transcript.txt", cfg.OutputFilePath)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "ru", cfg.LanguageCode)
	assert.Equal(t, 2, cfg.MaxSpeakers)
	assert.Equal(t, types.BackendAWS, cfg.Transcriber)
	assert.Equal(t, "hf_env", cfg.Token)
	assert.Equal(t, types.ModeText, cfg.Mode())
	assert.Nil(t, cfg.Interval)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
}

func TestNewFlags(t *testing.T) {
	in := inputFile(t)

	cfg, err := New([]string{"-f", in, "-b", "my-bucket", "-d", "-m", "3", "-s", "1.5", "-e", "60", "-l", "en", "-i", "-u", "-token", "hf_flag"})
	require.NoError(t, err)

	assert.Equal(t, types.ModeSpeakers, cfg.Mode())
	assert.Equal(t, 3, cfg.MaxSpeakers)
	assert.Equal(t, &types.Interval{Start: 1.5, End: 60}, cfg.Interval)
	assert.Equal(t, "en", cfg.LanguageCode)
	assert.True(t, cfg.IndexedMatching)
	assert.True(t, cfg.Upload)
	assert.Equal(t, "hf_flag", cfg.Token)
}

func TestNewConfigFile(t *testing.T) {
	in := inputFile(t)
	path := writeConfig(t, `
input: `+in+`
language: en
diarization: true
speakers: 4
interval: {start: 10, end: 20}
timeout: 5m
aws:
  region: eu-central-1
  bucket: interviews
  poll_interval: 2s
transcriber:
  backend: aws
diarizer:
  backend: command
  command: ["python3", "diarize.py", "--audio", "{audio}", "--speakers", "{speakers}"]
prompts:
  dir: /etc/prompts
  name: summary.txt
merge:
  strategy: indexed
`)

	cfg, err := New([]string{"-c", path, "-r", "us-west-2"})
	require.NoError(t, err)

	assert.Equal(t, in, cfg.InputFilePath)
	assert.Equal(t, "en", cfg.LanguageCode)
	assert.True(t, cfg.SpeakerDiarization)
	assert.Equal(t, 4, cfg.MaxSpeakers)
	assert.Equal(t, &types.Interval{Start: 10, End: 20}, cfg.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Equal(t, "us-west-2", cfg.Region, "flags win over the file")
	assert.Equal(t, "interviews", cfg.BucketName)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, types.BackendCommand, cfg.Diarizer)
	assert.Equal(t, []string{"python3", "diarize.py", "--audio", "{audio}", "--speakers", "{speakers}"}, cfg.DiarizerCommand)
	assert.Equal(t, "/etc/prompts", cfg.PromptsDir)
	assert.Equal(t, "summary.txt", cfg.PromptName)
	assert.True(t, cfg.IndexedMatching)
}

func TestNewServeWithoutInput(t *testing.T) {
	cfg, err := New([]string{"-serve", ":8080", "-t", "command", "-c", writeConfig(t, "transcriber: {command: [whisper, '{audio}']}\n")})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServeAddr)
	assert.False(t, cfg.NeedsAWS())
}

func TestNewErrors(t *testing.T) {
	in := inputFile(t)

	testCases := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"-b", "my-bucket"}},
		{"input does not exist", []string{"-f", filepath.Join(t.TempDir(), "nope.mp4"), "-b", "my-bucket"}},
		{"input is a directory", []string{"-f", t.TempDir(), "-b", "my-bucket"}},
		{"missing bucket", []string{"-f", in}},
		{"invalid bucket", []string{"-f", in, "-b", "Bad_Bucket"}},
		{"inverted interval", []string{"-f", in, "-b", "my-bucket", "-s", "10", "-e", "5"}},
		{"only start given", []string{"-f", in, "-b", "my-bucket", "-s", "10"}},
		{"unknown transcriber", []string{"-f", in, "-b", "my-bucket", "-t", "whisper"}},
		{"command without argv", []string{"-f", in, "-t", "command"}},
		{"zero speakers", []string{"-f", in, "-b", "my-bucket", "-d", "-m", "0"}},
		{"unknown flag", []string{"-f", in, "-x"}},
		{"missing config file", []string{"-f", in, "-b", "my-bucket", "-c", filepath.Join(t.TempDir(), "none.yaml")}},
		{"unknown config key", []string{"-f", in, "-b", "my-bucket", "-c", writeConfig(t, "colour: blue\n")}},
		{"bad merge strategy", []string{"-f", in, "-b", "my-bucket", "-c", writeConfig(t, "merge: {strategy: fuzzy}\n")}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.args)
			assert.Error(t, err)
		})
	}

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestLoadFileEmpty(t *testing.T) {
	f, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, &File{}, f)
}
