package types

import "time"

// Backend names accepted for transcription and diarization.
const (
	BackendAWS     = "aws"
	BackendCommand = "command"
)

// Transcription modes, matching the text-only and speaker-role modes of the UI.
const (
	ModeText     = "text"
	ModeSpeakers = "speakers"
)

// AppConfig holds the command-line parameters.
type AppConfig struct {
	InputFilePath      string
	OutputFilePath     string
	BucketName         string
	Region             string
	LanguageCode       string
	SpeakerDiarization bool
	MaxSpeakers        int
	Interval           *Interval
	TempDir            string

	Transcriber        string
	TranscriberCommand []string
	Diarizer           string
	DiarizerCommand    []string
	Token              string

	PromptName string
	PromptsDir string

	Upload          bool
	IndexedMatching bool
	ServeAddr       string

	PollInterval time.Duration
	Timeout      time.Duration
}

// Mode returns the transcription mode selected by the diarization switch.
func (c *AppConfig) Mode() string {
	if c.SpeakerDiarization {
		return ModeSpeakers
	}
	return ModeText
}

// NeedsAWS reports whether any configured backend talks to AWS.
func (c *AppConfig) NeedsAWS() bool {
	if c.Upload || c.Transcriber == BackendAWS {
		return true
	}
	return c.SpeakerDiarization && c.Diarizer == BackendAWS
}
