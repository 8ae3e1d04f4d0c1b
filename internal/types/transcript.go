package types

import "fmt"

// UnknownSpeaker labels segments that no speaker turn fully contains.
const UnknownSpeaker = "Unknown"

// SpeakerTurn is an interval during which one speaker talks, as reported by a
// diarization backend. Turns carry no ordering guarantee.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// TranscriptSegment is a time-stamped piece of recognized text.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// MergedSpan is a run of consecutive segments attributed to the same speaker.
type MergedSpan struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// Transcription is what a transcription backend returns: the flat transcript
// and its segments in chronological order.
type Transcription struct {
	Text     string              `json:"text"`
	Language string              `json:"language,omitempty"`
	Segments []TranscriptSegment `json:"segments"`
}

// TranscribeRequest asks a backend to transcribe an audio file.
type TranscribeRequest struct {
	AudioPath string
	Language  string
	// MaxSpeakers is set when diarization runs alongside transcription, so
	// backends doing both in one job can share it. 0 means no diarization.
	MaxSpeakers int
}

// DiarizeRequest asks a backend for the speaker turns of an audio file.
type DiarizeRequest struct {
	AudioPath string
	Language  string
	Token     string
	Speakers  int
}

// Interval is a cut range in seconds.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Validate reports whether the interval is usable for cutting.
func (i Interval) Validate() error {
	if i.Start < 0 {
		return fmt.Errorf("interval start %.2f is negative", i.Start)
	}
	if i.End <= i.Start {
		return fmt.Errorf("interval end %.2f must be after start %.2f", i.End, i.Start)
	}
	return nil
}

func (i Interval) String() string {
	return fmt.Sprintf("%.2f-%.2f", i.Start, i.End)
}
