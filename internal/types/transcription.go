package types

// TranscriptionResult represents the JSON structure returned by Transcribe.
type TranscriptionResult struct {
	JobName string `json:"jobName,omitempty"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		SpeakerLabels *SpeakerLabels `json:"speaker_labels,omitempty"`
		Items         []Item         `json:"items,omitempty"`
		AudioSegments []AudioSegment `json:"audio_segments,omitempty"`
	} `json:"results"`
	Status string `json:"status"`
}

// SpeakerLabels contains speaker diarization information
type SpeakerLabels struct {
	Speakers int                  `json:"speakers"`
	Segments []SpeakerLabelSegment `json:"segments"`
}

// SpeakerLabelSegment is a single speaker turn as reported by Transcribe.
type SpeakerLabelSegment struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SpeakerLabel string `json:"speaker_label"`
	Items        []struct {
		StartTime    string `json:"start_time"`
		EndTime      string `json:"end_time"`
		SpeakerLabel string `json:"speaker_label,omitempty"`
	} `json:"items"`
}

// Item represents individual words/items in the transcription
type Item struct {
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Type         string        `json:"type"`
	Alternatives []Alternative `json:"alternatives"`
	SpeakerLabel string        `json:"speaker_label,omitempty"`
}

// Alternative represents word alternatives
type Alternative struct {
	Confidence string `json:"confidence"`
	Content    string `json:"content"`
}

// AudioSegment is a sentence-level segment emitted by newer Transcribe outputs.
type AudioSegment struct {
	ID           int    `json:"id"`
	Transcript   string `json:"transcript"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SpeakerLabel string `json:"speaker_label,omitempty"`
}

// Item types used by Transcribe.
const (
	ItemPronunciation = "pronunciation"
	ItemPunctuation   = "punctuation"
)
