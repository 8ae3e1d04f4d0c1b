package aws

import (
	"errors"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/embano1/interview-parser/internal/types"
)

// ErrEmptyResult is returned for a completed job without a transcript.
var ErrEmptyResult = errors.New("no transcript found in result")

// ErrNoSpeakerLabels is returned when diarization output is requested from a
// job that ran without speaker labels.
var ErrNoSpeakerLabels = errors.New("transcription result has no speaker labels")

// Transcript returns the flat transcript text.
func Transcript(result *types.TranscriptionResult) string {
	if len(result.Results.Transcripts) == 0 {
		return ""
	}
	return result.Results.Transcripts[0].Transcript
}

// Segments returns the timed segments of a result. Sentence-level audio
// segments are used when present, otherwise items are grouped into
// sentences at terminal punctuation.
func Segments(result *types.TranscriptionResult) []types.TranscriptSegment {
	if len(result.Results.AudioSegments) > 0 {
		return lo.FilterMap(result.Results.AudioSegments, func(s types.AudioSegment, _ int) (types.TranscriptSegment, bool) {
			start, end, ok := parseRange(s.StartTime, s.EndTime)
			text := strings.TrimSpace(s.Transcript)
			return types.TranscriptSegment{Start: start, End: end, Text: text}, ok && text != ""
		})
	}
	return segmentsFromItems(result.Results.Items)
}

// Turns returns the speaker turns of a result.
func Turns(result *types.TranscriptionResult) ([]types.SpeakerTurn, error) {
	if result.Results.SpeakerLabels == nil {
		return nil, ErrNoSpeakerLabels
	}
	return lo.FilterMap(result.Results.SpeakerLabels.Segments, func(s types.SpeakerLabelSegment, _ int) (types.SpeakerTurn, bool) {
		start, end, ok := parseRange(s.StartTime, s.EndTime)
		return types.SpeakerTurn{Start: start, End: end, Speaker: speakerName(s.SpeakerLabel)}, ok
	}), nil
}

func segmentsFromItems(items []types.Item) []types.TranscriptSegment {
	var (
		segments []types.TranscriptSegment
		current  types.TranscriptSegment
		text     strings.Builder
		open     bool
	)
	flush := func() {
		if open {
			current.Text = text.String()
			segments = append(segments, current)
		}
		text.Reset()
		open = false
	}

	for _, item := range items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content

		switch item.Type {
		case types.ItemPunctuation:
			// Add punctuation without space
			if !open {
				continue
			}
			text.WriteString(content)
			if isSentenceEnd(content) {
				flush()
			}
		case types.ItemPronunciation:
			start, end, ok := parseRange(item.StartTime, item.EndTime)
			if !ok {
				continue
			}
			if !open {
				current = types.TranscriptSegment{Start: start}
				open = true
			} else {
				text.WriteByte(' ')
			}
			text.WriteString(content)
			current.End = end
		}
	}
	flush()
	return segments
}

func isSentenceEnd(punct string) bool {
	return strings.ContainsAny(punct, ".?!")
}

// speakerName converts "spk_0" to "0".
func speakerName(label string) string {
	return strings.TrimPrefix(label, "spk_")
}

func parseRange(start, end string) (float64, float64, bool) {
	s, err := strconv.ParseFloat(start, 64)
	if err != nil {
		return 0, 0, false
	}
	e, err := strconv.ParseFloat(end, 64)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}
