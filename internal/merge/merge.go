// Package merge attributes transcript segments to speaker turns and coalesces
// consecutive segments of the same speaker into spans.
package merge

import (
	"cmp"
	"slices"
	"strings"

	"github.com/embano1/interview-parser/internal/types"
)

// Merger labels segments with speakers and merges adjacent same-speaker
// segments. A Merger holds no per-call state and is safe for concurrent use.
type Merger struct {
	strategy     Strategy
	sortSegments bool
}

// Option configures a Merger.
type Option func(m *Merger)

// WithStrategy selects how turns are searched for a containing interval.
func WithStrategy(s Strategy) Option {
	return func(m *Merger) { m.strategy = s }
}

// WithSegmentSorting makes Merge stable-sort segments by start before
// merging when they are not already in order.
func WithSegmentSorting(enabled bool) Option {
	return func(m *Merger) { m.sortSegments = enabled }
}

// New creates a Merger. Defaults to the linear strategy without sorting.
func New(opts ...Option) *Merger {
	m := &Merger{strategy: Linear}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge is New().Merge(turns, segments).
func Merge(turns []types.SpeakerTurn, segments []types.TranscriptSegment) []types.MergedSpan {
	return New().Merge(turns, segments)
}

// Merge assigns a speaker to every segment and merges runs of segments with
// the same speaker. Segments are expected in ascending start order; unless
// sorting is enabled, unordered input is merged as given.
func (m *Merger) Merge(turns []types.SpeakerTurn, segments []types.TranscriptSegment) []types.MergedSpan {
	if m.sortSegments && !SegmentsSorted(segments) {
		segments = slices.Clone(segments)
		slices.SortStableFunc(segments, func(a, b types.TranscriptSegment) int {
			return cmp.Compare(a.Start, b.Start)
		})
	}

	speakerOf := m.matcher(turns)
	spans := make([]types.MergedSpan, 0, len(segments))

	var (
		open  bool
		cur   types.MergedSpan
		texts []string
	)
	for _, seg := range segments {
		speaker := speakerOf(seg)
		text := strings.TrimSpace(seg.Text)

		if open && speaker == cur.Speaker {
			cur.End = seg.End
			texts = append(texts, text)
			continue
		}
		if open {
			cur.Text = strings.Join(texts, " ")
			spans = append(spans, cur)
		}
		cur = types.MergedSpan{Start: seg.Start, End: seg.End, Speaker: speaker}
		texts = []string{text}
		open = true
	}
	if open {
		cur.Text = strings.Join(texts, " ")
		spans = append(spans, cur)
	}
	return spans
}

func (m *Merger) matcher(turns []types.SpeakerTurn) func(types.TranscriptSegment) string {
	if m.strategy == Indexed {
		return newIndex(turns).speaker
	}
	return func(seg types.TranscriptSegment) string {
		return Assign(turns, seg)
	}
}

// Assign returns the speaker of the first turn, in the order given, that
// fully contains the segment (inclusive bounds), or types.UnknownSpeaker.
// Partial overlap never matches. With overlapping turns the result depends
// on turn order.
func Assign(turns []types.SpeakerTurn, seg types.TranscriptSegment) string {
	for _, t := range turns {
		if contains(t, seg) {
			return t.Speaker
		}
	}
	return types.UnknownSpeaker
}

// SegmentsSorted reports whether segments are in ascending start order.
func SegmentsSorted(segments []types.TranscriptSegment) bool {
	return slices.IsSortedFunc(segments, func(a, b types.TranscriptSegment) int {
		return cmp.Compare(a.Start, b.Start)
	})
}

func contains(t types.SpeakerTurn, seg types.TranscriptSegment) bool {
	return seg.Start >= t.Start && seg.End <= t.End
}
