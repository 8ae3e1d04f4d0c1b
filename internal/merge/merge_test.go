package merge

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embano1/interview-parser/internal/types"
)

func turn(start, end float64, speaker string) types.SpeakerTurn {
	return types.SpeakerTurn{Start: start, End: end, Speaker: speaker}
}

func seg(start, end float64, text string) types.TranscriptSegment {
	return types.TranscriptSegment{Start: start, End: end, Text: text}
}

func span(start, end float64, speaker, text string) types.MergedSpan {
	return types.MergedSpan{Start: start, End: end, Speaker: speaker, Text: text}
}

var strategies = []Strategy{Linear, Indexed}

func TestMerge(t *testing.T) {
	testCases := []struct {
		name     string
		turns    []types.SpeakerTurn
		segments []types.TranscriptSegment
		want     []types.MergedSpan
	}{
		{
			name: "empty input",
			want: []types.MergedSpan{},
		},
		{
			name:  "turns without segments",
			turns: []types.SpeakerTurn{turn(0, 5, "S1")},
			want:  []types.MergedSpan{},
		},
		{
			name:     "segments without turns collapse into one unknown span",
			segments: []types.TranscriptSegment{seg(0, 1, "a"), seg(1, 2, "b")},
			want:     []types.MergedSpan{span(0, 2, types.UnknownSpeaker, "a b")},
		},
		{
			name:  "two speakers",
			turns: []types.SpeakerTurn{turn(0, 5, "S1"), turn(5, 10, "S2")},
			segments: []types.TranscriptSegment{
				seg(0, 2, "hello"), seg(2, 4, "world"), seg(5, 7, "foo"), seg(7, 9, "bar"),
			},
			want: []types.MergedSpan{
				span(0, 4, "S1", "hello world"),
				span(5, 9, "S2", "foo bar"),
			},
		},
		{
			name:     "segment exceeding turn end is unknown",
			turns:    []types.SpeakerTurn{turn(0, 3, "S1")},
			segments: []types.TranscriptSegment{seg(0, 4, "clipped")},
			want:     []types.MergedSpan{span(0, 4, types.UnknownSpeaker, "clipped")},
		},
		{
			name:     "segment straddling two turns is unknown",
			turns:    []types.SpeakerTurn{turn(0, 5, "S1"), turn(5, 10, "S2")},
			segments: []types.TranscriptSegment{seg(4, 6, "across")},
			want:     []types.MergedSpan{span(4, 6, types.UnknownSpeaker, "across")},
		},
		{
			name:  "unsorted turns",
			turns: []types.SpeakerTurn{turn(5, 10, "S2"), turn(0, 5, "S1")},
			segments: []types.TranscriptSegment{
				seg(1, 2, "one"), seg(6, 7, "two"),
			},
			want: []types.MergedSpan{span(1, 2, "S1", "one"), span(6, 7, "S2", "two")},
		},
		{
			name:  "first containing turn wins",
			turns: []types.SpeakerTurn{turn(0, 10, "B"), turn(0, 5, "A")},
			segments: []types.TranscriptSegment{
				seg(1, 2, "x"),
			},
			want: []types.MergedSpan{span(1, 2, "B", "x")},
		},
		{
			name:  "zero length segment on shared boundary goes to the earlier listed turn",
			turns: []types.SpeakerTurn{turn(5, 10, "S2"), turn(0, 5, "S1")},
			segments: []types.TranscriptSegment{
				seg(5, 5, "edge"),
			},
			want: []types.MergedSpan{span(5, 5, "S2", "edge")},
		},
		{
			name:  "alternating speakers are not merged",
			turns: []types.SpeakerTurn{turn(0, 2, "A"), turn(2, 4, "B"), turn(4, 6, "A")},
			segments: []types.TranscriptSegment{
				seg(0, 1, "a1"), seg(2, 3, "b1"), seg(4, 5, "a2"),
			},
			want: []types.MergedSpan{
				span(0, 1, "A", "a1"), span(2, 3, "B", "b1"), span(4, 5, "A", "a2"),
			},
		},
		{
			name:  "unknown run between speakers",
			turns: []types.SpeakerTurn{turn(0, 2, "A"), turn(10, 12, "A")},
			segments: []types.TranscriptSegment{
				seg(0, 1, "a"), seg(3, 4, "lost"), seg(5, 6, "found"), seg(10, 11, "b"),
			},
			want: []types.MergedSpan{
				span(0, 1, "A", "a"),
				span(3, 6, types.UnknownSpeaker, "lost found"),
				span(10, 11, "A", "b"),
			},
		},
		{
			name:  "texts are trimmed before joining",
			turns: []types.SpeakerTurn{turn(0, 10, "S1")},
			segments: []types.TranscriptSegment{
				seg(0, 1, "  Hello,"), seg(1, 2, " world. \n"),
			},
			want: []types.MergedSpan{span(0, 2, "S1", "Hello, world.")},
		},
	}

	for _, tc := range testCases {
		for _, s := range strategies {
			t.Run(tc.name+"/"+s.String(), func(t *testing.T) {
				got := New(WithStrategy(s)).Merge(tc.turns, tc.segments)
				assert.Equal(t, tc.want, got)
			})
		}
	}
}

func TestMergePackageFunc(t *testing.T) {
	got := Merge(nil, nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAssignContainmentStrictness(t *testing.T) {
	turns := []types.SpeakerTurn{turn(1, 2, "S1")}

	testCases := []struct {
		name string
		seg  types.TranscriptSegment
		want string
	}{
		{"identical bounds", seg(1, 2, ""), "S1"},
		{"inside", seg(1.2, 1.8, ""), "S1"},
		{"starts early", seg(0.99, 2, ""), types.UnknownSpeaker},
		{"ends late", seg(1, 2.01, ""), types.UnknownSpeaker},
		{"disjoint", seg(3, 4, ""), types.UnknownSpeaker},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Assign(turns, tc.seg))
			assert.Equal(t, tc.want, newIndex(turns).speaker(tc.seg))
		})
	}
}

func TestMergeUnsortedSegments(t *testing.T) {
	turns := []types.SpeakerTurn{turn(0, 5, "S1"), turn(5, 10, "S2")}
	segments := []types.TranscriptSegment{seg(6, 7, "late"), seg(0, 1, "early"), seg(2, 3, "mid")}

	t.Run("merged as given", func(t *testing.T) {
		got := New().Merge(turns, segments)
		assert.Equal(t, []types.MergedSpan{
			span(6, 7, "S2", "late"),
			span(0, 3, "S1", "early mid"),
		}, got)
	})

	t.Run("sorted at the boundary", func(t *testing.T) {
		got := New(WithSegmentSorting(true)).Merge(turns, segments)
		assert.Equal(t, []types.MergedSpan{
			span(0, 3, "S1", "early mid"),
			span(6, 7, "S2", "late"),
		}, got)
		assert.Equal(t, "late", segments[0].Text, "input must not be reordered in place")
	})
}

func TestSegmentsSorted(t *testing.T) {
	assert.True(t, SegmentsSorted(nil))
	assert.True(t, SegmentsSorted([]types.TranscriptSegment{seg(0, 1, ""), seg(0, 2, ""), seg(3, 4, "")}))
	assert.False(t, SegmentsSorted([]types.TranscriptSegment{seg(3, 4, ""), seg(0, 1, "")}))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Linear, s)

	s, err = ParseStrategy(" Indexed ")
	require.NoError(t, err)
	assert.Equal(t, Indexed, s)

	_, err = ParseStrategy("tree")
	assert.Error(t, err)
}

// Random turns (overlapping on purpose) and segments on a coarse grid so
// that shared boundaries and identical bounds come up often.
func randomInput(r *rand.Rand) ([]types.SpeakerTurn, []types.TranscriptSegment) {
	speakers := []string{"A", "B", "C"}
	point := func() float64 { return float64(r.IntN(40)) / 2 }

	turns := make([]types.SpeakerTurn, r.IntN(12))
	for i := range turns {
		a, b := point(), point()
		if b < a {
			a, b = b, a
		}
		turns[i] = turn(a, b, speakers[r.IntN(len(speakers))])
	}

	segments := make([]types.TranscriptSegment, r.IntN(20))
	var cursor float64
	for i := range segments {
		start := cursor + float64(r.IntN(3))/2
		end := start + float64(r.IntN(4))/2
		segments[i] = seg(start, end, strings.Repeat("w", r.IntN(3)+1))
		cursor = end
	}
	return turns, segments
}

func TestIndexedMatchesLinear(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	linear := New(WithStrategy(Linear))
	indexed := New(WithStrategy(Indexed))

	for i := 0; i < 500; i++ {
		turns, segments := randomInput(r)
		require.Equal(t, linear.Merge(turns, segments), indexed.Merge(turns, segments), "iteration %d", i)
	}
}

func TestMergeInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 300; i++ {
		turns, segments := randomInput(r)
		spans := Merge(turns, segments)

		var consumed int
		for j, sp := range spans {
			if j > 0 {
				require.NotEqual(t, spans[j-1].Speaker, sp.Speaker, "adjacent spans share a speaker")
				require.LessOrEqual(t, spans[j-1].Start, sp.Start)
			}
			require.Equal(t, segments[consumed].Start, sp.Start)

			// find the run that produced this span
			var texts []string
			for consumed < len(segments) && Assign(turns, segments[consumed]) == sp.Speaker {
				texts = append(texts, strings.TrimSpace(segments[consumed].Text))
				consumed++
			}
			require.Equal(t, segments[consumed-1].End, sp.End)
			require.Equal(t, strings.Join(texts, " "), sp.Text)
		}
		require.Equal(t, len(segments), consumed)
	}
}
