package merge

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/embano1/interview-parser/internal/types"
)

// Strategy selects the turn lookup used during speaker assignment.
type Strategy int

const (
	// Linear scans all turns for every segment.
	Linear Strategy = iota
	// Indexed binary-searches turns sorted by start. It returns the same
	// speaker as Linear for every input.
	Indexed
)

func (s Strategy) String() string {
	switch s {
	case Linear:
		return "linear"
	case Indexed:
		return "indexed"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "linear" or "indexed". Empty input means Linear.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "indexed":
		return Indexed, nil
	default:
		return Linear, fmt.Errorf("unknown merge strategy %q", s)
	}
}

type indexedTurn struct {
	types.SpeakerTurn
	pos int // position in the caller's slice
}

// index holds turns sorted by start together with the running maximum of
// their ends, so a backward walk can stop once no earlier turn reaches the
// segment end.
type index struct {
	turns  []indexedTurn
	maxEnd []float64
}

func newIndex(turns []types.SpeakerTurn) *index {
	sorted := make([]indexedTurn, len(turns))
	for i, t := range turns {
		sorted[i] = indexedTurn{SpeakerTurn: t, pos: i}
	}
	slices.SortStableFunc(sorted, func(a, b indexedTurn) int {
		return cmp.Compare(a.Start, b.Start)
	})

	maxEnd := make([]float64, len(sorted))
	running := math.Inf(-1)
	for i, t := range sorted {
		if !math.IsNaN(t.End) && t.End > running {
			running = t.End
		}
		maxEnd[i] = running
	}
	return &index{turns: sorted, maxEnd: maxEnd}
}

// speaker picks, among the turns containing seg, the one earliest in the
// caller's order.
func (ix *index) speaker(seg types.TranscriptSegment) string {
	k := sort.Search(len(ix.turns), func(i int) bool {
		return ix.turns[i].Start > seg.Start
	})

	best := -1
	for i := k - 1; i >= 0 && ix.maxEnd[i] >= seg.End; i-- {
		t := ix.turns[i]
		if !contains(t.SpeakerTurn, seg) {
			continue
		}
		if best < 0 || t.pos < ix.turns[best].pos {
			best = i
		}
	}
	if best < 0 {
		return types.UnknownSpeaker
	}
	return ix.turns[best].Speaker
}
