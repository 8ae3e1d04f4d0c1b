package formatting

import (
	"fmt"
	"strings"

	"github.com/embano1/interview-parser/internal/types"
)

// FormatLine renders a span as "[start - end] Speaker X: text".
func FormatLine(span types.MergedSpan) string {
	return fmt.Sprintf("[%.2f - %.2f] Speaker %s: %s", span.Start, span.End, span.Speaker, span.Text)
}

// FormatTranscript renders spans one per line, each line newline-terminated.
func FormatTranscript(spans []types.MergedSpan) string {
	var formatted strings.Builder
	for _, span := range spans {
		formatted.WriteString(FormatLine(span))
		formatted.WriteByte('\n')
	}
	return formatted.String()
}

// FormatDialogue renders spans without timestamps for on-screen display.
func FormatDialogue(spans []types.MergedSpan) string {
	lines := make([]string, 0, len(spans))
	for _, span := range spans {
		lines = append(lines, fmt.Sprintf("Speaker %s: %s", span.Speaker, span.Text))
	}
	return strings.Join(lines, "\n")
}

// AddPrompt puts prompt in front of text.
func AddPrompt(prompt, text string) string {
	if text == "" {
		return prompt
	}
	return prompt + "\n" + text
}
