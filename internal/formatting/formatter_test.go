package formatting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embano1/interview-parser/internal/types"
)

var spans = []types.MergedSpan{
	{Start: 0, End: 4, Speaker: "S1", Text: "hello world"},
	{Start: 5, End: 9.125, Speaker: "S2", Text: "foo bar"},
	{Start: 10.004, End: 12.5, Speaker: types.UnknownSpeaker, Text: "lost"},
}

func TestFormatLine(t *testing.T) {
	assert.Equal(t, "[0.00 - 4.00] Speaker S1: hello world", FormatLine(spans[0]))
	assert.Equal(t, "[5.00 - 9.12] Speaker S2: foo bar", FormatLine(spans[1]))
	assert.Equal(t, "[10.00 - 12.50] Speaker Unknown: lost", FormatLine(spans[2]))
}

func TestFormatTranscript(t *testing.T) {
	want := "[0.00 - 4.00] Speaker S1: hello world\n" +
		"[5.00 - 9.12] Speaker S2: foo bar\n" +
		"[10.00 - 12.50] Speaker Unknown: lost\n"
	assert.Equal(t, want, FormatTranscript(spans))
	assert.Equal(t, "", FormatTranscript(nil))
}

func TestFormatDialogue(t *testing.T) {
	want := "Speaker S1: hello world\nSpeaker S2: foo bar\nSpeaker Unknown: lost"
	assert.Equal(t, want, FormatDialogue(spans))
	assert.Equal(t, "", FormatDialogue(nil))
}

func TestAddPrompt(t *testing.T) {
	assert.Equal(t, "Summarize:", AddPrompt("Summarize:", ""))
	assert.Equal(t, "Summarize:\nSpeaker 1: hi", AddPrompt("Summarize:", "Speaker 1: hi"))
}

func TestTranscriptSaver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	saver, err := NewTranscriptSaver(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TranscriptFile), saver.Path())

	require.NoError(t, saver.Save(spans))
	b, err := os.ReadFile(saver.Path())
	require.NoError(t, err)
	assert.Equal(t, FormatTranscript(spans), string(b))

	require.NoError(t, saver.Save(spans[:1]))
	b, err = os.ReadFile(saver.Path())
	require.NoError(t, err)
	assert.Equal(t, "[0.00 - 4.00] Speaker S1: hello world\n", string(b), "save replaces the file")

	require.NoError(t, saver.SaveText("plain"))
	b, err = os.ReadFile(saver.Path())
	require.NoError(t, err)
	assert.Equal(t, "plain", string(b))
}
