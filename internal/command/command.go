// Package command runs external transcription and diarization helpers that
// print their results as JSON on stdout.
//
// Arguments may contain the placeholders {audio}, {language} and {speakers}.
// The diarization helper receives the access token in HUGGINGFACE_TOKEN.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/embano1/interview-parser/internal/types"
)

// TokenEnv is the environment variable carrying the diarization token.
const TokenEnv = "HUGGINGFACE_TOKEN"

var errNoCommand = errors.New("no command configured")

type transcriptionOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

type diarizationOutput struct {
	Turns []types.SpeakerTurn `json:"turns"`
}

// Transcriber runs an external transcription helper.
type Transcriber struct {
	argv []string
}

// NewTranscriber returns a Transcriber running argv.
func NewTranscriber(argv []string) (*Transcriber, error) {
	if len(argv) == 0 {
		return nil, errNoCommand
	}
	return &Transcriber{argv: argv}, nil
}

// Transcribe runs the helper on the request's audio file.
func (t *Transcriber) Transcribe(ctx context.Context, req types.TranscribeRequest) (types.Transcription, error) {
	out, err := run(ctx, expand(t.argv, req.AudioPath, req.Language, req.MaxSpeakers), nil)
	if err != nil {
		return types.Transcription{}, err
	}

	var parsed transcriptionOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return types.Transcription{}, fmt.Errorf("parse helper output: %w", err)
	}

	tr := types.Transcription{Language: parsed.Language}
	if tr.Language == "" {
		tr.Language = req.Language
	}
	for _, s := range parsed.Segments {
		tr.Segments = append(tr.Segments, types.TranscriptSegment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	tr.Text = strings.TrimSpace(parsed.Text)
	if tr.Text == "" {
		tr.Text = strings.Join(lo.Map(tr.Segments, func(s types.TranscriptSegment, _ int) string { return s.Text }), " ")
	}
	return tr, nil
}

// Diarizer runs an external diarization helper.
type Diarizer struct {
	argv []string
}

// NewDiarizer returns a Diarizer running argv.
func NewDiarizer(argv []string) (*Diarizer, error) {
	if len(argv) == 0 {
		return nil, errNoCommand
	}
	return &Diarizer{argv: argv}, nil
}

// Diarize runs the helper on the request's audio file.
func (d *Diarizer) Diarize(ctx context.Context, req types.DiarizeRequest) ([]types.SpeakerTurn, error) {
	var env []string
	if req.Token != "" {
		env = append(env, TokenEnv+"="+req.Token)
	}
	out, err := run(ctx, expand(d.argv, req.AudioPath, req.Language, req.Speakers), env)
	if err != nil {
		return nil, err
	}

	var parsed diarizationOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse helper output: %w", err)
	}
	return parsed.Turns, nil
}

func expand(argv []string, audio, language string, speakers int) []string {
	r := strings.NewReplacer(
		"{audio}", audio,
		"{language}", language,
		"{speakers}", strconv.Itoa(speakers),
	)
	return lo.Map(argv, func(arg string, _ int) string { return r.Replace(arg) })
}

func run(ctx context.Context, argv []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("%s failed: %w: %s", argv[0], err, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("run helper: %w", err)
	}
	return out, nil
}
