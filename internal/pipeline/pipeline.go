// Package pipeline turns an audio file into a speaker-labeled transcript by
// running a transcription and a diarization backend and merging their output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/embano1/interview-parser/internal/formatting"
	"github.com/embano1/interview-parser/internal/merge"
	"github.com/embano1/interview-parser/internal/types"
)

var (
	ErrNoAudio    = errors.New("no audio file for transcription")
	ErrNoDiarizer = errors.New("speaker mode requires a diarization backend")
	ErrBadMode    = errors.New("unknown transcription mode")
)

// Transcriber turns audio into text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, req types.TranscribeRequest) (types.Transcription, error)
}

// Diarizer finds speaker turns in audio.
type Diarizer interface {
	Diarize(ctx context.Context, req types.DiarizeRequest) ([]types.SpeakerTurn, error)
}

// Request describes one pipeline run.
type Request struct {
	AudioPath string
	Language  string
	Mode      string
	Speakers  int
	Token     string
}

// Result is the outcome of a run. Spans and Turns are empty in text mode.
type Result struct {
	Mode          string              `json:"mode"`
	Text          string              `json:"text"`
	Transcription types.Transcription `json:"transcription"`
	Turns         []types.SpeakerTurn `json:"turns,omitempty"`
	Spans         []types.MergedSpan  `json:"spans"`
}

// Pipeline runs transcription, diarization and merging.
type Pipeline struct {
	transcriber Transcriber
	diarizer    Diarizer
	merger      *merge.Merger
	logger      *slog.Logger
	status      func(string)
}

// Option configures a Pipeline.
type Option func(p *Pipeline)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithStatus registers a callback receiving progress messages. It may be
// called from several goroutines at once.
func WithStatus(fn func(string)) Option {
	return func(p *Pipeline) { p.status = fn }
}

// New creates a Pipeline. diarizer may be nil when only text mode is used;
// a nil merger gets one that sorts segments before merging.
func New(transcriber Transcriber, diarizer Diarizer, merger *merge.Merger, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber: transcriber,
		diarizer:    diarizer,
		merger:      merger,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		status:      func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.merger == nil {
		p.merger = merge.New(merge.WithSegmentSorting(true))
	}
	return p
}

// Run executes the pipeline for req.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if req.AudioPath == "" {
		return Result{}, ErrNoAudio
	}
	log := p.logger.With("audio", req.AudioPath, "mode", req.Mode)

	switch req.Mode {
	case types.ModeText:
		return p.runText(ctx, log, req)
	case types.ModeSpeakers:
		if p.diarizer == nil {
			return Result{}, ErrNoDiarizer
		}
		return p.runSpeakers(ctx, log, req)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrBadMode, req.Mode)
	}
}

func (p *Pipeline) runText(ctx context.Context, log *slog.Logger, req Request) (Result, error) {
	p.status("Transcribing audio...")
	tr, err := p.transcriber.Transcribe(ctx, types.TranscribeRequest{AudioPath: req.AudioPath, Language: req.Language})
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	log.InfoContext(ctx, "transcription done", "segments", len(tr.Segments))

	return Result{
		Mode:          types.ModeText,
		Text:          tr.Text,
		Transcription: tr,
		Spans:         []types.MergedSpan{},
	}, nil
}

func (p *Pipeline) runSpeakers(ctx context.Context, log *slog.Logger, req Request) (Result, error) {
	speakers := max(req.Speakers, 1)

	var (
		tr    types.Transcription
		turns []types.SpeakerTurn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.status("Transcribing audio...")
		tr, err = p.transcriber.Transcribe(gctx, types.TranscribeRequest{
			AudioPath:   req.AudioPath,
			Language:    req.Language,
			MaxSpeakers: speakers,
		})
		if err != nil {
			return fmt.Errorf("transcribe: %w", err)
		}
		log.InfoContext(gctx, "transcription done", "segments", len(tr.Segments))
		return nil
	})
	g.Go(func() (err error) {
		p.status("Diarizing speakers...")
		turns, err = p.diarizer.Diarize(gctx, types.DiarizeRequest{
			AudioPath: req.AudioPath,
			Language:  req.Language,
			Token:     req.Token,
			Speakers:  speakers,
		})
		if err != nil {
			return fmt.Errorf("diarize: %w", err)
		}
		log.InfoContext(gctx, "diarization done", "turns", len(turns))
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Mode: types.ModeSpeakers, Transcription: tr, Turns: turns, Spans: []types.MergedSpan{}}
	if len(tr.Segments) == 0 {
		log.WarnContext(ctx, "transcription produced no segments")
		return res, nil
	}
	if !merge.SegmentsSorted(tr.Segments) {
		log.WarnContext(ctx, "transcription segments are not in start order")
	}

	p.status("Merging segments...")
	res.Spans = p.merger.Merge(turns, tr.Segments)
	res.Text = formatting.FormatTranscript(res.Spans)
	log.InfoContext(ctx, "merge done", "spans", len(res.Spans))
	return res, nil
}
