// Package server exposes merging, transcription and prompts over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/embano1/interview-parser/internal/pipeline"
	"github.com/embano1/interview-parser/internal/types"
)

// AudioPreparer produces the audio file a request is transcribed from.
type AudioPreparer interface {
	GetAudio(ctx context.Context, videoPath string, interval *types.Interval) (string, error)
	Cleanup() error
}

// Runner runs the transcription pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// PromptLibrary lists and reads prompts.
type PromptLibrary interface {
	List() ([]string, error)
	Read(name string) (string, error)
}

// Config holds per-server defaults applied to transcript requests.
type Config struct {
	Language       string
	Speakers       int
	Token          string
	RequestTimeout time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	newAudio func() AudioPreparer
	runner   Runner
	prompts  PromptLibrary
	cfg      Config
	logger   *slog.Logger
}

// New creates a Server. newAudio is called once per transcript request and
// the preparer is cleaned up when the request finishes.
func New(newAudio func() AudioPreparer, runner Runner, prompts PromptLibrary, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Minute
	}
	return &Server{
		newAudio: newAudio,
		runner:   runner,
		prompts:  prompts,
		cfg:      cfg,
		logger:   logger,
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/merge", s.Merge)
		r.Post("/transcripts", s.Transcribe)

		r.Get("/prompts", s.ListPrompts)
		r.Get("/prompts/{name}", s.GetPrompt)
	})
	return r
}
