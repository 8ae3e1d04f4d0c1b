package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/embano1/interview-parser/internal/formatting"
	"github.com/embano1/interview-parser/internal/media"
	"github.com/embano1/interview-parser/internal/merge"
	"github.com/embano1/interview-parser/internal/pipeline"
	"github.com/embano1/interview-parser/internal/prompts"
	"github.com/embano1/interview-parser/internal/types"
)

const maxBodyBytes = 8 << 20

type mergeRequest struct {
	Turns    []types.SpeakerTurn       `json:"turns"`
	Segments []types.TranscriptSegment `json:"segments"`
	Strategy string                    `json:"strategy,omitempty"`
}

type mergeResponse struct {
	Spans      []types.MergedSpan `json:"spans"`
	Transcript string             `json:"transcript"`
	Dialogue   string             `json:"dialogue"`
}

type transcriptRequest struct {
	VideoPath string          `json:"video_path"`
	Interval  *types.Interval `json:"interval,omitempty"`
	Language  string          `json:"language,omitempty"`
	Mode      string          `json:"mode,omitempty"`
	Speakers  int             `json:"speakers,omitempty"`
	Prompt    string          `json:"prompt,omitempty"`
}

type transcriptResponse struct {
	Mode  string             `json:"mode"`
	Text  string             `json:"text"`
	Spans []types.MergedSpan `json:"spans"`
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.WarnContext(r.Context(), "write health response", "error", err)
	}
}

// Merge labels and merges the posted segments with the posted turns.
func (s *Server) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !s.decode(w, r, &req) {
		return
	}
	strategy, err := merge.ParseStrategy(req.Strategy)
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	spans := merge.New(merge.WithStrategy(strategy)).Merge(req.Turns, req.Segments)
	s.jsonResponse(w, mergeResponse{
		Spans:      spans,
		Transcript: formatting.FormatTranscript(spans),
		Dialogue:   formatting.FormatDialogue(spans),
	}, http.StatusOK)
}

// Transcribe prepares audio from a server-local video and runs the pipeline.
func (s *Server) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.VideoPath == "" {
		s.jsonError(w, "missing video_path", http.StatusBadRequest)
		return
	}
	if req.Interval != nil {
		if err := req.Interval.Validate(); err != nil {
			s.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Mode == "" {
		req.Mode = types.ModeSpeakers
	}
	if req.Language == "" {
		req.Language = s.cfg.Language
	}
	if req.Speakers == 0 {
		req.Speakers = s.cfg.Speakers
	}

	var prompt string
	if req.Prompt != "" {
		text, err := s.prompts.Read(req.Prompt)
		if err != nil {
			s.promptError(w, err)
			return
		}
		prompt = text
	}

	ctx := r.Context()
	log := s.logger.With("request_id", chimw.GetReqID(ctx), "video", req.VideoPath)

	audio := s.newAudio()
	defer func() {
		if err := audio.Cleanup(); err != nil {
			log.WarnContext(ctx, "cleanup audio", "error", err)
		}
	}()

	audioPath, err := audio.GetAudio(ctx, req.VideoPath, req.Interval)
	if err != nil {
		status := errorStatus(err, media.ErrInvalidInterval)
		log.ErrorContext(ctx, "prepare audio", "error", err)
		s.jsonError(w, err.Error(), status)
		return
	}

	res, err := s.runner.Run(ctx, pipeline.Request{
		AudioPath: audioPath,
		Language:  req.Language,
		Mode:      req.Mode,
		Speakers:  req.Speakers,
		Token:     s.cfg.Token,
	})
	if err != nil {
		status := errorStatus(err, pipeline.ErrBadMode, pipeline.ErrNoDiarizer)
		log.ErrorContext(ctx, "run pipeline", "error", err)
		s.jsonError(w, err.Error(), status)
		return
	}

	text := res.Text
	if prompt != "" {
		text = formatting.AddPrompt(prompt, text)
	}
	s.jsonResponse(w, transcriptResponse{Mode: res.Mode, Text: text, Spans: res.Spans}, http.StatusOK)
}

// ListPrompts returns the available prompt names.
func (s *Server) ListPrompts(w http.ResponseWriter, r *http.Request) {
	names, err := s.prompts.List()
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string][]string{"prompts": names}, http.StatusOK)
}

// GetPrompt returns one prompt's text.
func (s *Server) GetPrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	text, err := s.prompts.Read(name)
	if err != nil {
		s.promptError(w, err)
		return
	}
	s.jsonResponse(w, map[string]string{"name": name, "text": text}, http.StatusOK)
}

func (s *Server) promptError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prompts.ErrInvalidName):
		s.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, fs.ErrNotExist):
		s.jsonError(w, "prompt not found", http.StatusNotFound)
	default:
		s.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

// errorStatus maps a collaborator error to a response status. Errors matching
// one of badRequest are the caller's fault.
func errorStatus(err error, badRequest ...error) int {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "status", status, "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, msg string, status int) {
	s.jsonResponse(w, map[string]string{"error": msg}, status)
}
