// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"

	"github.com/embano1/interview-parser/internal/aws"
	"github.com/embano1/interview-parser/internal/command"
	"github.com/embano1/interview-parser/internal/config"
	"github.com/embano1/interview-parser/internal/formatting"
	"github.com/embano1/interview-parser/internal/media"
	"github.com/embano1/interview-parser/internal/merge"
	"github.com/embano1/interview-parser/internal/pipeline"
	"github.com/embano1/interview-parser/internal/prompts"
	"github.com/embano1/interview-parser/internal/server"
	"github.com/embano1/interview-parser/internal/types"
)

func main() {
	// Load configuration from flags and the optional config file.
	cfgApp, err := config.New(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrMissingInput) {
			log.Printf("Usage: interview-parser -f <video> [-d -m <speakers>] [-s <start> -e <end>] [-o <output>]")
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	b, err := newBackends(ctx, cfgApp)
	if err != nil {
		log.Fatalf("Failed to set up backends: %v", err)
	}

	if cfgApp.ServeAddr != "" {
		if err := serve(ctx, cfgApp, b, logger); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cfgApp.Timeout)
	defer cancel()

	if err := process(ctx, cfgApp, b, logger); err != nil {
		log.Fatalf("Processing %q failed: %v", cfgApp.InputFilePath, err)
	}
}

type backends struct {
	provider    *aws.Provider
	transcriber pipeline.Transcriber
	diarizer    pipeline.Diarizer
	merger      *merge.Merger
}

func newBackends(ctx context.Context, cfgApp *types.AppConfig) (*backends, error) {
	b := &backends{}

	strategy := merge.Linear
	if cfgApp.IndexedMatching {
		strategy = merge.Indexed
	}
	b.merger = merge.New(merge.WithStrategy(strategy), merge.WithSegmentSorting(true))

	// A server may receive speaker requests even without -d, so it sets up the
	// AWS diarizer whenever a bucket is configured.
	serverDiarizer := cfgApp.ServeAddr != "" && cfgApp.Diarizer == types.BackendAWS && cfgApp.BucketName != ""
	if cfgApp.NeedsAWS() || serverDiarizer {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfgApp.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS SDK config: %w", err)
		}
		s3Service := aws.NewS3Service(s3.NewFromConfig(awsCfg))
		if err := s3Service.HeadBucket(ctx, cfgApp.BucketName); err != nil {
			return nil, fmt.Errorf("bucket %q is not accessible: %w", cfgApp.BucketName, err)
		}
		transcribeService := aws.NewTranscribeService(transcribe.NewFromConfig(awsCfg), cfgApp.PollInterval)
		b.provider = aws.NewProvider(s3Service, transcribeService, cfgApp.BucketName)
	}

	switch cfgApp.Transcriber {
	case types.BackendAWS:
		b.transcriber = b.provider
	case types.BackendCommand:
		t, err := command.NewTranscriber(cfgApp.TranscriberCommand)
		if err != nil {
			return nil, fmt.Errorf("transcriber: %w", err)
		}
		b.transcriber = t
	}

	switch {
	case cfgApp.Diarizer == types.BackendAWS && b.provider != nil:
		b.diarizer = b.provider
	case cfgApp.Diarizer == types.BackendCommand && len(cfgApp.DiarizerCommand) > 0:
		d, err := command.NewDiarizer(cfgApp.DiarizerCommand)
		if err != nil {
			return nil, fmt.Errorf("diarizer: %w", err)
		}
		b.diarizer = d
	}
	return b, nil
}

func (b *backends) pipeline(logger *slog.Logger, status func(string)) *pipeline.Pipeline {
	return pipeline.New(b.transcriber, b.diarizer, b.merger,
		pipeline.WithLogger(logger),
		pipeline.WithStatus(status),
	)
}

// process handles a single input file end to end.
func process(ctx context.Context, cfgApp *types.AppConfig, b *backends, logger *slog.Logger) error {
	var prompt string
	if cfgApp.PromptName != "" {
		p, err := prompts.New(cfgApp.PromptsDir).Read(cfgApp.PromptName)
		if err != nil {
			return err
		}
		prompt = p
	}

	audio := media.NewAudioProcessor(media.WithTempDir(cfgApp.TempDir))
	defer func() {
		if err := audio.Cleanup(); err != nil {
			log.Printf("Failed to remove temporary audio: %v", err)
		}
	}()

	log.Printf("Preparing audio from %q...", cfgApp.InputFilePath)
	if cfgApp.Interval != nil {
		log.Printf("Cutting interval %s", cfgApp.Interval)
	}
	audioPath, err := audio.GetAudio(ctx, cfgApp.InputFilePath, cfgApp.Interval)
	if err != nil {
		return fmt.Errorf("prepare audio: %w", err)
	}

	started := time.Now()
	res, err := b.pipeline(logger, func(msg string) { log.Print(msg) }).Run(ctx, pipeline.Request{
		AudioPath: audioPath,
		Language:  cfgApp.LanguageCode,
		Mode:      cfgApp.Mode(),
		Speakers:  cfgApp.MaxSpeakers,
		Token:     cfgApp.Token,
	})
	if err != nil {
		return err
	}
	log.Printf("Processing finished in %s", time.Since(started).Round(time.Second))

	text := res.Text
	if res.Mode == types.ModeSpeakers {
		if len(res.Spans) == 0 {
			log.Printf("No speech found in the audio.")
		} else {
			fmt.Println(formatting.FormatDialogue(res.Spans))
		}
	}
	if prompt != "" {
		text = formatting.AddPrompt(prompt, text)
	}

	saver, err := formatting.NewTranscriptFileSaver(cfgApp.OutputFilePath)
	if err != nil {
		return err
	}
	if err := saver.SaveText(text); err != nil {
		return err
	}
	log.Printf("Transcript saved to %q", saver.Path())

	if cfgApp.Upload {
		key, err := b.provider.UploadTranscript(ctx, filepath.Base(saver.Path()), text)
		if err != nil {
			return err
		}
		log.Printf("Transcript uploaded to s3://%s/%s", cfgApp.BucketName, key)
	}
	return nil
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, cfgApp *types.AppConfig, b *backends, logger *slog.Logger) error {
	newAudio := func() server.AudioPreparer {
		return media.NewAudioProcessor(media.WithTempDir(cfgApp.TempDir))
	}
	s := server.New(newAudio, b.pipeline(logger, func(string) {}), prompts.New(cfgApp.PromptsDir), server.Config{
		Language:       cfgApp.LanguageCode,
		Speakers:       cfgApp.MaxSpeakers,
		Token:          cfgApp.Token,
		RequestTimeout: cfgApp.Timeout,
	}, logger)

	srv := &http.Server{
		Addr:              cfgApp.ServeAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfgApp.ServeAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
