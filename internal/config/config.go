package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/embano1/interview-parser/internal/merge"
	"github.com/embano1/interview-parser/internal/types"
)

// build info set by goreleaser
var (
	Version = "unknown"
	Commit  = "unknown"
)

// TokenEnv holds the diarization access token when not given otherwise.
const TokenEnv = "HUGGINGFACE_TOKEN"

// ErrMissingInput is returned when neither an input file nor a server
// address is given.
var ErrMissingInput = errors.New("missing input video (-f) or server address (-serve)")

// New parses flags and performs initial validation.
func New(args []string) (*types.AppConfig, error) {
	fs := flag.NewFlagSet("interview-parser", flag.ContinueOnError)

	configFile := fs.String("c", "", "Path to YAML config file")
	inputFilePath := fs.String("f", "", "Path to input video or audio file")
	outputFilePath := fs.String("o", "out/transcript.txt", "Path to output text file")
	bucketName := fs.String("b", "", "S3 bucket name")
	region := fs.String("r", "us-east-1", "AWS region")
	languageCode := fs.String("l", "ru", "Language code for transcription")
	speakerDiarization := fs.Bool("d", false, "Enable speaker diarization")
	maxSpeakers := fs.Int("m", 2, "Number of speakers for diarization")
	start := fs.Float64("s", 0, "Cut start in seconds")
	end := fs.Float64("e", 0, "Cut end in seconds")
	tempDir := fs.String("tmp", "", "Directory for intermediate audio files")
	transcriber := fs.String("t", types.BackendAWS, "Transcription backend: aws|command")
	diarizer := fs.String("a", types.BackendAWS, "Diarization backend: aws|command")
	token := fs.String("token", os.Getenv(TokenEnv), "Diarization access token (or set "+TokenEnv+")")
	promptName := fs.String("p", "", "Prompt file to put in front of the transcript")
	promptsDir := fs.String("prompts", "prompts", "Directory holding prompt files")
	upload := fs.Bool("u", false, "Upload the transcript to S3")
	indexed := fs.Bool("i", false, "Use indexed speaker matching")
	serveAddr := fs.String("serve", "", "Serve the HTTP API on this address instead of processing a file")
	pollInterval := fs.Duration("poll", 10*time.Second, "Transcription job poll interval")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall timeout for processing a file")
	version := fs.Bool("v", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if *version {
		PrintVersion()
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := &types.AppConfig{
		InputFilePath:      *inputFilePath,
		OutputFilePath:     *outputFilePath,
		BucketName:         *bucketName,
		Region:             *region,
		LanguageCode:       *languageCode,
		SpeakerDiarization: *speakerDiarization,
		MaxSpeakers:        *maxSpeakers,
		TempDir:            *tempDir,
		Transcriber:        *transcriber,
		Diarizer:           *diarizer,
		Token:              *token,
		PromptName:         *promptName,
		PromptsDir:         *promptsDir,
		Upload:             *upload,
		IndexedMatching:    *indexed,
		ServeAddr:          *serveAddr,
		PollInterval:       *pollInterval,
		Timeout:            *timeout,
	}
	if set["s"] || set["e"] {
		cfg.Interval = &types.Interval{Start: *start, End: *end}
	}

	if *configFile != "" {
		f, err := LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
		if err := apply(cfg, f, set); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply copies values from the config file that were not set by flags.
func apply(cfg *types.AppConfig, f *File, set map[string]bool) error {
	str := func(flagName string, dst *string, v string) {
		if v != "" && !set[flagName] {
			*dst = v
		}
	}
	boolean := func(flagName string, dst *bool, v *bool) {
		if v != nil && !set[flagName] {
			*dst = *v
		}
	}
	duration := func(flagName string, dst *time.Duration, v time.Duration) {
		if v != 0 && !set[flagName] {
			*dst = v
		}
	}

	str("f", &cfg.InputFilePath, f.Input)
	str("o", &cfg.OutputFilePath, f.Output)
	str("l", &cfg.LanguageCode, f.Language)
	str("tmp", &cfg.TempDir, f.TempDir)
	str("token", &cfg.Token, f.Token)
	str("b", &cfg.BucketName, f.AWS.Bucket)
	str("r", &cfg.Region, f.AWS.Region)
	str("t", &cfg.Transcriber, f.Transcriber.Backend)
	str("a", &cfg.Diarizer, f.Diarizer.Backend)
	str("p", &cfg.PromptName, f.Prompts.Name)
	str("prompts", &cfg.PromptsDir, f.Prompts.Dir)
	str("serve", &cfg.ServeAddr, f.Server.Address)
	boolean("d", &cfg.SpeakerDiarization, f.Diarization)
	boolean("u", &cfg.Upload, f.AWS.Upload)
	duration("poll", &cfg.PollInterval, f.AWS.PollInterval)
	duration("timeout", &cfg.Timeout, f.Timeout)

	if f.Speakers != 0 && !set["m"] {
		cfg.MaxSpeakers = f.Speakers
	}
	if f.Interval != nil && !set["s"] && !set["e"] {
		iv := *f.Interval
		cfg.Interval = &iv
	}
	if f.Merge.Strategy != "" && !set["i"] {
		s, err := merge.ParseStrategy(f.Merge.Strategy)
		if err != nil {
			return err
		}
		cfg.IndexedMatching = s == merge.Indexed
	}
	cfg.TranscriberCommand = f.Transcriber.Command
	cfg.DiarizerCommand = f.Diarizer.Command
	return nil
}

func validate(cfg *types.AppConfig) error {
	// fail fast
	if cfg.InputFilePath == "" && cfg.ServeAddr == "" {
		return ErrMissingInput
	}
	if cfg.InputFilePath != "" && cfg.ServeAddr == "" {
		fileInfo, err := os.Stat(cfg.InputFilePath)
		if err != nil {
			return fmt.Errorf("input file: %w", err)
		}
		if fileInfo.IsDir() {
			return fmt.Errorf("input path %q is a directory, not a file", cfg.InputFilePath)
		}
	}

	if strings.TrimSpace(cfg.LanguageCode) == "" {
		return errors.New("language code must not be empty")
	}
	if cfg.Interval != nil {
		if err := cfg.Interval.Validate(); err != nil {
			return fmt.Errorf("invalid cut interval: %w", err)
		}
	}

	if err := validateBackend("transcriber", cfg.Transcriber, cfg.TranscriberCommand); err != nil {
		return err
	}
	if cfg.SpeakerDiarization {
		if cfg.MaxSpeakers < 1 {
			return fmt.Errorf("number of speakers must be at least 1, got %d", cfg.MaxSpeakers)
		}
		if err := validateBackend("diarizer", cfg.Diarizer, cfg.DiarizerCommand); err != nil {
			return err
		}
	}

	if cfg.NeedsAWS() {
		if cfg.BucketName == "" {
			return errors.New("S3 bucket name (-b) is required for the aws backend and uploads")
		}
		isValid, err := validateBucketName(cfg.BucketName)
		if err != nil {
			return fmt.Errorf("invalid bucket name %q: %w", cfg.BucketName, err)
		}
		if !isValid {
			return fmt.Errorf("invalid bucket name %q", cfg.BucketName)
		}
	}
	return nil
}

func validateBackend(kind, backend string, command []string) error {
	switch backend {
	case types.BackendAWS:
		return nil
	case types.BackendCommand:
		if len(command) == 0 {
			return fmt.Errorf("%s backend %q needs a command in the config file", kind, backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown %s backend %q", kind, backend)
	}
}

// PrintVersion prints version information and exits
func PrintVersion() {
	fmt.Printf("Version: %s\n", Version)
	if len(Commit) >= 7 {
		fmt.Printf("Commit: %s\n", Commit[:7])
	} else {
		fmt.Printf("Commit: %s\n", Commit)
	}
	os.Exit(0)
}

// validateBucketName validates an S3 bucket name
func validateBucketName(bucket string) (bool, error) {
	re, err := regexp.Compile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)
	if err != nil {
		return false, fmt.Errorf("compile regex: %w", err)
	}
	return re.MatchString(bucket), nil
}
