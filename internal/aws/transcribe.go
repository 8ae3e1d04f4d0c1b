package aws

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// DefaultPollInterval is how often job status is checked.
const DefaultPollInterval = 10 * time.Second

// Speaker label limits enforced by Transcribe.
const (
	minSpeakerLabels = 2
	maxSpeakerLabels = 30
)

// TranscribeAPI is the subset of the Transcribe client used here.
type TranscribeAPI interface {
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
}

// JobSpec describes a transcription job.
type JobSpec struct {
	Name         string
	Bucket       string
	MediaKey     string
	MediaFormat  string
	LanguageCode string
	// MaxSpeakers enables speaker labels when > 0.
	MaxSpeakers int
}

// TranscribeService handles Transcribe operations
type TranscribeService struct {
	client       TranscribeAPI
	pollInterval time.Duration
}

// NewTranscribeService creates a new Transcribe service. A zero pollInterval
// uses DefaultPollInterval.
func NewTranscribeService(client TranscribeAPI, pollInterval time.Duration) *TranscribeService {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &TranscribeService{client: client, pollInterval: pollInterval}
}

// EnsureTranscriptionJob starts the job unless one with the same name exists
// and waits until it completes.
func (t *TranscribeService) EnsureTranscriptionJob(ctx context.Context, spec JobSpec) error {
	job, err := t.getTranscriptionJob(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("checking transcription job status: %w", err)
	}
	if job != nil {
		log.Printf("Transcription job %q already exists with status: %s", spec.Name, job.TranscriptionJobStatus)
		if done, err := jobDone(job); done || err != nil {
			return err
		}
	} else {
		log.Printf("Starting transcription job %q...", spec.Name)
		if err := t.startTranscriptionJob(ctx, spec); err != nil {
			return fmt.Errorf("start transcription job: %w", err)
		}
		log.Printf("Transcription job started.")
	}

	// Poll for transcription job completion.
	log.Printf("Waiting for transcription job to complete...")
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			job, err := t.getTranscriptionJob(ctx, spec.Name)
			if err != nil {
				return fmt.Errorf("retrieving transcription job status: %w", err)
			}
			if job == nil {
				return fmt.Errorf("transcription job %q disappeared", spec.Name)
			}
			log.Printf("Job status: %s", job.TranscriptionJobStatus)
			if done, err := jobDone(job); done || err != nil {
				return err
			}
		}
	}
}

func jobDone(job *types.TranscriptionJob) (bool, error) {
	switch job.TranscriptionJobStatus {
	case types.TranscriptionJobStatusCompleted:
		return true, nil
	case types.TranscriptionJobStatusFailed:
		return true, fmt.Errorf("transcription job failed: %s", aws.ToString(job.FailureReason))
	default:
		return false, nil
	}
}

// getTranscriptionJob returns the job, or nil if it does not exist.
func (t *TranscribeService) getTranscriptionJob(ctx context.Context, jobName string) (*types.TranscriptionJob, error) {
	out, err := t.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: &jobName,
	})
	if err != nil {
		if strings.Contains(err.Error(), "The requested job couldn't be found") || isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return out.TranscriptionJob, nil
}

// startTranscriptionJob starts a transcription job using the provided S3 file.
func (t *TranscribeService) startTranscriptionJob(ctx context.Context, spec JobSpec) error {
	mediaURI := fmt.Sprintf("s3://%s/%s", spec.Bucket, spec.MediaKey)
	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: &spec.Name,
		LanguageCode:         types.LanguageCode(spec.LanguageCode),
		MediaFormat:          types.MediaFormat(spec.MediaFormat),
		Media: &types.Media{
			MediaFileUri: &mediaURI,
		},
		OutputBucketName: &spec.Bucket,
	}

	// Add speaker diarization settings if enabled
	if spec.MaxSpeakers > 0 {
		input.Settings = &types.Settings{
			ShowSpeakerLabels: aws.Bool(true),
			MaxSpeakerLabels:  aws.Int32(int32(clampSpeakers(spec.MaxSpeakers))),
		}
	}
	_, err := t.client.StartTranscriptionJob(ctx, input)
	return err
}

func clampSpeakers(n int) int {
	return min(max(n, minSpeakerLabels), maxSpeakerLabels)
}
