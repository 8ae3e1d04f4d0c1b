package aws

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	appTypes "github.com/embano1/interview-parser/internal/types"
)

var languageCodes = map[string]string{
	"de": "de-DE",
	"en": "en-US",
	"es": "es-US",
	"fr": "fr-FR",
	"it": "it-IT",
	"ru": "ru-RU",
}

// LanguageCode maps short codes like "ru" to Transcribe language codes.
// Anything else is passed through.
func LanguageCode(lang string) string {
	if code, ok := languageCodes[strings.ToLower(lang)]; ok {
		return code
	}
	return lang
}

type jobKey struct {
	audioPath string
	language  string
	speakers  int
}

// Provider transcribes and diarizes audio with a single Transcribe job per
// audio content, language and speaker count. Concurrent callers asking for
// the same job share one in-flight call; nothing is kept once it returns.
type Provider struct {
	s3         *S3Service
	transcribe *TranscribeService
	bucket     string

	jobs singleflight.Group
}

// NewProvider creates a Provider storing media and results in bucket.
func NewProvider(s3 *S3Service, transcribe *TranscribeService, bucket string) *Provider {
	return &Provider{
		s3:         s3,
		transcribe: transcribe,
		bucket:     bucket,
	}
}

// Transcribe returns the transcript and segments of the audio file.
func (p *Provider) Transcribe(ctx context.Context, req appTypes.TranscribeRequest) (appTypes.Transcription, error) {
	result, err := p.result(ctx, jobKey{audioPath: req.AudioPath, language: req.Language, speakers: req.MaxSpeakers})
	if err != nil {
		return appTypes.Transcription{}, err
	}
	return appTypes.Transcription{
		Text:     Transcript(result),
		Language: LanguageCode(req.Language),
		Segments: Segments(result),
	}, nil
}

// Diarize returns the speaker turns of the audio file.
func (p *Provider) Diarize(ctx context.Context, req appTypes.DiarizeRequest) ([]appTypes.SpeakerTurn, error) {
	result, err := p.result(ctx, jobKey{audioPath: req.AudioPath, language: req.Language, speakers: max(req.Speakers, 1)})
	if err != nil {
		return nil, err
	}
	return Turns(result)
}

// UploadTranscript stores a rendered transcript under transcripts/ and
// returns its key.
func (p *Provider) UploadTranscript(ctx context.Context, name, text string) (string, error) {
	key := "transcripts/" + filepath.Base(name)
	if err := p.s3.PutText(ctx, p.bucket, key, text); err != nil {
		return "", fmt.Errorf("upload transcript: %w", err)
	}
	return key, nil
}

func (p *Provider) result(ctx context.Context, key jobKey) (*appTypes.TranscriptionResult, error) {
	fileHash, err := hashFile(key.audioPath)
	if err != nil {
		return nil, err
	}
	name := jobName(fileHash, key)

	ch := p.jobs.DoChan(name, func() (any, error) {
		return p.run(ctx, key, fileHash, name)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*appTypes.TranscriptionResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Provider) run(ctx context.Context, key jobKey, fileHash, name string) (*appTypes.TranscriptionResult, error) {
	// The S3 key carries the file hash and the original file name.
	fileName := filepath.Base(key.audioPath)
	s3Key := fmt.Sprintf("uploads/%s_%s", fileHash, fileName)
	spec := JobSpec{
		Name:         name,
		Bucket:       p.bucket,
		MediaKey:     s3Key,
		MediaFormat:  mediaFormat(fileName),
		LanguageCode: LanguageCode(key.language),
		MaxSpeakers:  key.speakers,
	}
	log.Printf("Using S3 key: %s", s3Key)
	log.Printf("Using transcription job name: %s", spec.Name)

	exists, err := p.s3.CheckObjectExists(ctx, p.bucket, s3Key)
	if err != nil {
		return nil, fmt.Errorf("check S3 object existence: %w", err)
	}
	if exists {
		log.Printf("File already exists in S3; skipping upload.")
	} else {
		log.Printf("Uploading file to S3...")
		if err := p.s3.UploadFile(ctx, p.bucket, s3Key, key.audioPath); err != nil {
			return nil, fmt.Errorf("upload file to S3: %w", err)
		}
		log.Printf("Upload completed.")
	}

	if err := p.transcribe.EnsureTranscriptionJob(ctx, spec); err != nil {
		return nil, err
	}

	// Transcribe names the output file "<jobName>.json" in the output bucket.
	resultKey := spec.Name + ".json"
	log.Printf("Retrieving transcription result from S3: %s", resultKey)
	result, err := p.s3.GetTranscriptionResult(ctx, p.bucket, resultKey)
	if err != nil {
		return nil, fmt.Errorf("retrieve transcription result: %w", err)
	}
	return result, nil
}

func jobName(fileHash string, key jobKey) string {
	name := fmt.Sprintf("transcribe-%s-%s", fileHash, strings.ToLower(LanguageCode(key.language)))
	if key.speakers > 0 {
		name += fmt.Sprintf("-s%d", clampSpeakers(key.speakers))
	}
	return name
}

func mediaFormat(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" {
		return "wav"
	}
	return ext
}

// hashFile returns the first 16 hex digits of the file's SHA-256.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("compute file hash: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16], nil
}
