package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/embano1/interview-parser/internal/types"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Service handles S3 operations
type S3Service struct {
	client S3API
}

// NewS3Service creates a new S3 service
func NewS3Service(client S3API) *S3Service {
	return &S3Service{client: client}
}

// CheckObjectExists uses HeadObject to determine if the object already exists.
func (s *S3Service) CheckObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UploadFile uploads the given file to the specified bucket and key.
func (s *S3Service) UploadFile(ctx context.Context, bucket, key, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   f,
	})
	return err
}

// PutText stores text under key as a UTF-8 plain text object.
func (s *S3Service) PutText(ctx context.Context, bucket, key, text string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        strings.NewReader(text),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	return err
}

// GetTranscriptionResult downloads and decodes the transcription result JSON.
func (s *S3Service) GetTranscriptionResult(ctx context.Context, bucket, key string) (*types.TranscriptionResult, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	var result types.TranscriptionResult
	if err := json.NewDecoder(out.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transcription result %q: %w", key, err)
	}
	if len(result.Results.Transcripts) == 0 {
		return nil, ErrEmptyResult
	}
	return &result, nil
}

// HeadBucket checks if bucket exists and is accessible
func (s *S3Service) HeadBucket(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &bucket,
	})
	return err
}

// isNotFoundError determines if an error from AWS indicates a "not found" condition.
func isNotFoundError(err error) bool {
	var apiErr smithy.APIError
	if err == nil {
		return false
	}
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFoundException", "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	if strings.Contains(err.Error(), "NotFound:") {
		return true
	}
	return false
}
