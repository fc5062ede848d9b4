package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// MaxPresignTTL is the longest lifetime S3 accepts for a SigV4 presigned URL.
const MaxPresignTTL = 7 * 24 * time.Hour

// S3API is the subset of *s3.Client used for uploads.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner is the subset of *s3.PresignClient used for references.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest mirrors the part of the SDK's presigned request we read.
type PresignedRequest struct {
	URL string
}

// S3 stores artifacts in a bucket and hands out presigned GET URLs.
type S3 struct {
	api       S3API
	presigner Presigner
	bucket    string
}

var _ ports.BlobStore = (*S3)(nil)

// NewS3 wraps an SDK client.
func NewS3(client *s3.Client, bucket string) *S3 {
	return &S3{api: client, presigner: sdkPresigner{s3.NewPresignClient(client)}, bucket: bucket}
}

// NewS3WithAPI is used when the SDK client is replaced (tests, alternative endpoints).
func NewS3WithAPI(api S3API, presigner Presigner, bucket string) *S3 {
	return &S3{api: api, presigner: presigner, bucket: bucket}
}

// Put uploads body and returns the object key as the handle.
func (s *S3) Put(ctx context.Context, key string, body []byte, opts ports.PutOptions) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.ACL != "" {
		input.ACL = types.ObjectCannedACL(opts.ACL)
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%w: put s3://%s/%s: %w", domain.ErrStorage, s.bucket, key, err)
	}
	return key, nil
}

// SignedURL presigns a GET for handle; ttl is capped at MaxPresignTTL.
func (s *S3) SignedURL(ctx context.Context, handle string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > MaxPresignTTL {
		ttl = MaxPresignTTL
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: presign s3://%s/%s: %w", domain.ErrStorage, s.bucket, handle, err)
	}
	return req.URL, nil
}

type sdkPresigner struct {
	client *s3.PresignClient
}

func (p sdkPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.client.PresignGetObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL}, nil
}
