package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContentType is the media type of snapshot exports.
const ContentType = "application/x-ndjson"

// S3Options locate a snapshot object.
type S3Options struct {
	Bucket string
	Key    string
	Region string
	// Endpoint enables path-style addressing (MinIO and similar).
	Endpoint string
}

// s3API is the part of *s3.Client used by S3Destination.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Destination stores snapshot exports in an S3-compatible bucket.
type S3Destination struct {
	client s3API
	bucket string
	key    string
}

// NewS3Destination creates an S3 destination from the default AWS
// credential chain.
func NewS3Destination(ctx context.Context, opts S3Options) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}
	return newS3Destination(s3.NewFromConfig(cfg, s3opts...), opts.Bucket, opts.Key), nil
}

func newS3Destination(client s3API, bucket, key string) *S3Destination {
	return &S3Destination{client: client, bucket: bucket, key: key}
}

// Write uploads data as the configured object key.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// Read downloads the last export stored under the configured key.
func (d *S3Destination) Read(ctx context.Context) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read object: %w", err)
	}
	return data, nil
}

func (d *S3Destination) String() string { return "s3://" + d.bucket + "/" + d.key }
