package persist

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cserrors "github.com/vango-dev/controlstore/internal/errors"
)

// S3API is the subset of *s3.Client used by S3Backend.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Backend stores each snapshot as one S3 object.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	backend := persist.NewS3Backend(s3.NewFromConfig(cfg), "my-bucket", "snapshots/")
type S3Backend struct {
	client S3API
	bucket string
	prefix string
	closed atomic.Bool
}

// NewS3Backend creates a backend writing to bucket. Object keys are prefix
// followed by the snapshot ID and ".json".
func NewS3Backend(client S3API, bucket, prefix string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

func (b *S3Backend) key(id string) string {
	return b.prefix + id + ".json"
}

// Save uploads data.
func (b *S3Backend) Save(ctx context.Context, id string, data []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return cserrors.New("E162").WithDetail("s3 upload failed").Wrap(err)
	}
	return nil
}

// Load downloads the snapshot stored under id. A missing object is not an
// error.
func (b *S3Backend) Load(ctx context.Context, id string) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, cserrors.New("E162").WithDetail("s3 download failed").Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, cserrors.New("E162").WithDetail("s3 read failed").Wrap(err)
	}
	return data, nil
}

// Delete removes the object for id.
func (b *S3Backend) Delete(ctx context.Context, id string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(id)),
	})
	if err != nil {
		return cserrors.New("E162").WithDetail("s3 delete failed").Wrap(err)
	}
	return nil
}

// Close marks the backend closed. The client is owned by the caller.
func (b *S3Backend) Close() error {
	b.closed.Store(true)
	return nil
}
