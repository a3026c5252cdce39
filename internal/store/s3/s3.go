// Package s3 implements the store.Store interface backed by an
// S3-compatible bucket. Each storage key maps to one JSON object.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/store"
)

// S3Store implements store.Store on top of an S3 bucket.
type S3Store struct {
	client *awss3.Client
	bucket string
	prefix string
}

// Compile-time check that S3Store implements store.Store.
var _ store.Store = (*S3Store)(nil)

// New creates an S3-backed store. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar).
func New(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var opts []func(*awss3.Options)
	if endpoint != "" {
		opts = append(opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client: awss3.NewFromConfig(cfg, opts...),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *S3Store) shardObject(key string) string {
	return path.Join(s.prefix, key) + ".json"
}

func (s *S3Store) blobObject(key string) string {
	return path.Join(s.prefix, key)
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.shardObject(key)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, &store.StoreError{Op: "exists", Key: key, Err: err}
	}
	return true, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (*catalog.Shard, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.shardObject(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, &store.StoreError{Op: "get", Key: key, Err: store.ErrNotFound}
		}
		return nil, &store.StoreError{Op: "get", Key: key, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &store.StoreError{Op: "get", Key: key, Err: err}
	}
	var shard catalog.Shard
	if err := json.Unmarshal(data, &shard); err != nil {
		return nil, &store.StoreError{Op: "get", Key: key, Err: fmt.Errorf("decode shard: %w", err)}
	}
	return &shard, nil
}

func (s *S3Store) Put(ctx context.Context, key string, shard *catalog.Shard) error {
	data, err := json.Marshal(shard)
	if err != nil {
		return &store.StoreError{Op: "put", Key: key, Err: fmt.Errorf("encode shard: %w", err)}
	}
	contentType := "application/json"
	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.shardObject(key)),
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return &store.StoreError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *S3Store) PutBlob(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.blobObject(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return &store.StoreError{Op: "put_blob", Key: key, Err: err}
	}
	return nil
}

func (s *S3Store) GetBlob(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.blobObject(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, &store.StoreError{Op: "get_blob", Key: key, Err: store.ErrNotFound}
		}
		return nil, &store.StoreError{Op: "get_blob", Key: key, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &store.StoreError{Op: "get_blob", Key: key, Err: err}
	}
	return data, nil
}

// Close is a no-op; the S3 client holds no persistent connection state.
func (s *S3Store) Close() error { return nil }
