/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package s3 implements objectstore.Store against any S3-compatible endpoint.
// The documented local stack runs MinIO, which needs path-style addressing.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/clansou/medallion/config"
	mederrors "github.com/clansou/medallion/errors"
)

// Store is an S3-backed objectstore.Store.
type Store struct {
	client     *sdk.Client
	maxRetries int
	backoff    time.Duration
}

// New builds a Store from object store settings using static credentials and
// a custom endpoint.
func New(cfg config.ObjectStore) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)

	client := sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Store{
		client:     client,
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &sdk.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}

	var nf *types.NotFound
	if !errors.As(err, &nf) {
		// HeadBucket failures other than 404 still mean the bucket may exist;
		// attempt creation and let BucketAlreadyOwnedByYou settle it.
		var nsb *types.NoSuchBucket
		if !errors.As(err, &nsb) {
			return s.createBucket(ctx, bucket)
		}
	}
	return s.createBucket(ctx, bucket)
}

func (s *Store) createBucket(ctx context.Context, bucket string) error {
	_, err := s.client.CreateBucket(ctx, &sdk.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Put stores an object. The body is buffered so the request can be retried.
func (s *Store) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body for %s/%s: %w", bucket, key, err)
	}

	op := func() error {
		_, err := s.client.PutObject(ctx, &sdk.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String(contentType),
		})
		return err
	}
	if err := s.withRetry(ctx, op); err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Get reads a whole object.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var data []byte
	op := func() error {
		out, err := s.client.GetObject(ctx, &sdk.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		return err
	}

	if err := s.withRetry(ctx, op); err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, mederrors.NewNotFoundError("object", bucket+"/"+key)
		}
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// List returns object keys under a prefix. S3 lists in ascending key order.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	paginator := sdk.NewListObjectsV2Paginator(s.client, &sdk.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Delete removes an object. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &sdk.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// withRetry executes op with bounded linear backoff. Not-found responses are
// terminal; everything else is treated as transient.
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := op(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(lastErr, &noKey) || errors.As(lastErr, &noBucket) {
			return lastErr
		}

		if attempt < s.maxRetries {
			backoff := time.Duration(attempt+1) * s.backoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("after %d retries: %w", s.maxRetries, lastErr)
}
