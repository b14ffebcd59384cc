package storage

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kurin/blazer/b2"
	"go.uber.org/zap"
)

const maxRetries = 5

// BackblazeBackend keeps objects in a B2 bucket. The client authorizes once
// and re-authorizes by itself when the token expires.
type BackblazeBackend struct {
	bucket *b2.Bucket
	log    *zap.Logger
}

func NewBackblazeBackend(ctx context.Context, keyID, key, bucketName string, log *zap.Logger) (*BackblazeBackend, error) {
	var client *b2.Client
	err := retry(ctx, func() (err error) {
		client, err = b2.NewClient(ctx, keyID, key)
		return
	})
	if err != nil {
		return nil, err
	}
	var bucket *b2.Bucket
	err = retry(ctx, func() (err error) {
		bucket, err = client.Bucket(ctx, bucketName)
		return
	})
	if err != nil {
		return nil, err
	}
	log.Info("backblaze bucket ready", zap.String("bucket", bucketName))
	return &BackblazeBackend{bucket: bucket, log: log}, nil
}

// retry runs op up to maxRetries more times on failure, missing objects are final
func retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && b2.IsNotExist(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (b *BackblazeBackend) Upload(ctx context.Context, key, localPath string) error {
	return retry(ctx, func() error {
		file, err := os.Open(localPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer file.Close()
		writer := b.bucket.Object(key).NewWriter(ctx)
		if _, err := io.Copy(writer, file); err != nil {
			writer.Close()
			return err
		}
		return writer.Close()
	})
}

func (b *BackblazeBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj := b.bucket.Object(key)
	err := retry(ctx, func() error {
		_, err := obj.Attrs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return obj.NewReader(ctx), nil
}

func (b *BackblazeBackend) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	var result string
	err := retry(ctx, func() error {
		u, err := b.bucket.Object(key).AuthURL(ctx, ttl, "")
		if err != nil {
			return err
		}
		result = u.String()
		return nil
	})
	return result, err
}

func (b *BackblazeBackend) DeletePrefix(ctx context.Context, key string) error {
	var opts []b2.ListOption
	opts = append(opts, b2.ListHidden())
	if key != "" {
		opts = append(opts, b2.ListPrefix(key))
	}
	var versions []*b2.Object
	iter := b.bucket.List(ctx, opts...)
	for iter.Next() {
		if obj := iter.Object(); matchesPrefix(obj.Name(), key) {
			versions = append(versions, obj)
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	for _, obj := range versions {
		err := retry(ctx, func() error { return obj.Delete(ctx) })
		if err != nil && !b2.IsNotExist(err) {
			return err
		}
	}
	if len(versions) > 0 {
		b.log.Debug("backblaze versions deleted", zap.String("prefix", key), zap.Int("count", len(versions)))
	}
	return nil
}
