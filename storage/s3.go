package storage

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// S3Backend keeps objects in an S3 compatible bucket
type S3Backend struct {
	bucket   string
	s3Client *s3.S3
	log      *zap.Logger
}

func NewS3Backend(keyID, key, bucket, region, endpoint string, log *zap.Logger) (*S3Backend, error) {
	cfg := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(keyID, key, ""),
		MaxRetries:  aws.Int(maxRetries),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &S3Backend{
		bucket:   bucket,
		s3Client: s3.New(sess),
		log:      log,
	}, nil
}

func (s *S3Backend) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer data.Close()

	input := s3manager.UploadInput{
		Bucket: &s.bucket,
		Key:    aws.String(key),
		Body:   data,
	}
	if mime, err := mimetype.DetectFile(localPath); err == nil {
		input.ContentType = aws.String(mime.String())
	}
	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	_, err = uploader.UploadWithContext(ctx, &input)
	return err
}

func (s *S3Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *S3Backend) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    aws.String(key),
	})
	return req.Presign(ttl)
}

func (s *S3Backend) DeletePrefix(ctx context.Context, key string) error {
	var objects []*s3.ObjectIdentifier
	input := &s3.ListObjectVersionsInput{Bucket: &s.bucket}
	if key != "" {
		input.Prefix = aws.String(key)
	}
	err := s.s3Client.ListObjectVersionsPagesWithContext(ctx, input, func(page *s3.ListObjectVersionsOutput, _ bool) bool {
		for _, v := range page.Versions {
			if matchesPrefix(aws.StringValue(v.Key), key) {
				objects = append(objects, &s3.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
			}
		}
		for _, m := range page.DeleteMarkers {
			if matchesPrefix(aws.StringValue(m.Key), key) {
				objects = append(objects, &s3.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, obj := range objects {
		_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket:    &s.bucket,
			Key:       obj.Key,
			VersionId: obj.VersionId,
		})
		if err != nil {
			return err
		}
	}
	if len(objects) > 0 {
		s.log.Debug("s3 versions deleted", zap.String("prefix", key), zap.Int("count", len(objects)))
	}
	return nil
}
