// Package s3 keeps item photos in an S3-compatible bucket through MinIO.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Options selects the bucket.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Images is an image store on one bucket.
type Images struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewImages connects and creates the bucket if it does not exist.
func NewImages(ctx context.Context, o Options, log *zap.Logger) (*Images, error) {
	client, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client for %s: %w", o.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", o.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", o.Bucket, err)
		}
		log.Info("bucket created", zap.String("bucket", o.Bucket))
	}

	return &Images{client: client, bucket: o.Bucket, log: log}, nil
}

func (s *Images) Put(ctx context.Context, key string, data []byte, mime string) error {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mime})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	s.log.Debug("image stored", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return nil
}

func (s *Images) Get(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("getting %s: %w", key, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("stat %s: %w", key, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", key, err)
	}
	return data, stat.ContentType, nil
}
