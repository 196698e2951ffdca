package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"nearby/internal/keys"
)

// S3Options configures the connection to an S3-compatible server.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// S3Store keeps each preference as one small object.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store connects to the MinIO/S3 endpoint and creates the bucket if it
// does not exist yet.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, eris.New("storage: missing S3 endpoint or credentials")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "storage: create minio client")
	}

	s := &S3Store{client: client, bucket: opts.Bucket}
	if err := s.ensureBucket(ctx, opts.Region); err != nil {
		return nil, err
	}
	zap.L().Info("connected to object store",
		zap.String("endpoint", opts.Endpoint),
		zap.String("bucket", opts.Bucket),
	)
	return s, nil
}

func (s *S3Store) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return eris.Wrap(err, "storage: check bucket")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return eris.Wrap(err, "storage: make bucket")
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) (string, bool, error) {
	object, err := s.client.GetObject(ctx, s.bucket, keys.Object(key), minio.GetObjectOptions{})
	if err != nil {
		return "", false, eris.Wrapf(err, "storage: get %s", key)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if isNoSuchKey(err) {
			return "", false, nil
		}
		return "", false, eris.Wrapf(err, "storage: read %s", key)
	}
	return string(data), true, nil
}

func (s *S3Store) Set(ctx context.Context, key, value string) error {
	data := []byte(value)
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		keys.Object(key),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return eris.Wrapf(err, "storage: put %s", key)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
