package store

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backup uploads the SQLite database file to an S3 object.
type S3Backup struct {
	bucket string
	key    string
	s3     s3PutObjectAPI
}

func NewS3Backup(s3Client s3PutObjectAPI, bucket, key string) *S3Backup {
	return &S3Backup{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

// Upload copies the file at dbPath to the configured bucket and key.
func (b *S3Backup) Upload(ctx context.Context, dbPath string) (int64, error) {
	f, err := os.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open database file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat database file: %w", err)
	}

	_, err = b.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to put database object to S3: %w", err)
	}
	return info.Size(), nil
}
