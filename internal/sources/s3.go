package sources

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// ObjectGetter is the subset of the S3 client used to download exports.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source downloads a CSV or XLSX export from a bucket.
type S3Source struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3Source returns a source for s3://bucket/key.
func NewS3Source(client ObjectGetter, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.key }

func (s *S3Source) Fetch(ctx context.Context) (*datanorm.Dataset, error) {
	format, err := FormatOf(s.key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", s.Name(), err)
	}
	defer out.Body.Close()

	ds, err := Decode(out.Body, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Name(), err)
	}
	return ds, nil
}
