package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3 is the object-storage backed store.
type S3 struct {
	client s3iface.S3API
}

// NewS3 constructs an S3 store from explicit credentials. Empty key fields
// defer to the SDK's default chain (instance profile, shared config).
func NewS3(creds Credentials) (*S3, error) {
	cfg := aws.NewConfig()
	if creds.Region != "" {
		cfg = cfg.WithRegion(creds.Region)
	}
	if creds.AccessKeyID != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(creds.AccessKeyID, creds.SecretAccessKey, ""))
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3{client: s3.New(sess)}, nil
}

// NewS3WithClient wraps an existing client; tests inject fakes through here.
func NewS3WithClient(client s3iface.S3API) *S3 {
	return &S3{client: client}
}

// Open fetches the object at location.
func (s *S3) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := splitS3(location)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s: %w", location, err)
	}
	return out.Body, nil
}

// Put writes body as the object at location.
func (s *S3) Put(ctx context.Context, location string, body []byte) error {
	bucket, key, err := splitS3(location)
	if err != nil {
		return err
	}
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %s: %w", location, err)
	}
	return nil
}
