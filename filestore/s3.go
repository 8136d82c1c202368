package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/awserr"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/danthegoodman1/tablekit/s3"
)

type (
	// S3FileStore stores files in the bucket the s3 package is configured
	// for.
	S3FileStore struct{}
)

func (sfs *S3FileStore) WriteFile(ctx context.Context, key string, r io.Reader) error {
	if _, err := s3.WriteBytesToS3(ctx, key, r, nil); err != nil {
		return fmt.Errorf("error in WriteBytesToS3: %w", err)
	}
	return nil
}

func (sfs *S3FileStore) ReadFile(ctx context.Context, key string) ([]byte, error) {
	b, err := s3.ReadBytesFromS3(ctx, key)
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == awss3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("error in ReadBytesFromS3: %w", err)
	}
	return b, nil
}
