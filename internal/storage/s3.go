package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps post images in an S3 bucket
type S3Store struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// NewS3Store creates an S3-backed image store. baseURL is the CDN or bucket
// URL images are served from; when empty the virtual-hosted bucket URL is used.
func NewS3Store(region, bucket, baseURL string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &S3Store{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save uploads data as posts/<filename>, picking a fresh key on collision
func (u *S3Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	name := CleanFilename(filename)
	key := path.Join(PostImageDir, name)

	exists, err := u.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		key = path.Join(PostImageDir, alternateName(name))
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(getContentTypeForImage(filepath.Ext(key))),
		CacheControl: aws.String("max-age=86400"),
		Metadata: map[string]string{
			"original-filename": filename,
			"upload-timestamp":  time.Now().UTC().Format(time.RFC3339),
			"file-type":         "post-image",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

func (u *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check S3 key %s: %w", key, err)
}

// Delete removes a stored image from the bucket
func (u *S3Store) Delete(ctx context.Context, name string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored key
func (u *S3Store) URL(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", u.baseURL, name)
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Store) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}
