// Package storage uploads and deletes place and avatar images in an
// S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "places-api/utils/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// mimeExtensions lists the accepted image types and the key suffix used for each.
var mimeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO.
	Endpoint string
	// PublicURL is the prefix under which uploaded objects are readable.
	PublicURL string
}

type S3Store struct {
	api       objectAPI
	bucket    string
	publicURL string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := c.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}
	return newS3Store(client, c.Bucket, publicURL), nil
}

func newS3Store(api objectAPI, bucket, publicURL string) *S3Store {
	return &S3Store{api: api, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// SupportedMimeType reports whether images of this type are accepted.
func SupportedMimeType(mimeType string) bool {
	_, ok := mimeExtensions[mimeType]
	return ok
}

// Upload stores data under a generated key and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, data []byte, mimeType string) (string, error) {
	ext, ok := mimeExtensions[mimeType]
	if !ok {
		return "", apierrors.ErrValidation.WithMessage("Invalid mime type!")
	}

	key := uuid.New().String() + "." + ext
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", apierrors.ErrInternal.WithMessage("Uploading image failed, please try again.").WithCause(err)
	}
	return s.publicURL + "/" + key, nil
}

// Delete removes the object behind ref. Deleting an absent object succeeds.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key := KeyFromRef(ref)
	if key == "" {
		return nil
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// KeyFromRef returns the object key, which is everything after the last '/'.
func KeyFromRef(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}
