package utils

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Storage keeps course images in a Cloudflare R2 bucket.
type R2Storage struct {
	client        *s3.Client
	bucketName    string
	publicBaseURL string
}

// NewR2Storage creates an R2Storage client.
// endpoint should be "https://<account-id>.r2.cloudflarestorage.com".
func NewR2Storage(accessKeyID, secretAccessKey, endpoint, bucketName, publicBaseURL string) *R2Storage {
	cfg := aws.Config{
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		BaseEndpoint: aws.String(endpoint),
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// R2 requires path-style addressing
		o.UsePathStyle = true
	})
	return &R2Storage{
		client:        client,
		bucketName:    bucketName,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (rs *R2Storage) SaveFile(ctx context.Context, subDir, originalFilename, contentType string, reader io.Reader) (string, error) {
	objectKey := subDir + "/" + uniqueFileName(originalFilename)
	in := &s3.PutObjectInput{
		Bucket: aws.String(rs.bucketName),
		Key:    aws.String(objectKey),
		Body:   reader,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := rs.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return objectKey, nil
}

// DeleteFile is safe to call for a missing object.
func (rs *R2Storage) DeleteFile(ctx context.Context, objectKey string) error {
	_, err := rs.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(rs.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}
	return nil
}

func (rs *R2Storage) PublicURL(objectKey string) string {
	return rs.publicBaseURL + "/" + objectKey
}
