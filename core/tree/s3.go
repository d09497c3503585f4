package tree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/relabs-tech/rentdesk/core/logger"
)

// S3Configuration contains the configuration for the S3 driver
type S3Configuration struct {
	AccessID      string
	AccessKey     string
	AWSBucketName string
	AWSRegion     string
	// KeyPrefix is prepended to every object key, e.g. "production/"
	KeyPrefix string
}

// S3 is a Driver which keeps every row as one JSON object in an AWS S3 bucket:
// {KeyPrefix}{collection}/{child}.json
type S3 struct {
	client      *s3.Client
	bucket      string
	baseKeyName string
}

// NewS3 returns a new S3 driver
func NewS3(ctx context.Context, s3Config S3Configuration) (*S3, error) {
	if s3Config.AWSBucketName == "" {
		return nil, fmt.Errorf("AWSBucketName must not be empty")
	}

	options := []func(*config.LoadOptions) error{config.WithRegion(s3Config.AWSRegion)}
	if s3Config.AccessID != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Config.AccessID, s3Config.AccessKey, "")))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugln("tree S3 driver enabled, bucket:", s3Config.AWSBucketName)
	return &S3{
		client:      s3.NewFromConfig(awsConfig),
		bucket:      s3Config.AWSBucketName,
		baseKeyName: s3Config.KeyPrefix,
	}, nil
}

func (s *S3) objectKey(key string) string {
	return s.baseKeyName + key + fileSuffix
}

// Read implements Driver
func (s *S3) Read(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer out.Body.Close()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// listKeys returns the full S3 object keys of all rows starting with prefix
func (s *S3) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.baseKeyName + prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, object := range page.Contents {
			if k := aws.ToString(object.Key); strings.HasSuffix(k, fileSuffix) {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

// List implements Driver
func (s *S3) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	rows := map[string][]byte{}
	for _, k := range keys {
		key := strings.TrimSuffix(strings.TrimPrefix(k, s.baseKeyName), fileSuffix)
		raw, exists, err := s.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		if exists {
			rows[key] = raw
		}
	}
	return rows, nil
}

// Write implements Driver
func (s *S3) Write(ctx context.Context, key string, raw []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	return err
}

// Delete implements Driver
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("Could not delete", s.objectKey(key))
	}
	return err
}

// DeletePrefix implements Driver
func (s *S3) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(k),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
