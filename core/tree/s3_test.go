package tree_test

import (
	"context"
	"testing"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core/tree"
)

// s3TestService holds the configuration for the S3 driver test. Credentials
// come from the default AWS chain when S3_ACCESS_ID is empty.
type s3TestService struct {
	Bucket   string `env:"S3_BUCKET,optional"`
	Region   string `env:"S3_REGION,default=ap-southeast-1"`
	AccessID string `env:"S3_ACCESS_ID,optional"`
	Key      string `env:"S3_ACCESS_KEY,optional"`
}

func TestS3Driver(t *testing.T) {
	var service s3TestService
	require.NoError(t, envdecode.Decode(&service))
	if service.Bucket == "" {
		t.Skip("S3_BUCKET is not set")
	}
	ctx := context.Background()
	driver, err := tree.NewS3(ctx, tree.S3Configuration{
		AccessID:      service.AccessID,
		AccessKey:     service.Key,
		AWSBucketName: service.Bucket,
		AWSRegion:     service.Region,
		KeyPrefix:     "unit-test/" + time.Now().Format("20060102-150405.000") + "/",
	})
	require.NoError(t, err)
	defer driver.DeletePrefix(ctx, "")
	testDriver(t, driver)
}
