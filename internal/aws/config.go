package aws

import (
	"context"
	"fmt"
	"os"
	"strconv"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultRegion is used when AWS_REGION is unset.
const DefaultRegion = "ap-south-1"

// LoadAWSConfig builds the SDK config from the environment:
//
//	AWS_REGION             region, DefaultRegion when unset
//	AWS_ENDPOINT_OVERRIDE  base endpoint for every service (LocalStack)
//	AWS_MAX_ATTEMPTS       SDK retry attempts per call
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if v := os.Getenv("AWS_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return sdkaws.Config{}, fmt.Errorf("invalid AWS_MAX_ATTEMPTS %q", v)
		}
		opts = append(opts, config.WithRetryMaxAttempts(n))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if endpoint := os.Getenv("AWS_ENDPOINT_OVERRIDE"); endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(endpoint)
	}
	return cfg, nil
}
