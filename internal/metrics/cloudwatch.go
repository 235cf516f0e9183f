package metrics

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/go-checkoutflow/internal/aws"
)

// CloudWatch sends each increment as a single PutMetricData call.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	logger    *log.Logger
	timeout   time.Duration
	nowFunc   func() time.Time
}

func NewCloudWatch(client aws.CloudWatchAPI, namespace string, logger *log.Logger) *CloudWatch {
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		logger:    logger,
		timeout:   2 * time.Second,
		nowFunc:   time.Now,
	}
}

func (c *CloudWatch) Incr(ctx context.Context, name string, dims map[string]string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	one := 1.0
	now := c.nowFunc()
	datum := cwtypes.MetricDatum{
		MetricName: &name,
		Value:      &one,
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  &now,
		Dimensions: dimensions(dims),
	}
	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &c.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		c.logger.Printf("[metrics] put %s: %v", name, err)
	}
}

func dimensions(dims map[string]string) []cwtypes.Dimension {
	if len(dims) == 0 {
		return nil
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]cwtypes.Dimension, 0, len(keys))
	for _, k := range keys {
		k, v := k, dims[k]
		out = append(out, cwtypes.Dimension{Name: &k, Value: &v})
	}
	return out
}
