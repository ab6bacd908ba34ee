package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the part of the CloudWatch client the publisher needs.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes command metrics to CloudWatch. It is used in
// Lambda mode, where a scrape endpoint is of no use.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchAPI
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a new CloudWatch publisher
func NewCloudWatchMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		timeout:   2 * time.Second,
		now:       time.Now,
		logger:    logger,
	}
}

func dimensions(kv ...string) []types.Dimension {
	out := make([]types.Dimension, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, types.Dimension{Name: aws.String(kv[i]), Value: aws.String(kv[i+1])})
	}
	return out
}

func (m *CloudWatchMetrics) put(data []types.MetricDatum) {
	if m.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if _, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}); err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}

// ObserveCommand records command latency and count.
func (m *CloudWatchMetrics) ObserveCommand(commandType string, duration time.Duration, err error) {
	now := m.now()
	dims := dimensions("CommandName", commandType, "Status", status(err))
	m.put([]types.MetricDatum{
		{
			MetricName: aws.String("CommandExecution"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
		},
		{
			MetricName: aws.String("CommandCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		},
	})
}

// ObservePropagation records the fan-out of a mutating operation.
func (m *CloudWatchMetrics) ObservePropagation(operation string, nodesWritten int) {
	m.put([]types.MetricDatum{{
		MetricName: aws.String("NodesWritten"),
		Dimensions: dimensions("Operation", operation),
		Value:      aws.Float64(float64(nodesWritten)),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(m.now()),
	}})
}

// IncLockContention counts a lock timeout.
func (m *CloudWatchMetrics) IncLockContention() {
	m.put([]types.MetricDatum{{
		MetricName: aws.String("LockTimeouts"),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(m.now()),
	}})
}
