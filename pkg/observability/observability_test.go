package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_Records(t *testing.T) {
	// Arrange
	c := NewCollector("ontology")

	// Act
	c.ObserveHTTP(http.MethodGet, "/api/nodes/{id}", 200, 15*time.Millisecond)
	c.ObserveCommand("CreateNodeCommand", time.Millisecond, nil)
	c.ObserveCommand("CreateNodeCommand", time.Millisecond, errors.New("boom"))
	c.ObservePropagation("addProperty", 12)
	c.IncLockContention()

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/nodes/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commands.WithLabelValues("CreateNodeCommand", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commands.WithLabelValues("CreateNodeCommand", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LockContention))
	assert.Equal(t, 1, testutil.CollectAndCount(c.NodesWritten))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("ontology")
	c.IncLockContention()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ontology_propagation_lock_timeouts_total 1")
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestCloudWatchMetrics_ObserveCommand(t *testing.T) {
	// Arrange
	api := &fakeCloudWatch{}
	m := NewCloudWatchMetrics("Ontology", api, zap.NewNop())

	// Act
	m.ObserveCommand("DeleteNodeCommand", 40*time.Millisecond, nil)

	// Assert
	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "Ontology", aws.ToString(in.Namespace))
	require.Len(t, in.MetricData, 2)
	assert.Equal(t, "CommandExecution", aws.ToString(in.MetricData[0].MetricName))
	assert.Equal(t, 40.0, aws.ToFloat64(in.MetricData[0].Value))
	assert.Equal(t, "success", aws.ToString(in.MetricData[0].Dimensions[1].Value))
}

func TestCloudWatchMetrics_SwallowsErrors(t *testing.T) {
	api := &fakeCloudWatch{err: errors.New("throttled")}
	m := NewCloudWatchMetrics("Ontology", api, zap.NewNop())

	assert.NotPanics(t, func() {
		m.ObservePropagation("addProperty", 3)
		m.IncLockContention()
	})
	assert.Len(t, api.inputs, 2)
}

type countingSink struct{ commands, nodes, timeouts int }

func (c *countingSink) ObserveCommand(string, time.Duration, error) { c.commands++ }
func (c *countingSink) ObservePropagation(_ string, n int)          { c.nodes += n }
func (c *countingSink) IncLockContention()                          { c.timeouts++ }

func TestSinks_FanOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	sinks := Sinks{a, nil, b}

	sinks.ObserveCommand("X", time.Millisecond, nil)
	sinks.ObservePropagation("addLinks", 4)
	sinks.IncLockContention()

	for _, c := range []*countingSink{a, b} {
		assert.Equal(t, 1, c.commands)
		assert.Equal(t, 4, c.nodes)
		assert.Equal(t, 1, c.timeouts)
	}
}

func TestNoopTracer_Start(t *testing.T) {
	tracer := NewNoopTracer()

	ctx, end := tracer.Start(context.Background(), "command.Test")

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { end(errors.New("failed")) })
	assert.NoError(t, tracer.Shutdown(context.Background()))
}
