// Package metrics records request metrics and pushes them to CloudWatch.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/aws"
	"github.com/imrishuroy/dishflow/internal/chain"
)

// Metric names
const (
	MetricRequests      = "Requests"
	MetricGuardFailures = "GuardFailures"
)

// maxBatch is the PutMetricData limit on datums per call.
const maxBatch = 1000

// Recorder buffers datums until Flush.
type Recorder struct {
	client    aws.CloudWatchAPI
	namespace string
	now       func() time.Time

	mu  sync.Mutex
	buf []cwtypes.MetricDatum
}

// NewRecorder returns a Recorder that writes to namespace.
func NewRecorder(client aws.CloudWatchAPI, namespace string) *Recorder {
	return &Recorder{
		client:    client,
		namespace: namespace,
		now:       time.Now,
	}
}

// Middleware counts every request by route and status, and every chain
// failure by code. It must run before the error reporter so that the final
// status is known.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.add(MetricRequests,
			dimension("Route", c.Request.Method+" "+route),
			dimension("Status", strconv.Itoa(c.Writer.Status())),
		)
		if f, ok := chain.FailureFrom(c); ok {
			r.add(MetricGuardFailures, dimension("Code", string(f.Code)))
		}
	}
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: awssdk.String(name), Value: awssdk.String(value)}
}

func (r *Recorder) add(name string, dims ...cwtypes.Dimension) {
	d := cwtypes.MetricDatum{
		MetricName: awssdk.String(name),
		Dimensions: dims,
		Timestamp:  awssdk.Time(r.now()),
		Unit:       cwtypes.StandardUnitCount,
		Value:      awssdk.Float64(1),
	}

	r.mu.Lock()
	r.buf = append(r.buf, d)
	r.mu.Unlock()
}

// Pending returns the number of buffered datums.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Flush sends every buffered datum. Datums of a failed batch are dropped.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	buf := r.buf
	r.buf = nil
	r.mu.Unlock()

	for len(buf) > 0 {
		n := min(len(buf), maxBatch)
		_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  awssdk.String(r.namespace),
			MetricData: buf[:n],
		})
		if err != nil {
			return fmt.Errorf("put metric data: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}

// Run flushes every interval until ctx is done.
func (r *Recorder) Run(ctx context.Context, interval time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil {
				lg.Warn("Flush metrics failed", zap.Error(err))
			}
		}
	}
}
