package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
)

// PrometheusMiddleware creates a middleware that records request execution metrics
//
// This middleware wraps all command/query execution and records:
// - Execution duration (histogram)
// - Success/failure counts (counter)
//
// Request names are extracted via reflection, e.g. "*commands.PlanTickCommand"
// becomes "PlanTickCommand".
func PrometheusMiddleware(collector *PlannerMetricsCollector) common.Middleware {
	return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		// Metrics disabled
		if collector == nil {
			return next(ctx, request)
		}

		requestName := extractRequestName(request)
		start := time.Now()

		response, err := next(ctx, request)

		collector.RecordRequest(requestName, time.Since(start).Seconds(), err == nil)
		return response, err
	}
}

func extractRequestName(request common.Request) string {
	if request == nil {
		return "UnknownRequest"
	}
	fullName := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}
