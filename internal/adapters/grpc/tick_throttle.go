package grpc

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/commands"
)

// NewTickThrottle limits planning ticks across all sessions to
// ratePerSecond with the given burst. Other requests pass through.
func NewTickThrottle(ratePerSecond float64, burst int) common.Middleware {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), burst)

	return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		if _, ok := request.(*commands.PlanTickCommand); ok {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("tick throttled: %w", err)
			}
		}
		return next(ctx, request)
	}
}
