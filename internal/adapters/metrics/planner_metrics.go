package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
)

// PlannerMetricsCollector handles planning tick, dispatch and request metrics
type PlannerMetricsCollector struct {
	// Dependencies
	getSessions func() []*session.Session

	// Request metrics
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec

	// Tick metrics
	ticksTotal   *prometheus.CounterVec
	tickDuration prometheus.Histogram
	planLength   *prometheus.GaugeVec
	gasWorkers   *prometheus.GaugeVec
	actionsTotal *prometheus.CounterVec
	macroTotal   *prometheus.CounterVec

	// Session metrics
	sessionsTotal *prometheus.GaugeVec

	// Lifecycle
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewPlannerMetricsCollector creates a collector. getSessions feeds the
// session status gauge and may be nil.
func NewPlannerMetricsCollector(getSessions func() []*session.Session) *PlannerMetricsCollector {
	return &PlannerMetricsCollector{
		getSessions: getSessions,

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "Command and query execution duration distribution",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"request", "status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of commands and queries by type and status",
			},
			[]string{"request", "status"},
		),

		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ticks_total",
				Help:      "Planning ticks by session and outcome",
			},
			[]string{"session_id", "outcome"},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tick_duration_seconds",
				Help:      "Wall time of one planning tick",
				Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.02, 0.042, 0.1, 0.25, 0.5},
			},
		),
		planLength: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_length",
				Help:      "Entries in the latest committed plan",
			},
			[]string{"session_id"},
		),
		gasWorkers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "max_gas_workers",
				Help:      "Latest gas gatherer estimate",
			},
			[]string{"session_id"},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "actions_total",
				Help:      "Executor actions changed by reconciliation",
			},
			[]string{"session_id", "change"},
		),
		macroTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "macro_inserted_total",
				Help:      "Ticks that added macro production capacity",
			},
			[]string{"session_id"},
		),

		sessionsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_total",
				Help:      "Planning sessions by status",
			},
			[]string{"status"},
		),
	}
}

// Register registers all planner metrics with the Prometheus registry
func (c *PlannerMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.requestDuration,
		c.requestsTotal,
		c.ticksTotal,
		c.tickDuration,
		c.planLength,
		c.gasWorkers,
		c.actionsTotal,
		c.macroTotal,
		c.sessionsTotal,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordRequest records one mediator request
func (c *PlannerMetricsCollector) RecordRequest(requestName string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.requestDuration.WithLabelValues(requestName, status).Observe(duration)
	c.requestsTotal.WithLabelValues(requestName, status).Inc()
}

// RecordTick records one tick report
func (c *PlannerMetricsCollector) RecordTick(report planner.TickReport) {
	id := report.SessionID
	if report.Aborted {
		c.ticksTotal.WithLabelValues(id, "aborted").Inc()
		return
	}
	c.ticksTotal.WithLabelValues(id, "planned").Inc()
	c.tickDuration.Observe(report.Duration.Seconds())
	c.planLength.WithLabelValues(id).Set(float64(len(report.Plan)))
	c.gasWorkers.WithLabelValues(id).Set(float64(report.MaxGasWorkers))

	changes := map[string]int{
		"dispatched":    report.Dispatched,
		"cancelled":     report.Cancelled,
		"reprioritized": report.Reprioritized,
		"error":         report.DispatchErrs,
	}
	for change, n := range changes {
		if n > 0 {
			c.actionsTotal.WithLabelValues(id, change).Add(float64(n))
		}
	}
	if report.MacroInserted {
		c.macroTotal.WithLabelValues(id).Inc()
	}
}

// TickListener adapts RecordTick to the session runner hook
func (c *PlannerMetricsCollector) TickListener() planner.TickListener {
	return func(ctx context.Context, report planner.TickReport) {
		c.RecordTick(report)
	}
}

// Start begins polling session status
func (c *PlannerMetricsCollector) Start(ctx context.Context, interval time.Duration) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.collectSessionMetrics(interval)
}

// Stop gracefully stops the metrics collection
func (c *PlannerMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *PlannerMetricsCollector) collectSessionMetrics(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.UpdateSessionMetrics()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.UpdateSessionMetrics()
		}
	}
}

// UpdateSessionMetrics recounts sessions by status
func (c *PlannerMetricsCollector) UpdateSessionMetrics() {
	if c.getSessions == nil {
		return
	}

	// Reset to drop statuses no session has any more
	c.sessionsTotal.Reset()
	for _, s := range c.getSessions() {
		c.sessionsTotal.WithLabelValues(string(s.Status())).Inc()
	}
}
