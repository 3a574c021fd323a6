package observability

import (
	"context"
	"time"

	"hoststatus/internal/hostmetrics"
	"hoststatus/internal/probe"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "hoststatus"

// InstrumentedCollector wraps a hostmetrics.Collector with tracing, a
// collection latency histogram, an error counter, and utilization and load
// gauges.
type InstrumentedCollector struct {
	inner       hostmetrics.Collector
	tracer      trace.Tracer
	duration    metric.Float64Histogram
	errors      metric.Int64Counter
	utilization metric.Float64Gauge
	load        metric.Float64Gauge
}

// NewInstrumentedCollector creates a collector wrapper using the global
// tracer and meter providers.
func NewInstrumentedCollector(inner hostmetrics.Collector) (*InstrumentedCollector, error) {
	meter := otel.Meter(instrumentationName + "/hostmetrics")

	duration, err := meter.Float64Histogram(
		"hoststatus.collect.duration",
		metric.WithDescription("Duration of host metric collections in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"hoststatus.collect.errors",
		metric.WithDescription("Number of failed host metric collections"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	utilization, err := meter.Float64Gauge(
		"hoststatus.host.utilization",
		metric.WithDescription("Last collected utilization percent per resource"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return nil, err
	}

	load, err := meter.Float64Gauge(
		"hoststatus.host.load",
		metric.WithDescription("Last collected system load average per period"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedCollector{
		inner:       inner,
		tracer:      otel.Tracer(instrumentationName + "/hostmetrics"),
		duration:    duration,
		errors:      errCounter,
		utilization: utilization,
		load:        load,
	}, nil
}

// Collect delegates to the wrapped collector and records the outcome.
func (c *InstrumentedCollector) Collect(ctx context.Context) (*hostmetrics.HostMetrics, error) {
	ctx, span := c.tracer.Start(ctx, "hostmetrics.Collect")
	defer span.End()

	start := time.Now()
	m, err := c.inner.Collect(ctx)
	c.duration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		c.errors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.recordUtilization(ctx, "cpu", m.CPUPercent)
	if m.VirtualMemory != nil {
		c.recordUtilization(ctx, "memory", m.VirtualMemory.UsedPercent)
	}
	if m.SwapMemory != nil {
		c.recordUtilization(ctx, "swap", m.SwapMemory.UsedPercent)
	}
	if m.DiskUsage != nil {
		c.recordUtilization(ctx, "disk", m.DiskUsage.UsedPercent)
	}
	// Load is not part of the status payload, only exported here.
	if m.LoadAverage != nil {
		c.recordLoad(ctx, "1m", m.LoadAverage.Load1)
		c.recordLoad(ctx, "5m", m.LoadAverage.Load5)
		c.recordLoad(ctx, "15m", m.LoadAverage.Load15)
	}
	span.SetStatus(codes.Ok, "")
	return m, nil
}

func (c *InstrumentedCollector) recordUtilization(ctx context.Context, resource string, value float64) {
	c.utilization.Record(ctx, value, metric.WithAttributes(attribute.String("resource", resource)))
}

func (c *InstrumentedCollector) recordLoad(ctx context.Context, period string, value float64) {
	c.load.Record(ctx, value, metric.WithAttributes(attribute.String("period", period)))
}

// InstrumentedProber wraps a probe.Prober with tracing, a probe latency
// histogram, a failure counter and a service-up gauge.
type InstrumentedProber struct {
	inner    probe.Prober
	tracer   trace.Tracer
	duration metric.Float64Histogram
	failures metric.Int64Counter
	up       metric.Int64Gauge
}

// NewInstrumentedProber creates a prober wrapper using the global tracer
// and meter providers.
func NewInstrumentedProber(inner probe.Prober) (*InstrumentedProber, error) {
	meter := otel.Meter(instrumentationName + "/probe")

	duration, err := meter.Float64Histogram(
		"hoststatus.probe.duration",
		metric.WithDescription("Duration of liveness probes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"hoststatus.probe.failures",
		metric.WithDescription("Number of liveness probes that found a target unreachable"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	up, err := meter.Int64Gauge(
		"hoststatus.service.up",
		metric.WithDescription("1 when every probed port accepted a connection on the last probe"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedProber{
		inner:    inner,
		tracer:   otel.Tracer(instrumentationName + "/probe"),
		duration: duration,
		failures: failures,
		up:       up,
	}, nil
}

// Probe delegates to the wrapped prober and records the outcome.
func (p *InstrumentedProber) Probe(ctx context.Context) probe.Result {
	ctx, span := p.tracer.Start(ctx, "probe.Probe")
	defer span.End()

	start := time.Now()
	result := p.inner.Probe(ctx)
	p.duration.Record(ctx, time.Since(start).Seconds())

	for _, target := range result.Targets {
		span.AddEvent("dial", trace.WithAttributes(
			attribute.String("net.peer.address", target.Address),
			attribute.Bool("ok", target.OK),
			attribute.Int64("latency_ms", target.Latency.Milliseconds()),
		))
	}

	if failed, ok := result.Failed(); ok {
		p.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("address", failed.Address)))
		span.SetAttributes(attribute.String("probe.failed_address", failed.Address))
	}

	var up int64
	if result.Up() {
		up = 1
	}
	p.up.Record(ctx, up)
	span.SetAttributes(attribute.Bool("probe.up", result.Up()))
	return result
}
