package cmd

import (
	"context"
	"fmt"
	"sort"

	"snippetcorpus/internal/application/common/slogger"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// meterScope names the meter every corpus instrument is created on.
const meterScope = "snippetcorpus"

// metricsRuntime owns the process MeterProvider. Batch commands have no scrape endpoint,
// so a manual reader collects the totals for a closing log line.
type metricsRuntime struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

func newMetricsRuntime() *metricsRuntime {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	return &metricsRuntime{reader: reader, provider: provider}
}

// Summary collects the current totals keyed by instrument name. Histograms report their
// observation count.
func (m *metricsRuntime) Summary(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}
	return summarize(rm), nil
}

func summarize(rm metricdata.ResourceMetrics) map[string]int64 {
	totals := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += int64(dp.Count) //nolint:gosec // observation counts are small
				}
			}
		}
	}
	return totals
}

// LogSummary logs the collected totals and shuts the provider down.
func (m *metricsRuntime) LogSummary(ctx context.Context) {
	totals, err := m.Summary(ctx)
	if err != nil {
		slogger.Warn(ctx, "Metrics summary unavailable", slogger.Field("error", err.Error()))
	} else if len(totals) > 0 {
		names := make([]string, 0, len(totals))
		for name := range totals {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make(slogger.Fields, len(names))
		for _, name := range names {
			fields[name] = totals[name]
		}
		slogger.Info(ctx, "Corpus metrics", fields)
	}
	if err := m.provider.Shutdown(ctx); err != nil {
		slogger.Warn(ctx, "Meter provider shutdown failed", slogger.Field("error", err.Error()))
	}
}
