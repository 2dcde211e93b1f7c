package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	// Noopメータープロバイダーを使用
	otel.SetMeterProvider(noop.NewMeterProvider())

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)
	assert.NotNil(t, metrics)
	assert.NotNil(t, metrics.PriceComputations)
	assert.NotNil(t, metrics.PriceCacheHits)
	assert.NotNil(t, metrics.SpecialsMutations)
	assert.NotNil(t, metrics.TransactionCount)
	assert.NotNil(t, metrics.ShopBalance)
	assert.NotNil(t, metrics.CorruptShopStates)
	assert.NotNil(t, metrics.RequestCount)
	assert.NotNil(t, metrics.ResponseTime)
	assert.NotNil(t, metrics.ErrorCount)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer otel.SetMeterProvider(noop.NewMeterProvider())

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordPriceComputation(ctx, "buy")
	metrics.RecordPriceComputation(ctx, "sell")
	metrics.RecordPriceCacheHit(ctx)
	metrics.RecordSpecialsMutation(ctx, "create")
	metrics.RecordTransaction(ctx, "buy")
	metrics.RecordShopBalance(ctx, "town", 1200)
	metrics.RecordCorruptShopState(ctx)
	metrics.RecordRequest(ctx, "GET", "/api/v1/shops/:shop_id/prices/:item_id")
	metrics.RecordResponseTime(ctx, "GET", "/api/v1/shops/:shop_id/prices/:item_id", 0.01)
	metrics.RecordError(ctx, "validation_error")

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["price_computations_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["price_cache_hits_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["specials_mutations_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["transactions_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["corrupt_shop_states_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["requests_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["errors_total"]))

	gauge, ok := data["shop_balance"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1200), gauge.DataPoints[0].Value)

	_, ok = data["response_time_seconds"].(metricdata.Histogram[float64])
	assert.True(t, ok)
}
