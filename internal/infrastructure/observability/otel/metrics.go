package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 価格計算回数（取引方向別）
	PriceComputations metric.Int64Counter

	// 価格キャッシュのヒット数
	PriceCacheHits metric.Int64Counter

	// スペシャル編集回数（操作別）
	SpecialsMutations metric.Int64Counter

	// 売買の取引数
	TransactionCount metric.Int64Counter

	// ショップ売上残高
	ShopBalance metric.Int64Gauge

	// ロード時に壊れていたショップ数
	CorruptShopStates metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	priceComputations, err := meter.Int64Counter(
		"price_computations_total",
		metric.WithDescription("Total number of effective price computations"),
	)
	if err != nil {
		return nil, err
	}

	priceCacheHits, err := meter.Int64Counter(
		"price_cache_hits_total",
		metric.WithDescription("Total number of effective prices served from cache"),
	)
	if err != nil {
		return nil, err
	}

	specialsMutations, err := meter.Int64Counter(
		"specials_mutations_total",
		metric.WithDescription("Total number of accepted specials edits"),
	)
	if err != nil {
		return nil, err
	}

	transactionCount, err := meter.Int64Counter(
		"transactions_total",
		metric.WithDescription("Total number of completed shop transactions"),
	)
	if err != nil {
		return nil, err
	}

	shopBalance, err := meter.Int64Gauge(
		"shop_balance",
		metric.WithDescription("Shop takings balance"),
	)
	if err != nil {
		return nil, err
	}

	corruptShopStates, err := meter.Int64Counter(
		"corrupt_shop_states_total",
		metric.WithDescription("Total number of shops that failed to load"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		PriceComputations: priceComputations,
		PriceCacheHits:    priceCacheHits,
		SpecialsMutations: specialsMutations,
		TransactionCount:  transactionCount,
		ShopBalance:       shopBalance,
		CorruptShopStates: corruptShopStates,
		RequestCount:      requestCount,
		ResponseTime:      responseTime,
		ErrorCount:        errorCount,
	}, nil
}

// RecordPriceComputation 価格計算を記録
func (m *Metrics) RecordPriceComputation(ctx context.Context, side string) {
	m.PriceComputations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("side", side),
		),
	)
}

// RecordPriceCacheHit 価格キャッシュのヒットを記録
func (m *Metrics) RecordPriceCacheHit(ctx context.Context) {
	m.PriceCacheHits.Add(ctx, 1)
}

// RecordSpecialsMutation スペシャル編集を記録
func (m *Metrics) RecordSpecialsMutation(ctx context.Context, op string) {
	m.SpecialsMutations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
		),
	)
}

// RecordTransaction 取引を記録
func (m *Metrics) RecordTransaction(ctx context.Context, transactionType string) {
	m.TransactionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", transactionType),
		),
	)
}

// RecordShopBalance ショップ売上残高を記録
func (m *Metrics) RecordShopBalance(ctx context.Context, shopID string, balance int64) {
	m.ShopBalance.Record(ctx, balance,
		metric.WithAttributes(
			attribute.String("shop_id", shopID),
		),
	)
}

// RecordCorruptShopState ロードに失敗したショップを記録
func (m *Metrics) RecordCorruptShopState(ctx context.Context) {
	m.CorruptShopStates.Add(ctx, 1)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
