package repository

import (
	"context"

	"FinRatio/internal/domain/models"
)

// FundamentalsProvider returns the raw company snapshot for a ticker.
type FundamentalsProvider interface {
	Fetch(ctx context.Context, ticker string) (*models.Snapshot, error)
}

// RatioStore persists finished reports.
type RatioStore interface {
	StoreReport(ctx context.Context, r *models.Report) error
	Health(ctx context.Context) error
	Close() error
}

// RatioPublisher fans finished reports out to downstream consumers.
type RatioPublisher interface {
	PublishReport(ctx context.Context, r *models.Report) error
	Close() error
}

// Metrics records pipeline telemetry.
type Metrics interface {
	RecordFetch(ticker string, ok bool)
	RecordError(kind string)
	RecordUnavailable(group models.Group, metric string)
	RecordLatency(op string, seconds float64)
	RecordRun(tickers int, failed int)
}
