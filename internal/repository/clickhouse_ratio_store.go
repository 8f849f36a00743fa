package repository

import (
	"context"
	"fmt"
	"time"

	"FinRatio/internal/domain/models"
	domrepo "FinRatio/internal/domain/repository"
	applogger "FinRatio/pkg/logger"
)

// chClient is the part of pkg/clickhouse.Client the store uses.
type chClient interface {
	InitSchema(ctx context.Context, stmts []string) error
	InsertBatch(ctx context.Context, query string, rows [][]any) error
	Health(ctx context.Context) error
	Close() error
}

// CHRatioStore keeps the history of every computed ratio in ClickHouse, one row per metric.
type CHRatioStore struct {
	ch       chClient
	database string
	table    string
	l        *applogger.Logger
}

var _ domrepo.RatioStore = (*CHRatioStore)(nil)

func NewCHRatioStore(ch chClient, database, table string, l *applogger.Logger) *CHRatioStore {
	return &CHRatioStore{ch: ch, database: database, table: table, l: l}
}

func (s *CHRatioStore) qualified() string {
	if s.database == "" {
		return s.table
	}
	return s.database + "." + s.table
}

// Init creates the database and table when missing.
func (s *CHRatioStore) Init(ctx context.Context) error {
	var stmts []string
	if s.database != "" {
		stmts = append(stmts, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database))
	}
	stmts = append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id String,
            ts     DateTime64(3, 'UTC'),
            ticker LowCardinality(String),
            grp    LowCardinality(String),
            metric LowCardinality(String),
            value  Nullable(Float64),
            text   String
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (ticker, grp, metric, ts)
    `, s.qualified()))
	return s.ch.InitSchema(ctx, stmts)
}

// StoreReport writes every cell of the three groups as one batch.
func (s *CHRatioStore) StoreReport(ctx context.Context, r *models.Report) error {
	start := time.Now()
	rows := reportRows(r)
	q := fmt.Sprintf("INSERT INTO %s (run_id, ts, ticker, grp, metric, value, text) VALUES (?, ?, ?, ?, ?, ?, ?)", s.qualified())
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("store report into %s (%d rows): %w", s.qualified(), len(rows), err)
	}
	s.l.Info("clickhouse store_report ok",
		applogger.String("table", s.qualified()),
		applogger.String("run_id", r.RunID),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHRatioStore) Health(ctx context.Context) error { return s.ch.Health(ctx) }

func (s *CHRatioStore) Close() error { return s.ch.Close() }

// reportRows flattens a report into (run_id, ts, ticker, grp, metric, value, text) rows.
// Unavailable numbers are stored as NULL with text "N/A".
func reportRows(r *models.Report) [][]any {
	ts := r.FinishedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	var rows [][]any
	for _, g := range models.Groups {
		for _, rec := range r.Records(g) {
			for _, f := range rec.Fields() {
				var value *float64
				if !f.IsText {
					if n, ok := f.Value.Float64(); ok {
						value = &n
					}
				}
				rows = append(rows, []any{r.RunID, ts, rec.Symbol(), string(g), f.Name, value, f.Display()})
			}
		}
	}
	return rows
}
