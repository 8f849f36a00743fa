package cache

import (
	"context"
	"errors"
	"time"

	"FinRatio/internal/domain/models"
	drepo "FinRatio/internal/domain/repository"
	pcache "FinRatio/pkg/cache"
	"FinRatio/pkg/logger"
)

const snapshotPrefix = "snapshot"

// CachedProvider serves snapshots from a cache and falls back to the wrapped provider.
// Cache failures are logged and never fail a fetch.
type CachedProvider struct {
	next  drepo.FundamentalsProvider
	store pcache.Service
	ttl   time.Duration
	log   *logger.Logger
}

var _ drepo.FundamentalsProvider = (*CachedProvider)(nil)

func NewCachedProvider(next drepo.FundamentalsProvider, store pcache.Service, ttl time.Duration, l *logger.Logger) *CachedProvider {
	return &CachedProvider{next: next, store: store, ttl: ttl, log: l}
}

func (p *CachedProvider) Fetch(ctx context.Context, ticker string) (*models.Snapshot, error) {
	key := pcache.GenerateKey(snapshotPrefix, ticker)

	var s models.Snapshot
	err := p.store.Get(ctx, key, &s)
	if err == nil {
		s.Ticker = ticker
		return &s, nil
	}
	if !errors.Is(err, pcache.ErrCacheMiss) {
		p.log.Warn("snapshot cache read failed", logger.String("ticker", ticker), logger.Error(err))
	}

	snap, err := p.next.Fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := p.store.Set(ctx, key, snap, p.ttl); err != nil {
		p.log.Warn("snapshot cache write failed", logger.String("ticker", ticker), logger.Error(err))
	}
	return snap, nil
}

// Invalidate drops every cached snapshot.
func (p *CachedProvider) Invalidate(ctx context.Context) error {
	return p.store.DeleteByPattern(ctx, pcache.BuildPattern(snapshotPrefix+":"))
}
