package cache

import (
	"context"
	"errors"
	"time"

	pcache "FinRatio/pkg/cache"
)

// SharedCache exposes a pkg/cache.Service (memory, Redis or layered) as a BytesCache.
type SharedCache struct {
	svc     pcache.Service
	timeout time.Duration
}

func NewSharedCache(svc pcache.Service) *SharedCache {
	return &SharedCache{svc: svc, timeout: 2 * time.Second}
}

func (s *SharedCache) GetBytes(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var b []byte
	if err := s.svc.Get(ctx, key, &b); err != nil {
		if errors.Is(err, pcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *SharedCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.svc.Set(ctx, key, value, ttl)
}
