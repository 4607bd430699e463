package cache

import (
	"context"
	"time"

	"github.com/matzehuels/erlayout/pkg/observability"
)

// Observed wraps c so every lookup and write is reported to the registered
// observability.CacheHooks, labelled by KeyType.
func Observed(c Cache) Cache {
	if c == nil {
		c = NewNullCache()
	}
	return &observed{Cache: c}
}

type observed struct {
	Cache
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

// Clear forwards to the wrapped backend when it supports clearing.
func (o *observed) Clear(ctx context.Context) (int, error) {
	if cl, ok := o.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}
