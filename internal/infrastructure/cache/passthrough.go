package cache

import (
	"context"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/metrics"
)

// GetWithPassThrough reads id with null caching: a hit is decoded, a cached
// not-found marker answers without the loader, and a miss loads and fills.
func GetWithPassThrough[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID) (V, bool, error) {
	key := src.Key(id)
	v, state, err := readPlain(ctx, c, src, key)
	if err != nil {
		metrics.CacheLookup(strategyPassThrough, "error")
		return v, false, err
	}
	metrics.CacheLookup(strategyPassThrough, state.String())
	switch state {
	case lookupHit:
		return v, true, nil
	case lookupNull:
		return v, false, nil
	}
	return loadAndFill(ctx, c, src, id, key)
}
