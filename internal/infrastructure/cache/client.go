// Package cache is a cache-aside client over ports.KeyValueStore with three
// read strategies: null caching (pass-through), mutex rebuild and logical
// expiry. Values are stored in a versioned envelope; an empty stored value
// means "known not to exist".
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/metrics"
	"github.com/Baize0412/hm-dianping/internal/utils"
)

// MissPolicy is what a logical-expiry read does when the key is absent.
type MissPolicy string

const (
	// MissLoad populates the entry synchronously, once per process per key.
	MissLoad MissPolicy = "load"
	// MissNotFound reports not found and relies on entries being warmed.
	MissNotFound MissPolicy = "not_found"
)

const (
	strategyPassThrough = "passthrough"
	strategyMutex       = "mutex"
	strategyLogical     = "logical"
)

type Config struct {
	NullTTL           time.Duration
	TTLJitter         time.Duration
	LockLease         time.Duration
	MutexBackoff      time.Duration
	MutexMaxAttempts  int
	LogicalMissPolicy MissPolicy
	// LoadTimeout bounds a shared load, which outlives the caller that
	// started it.
	LoadTimeout time.Duration
}

type Deps struct {
	Store  ports.KeyValueStore
	Locker ports.Locker
	Runner ports.TaskRunner
	Clock  ports.Clock
}

// Client holds the shared collaborators. The read operations are package
// functions because they are generic over the cached type.
type Client struct {
	store  ports.KeyValueStore
	locker ports.Locker
	runner ports.TaskRunner
	clock  ports.Clock
	cfg    Config
	logger *logrus.Logger
	fill   singleflight.Group
	cold   singleflight.Group
}

func New(cfg Config, deps Deps, logger *logrus.Logger) *Client {
	if cfg.NullTTL <= 0 {
		cfg.NullTTL = 2 * time.Minute
	}
	if cfg.LockLease <= 0 {
		cfg.LockLease = 10 * time.Second
	}
	if cfg.MutexBackoff <= 0 {
		cfg.MutexBackoff = 50 * time.Millisecond
	}
	if cfg.MutexMaxAttempts <= 0 {
		cfg.MutexMaxAttempts = 40
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Second
	}
	if cfg.LogicalMissPolicy == "" {
		cfg.LogicalMissPolicy = MissLoad
	}
	if deps.Clock == nil {
		deps.Clock = utils.SystemClock{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		store:  deps.Store,
		locker: deps.Locker,
		runner: deps.Runner,
		clock:  deps.Clock,
		cfg:    cfg,
		logger: logger,
	}
}

// Source describes one family of cached values: where they live, how they
// are encoded and how to load them from the source of truth.
type Source[ID any, V any] struct {
	// KeyPrefix is prepended to the id to form the cache key, e.g. "cache:shop:".
	KeyPrefix string
	// LockPrefix names rebuild locks; it defaults to KeyPrefix.
	LockPrefix string
	// Schema is stored with every entry; entries with another tag are misses.
	Schema string
	Codec  Codec[V]
	// TTL applies to plain entries and gets jitter added on write.
	TTL time.Duration
	// TTLJitter bounds the random addend on TTL. When zero it is a tenth of
	// TTL, capped at Config.TTLJitter.
	TTLJitter time.Duration
	// LogicalTTL is how long a logical-expiry entry stays fresh.
	LogicalTTL time.Duration
	// Load reads the source of truth. found=false means the id does not exist.
	Load func(ctx context.Context, id ID) (v V, found bool, err error)
}

func (s Source[ID, V]) Key(id ID) string {
	return s.KeyPrefix + fmt.Sprint(id)
}

func (s Source[ID, V]) jitterBound(max time.Duration) time.Duration {
	if s.TTLJitter > 0 {
		return s.TTLJitter
	}
	if b := s.TTL / 10; b < max {
		return b
	}
	return max
}

func (s Source[ID, V]) lockName(id ID) string {
	if s.LockPrefix == "" {
		return s.KeyPrefix + fmt.Sprint(id)
	}
	return s.LockPrefix + fmt.Sprint(id)
}

type lookup int

const (
	lookupMiss lookup = iota
	lookupNull
	lookupHit
)

func (l lookup) String() string {
	switch l {
	case lookupNull:
		return "null"
	case lookupHit:
		return "hit"
	default:
		return "miss"
	}
}

// readPlain reads a plain entry. Undecodable entries are reported as misses.
func readPlain[ID, V any](ctx context.Context, c *Client, src Source[ID, V], key string) (V, lookup, error) {
	var zero V
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return zero, lookupMiss, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !ok {
		return zero, lookupMiss, nil
	}
	if len(raw) == 0 {
		return zero, lookupNull, nil
	}
	v, err := decodeValue(src, raw, kindPlain)
	if err != nil {
		c.decodeFailed(key, err)
		return zero, lookupMiss, nil
	}
	return v, lookupHit, nil
}

func decodeValue[ID, V any](src Source[ID, V], raw []byte, kind byte) (V, error) {
	v, _, err := decodeEntry(src, raw, kind)
	return v, err
}

func decodeEntry[ID, V any](src Source[ID, V], raw []byte, kind byte) (V, time.Time, error) {
	var zero V
	env, err := decodeEnvelope(raw, kind, src.Schema)
	if err != nil {
		return zero, time.Time{}, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	v, err := src.Codec.Decode(env.payload)
	if err != nil {
		return zero, time.Time{}, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	return v, env.expireAt, nil
}

func encodeValue[ID, V any](src Source[ID, V], v V, kind byte, expireAt time.Time) ([]byte, error) {
	payload, err := src.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("cache encode %s: %w", src.Schema, err)
	}
	return encodeEnvelope(envelope{kind: kind, schema: src.Schema, expireAt: expireAt, payload: payload})
}

func (c *Client) decodeFailed(key string, err error) {
	metrics.CacheDecodeFailure()
	c.logger.WithError(err).WithField("key", key).Warn("cache entry undecodable, treating as miss")
}

type sharedResult[V any] struct {
	v     V
	found bool
}

// shareLoad runs fn once for all concurrent callers of key. The shared call
// runs detached from the caller that started it, bounded by LoadTimeout, and
// each caller stops waiting when its own ctx ends.
func shareLoad[V any](ctx context.Context, c *Client, g *singleflight.Group, key string, fn func(ctx context.Context) (V, bool, error)) (V, bool, error) {
	var zero V
	ch := g.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.LoadTimeout)
		defer cancel()
		v, found, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		return sharedResult[V]{v: v, found: found}, nil
	})
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, false, r.Err
		}
		res := r.Val.(sharedResult[V])
		return res.v, res.found, nil
	}
}

// loadAndFill loads a missed plain entry once per key among concurrent
// callers in this process.
func loadAndFill[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, key string) (V, bool, error) {
	return shareLoad(ctx, c, &c.fill, key, func(ctx context.Context) (V, bool, error) {
		// a load that finished after our miss has already filled the key
		if v, state, err := readPlain(ctx, c, src, key); err == nil {
			switch state {
			case lookupHit:
				return v, true, nil
			case lookupNull:
				return v, false, nil
			}
		}
		return fillPlain(ctx, c, src, id, key)
	})
}

// fillPlain calls the loader and writes the result as a plain entry, or a
// null marker when the id does not exist. A failed cache write is logged; the
// loaded value is still returned.
func fillPlain[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, key string) (V, bool, error) {
	var zero V
	v, found, err := src.Load(ctx, id)
	if err != nil {
		return zero, false, &LoaderError{Key: key, Err: err}
	}
	if !found {
		if err := c.store.Set(ctx, key, []byte{}, c.cfg.NullTTL); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("failed to write cache null marker")
		}
		return zero, false, nil
	}
	if err := setPlain(ctx, c, src, key, v); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("failed to fill cache")
	}
	return v, true, nil
}

func setPlain[ID, V any](ctx context.Context, c *Client, src Source[ID, V], key string, v V) error {
	b, err := encodeValue(src, v, kindPlain, time.Time{})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, b, src.TTL+utils.Jitter(src.jitterBound(c.cfg.TTLJitter)))
}

// Set writes v as a plain entry with the source TTL plus jitter.
func Set[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, v V) error {
	return setPlain(ctx, c, src, src.Key(id), v)
}

// Invalidate deletes the cached entry for id. Callers commit the source of
// truth first and delete afterwards.
func Invalidate[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID) error {
	return c.Invalidate(ctx, src.Key(id))
}

// Invalidate deletes key whatever strategy wrote it.
func (c *Client) Invalidate(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", key, err)
	}
	return nil
}

// release frees a rebuild lock even if the caller's context is already done.
func (c *Client) release(ctx context.Context, token ports.LockToken) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.LockLease)
	defer cancel()
	if err := c.locker.Unlock(ctx, token); err != nil {
		c.logger.WithError(err).WithField("lock", token.Key).Warn("failed to release cache lock")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
