package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// DefaultLayoutTTL bounds how long cached layout results live. Entries
// are content-addressed so staleness only wastes space, never serves a
// wrong placement.
const DefaultLayoutTTL = 24 * time.Hour

// CachedEngine wraps an Engine with a byte cache. The key is derived
// from the DOT rendering of the visible graph, so any change to the
// visible entity set, labels, or collapse state produces a fresh key.
type CachedEngine struct {
	inner  Engine
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// CachedOptions configures a CachedEngine.
type CachedOptions struct {
	// Keyer generates cache keys. Defaults to the standard keyer.
	Keyer cache.Keyer

	// TTL is the entry lifetime. Defaults to DefaultLayoutTTL.
	TTL time.Duration

	// Logger receives cache failure warnings. Defaults to the package default.
	Logger *log.Logger
}

// NewCachedEngine wraps an engine with layout-result caching.
// Cache failures degrade to running the inner engine, never to errors.
func NewCachedEngine(inner Engine, c cache.Cache, opts CachedOptions) *CachedEngine {
	if c == nil {
		c = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultLayoutTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &CachedEngine{
		inner:  inner,
		cache:  cache.Instrumented(c),
		keyer:  opts.Keyer,
		ttl:    opts.TTL,
		logger: opts.Logger,
	}
}

// Algorithm reports the inner engine's algorithm when it exposes one.
func (e *CachedEngine) Algorithm() string {
	if a, ok := e.inner.(interface{ Algorithm() string }); ok {
		return a.Algorithm()
	}
	return ""
}

// Layout returns a cached result when the visible graph and algorithm
// match a prior run, and delegates to the inner engine otherwise.
func (e *CachedEngine) Layout(ctx context.Context, s *hgraph.Store) (*Result, error) {
	key := e.keyer.LayoutKey(
		cache.Hash([]byte(BuildDOT(s))),
		cache.LayoutKeyOpts{Algorithm: e.Algorithm()},
	)

	if data, hit, err := e.cache.Get(ctx, key); err != nil {
		e.logger.Warn("layout cache read failed", "error", err)
	} else if hit {
		var r Result
		if err := json.Unmarshal(data, &r); err == nil {
			return &r, nil
		}
		// Corrupt entry, drop it and recompute.
		_ = e.cache.Delete(ctx, key)
	}

	r, err := e.inner.Layout(ctx, s)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(r); err == nil {
		if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
			e.logger.Warn("layout cache write failed", "error", err)
		}
	}
	return r, nil
}

// Ensure CachedEngine implements Engine.
var _ Engine = (*CachedEngine)(nil)
