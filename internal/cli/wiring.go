package cli

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/coordinator"
	"github.com/matzehuels/flowscope/pkg/graphio"
	"github.com/matzehuels/flowscope/pkg/hgraph"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/state"
)

// =============================================================================
// Component Factories
// =============================================================================

// loadGraph reads a graph document and reports basic stats.
func (c *CLI) loadGraph(path string) (*hgraph.Store, error) {
	prog := newProgress(c.Logger)
	s, err := graphio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d nodes, %d containers, %d edges",
		s.NodeCount(), s.ContainerCount(), s.EdgeCount()))
	return s, nil
}

// newCache builds the layout cache from configuration. Backend failures
// degrade to no caching rather than blocking startup.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	switch c.config.Cache.Backend {
	case "none":
		return cache.NewNullCache()
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.config.Cache.RedisAddr,
			Password: c.config.Cache.RedisPassword,
			DB:       c.config.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "error", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		dir := c.config.Cache.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache()
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "error", err)
			return cache.NewNullCache()
		}
		return fc
	}
}

// newCoordinator wires a coordinator with the configured engine, cache,
// and view defaults.
func (c *CLI) newCoordinator(ctx context.Context, s *hgraph.Store, noCache bool) (*coordinator.Coordinator, error) {
	renderer := render.New(c.Logger)
	if err := renderer.SetPalette(c.config.View.Palette); err != nil {
		return nil, err
	}
	if err := renderer.SetEdgeStyle(c.config.View.EdgeStyle); err != nil {
		return nil, err
	}

	// Algorithm switches go through the same factory so the cache
	// wrapper survives them.
	backend := c.newCache(ctx, noCache)
	newEngine := func(algorithm string) layout.Engine {
		return layout.NewCachedEngine(
			layout.NewGraphviz(algorithm, c.Logger),
			backend,
			layout.CachedOptions{Logger: c.Logger},
		)
	}

	coord, err := coordinator.New(coordinator.Config{
		Store:         s,
		Engine:        newEngine(c.config.View.Algorithm),
		EngineFactory: newEngine,
		Renderer:      renderer,
		Logger:        c.Logger,
	})
	if err != nil {
		return nil, err
	}
	if !c.config.View.SmartCollapseEnabled() {
		coord.Ops().DisableSmartCollapse()
	}
	return coord, nil
}

// newSnapshotStore builds the snapshot store from configuration.
func (c *CLI) newSnapshotStore(ctx context.Context) (state.Store, error) {
	if c.config.Snapshots.Backend == "mongo" {
		return state.NewMongoStore(ctx, state.MongoConfig{
			URI:        c.config.Snapshots.MongoURI,
			Database:   c.config.Snapshots.MongoDatabase,
			Collection: c.config.Snapshots.MongoCollection,
		})
	}
	return state.NewFileStore(c.config.Snapshots.Dir)
}
