// Package cache provides pluggable byte caches for expensive pipeline
// stages. Layout results and rendered frames are content-addressed: the
// key is derived from a hash of the visible graph plus the options that
// shaped the output, so a cache entry is valid for as long as its inputs
// are. Backends include an on-disk cache for CLI usage, a Redis cache
// for server deployments, and a null cache for tests.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface all backends implement.
// Get returns (nil, false, nil) on a miss; errors are reserved for
// backend failures, not absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the inputs that change a layout result for the
// same visible graph.
type LayoutKeyOpts struct {
	Algorithm string `json:"algorithm"`
}

// FrameKeyOpts are the inputs that change a rendered frame for the
// same placed graph.
type FrameKeyOpts struct {
	Palette   string `json:"palette"`
	EdgeStyle string `json:"edge_style"`
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// LayoutKey generates a key for a layout result. graphHash is a
	// hash of the visible graph the engine was given.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// FrameKey generates a key for a rendered frame. layoutHash is a
	// hash of the placed graph the renderer was given.
	FrameKey(layoutHash string, opts FrameKeyOpts) string
}

// DefaultKeyer generates globally scoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// FrameKey generates a key for a rendered frame.
func (k *DefaultKeyer) FrameKey(layoutHash string, opts FrameKeyOpts) string {
	return hashKey("frame", layoutHash, opts)
}
