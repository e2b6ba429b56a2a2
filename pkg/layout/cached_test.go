package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/hgraph"
)

type countingEngine struct {
	calls int
}

func (e *countingEngine) Algorithm() string { return "dot" }

func (e *countingEngine) Layout(ctx context.Context, s *hgraph.Store) (*Result, error) {
	e.calls++
	return &Result{Items: map[string]hgraph.Rect{
		"a": {X: 10, Y: 20, Width: 180, Height: 90},
	}}, nil
}

func TestCachedEngineHitsOnRepeatLayout(t *testing.T) {
	ctx := context.Background()
	s := buildStore(t)
	inner := &countingEngine{}

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	eng := NewCachedEngine(inner, c, CachedOptions{})

	r1, err := eng.Layout(ctx, s)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	r2, err := eng.Layout(ctx, s)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner engine ran %d times, want 1", inner.calls)
	}
	if r1.Items["a"] != r2.Items["a"] {
		t.Errorf("cached result differs: %+v vs %+v", r1.Items["a"], r2.Items["a"])
	}
}

func TestCachedEngineMissesAfterGraphChange(t *testing.T) {
	ctx := context.Background()
	s := buildStore(t)
	inner := &countingEngine{}

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	eng := NewCachedEngine(inner, c, CachedOptions{})

	if _, err := eng.Layout(ctx, s); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	// A new visible node changes the DOT source, so the key changes.
	if err := s.AddNode(hgraph.Node{ID: "fresh", Label: "Fresh"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := eng.Layout(ctx, s); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner engine ran %d times, want 2", inner.calls)
	}
}

func TestCachedEngineNilCacheDegradesToInner(t *testing.T) {
	ctx := context.Background()
	s := buildStore(t)
	inner := &countingEngine{}
	eng := NewCachedEngine(inner, nil, CachedOptions{})

	for i := 0; i < 2; i++ {
		if _, err := eng.Layout(ctx, s); err != nil {
			t.Fatalf("Layout: %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("null cache should never hit, inner ran %d times", inner.calls)
	}
}
