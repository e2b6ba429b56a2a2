package coordinator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/hgraph"
	"github.com/matzehuels/flowscope/pkg/hgraph/collapse"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/search"
)

// Operation type names as they appear in queue status and logs.
const (
	OpPipeline        = "pipeline"
	OpCollapse        = "collapse_container"
	OpExpand          = "expand_container"
	OpCollapseAll     = "collapse_all"
	OpExpandAll       = "expand_all"
	OpSearch          = "update_search_results"
	OpPalette         = "update_color_palette"
	OpEdgeStyle       = "update_edge_style"
	OpLayoutAlgorithm = "update_layout_algorithm"
	OpFocus           = "focus_node"
)

// Fit defaults.
const (
	// DefaultFitTimeout bounds the wait for non-degenerate positions
	// before a viewport fit.
	DefaultFitTimeout = 2 * time.Second

	fitPollInterval = 20 * time.Millisecond
)

// Config wires a Coordinator. Store is required; everything else has a
// working default.
type Config struct {
	Store    *hgraph.Store
	Engine   layout.Engine
	Renderer *render.Renderer
	Index    *search.Index

	// Viewport is the live render-surface handle. Nil falls back to
	// FitFallback for fit requests.
	Viewport Viewport

	// FitFallback runs when a fit is requested but no viewport is
	// available or the direct call fails.
	FitFallback func()

	// EngineFactory builds the replacement engine for an algorithm
	// switch. Wiring that decorates Engine (caching, instrumentation)
	// must supply a factory that applies the same decoration, or the
	// decoration is lost on the first switch. Defaults to a bare
	// Graphviz engine.
	EngineFactory func(algorithm string) layout.Engine

	Logger *log.Logger
}

// PipelineOptions tune one layout-and-render pipeline run.
type PipelineOptions struct {
	// FitView requests a viewport fit once positions are usable.
	FitView bool

	// FitTimeout bounds the wait for non-degenerate positions. Zero
	// selects DefaultFitTimeout.
	FitTimeout time.Duration
}

// SearchResult is the settled value of an UpdateSearchResults operation.
type SearchResult struct {
	Matches []search.Match `json:"matches"`
	Frame   *render.Frame  `json:"frame"`
}

// ExpandResult is the settled value of an ExpandContainer operation.
type ExpandResult struct {
	Check collapse.ExpansionCheck `json:"check"`
	Frame *render.Frame           `json:"frame,omitempty"`
}

// Coordinator is the promise-style facade over the operation queue. All
// store access happens inside queued operations; callers only ever see the
// store between completed operations.
type Coordinator struct {
	queue    *Queue
	store    *hgraph.Store
	ops      *collapse.Ops
	index    *search.Index
	renderer *render.Renderer
	logger   *log.Logger

	engineFactory func(algorithm string) layout.Engine

	// Mutable coordinator state below; touched only from queued
	// operations plus the read-only accessors, guarded for the latter.
	mu          sync.Mutex
	engine      layout.Engine
	viewport    Viewport
	fitFallback func()
	layoutCount int
	highlights  render.Highlights
	lastFrame   *render.Frame
}

// New creates a coordinator and starts its queue worker.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("coordinator: Store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Engine == nil {
		cfg.Engine = layout.NewGraphviz(layout.AlgorithmDot, cfg.Logger)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New(cfg.Logger)
	}
	if cfg.Index == nil {
		cfg.Index = search.NewIndex(cfg.Store, search.Options{Logger: cfg.Logger})
	}
	if cfg.EngineFactory == nil {
		logger := cfg.Logger
		cfg.EngineFactory = func(algorithm string) layout.Engine {
			return layout.NewGraphviz(algorithm, logger)
		}
	}
	return &Coordinator{
		queue:         NewQueue(cfg.Logger),
		store:         cfg.Store,
		ops:           collapse.NewOps(cfg.Store, cfg.Logger),
		index:         cfg.Index,
		renderer:      cfg.Renderer,
		logger:        cfg.Logger,
		engineFactory: cfg.EngineFactory,
		engine:        cfg.Engine,
		viewport:      cfg.Viewport,
		fitFallback:   cfg.FitFallback,
	}, nil
}

// Queue exposes the underlying operation queue for status queries.
func (c *Coordinator) Queue() *Queue { return c.queue }

// Store returns the coordinated store. Callers must not mutate it while
// operations are queued; use the operation methods instead.
func (c *Coordinator) Store() *hgraph.Store { return c.store }

// Ops returns the collapse engine, for callers that need read-only checks
// such as ValidateExpansion.
func (c *Coordinator) Ops() *collapse.Ops { return c.ops }

// LastFrame returns the most recent render-ready frame, or nil before the
// first pipeline run.
func (c *Coordinator) LastFrame() *render.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFrame
}

// LayoutCount returns the number of completed layout passes.
func (c *Coordinator) LayoutCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layoutCount
}

// Status reports the queue status.
func (c *Coordinator) Status() Status { return c.queue.Status() }

// ClearQueue drops all not-yet-started operations, rejecting their waiters.
func (c *Coordinator) ClearQueue() int { return c.queue.ClearQueue() }

// Close drains and stops the queue.
func (c *Coordinator) Close() { c.queue.Close() }

// =============================================================================
// High-level operations
// =============================================================================

// ExecuteLayoutAndRenderPipeline queues a full pipeline run and waits for
// its frame.
func (c *Coordinator) ExecuteLayoutAndRenderPipeline(ctx context.Context, popts PipelineOptions, opts Options) (*render.Frame, error) {
	value, err := c.queue.EnqueueAndWait(ctx, OpPipeline, func(ctx context.Context) (any, error) {
		return c.runPipeline(ctx, popts)
	}, opts)
	if err != nil {
		return nil, err
	}
	return value.(*render.Frame), nil
}

// CollapseContainer collapses a container as a user operation and re-runs
// the pipeline.
func (c *Coordinator) CollapseContainer(ctx context.Context, id string) (*render.Frame, error) {
	value, err := c.queue.EnqueueAndWait(ctx, OpCollapse, func(ctx context.Context) (any, error) {
		if err := c.ops.Collapse(id, collapse.OriginUser); err != nil {
			return nil, err
		}
		return c.runPipeline(ctx, PipelineOptions{})
	}, Options{})
	if err != nil {
		return nil, err
	}
	return value.(*render.Frame), nil
}

// ExpandContainer expands a container as a user operation. A refused
// precondition check is not an error: the result carries the check and no
// frame, and the store is untouched.
func (c *Coordinator) ExpandContainer(ctx context.Context, id string) (*ExpandResult, error) {
	value, err := c.queue.EnqueueAndWait(ctx, OpExpand, func(ctx context.Context) (any, error) {
		check, err := c.ops.Expand(id, collapse.OriginUser)
		if err != nil {
			return nil, err
		}
		if !check.CanExpand {
			return &ExpandResult{Check: check}, nil
		}
		if audit := c.ops.PostExpansionEdgeValidation(id); len(audit.Invalid) > 0 {
			c.logger.Warn("invalid edges after expand", "container", id, "count", len(audit.Invalid))
		}
		frame, err := c.runPipeline(ctx, PipelineOptions{})
		if err != nil {
			return nil, err
		}
		return &ExpandResult{Check: check, Frame: frame}, nil
	}, Options{})
	if err != nil {
		return nil, err
	}
	return value.(*ExpandResult), nil
}

// CollapseAllContainers collapses every container and re-runs the pipeline.
func (c *Coordinator) CollapseAllContainers(ctx context.Context) (*render.Frame, error) {
	return c.bulkOp(ctx, OpCollapseAll, func() error {
		return c.ops.CollapseAll(collapse.OriginUser)
	})
}

// ExpandAllContainers expands every container and re-runs the pipeline.
func (c *Coordinator) ExpandAllContainers(ctx context.Context) (*render.Frame, error) {
	return c.bulkOp(ctx, OpExpandAll, func() error {
		return c.ops.ExpandAll(collapse.OriginUser)
	})
}

func (c *Coordinator) bulkOp(ctx context.Context, typ string, mutate func() error) (*render.Frame, error) {
	value, err := c.queue.EnqueueAndWait(ctx, typ, func(ctx context.Context) (any, error) {
		if err := mutate(); err != nil {
			return nil, err
		}
		return c.runPipeline(ctx, PipelineOptions{})
	}, Options{})
	if err != nil {
		return nil, err
	}
	return value.(*render.Frame), nil
}

// UpdateSearchResults evaluates the query, expands collapsed ancestors of
// every match so the hits are visible, highlights them, and re-runs the
// pipeline. An empty query clears the highlight.
func (c *Coordinator) UpdateSearchResults(ctx context.Context, query string) (*SearchResult, error) {
	value, err := c.queue.EnqueueAndWait(ctx, OpSearch, func(ctx context.Context) (any, error) {
		matches := c.index.Search(query)
		for _, m := range matches {
			if err := c.ops.ExpandForSearch(m.ID); err != nil {
				return nil, err
			}
		}

		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		c.mu.Lock()
		c.highlights.SearchMatches = ids
		c.mu.Unlock()

		frame, err := c.runPipeline(ctx, PipelineOptions{})
		if err != nil {
			return nil, err
		}
		return &SearchResult{Matches: matches, Frame: frame}, nil
	}, Options{})
	if err != nil {
		return nil, err
	}
	return value.(*SearchResult), nil
}

// UpdateColorPalette switches the renderer palette and rebuilds the frame.
// Style changes skip the layout pass: positions are unaffected.
func (c *Coordinator) UpdateColorPalette(ctx context.Context, name string) (*render.Frame, error) {
	return c.styleOp(ctx, OpPalette, func() error {
		return c.renderer.SetPalette(name)
	})
}

// UpdateEdgeStyle switches the edge drawing style and rebuilds the frame.
func (c *Coordinator) UpdateEdgeStyle(ctx context.Context, name string) (*render.Frame, error) {
	return c.styleOp(ctx, OpEdgeStyle, func() error {
		return c.renderer.SetEdgeStyle(name)
	})
}

func (c *Coordinator) styleOp(ctx context.Context, typ string, apply func() error) (*render.Frame, error) {
	value, err := c.queue.EnqueueAndWait(ctx, typ, func(ctx context.Context) (any, error) {
		if err := apply(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "style update rejected")
		}
		return c.renderPass(ctx), nil
	}, Options{})
	if err != nil {
		return nil, err
	}
	return value.(*render.Frame), nil
}

// UpdateLayoutAlgorithm swaps the layout engine, via the configured
// factory, and re-runs the pipeline.
func (c *Coordinator) UpdateLayoutAlgorithm(ctx context.Context, algorithm string) (*render.Frame, error) {
	value, err := c.queue.EnqueueAndWait(ctx, OpLayoutAlgorithm, func(ctx context.Context) (any, error) {
		if !layout.ValidAlgorithms[algorithm] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown layout algorithm %q", algorithm)
		}
		c.mu.Lock()
		c.engine = c.engineFactory(algorithm)
		c.mu.Unlock()
		return c.runPipeline(ctx, PipelineOptions{FitView: true})
	}, Options{})
	if err != nil {
		return nil, err
	}
	return value.(*render.Frame), nil
}

// FocusNode centers the viewport on an entity and highlights it. Hidden
// targets are revealed first via search-style expansion.
func (c *Coordinator) FocusNode(ctx context.Context, id string) (*render.Frame, error) {
	value, err := c.queue.EnqueueAndWait(ctx, OpFocus, func(ctx context.Context) (any, error) {
		if !c.entityExists(id) {
			return nil, errors.New(errors.ErrCodeNotFound, "entity %s does not exist", id)
		}
		revealed := !c.store.Visible(id)
		if revealed {
			if err := c.ops.ExpandForSearch(id); err != nil {
				return nil, err
			}
		}

		c.mu.Lock()
		c.highlights.FocusTarget = id
		c.mu.Unlock()

		var frame *render.Frame
		if revealed {
			f, err := c.runPipeline(ctx, PipelineOptions{})
			if err != nil {
				return nil, err
			}
			frame = f
		} else {
			frame = c.renderPass(ctx)
		}

		c.centerOn(id)
		return frame, nil
	}, Options{})
	if err != nil {
		return nil, err
	}
	return value.(*render.Frame), nil
}

func (c *Coordinator) entityExists(id string) bool {
	if _, ok := c.store.Node(id); ok {
		return true
	}
	_, ok := c.store.Container(id)
	return ok
}

// centerOn moves the viewport to an entity's placement center, preferring
// the surface's own coordinates when it knows the entity.
func (c *Coordinator) centerOn(id string) {
	c.mu.Lock()
	vp := c.viewport
	fallback := c.fitFallback
	c.mu.Unlock()

	rect, ok := c.placementOf(id)
	if vp != nil {
		if r, known := vp.GetNode(id); known {
			rect, ok = r, true
		}
		if ok {
			if err := vp.SetCenter(rect.X+rect.Width/2, rect.Y+rect.Height/2, ViewOptions{Animate: true}); err == nil {
				return
			}
		}
	}
	if fallback != nil {
		fallback()
	}
}

func (c *Coordinator) placementOf(id string) (hgraph.Rect, bool) {
	if n, ok := c.store.Node(id); ok && n.Placement != nil {
		return *n.Placement, true
	}
	if ct, ok := c.store.Container(id); ok && ct.Placement != nil {
		return *ct.Placement, true
	}
	return hgraph.Rect{}, false
}

// =============================================================================
// Pipeline internals
// =============================================================================

// runPipeline executes one layout-and-render pass. It must only run from
// inside a queued operation.
func (c *Coordinator) runPipeline(ctx context.Context, popts PipelineOptions) (*render.Frame, error) {
	c.mu.Lock()
	engine := c.engine
	count := c.layoutCount
	c.mu.Unlock()

	if collapsed, err := c.ops.SmartCollapse(count); err != nil {
		return nil, err
	} else if len(collapsed) > 0 {
		observability.Pipeline().OnSmartCollapse(ctx, collapsed)
	}

	algorithm := ""
	if named, ok := engine.(interface{ Algorithm() string }); ok {
		algorithm = named.Algorithm()
	}
	visible := len(c.store.VisibleNodes()) + len(c.store.VisibleContainers())
	observability.Pipeline().OnLayoutStart(ctx, algorithm, visible)
	started := time.Now()
	result, err := engine.Layout(ctx, c.store)
	observability.Pipeline().OnLayoutComplete(ctx, algorithm, time.Since(started), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed, err, "layout pass failed")
	}
	layout.Apply(c.store, result)

	c.mu.Lock()
	c.layoutCount++
	c.mu.Unlock()

	frame := c.renderPass(ctx)

	if popts.FitView {
		c.fitView(result, popts.FitTimeout)
	}
	return frame, nil
}

// renderPass builds a frame from the current store state and records it as
// the latest.
func (c *Coordinator) renderPass(ctx context.Context) *render.Frame {
	c.mu.Lock()
	hl := c.highlights
	c.mu.Unlock()

	observability.Pipeline().OnRenderStart(ctx, len(c.store.VisibleNodes()))
	started := time.Now()
	frame := c.renderer.Frame(c.store, hl)
	observability.Pipeline().OnRenderComplete(ctx, len(frame.Nodes), len(frame.Edges), time.Since(started), nil)

	c.mu.Lock()
	c.lastFrame = frame
	c.mu.Unlock()
	return frame
}

// fitView waits (bounded) for the render surface to pick up usable
// positions, then asks it to fit. No viewport, a degenerate layout, or a
// failed direct call all fall back to the registered callback.
func (c *Coordinator) fitView(result *layout.Result, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultFitTimeout
	}
	c.mu.Lock()
	vp := c.viewport
	fallback := c.fitFallback
	c.mu.Unlock()

	if vp == nil || layout.Degenerate(result) {
		if fallback != nil {
			fallback()
		}
		return
	}

	// The surface applies frames asynchronously; wait until it reports a
	// sized node from this layout before fitting.
	deadline := time.Now().Add(timeout)
	for !surfaceReady(vp, result) && time.Now().Before(deadline) {
		time.Sleep(fitPollInterval)
	}

	if err := vp.FitView(ViewOptions{Padding: 40}); err == nil {
		return
	}
	c.logger.Warn("direct fit failed, using fallback")
	if fallback != nil {
		fallback()
	}
}

func surfaceReady(vp Viewport, result *layout.Result) bool {
	for id := range result.Items {
		if r, ok := vp.GetNode(id); ok && (r.Width > 0 || r.Height > 0) {
			return true
		}
	}
	return false
}
