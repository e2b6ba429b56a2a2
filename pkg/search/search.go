package search

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// Defaults for Options fields left at their zero value.
const (
	// DefaultCacheSize bounds the query result cache.
	DefaultCacheSize = 50

	// DefaultMinSimilarity is the fuzzy-match floor: labels without a
	// substring hit must reach this normalized Levenshtein similarity.
	DefaultMinSimilarity = 0.7
)

// Kind distinguishes what a match refers to.
type Kind int

const (
	// KindNode marks a match on a node label.
	KindNode Kind = iota
	// KindContainer marks a match on a container label.
	KindContainer
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k == KindContainer {
		return "container"
	}
	return "node"
}

// Match is a single search hit. Score is informational only: result order
// is always hierarchy pre-order, never score order.
type Match struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Kind  Kind    `json:"kind"`
	Score float64 `json:"score"`
}

// Options configures an Index.
type Options struct {
	// CacheSize bounds the LRU result cache. Zero selects the default.
	CacheSize int

	// MinSimilarity is the fuzzy-match floor in [0,1]. Zero selects the
	// default; substring matches always pass regardless.
	MinSimilarity float64

	// Logger receives debug output. Nil discards.
	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = DefaultMinSimilarity
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Index performs label search over a store. Hidden entities are searchable:
// revealing a hit is the caller's job (search-driven expansion).
//
// Index is safe for concurrent use.
type Index struct {
	store *hgraph.Store
	opts  Options

	mu      sync.Mutex
	cache   *lru.Cache[string, []Match]
	version uint64
}

// NewIndex creates a search index over the store.
func NewIndex(store *hgraph.Store, opts Options) *Index {
	opts.setDefaults()
	cache, err := lru.New[string, []Match](opts.CacheSize)
	if err != nil {
		// Size is validated positive above; lru only errors on size <= 0.
		panic(err)
	}
	return &Index{store: store, opts: opts, cache: cache, version: store.Version()}
}

// Search returns all nodes and containers whose label matches the query,
// ordered by hierarchy pre-order position. An empty or blank query returns
// nil. Results are served from the cache when the store has not changed
// since they were computed.
func (ix *Index) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if v := ix.store.Version(); v != ix.version {
		ix.cache.Purge()
		ix.version = v
	}
	if cached, ok := ix.cache.Get(q); ok {
		return cached
	}

	results := ix.scan(q)
	ix.cache.Add(q, results)
	ix.opts.Logger.Debug("search", "query", q, "results", len(results))
	return results
}

// ClearCache drops all memoized results.
func (ix *Index) ClearCache() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.cache.Purge()
}

// CacheLen returns the number of memoized queries.
func (ix *Index) CacheLen() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.cache.Len()
}

func (ix *Index) scan(q string) []Match {
	var results []Match
	for _, n := range ix.store.Nodes() {
		if score, ok := ix.score(q, n.DisplayLabel()); ok {
			results = append(results, Match{ID: n.ID, Label: n.DisplayLabel(), Kind: KindNode, Score: score})
		}
	}
	for _, c := range ix.store.Containers() {
		label := c.Label
		if label == "" {
			label = c.ID
		}
		if score, ok := ix.score(q, label); ok {
			results = append(results, Match{ID: c.ID, Label: label, Kind: KindContainer, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return ix.store.PreOrderIndex(results[i].ID) < ix.store.PreOrderIndex(results[j].ID)
	})
	return results
}

// score matches the query against one label: a substring hit scores 1.0,
// otherwise the normalized Levenshtein similarity counts when it reaches
// the configured floor.
func (ix *Index) score(q, label string) (float64, bool) {
	l := strings.ToLower(label)
	if strings.Contains(l, q) {
		return 1.0, true
	}
	sim := levenshtein.Match(q, l, levenshtein.NewParams())
	if sim >= ix.opts.MinSimilarity {
		return sim, true
	}
	return 0, false
}
