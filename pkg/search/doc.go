// Package search matches queries against node and container labels and
// ranks the results by hierarchy pre-order position, so a result list
// mirrors the tree layout instead of jumping around by match confidence.
//
// An Index memoizes query results in a bounded LRU keyed by the store's
// version counter; any structural mutation invalidates the whole cache on
// the next lookup. The Debouncer coalesces rapid keystrokes into a single
// evaluation after an idle window.
package search
