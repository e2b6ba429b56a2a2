// Package state captures and restores user-facing browsing state: the
// active search query, the navigation selection, and the set of expanded
// containers. Snapshots cover view state only, never graph data; restoring
// one replays collapse state onto whatever graph is currently loaded.
package state

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/flowscope/pkg/hgraph"
	"github.com/matzehuels/flowscope/pkg/hgraph/collapse"
)

// SnapshotVersion is the current serialization version. Restore rejects
// anything else.
const SnapshotVersion = 1

// Snapshot is one versioned browsing-state record.
type Snapshot struct {
	Version   int       `json:"version"`
	Query     string    `json:"query,omitempty"`
	Selection string    `json:"selection,omitempty"`
	Expanded  []string  `json:"expanded,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a snapshot by name. Returns nil, nil if it does not
	// exist.
	Get(ctx context.Context, name string) (*Snapshot, error)

	// Set stores a snapshot under a name, replacing any previous one.
	Set(ctx context.Context, name string, snap *Snapshot) error

	// Delete removes a snapshot. Deleting a missing snapshot is not an
	// error.
	Delete(ctx context.Context, name string) error

	// List returns the stored snapshot names.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Capture records the current browsing state. The expanded set lists every
// container that is not collapsed, in hierarchy order.
func Capture(s *hgraph.Store, query, selection string) *Snapshot {
	var expanded []string
	for _, id := range s.PreOrder() {
		if c, ok := s.Container(id); ok && !c.Collapsed {
			expanded = append(expanded, id)
		}
	}
	return &Snapshot{
		Version:   SnapshotVersion,
		Query:     query,
		Selection: selection,
		Expanded:  expanded,
		SavedAt:   time.Now().UTC(),
	}
}

// Restore parses a serialized snapshot. Malformed JSON or an unrecognized
// version returns (nil, false) rather than an error: a stale snapshot is
// discarded, not fatal.
func Restore(data []byte) (*Snapshot, bool) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	if snap.Version != SnapshotVersion {
		return nil, false
	}
	return &snap, true
}

// Encode serializes the snapshot.
func (sn *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(sn, "", "  ")
}

// Apply replays the snapshot's collapse state onto the live graph:
// everything collapses, then the recorded expanded set reopens top-down.
// Containers in the set that no longer exist, or whose ancestors stayed
// collapsed, are skipped. System origin throughout: restoring a snapshot
// is not a user preference change.
func (sn *Snapshot) Apply(ops *collapse.Ops) error {
	if err := ops.CollapseAll(collapse.OriginSystem); err != nil {
		return err
	}
	expanded := make(map[string]struct{}, len(sn.Expanded))
	for _, id := range sn.Expanded {
		expanded[id] = struct{}{}
	}
	for _, id := range ops.Store().PreOrder() {
		if _, want := expanded[id]; !want {
			continue
		}
		if _, ok := ops.Store().Container(id); !ok {
			continue
		}
		// A refused precondition leaves the entry collapsed, which is the
		// right outcome when its ancestor was not in the expanded set.
		if _, err := ops.Expand(id, collapse.OriginSystem); err != nil {
			return err
		}
	}
	return nil
}
