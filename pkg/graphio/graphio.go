package graphio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// Marshal converts a store to JSON bytes.
// Entities are sorted by ID for deterministic output.
func Marshal(s *hgraph.Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a store to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(s *hgraph.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(s, f)
}

// Write writes a store as JSON to an io.Writer.
// Use Marshal for in-memory serialization or WriteFile for files.
func Write(s *hgraph.Store, w io.Writer) error {
	return writeTo(s, w)
}

// ReadFile reads a JSON file and returns the populated store.
// Returns validation errors for malformed documents or broken references.
func ReadFile(path string) (*hgraph.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

// Read decodes a JSON document from an io.Reader into a store.
// Use ReadFile for files or pass bytes.NewReader for in-memory data.
func Read(r io.Reader) (*hgraph.Store, error) {
	return readFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeTo(s *hgraph.Store, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromStore(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (*hgraph.Store, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToStore(doc, log.Default())
}
