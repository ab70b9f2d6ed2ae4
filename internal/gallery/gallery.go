// Package gallery holds the in-memory set of enrolled reference
// embeddings the matcher scans. The gallery is loaded once at startup
// from a snapshot file and never mutated afterwards, so it is safe for
// any number of concurrent readers without locking.
package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// SnapshotVersion is the only snapshot format version this build reads.
const SnapshotVersion = 1

// ErrLoad marks snapshot problems. The server treats it as fatal: it
// cannot serve without a gallery.
var ErrLoad = errors.New("gallery load failed")

// Snapshot is the serialized gallery format: two parallel sequences of
// identity ids and reference vectors.
type Snapshot struct {
	Version     int         `json:"version"`
	Dim         int         `json:"dim"`
	IdentityIDs []int64     `json:"identity_ids"`
	Vectors     [][]float32 `json:"vectors"`
}

// Entry is one reference embedding and its owning identity. One
// identity may own several entries (multiple enrollment photos).
type Entry struct {
	IdentityID int64
	Vector     []float32
}

// Store is the read-only gallery loaded for the process lifetime.
type Store struct {
	dim     int
	entries []Entry
	index   *Index
}

// Load reads and validates a snapshot. Any structural problem wraps
// ErrLoad: bad JSON, unsupported version, mismatched parallel lengths,
// or a vector whose length disagrees with the declared dimension.
func Load(r io.Reader) (*Store, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot: %v", ErrLoad, err)
	}
	return FromSnapshot(&snap)
}

// LoadFile opens and loads a snapshot from disk.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening snapshot: %v", ErrLoad, err)
	}
	defer f.Close()
	return Load(f)
}

// FromSnapshot validates an already-decoded snapshot and builds a store.
func FromSnapshot(snap *Snapshot) (*Store, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrLoad, snap.Version)
	}
	if len(snap.IdentityIDs) != len(snap.Vectors) {
		return nil, fmt.Errorf("%w: %d identity ids but %d vectors",
			ErrLoad, len(snap.IdentityIDs), len(snap.Vectors))
	}
	if snap.Dim <= 0 {
		return nil, fmt.Errorf("%w: non-positive embedding dimension %d", ErrLoad, snap.Dim)
	}

	entries := make([]Entry, len(snap.Vectors))
	for i, vec := range snap.Vectors {
		if len(vec) != snap.Dim {
			return nil, fmt.Errorf("%w: vector %d has length %d, want %d",
				ErrLoad, i, len(vec), snap.Dim)
		}
		entries[i] = Entry{IdentityID: snap.IdentityIDs[i], Vector: vec}
	}

	return &Store{dim: snap.Dim, entries: entries}, nil
}

// Entries returns all reference embeddings. Callers must not modify the
// returned slice or the vectors it holds.
func (s *Store) Entries() []Entry {
	return s.entries
}

// Dim returns the embedding dimension.
func (s *Store) Dim() int {
	return s.dim
}

// Len returns the number of reference embeddings.
func (s *Store) Len() int {
	return len(s.entries)
}

// Identities returns the number of distinct enrolled identities.
func (s *Store) Identities() int {
	seen := make(map[int64]bool, len(s.entries))
	for _, e := range s.entries {
		seen[e.IdentityID] = true
	}
	return len(seen)
}
