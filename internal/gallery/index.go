package gallery

import (
	"github.com/coder/hnsw"
)

// indexMaxNeighbors is the HNSW M parameter.
const indexMaxNeighbors = 16

// Index is an optional HNSW graph over the gallery used to prefilter
// match candidates when the gallery is large. Keys are entry positions,
// not identity ids, so identities with several reference embeddings
// keep every embedding searchable.
type Index struct {
	graph *hnsw.Graph[int64]
	store *Store
}

// EnableIndex builds the HNSW index. Safe to call once at startup,
// before the store is shared.
func (s *Store) EnableIndex() {
	g := hnsw.NewGraph[int64]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	for i := range s.entries {
		g.Add(hnsw.MakeNode(int64(i), s.entries[i].Vector))
	}

	s.index = &Index{graph: g, store: s}
}

// Index returns the HNSW index, or nil when disabled.
func (s *Store) Index() *Index {
	return s.index
}

// Nearest returns up to k entries closest to the query.
func (ix *Index) Nearest(query []float32, k int) []Entry {
	neighbors := ix.graph.Search(query, k)
	entries := make([]Entry, 0, len(neighbors))
	for _, n := range neighbors {
		entries = append(entries, ix.store.entries[n.Key])
	}
	return entries
}
