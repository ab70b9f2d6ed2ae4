// Package matcher resolves a query embedding to an enrolled identity by
// nearest-neighbor voting over the gallery.
package matcher

import (
	"math"

	"github.com/classtrack/rollcall/internal/gallery"
)

// indexOversample is how many HNSW candidates to pull per query when the
// gallery index is enabled. Voting needs every in-tolerance reference,
// so we oversample well past the expected hit count.
const indexOversample = 32

// Result is the outcome of one match call. When Identified is false the
// face is unknown, which is a valid classification, not an error.
type Result struct {
	IdentityID int64
	Identified bool
	Votes      int
}

// Matcher matches query embeddings against a fixed gallery snapshot.
type Matcher struct {
	store     *gallery.Store
	tolerance float64
}

// New creates a matcher over the given gallery with a fixed tolerance.
func New(store *gallery.Store, tolerance float64) *Matcher {
	return &Matcher{store: store, tolerance: tolerance}
}

// EuclideanDistance computes the Euclidean distance between two vectors.
// Mismatched or empty vectors yield +Inf so they can never be a hit.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Match scans the gallery and returns the best-matching identity.
//
// A reference embedding is a hit when its distance to the query is at
// most the tolerance (inclusive: distance == tolerance still matches).
// Hits are tallied per identity and the identity with the strictly
// highest count wins. Ties are broken by the lowest identity id, which
// keeps the result deterministic regardless of gallery order.
//
// Pure function over the gallery snapshot: repeated calls with the same
// query always return the same result.
func (m *Matcher) Match(query []float32) Result {
	entries := m.candidates(query)

	votes := make(map[int64]int)
	for _, e := range entries {
		if EuclideanDistance(query, e.Vector) <= m.tolerance {
			votes[e.IdentityID]++
		}
	}
	if len(votes) == 0 {
		return Result{}
	}

	var best int64
	bestVotes := -1
	for id, n := range votes {
		if n > bestVotes || (n == bestVotes && id < best) {
			best = id
			bestVotes = n
		}
	}
	return Result{IdentityID: best, Identified: true, Votes: bestVotes}
}

// candidates returns the gallery entries to score: the HNSW neighborhood
// when the index is enabled, otherwise the full gallery.
func (m *Matcher) candidates(query []float32) []gallery.Entry {
	if ix := m.store.Index(); ix != nil {
		k := indexOversample
		if k > m.store.Len() {
			k = m.store.Len()
		}
		return ix.Nearest(query, k)
	}
	return m.store.Entries()
}

// Tolerance returns the configured match tolerance.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}
