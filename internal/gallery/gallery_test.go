package gallery

import (
	"errors"
	"strings"
	"testing"
)

func validSnapshot() *Snapshot {
	return &Snapshot{
		Version:     SnapshotVersion,
		Dim:         3,
		IdentityIDs: []int64{1, 1, 2},
		Vectors: [][]float32{
			{0.1, 0.2, 0.3},
			{0.1, 0.25, 0.3},
			{0.9, 0.8, 0.7},
		},
	}
}

func TestFromSnapshot(t *testing.T) {
	store, err := FromSnapshot(validSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", store.Len())
	}
	if store.Identities() != 2 {
		t.Errorf("expected 2 identities, got %d", store.Identities())
	}
	if store.Dim() != 3 {
		t.Errorf("expected dim 3, got %d", store.Dim())
	}
	if store.Entries()[2].IdentityID != 2 {
		t.Errorf("entries out of order: %v", store.Entries())
	}
}

func TestFromSnapshotMismatchedLengths(t *testing.T) {
	snap := validSnapshot()
	snap.IdentityIDs = snap.IdentityIDs[:2]

	_, err := FromSnapshot(snap)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad for mismatched parallel lengths, got %v", err)
	}
}

func TestFromSnapshotWrongVersion(t *testing.T) {
	snap := validSnapshot()
	snap.Version = 99

	_, err := FromSnapshot(snap)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad for unsupported version, got %v", err)
	}
}

func TestFromSnapshotBadVectorLength(t *testing.T) {
	snap := validSnapshot()
	snap.Vectors[1] = []float32{0.1}

	_, err := FromSnapshot(snap)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad for short vector, got %v", err)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader("{not json"))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad for malformed JSON, got %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	raw := `{"version":1,"dim":2,"identity_ids":[7],"vectors":[[0.5,0.5]]}`
	store, err := Load(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 1 || store.Entries()[0].IdentityID != 7 {
		t.Errorf("unexpected store contents: %+v", store.Entries())
	}
}

func TestIndexNearest(t *testing.T) {
	store, err := FromSnapshot(validSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.EnableIndex()

	got := store.Index().Nearest([]float32{0.1, 0.2, 0.3}, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(got))
	}
	for _, e := range got {
		if e.IdentityID != 1 {
			t.Errorf("expected nearest neighbors to belong to identity 1, got %d", e.IdentityID)
		}
	}
}
