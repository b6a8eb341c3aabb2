package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

func mustFlat(t *testing.T, dim int) *Flat {
	t.Helper()
	ix, err := NewFlat(dim)
	if err != nil {
		t.Fatalf("NewFlat(%d): %v", dim, err)
	}
	return ix
}

func TestNewFlat_InvalidDimension(t *testing.T) {
	for _, dim := range []int{0, -1} {
		if _, err := NewFlat(dim); err == nil {
			t.Errorf("NewFlat(%d): expected error", dim)
		}
	}
}

func TestAdd_DimensionMismatch_LeavesIndexUntouched(t *testing.T) {
	ix := mustFlat(t, 2)

	if err := ix.Add([]string{"a"}, [][]float32{{1, 0}}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := ix.Add(
		[]string{"b", "c"},
		[][]float32{{0, 1}, {1, 2, 3}},
		nil,
	)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if ix.Len() != 1 {
		t.Errorf("failed add must not append partially: len=%d, want 1", ix.Len())
	}
}

func TestAdd_LengthMismatch(t *testing.T) {
	ix := mustFlat(t, 2)

	if err := ix.Add([]string{"a", "b"}, [][]float32{{1, 0}}, nil); err == nil {
		t.Error("texts/vectors length mismatch: expected error")
	}
	if err := ix.Add([]string{"a"}, [][]float32{{1, 0}}, []domain.Metadata{{}, {}}); err == nil {
		t.Error("texts/metadatas length mismatch: expected error")
	}
}

func TestSearch_OrderingAndScores(t *testing.T) {
	ix := mustFlat(t, 2)

	err := ix.Add(
		[]string{"far", "exact", "near"},
		[][]float32{{3, 4}, {0, 0}, {1, 0}},
		nil,
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := ix.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantOrder := []string{"exact", "near", "far"}
	for i, want := range wantOrder {
		if results[i].Text != want {
			t.Errorf("result %d: got %q, want %q", i, results[i].Text, want)
		}
	}

	if results[0].Score != 1.0 {
		t.Errorf("exact match score: got %v, want 1.0", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}

	// distance 1 -> score 1/(1+1)
	if got := results[1].Score; got != 0.5 {
		t.Errorf("near score: got %v, want 0.5", got)
	}
}

func TestSearch_TiesBrokenByInsertionOrder(t *testing.T) {
	ix := mustFlat(t, 2)

	err := ix.Add(
		[]string{"first", "second", "third"},
		[][]float32{{1, 0}, {0, 1}, {-1, 0}},
		nil,
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := ix.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	wantOrder := []string{"first", "second", "third"}
	for i, want := range wantOrder {
		if results[i].Text != want {
			t.Errorf("tied result %d: got %q, want %q", i, results[i].Text, want)
		}
	}
}

func TestSearch_BoundedOutput(t *testing.T) {
	ix := mustFlat(t, 2)

	err := ix.Add(
		[]string{"a", "b"},
		[][]float32{{1, 0}, {0, 1}},
		nil,
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	cases := []struct {
		k    int
		want int
	}{
		{1, 1},
		{2, 2},
		{10, 2},
		{0, 0},
	}
	for _, c := range cases {
		results, err := ix.Search([]float32{0, 0}, c.k)
		if err != nil {
			t.Fatalf("search k=%d: %v", c.k, err)
		}
		if len(results) != c.want {
			t.Errorf("search k=%d: got %d results, want %d", c.k, len(results), c.want)
		}
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	ix := mustFlat(t, 2)

	_, err := ix.Search([]float32{1, 2, 3}, 1)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attractions")

	ix := mustFlat(t, 3)
	err := ix.Add(
		[]string{"louvre", "eiffel"},
		[][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
		[]domain.Metadata{
			{"name": "Louvre", "admission_fee": 17.0},
			{"name": "Eiffel Tower", "admission_fee": 28.3},
		},
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := mustFlat(t, 3)
	if err := restored.Load(dir); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Len() != ix.Len() {
		t.Fatalf("restored len=%d, want %d", restored.Len(), ix.Len())
	}

	query := []float32{0.1, 0.2, 0.3}
	before, err := ix.Search(query, 2)
	if err != nil {
		t.Fatalf("search before: %v", err)
	}
	after, err := restored.Search(query, 2)
	if err != nil {
		t.Fatalf("search after: %v", err)
	}
	for i := range before {
		if before[i].Text != after[i].Text || before[i].Score != after[i].Score {
			t.Errorf("result %d changed across round-trip: before=%+v after=%+v",
				i, before[i], after[i])
		}
	}

	name, _ := after[0].Metadata.String("name")
	if name != "Louvre" {
		t.Errorf("restored metadata name: got %q, want %q", name, "Louvre")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	ix := mustFlat(t, 2)

	err := ix.Load(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestLoad_CorruptGeometry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "food")

	ix := mustFlat(t, 2)
	if err := ix.Add([]string{"a"}, [][]float32{{1, 0}}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "index.bin"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}

	restored := mustFlat(t, 2)
	err := restored.Load(dir)
	if !errors.Is(err, domain.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt, got %v", err)
	}
	if restored.Len() != 0 {
		t.Errorf("failed load must leave index unchanged: len=%d", restored.Len())
	}
}

func TestLoad_MisalignedArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tips")

	ix := mustFlat(t, 2)
	if err := ix.Add([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "texts.json"), []byte(`["only-one"]`), 0o644); err != nil {
		t.Fatalf("rewrite texts: %v", err)
	}

	restored := mustFlat(t, 2)
	err := restored.Load(dir)
	if !errors.Is(err, domain.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt, got %v", err)
	}
}

func TestLoad_DimensionMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "itineraries")

	ix := mustFlat(t, 2)
	if err := ix.Add([]string{"a"}, [][]float32{{1, 0}}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := mustFlat(t, 3)
	err := restored.Load(dir)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
