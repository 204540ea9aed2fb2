package embed

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedderDimension(t *testing.T) {
	e := NewHashEmbedder()
	vecs, err := e.EmbedBatch(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs[0]) != e.Dimension() {
		t.Fatalf("got %d dims, want %d", len(vecs[0]), e.Dimension())
	}
}

func TestHashEmbedderIsDeterministic(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()
	a, err := e.EmbedBatch(ctx, []string{"the quick brown fox"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.EmbedBatch(ctx, []string{"the quick brown fox"})
	if err != nil {
		t.Fatal(err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("embedding not deterministic at index %d: %v vs %v", i, a[0][i], b[0][i])
		}
	}
}

func TestHashEmbedderL2Normalized(t *testing.T) {
	e := NewHashEmbedder()
	vecs, err := e.EmbedBatch(context.Background(), []string{"normalize this please"})
	if err != nil {
		t.Fatal(err)
	}
	var sumSquares float64
	for _, v := range vecs[0] {
		sumSquares += float64(v) * float64(v)
	}
	mag := math.Sqrt(sumSquares)
	if math.Abs(mag-1.0) > 1e-6 {
		t.Fatalf("vector magnitude = %v, want 1.0", mag)
	}
}

func TestHashEmbedderEmptyTextIsZeroVector(t *testing.T) {
	e := NewHashEmbedder()
	vecs, err := e.EmbedBatch(context.Background(), []string{"   "})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatalf("expected zero vector for blank text, got %v", vecs[0])
		}
	}
}

func TestHashEmbedderSimilarTextIsCloser(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()
	vecs, err := e.EmbedBatch(ctx, []string{
		"the quick brown fox jumps",
		"the quick brown fox leaps",
		"invoice payment schedule overdue",
	})
	if err != nil {
		t.Fatal(err)
	}
	simNear := CosineSimilarity(vecs[0], vecs[1])
	simFar := CosineSimilarity(vecs[0], vecs[2])
	if simNear <= simFar {
		t.Fatalf("expected lexically similar text to score higher: near=%v far=%v", simNear, simFar)
	}
}

func TestHashEmbedderModelID(t *testing.T) {
	e := NewHashEmbedder()
	if e.ModelID() == "" {
		t.Fatal("expected non-empty model id")
	}
}
