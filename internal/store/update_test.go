package store

import (
	"context"
	"testing"
)

func TestUpdateBufferCarriesOverUnchangedEmbeddings(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	embedder := &fakeEmbedder{dim: 4}
	original := []ChunkInput{
		{Index: 0, Content: "alpha", ContentHash: "hash-a"},
		{Index: 1, Content: "beta", ContentHash: "hash-b"},
	}
	buf, err := s.IngestBuffer(ctx, "doc", "alpha beta", "", "", original, embedder)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	oldChunks, err := s.ListChunks(ctx, buf.ID)
	if err != nil {
		t.Fatal(err)
	}
	oldVectorForUnchanged, err := s.AllEmbeddings(ctx, &buf.ID)
	if err != nil {
		t.Fatal(err)
	}

	updated := []ChunkInput{
		{Index: 0, Content: "alpha", ContentHash: "hash-a"},      // unchanged
		{Index: 1, Content: "beta-v2", ContentHash: "hash-b2"},   // modified
	}
	embedder.calls = 0
	if _, err := s.UpdateBuffer(ctx, buf.ID, "alpha beta-v2", updated, embedder); err != nil {
		t.Fatalf("update: %v", err)
	}

	if embedder.calls != 1 {
		t.Errorf("expected exactly 1 embed call (for the modified chunk only), got %d", embedder.calls)
	}

	newChunks, err := s.ListChunks(ctx, buf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(newChunks) != 2 {
		t.Fatalf("expected 2 chunks after update, got %d", len(newChunks))
	}

	newVectors, err := s.AllEmbeddings(ctx, &buf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(newVectors) != 2 {
		t.Fatalf("expected both chunks embedded (one carried, one fresh), got %d", len(newVectors))
	}

	oldID := oldChunks[0].ID
	newID := newChunks[0].ID
	if newVectors[newID][0] != oldVectorForUnchanged[oldID][0] {
		t.Error("expected the unchanged chunk's embedding to be carried over byte-for-byte")
	}
}

type fakeEmbedder struct {
	dim   int
	calls int
}

func (f *fakeEmbedder) Dimension() int { return f.dim }
func (f *fakeEmbedder) ModelID() string { return "fake-v1" }
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(texts[i]))
		out[i] = v
	}
	return out, nil
}
