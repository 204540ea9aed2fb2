package chunk

import "testing"

func TestParallelMatchesSequentialWithoutOverlap(t *testing.T) {
	text := ""
	for i := 0; i < 200; i++ {
		text += "abcdefghij"
	}
	cfg := Config{ChunkSize: 30, Overlap: 0, Workers: 4}

	seq, err := NewFixed().Chunk(1, text, cfg)
	if err != nil {
		t.Fatalf("sequential chunk error: %v", err)
	}
	par, err := NewParallel(NewFixed()).Chunk(1, text, cfg)
	if err != nil {
		t.Fatalf("parallel chunk error: %v", err)
	}
	if len(seq) != len(par) {
		t.Fatalf("chunk count mismatch: sequential=%d parallel=%d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].ByteStart != par[i].ByteStart || seq[i].ByteEnd != par[i].ByteEnd {
			t.Errorf("chunk %d range mismatch: sequential=[%d,%d) parallel=[%d,%d)",
				i, seq[i].ByteStart, seq[i].ByteEnd, par[i].ByteStart, par[i].ByteEnd)
		}
	}
}

func TestParallelDedupesOverlapAcrossSegments(t *testing.T) {
	text := ""
	for i := 0; i < 200; i++ {
		text += "abcdefghij"
	}
	cfg := Config{ChunkSize: 30, Overlap: 10, Workers: 4}

	par, err := NewParallel(NewFixed()).Chunk(1, text, cfg)
	if err != nil {
		t.Fatalf("parallel chunk error: %v", err)
	}

	seen := make(map[[2]int]bool)
	for _, c := range par {
		key := [2]int{c.ByteStart, c.ByteEnd}
		if seen[key] {
			t.Fatalf("duplicate chunk range [%d,%d) survived dedup", c.ByteStart, c.ByteEnd)
		}
		seen[key] = true
	}
	for i, c := range par {
		if c.Index != i {
			t.Errorf("chunk %d has index %d after re-numbering", i, c.Index)
		}
	}
}

func TestParallelSingleWorkerIsSequential(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	cfg := Config{ChunkSize: 8, Overlap: 2, Workers: 1}

	seq, err := NewFixed().Chunk(1, text, cfg)
	if err != nil {
		t.Fatalf("sequential chunk error: %v", err)
	}
	par, err := NewParallel(NewFixed()).Chunk(1, text, cfg)
	if err != nil {
		t.Fatalf("parallel chunk error: %v", err)
	}
	if len(seq) != len(par) {
		t.Fatalf("chunk count mismatch: sequential=%d parallel=%d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].ByteStart != par[i].ByteStart || seq[i].ByteEnd != par[i].ByteEnd {
			t.Errorf("chunk %d range mismatch", i)
		}
	}
}
