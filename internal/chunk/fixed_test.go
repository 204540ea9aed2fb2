package chunk

import "testing"

func TestFixedChunkingASCII(t *testing.T) {
	// S1: "abcdefghij" (10 bytes), chunk_size=4, overlap=1.
	s := NewFixed()
	chunks, err := s.Chunk(1, "abcdefghij", Config{ChunkSize: 4, Overlap: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		start, end int
		content    string
	}{
		{0, 4, "abcd"},
		{3, 7, "defg"},
		{6, 10, "ghij"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, w := range want {
		c := chunks[i]
		if c.ByteStart != w.start || c.ByteEnd != w.end || c.Content != w.content {
			t.Errorf("chunk %d = [%d,%d) %q, want [%d,%d) %q", i, c.ByteStart, c.ByteEnd, c.Content, w.start, w.end, w.content)
		}
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestFixedChunkingUTF8Safety(t *testing.T) {
	// S3: three 4-byte emoji codepoints, chunk_size=6, overlap=0.
	text := "\U0001F600\U0001F600\U0001F600"
	s := NewFixed()
	chunks, err := s.Chunk(1, text, Config{ChunkSize: 6, Overlap: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{0, 4}, {4, 8}, {8, 12}}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, w := range want {
		if chunks[i].ByteStart != w[0] || chunks[i].ByteEnd != w[1] {
			t.Errorf("chunk %d = [%d,%d), want [%d,%d)", i, chunks[i].ByteStart, chunks[i].ByteEnd, w[0], w[1])
		}
	}
}

func TestFixedChunkingEmptyBuffer(t *testing.T) {
	s := NewFixed()
	chunks, err := s.Chunk(1, "", DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty buffer, got %d", len(chunks))
	}
}

func TestFixedChunkingSingleByte(t *testing.T) {
	s := NewFixed()
	chunks, err := s.Chunk(1, "x", Config{ChunkSize: 3000, Overlap: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].ByteStart != 0 || chunks[0].ByteEnd != 1 {
		t.Fatalf("expected single chunk [0,1), got %+v", chunks)
	}
}

func TestFixedChunkingRejectsOverlapTooLarge(t *testing.T) {
	s := NewFixed()
	_, err := s.Chunk(1, "abc", Config{ChunkSize: 4, Overlap: 4})
	if err == nil {
		t.Fatal("expected OverlapTooLarge error")
	}
}

func TestFixedChunkingForwardProgressNearMaxOverlap(t *testing.T) {
	s := NewFixed()
	text := make([]byte, 50)
	for i := range text {
		text[i] = 'a'
	}
	chunks, err := s.Chunk(1, string(text), Config{ChunkSize: 5, Overlap: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected forward progress to produce chunks")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].ByteStart <= chunks[i-1].ByteStart {
			t.Fatalf("chunk %d did not advance past chunk %d", i, i-1)
		}
	}
}
