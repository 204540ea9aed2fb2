package chunk

import "testing"

func TestSemanticBoundarySnap(t *testing.T) {
	// S2: semantic strategy snaps to the sentence break instead of the
	// raw byte-16 cut.
	text := "Alpha beta. Gamma delta. Epsilon."
	s := NewSemantic()
	chunks, err := s.Chunk(1, text, Config{ChunkSize: 16, Overlap: 0, PreserveSentences: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ByteEnd != 12 {
		t.Errorf("first chunk should end at byte 12, got %d", chunks[0].ByteEnd)
	}
	if chunks[1].ByteStart != 12 {
		t.Errorf("second chunk should begin at byte 12, got %d", chunks[1].ByteStart)
	}
}

func TestSemanticNeverBelowMinChunk(t *testing.T) {
	text := "a. b. c. d. e. f. g. h. i. j. k. l. m. n. o. p. q. r. s. t."
	s := NewSemantic()
	chunks, err := s.Chunk(1, text, Config{ChunkSize: 20, Overlap: 0, PreserveSentences: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	minChunk := 20 / 4
	for i, c := range chunks {
		if i == len(chunks)-1 {
			continue // terminal chunk is exempt
		}
		if c.ByteEnd-c.ByteStart < minChunk {
			t.Errorf("chunk %d is %d bytes, shorter than min %d", i, c.ByteEnd-c.ByteStart, minChunk)
		}
	}
}

func TestSemanticReconstructsContentWithoutOverlap(t *testing.T) {
	text := "One sentence here. Another one follows. And a third remains."
	s := NewSemantic()
	chunks, err := s.Chunk(1, text, Config{ChunkSize: 25, Overlap: 0, PreserveSentences: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rebuilt string
	for _, c := range chunks {
		rebuilt += c.Content
	}
	if rebuilt != text {
		t.Errorf("reconstructed content mismatch:\ngot:  %q\nwant: %q", rebuilt, text)
	}
}
