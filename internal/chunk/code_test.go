package chunk

import "testing"

func TestCodeChunkingGoDeclarations(t *testing.T) {
	src := `package main

func First() int {
	return 1
}

func Second() int {
	return 2
}
`
	s := NewCode()
	chunks, err := s.Chunk(1, src, Config{ChunkSize: 3000, Overlap: 0, Language: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Strategy != "code" {
			t.Errorf("chunk %d strategy = %q, want code", i, c.Strategy)
		}
	}
}

func TestCodeChunkingUnknownExtensionFallsBackToSemantic(t *testing.T) {
	s := NewCode()
	chunks, err := s.Chunk(1, "plain text with no declarations at all.", Config{ChunkSize: 3000, Overlap: 0, Language: "unknownlang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Strategy != "semantic" {
		t.Fatalf("expected fallback to semantic strategy, got %+v", chunks)
	}
}

func TestCodeChunkingRustRegexDeclarations(t *testing.T) {
	src := "fn alpha() {\n    1\n}\n\nfn beta() {\n    2\n}\n"
	s := NewCode()
	chunks, err := s.Chunk(1, src, Config{ChunkSize: 3000, Overlap: 0, Language: "rs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks from Rust declaration regexes")
	}
}

func TestCodeChunkingSplitsOversizedDeclaration(t *testing.T) {
	body := make([]byte, 0, 5000)
	body = append(body, []byte("fn huge() {\n")...)
	for i := 0; i < 400; i++ {
		body = append(body, []byte("    let x = 1;\n")...)
	}
	body = append(body, []byte("}\n")...)

	s := NewCode()
	chunks, err := s.Chunk(1, string(body), Config{ChunkSize: 500, Overlap: 50, Language: "rs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the oversized declaration to be split into multiple chunks, got %d", len(chunks))
	}
}
