package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

// Weights for vector generation.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// HashEmbedder is the deterministic fallback embedder (§4.3): no network
// calls, no model download, reduced semantic quality. It combines a
// bag-of-tokens signature with a character n-gram signature so that
// lexically similar text lands on similar vectors even without a trained
// model.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder returns the fallback embedder at DefaultDimension width.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{dimension: DefaultDimension}
}

func (e *HashEmbedder) Dimension() int { return e.dimension }
func (e *HashEmbedder) ModelID() string { return "hash-fallback-v1" }

func (e *HashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dimension)
	}
	return normalizeVector(e.generateVector(trimmed))
}

func (e *HashEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, e.dimension)

	for _, token := range tokenize(text) {
		vector[hashToIndex(token, e.dimension)] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range extractNgrams(normalized, ngramSize) {
		vector[hashToIndex(ngram, e.dimension)] += ngramWeight
	}

	return vector
}

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		lower := strings.ToLower(word)
		if lower != "" {
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

func normalizeForNgrams(text string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, text[i:i+n])
	}
	return ngrams
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}
