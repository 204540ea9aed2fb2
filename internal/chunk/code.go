package chunk

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rlm-project/rlm/internal/rlmerr"
)

// codeStrategy implements §4.2.3: dispatch on a language tag, find
// top-level declaration starts, merge adjacent declarations while they
// fit chunk_size, and split any declaration that alone exceeds it using
// the fixed strategy.
type codeStrategy struct {
	registry *LanguageRegistry
}

// NewCode returns the code-aware chunking strategy backed by the default
// language registry.
func NewCode() Strategy { return codeStrategy{registry: DefaultRegistry()} }

func (codeStrategy) Name() string           { return "code" }
func (codeStrategy) SupportsParallel() bool { return true }

func (s codeStrategy) Chunk(bufferID int64, text string, cfg Config) ([]Chunk, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(text) == 0 {
		return nil, nil
	}

	lang, ok := s.registry.GetByName(cfg.Language)
	if !ok {
		// Unknown extension: fall back to semantic (§4.2.3).
		return NewSemantic().Chunk(bufferID, text, cfg)
	}

	starts, err := s.declarationStarts(text, lang)
	if err != nil || len(starts) == 0 {
		return NewSemantic().Chunk(bufferID, text, cfg)
	}

	candidates := candidateRanges(starts, len(text))
	merged := mergeCandidates(candidates, text, cfg.ChunkSize)

	now := time.Now()
	var chunks []Chunk
	for _, r := range merged {
		span := text[r.start:r.end]
		if len(span) <= cfg.ChunkSize {
			chunks = append(chunks, newChunk(bufferID, len(chunks), r.start, r.end, span, "code", false, now))
			continue
		}
		// Oversized single declaration: split with the fixed strategy,
		// then shift its local ranges into this buffer's coordinates.
		sub, err := NewFixed().Chunk(bufferID, span, Config{ChunkSize: cfg.ChunkSize, Overlap: cfg.Overlap})
		if err != nil {
			return nil, err
		}
		for _, c := range sub {
			c.Index = len(chunks)
			c.ByteStart += r.start
			c.ByteEnd += r.start
			c.Strategy = "code"
			chunks = append(chunks, c)
		}
	}

	if cfg.MaxChunks > 0 && len(chunks) > cfg.MaxChunks {
		return nil, rlmerr.New(rlmerr.KindChunkTooLarge, "chunking exceeded max_chunks")
	}

	return chunks, nil
}

type byteRange struct{ start, end int }

// candidateRanges turns declaration start offsets into [decl_i, decl_{i+1})
// spans, with the final span running to the end of the text.
func candidateRanges(starts []int, textLen int) []byteRange {
	ranges := make([]byteRange, 0, len(starts))
	for i, start := range starts {
		end := textLen
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if end > start {
			ranges = append(ranges, byteRange{start, end})
		}
	}
	return ranges
}

// mergeCandidates folds consecutive candidates together while their
// combined size stays within chunkSize.
func mergeCandidates(ranges []byteRange, text string, chunkSize int) []byteRange {
	if len(ranges) == 0 {
		return nil
	}
	var merged []byteRange
	cur := ranges[0]
	for _, r := range ranges[1:] {
		if r.end-cur.start <= chunkSize {
			cur.end = r.end
			continue
		}
		merged = append(merged, cur)
		cur = r
	}
	merged = append(merged, cur)
	return merged
}

// declarationStarts returns ascending, deduplicated byte offsets of every
// top-level declaration start in text for the given language.
func (s codeStrategy) declarationStarts(text string, lang *LanguageConfig) ([]int, error) {
	if len(lang.DeclNodeTypes) > 0 {
		if _, ok := s.registry.GetTreeSitterLanguage(lang.Name); ok {
			return s.declarationStartsAST(text, lang)
		}
	}
	return declarationStartsRegex(text, lang.DeclRegexes), nil
}

func (s codeStrategy) declarationStartsAST(text string, lang *LanguageConfig) ([]int, error) {
	p := NewParserWithRegistry(s.registry)
	defer p.Close()

	tree, err := p.Parse(context.Background(), []byte(text), lang.Name)
	if err != nil {
		return nil, err
	}

	declTypes := make(map[string]bool, len(lang.DeclNodeTypes))
	for _, t := range lang.DeclNodeTypes {
		declTypes[t] = true
	}

	var starts []int
	for _, child := range tree.Root.Children {
		if declTypes[child.Type] {
			starts = append(starts, int(child.StartByte))
		}
	}
	return starts, nil
}

var (
	lineAnchorMu    sync.RWMutex
	lineAnchorCache = map[string]*regexp.Regexp{}
)

// lineAnchorRegex returns the compiled regex for p, compiling and caching
// it on first use. codeStrategy advertises SupportsParallel(), so this is
// called concurrently across segments from internal/chunk/parallel.go's
// goroutine fan-out and must not race on the shared cache.
func lineAnchorRegex(p string) *regexp.Regexp {
	lineAnchorMu.RLock()
	re, ok := lineAnchorCache[p]
	lineAnchorMu.RUnlock()
	if ok {
		return re
	}

	lineAnchorMu.Lock()
	defer lineAnchorMu.Unlock()
	if re, ok := lineAnchorCache[p]; ok {
		return re
	}
	re = regexp.MustCompile(p)
	lineAnchorCache[p] = re
	return re
}

func declarationStartsRegex(text string, patterns []string) []int {
	if len(patterns) == 0 {
		return nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, lineAnchorRegex(p))
	}

	var starts []int
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		for _, re := range compiled {
			if re.MatchString(line) {
				starts = append(starts, offset)
				break
			}
		}
		offset += len(line)
	}
	return starts
}
