package chunk

import "github.com/rlm-project/rlm/internal/rlmerr"

// StrategyFor is the factory required by §9: a string tag maps to a
// concrete Strategy instead of an open inheritance hierarchy. Unknown tags
// are a configuration error, not a silent fallback.
func StrategyFor(tag string) (Strategy, error) {
	switch tag {
	case "fixed":
		return NewFixed(), nil
	case "semantic":
		return NewSemantic(), nil
	case "code":
		return NewCode(), nil
	case "":
		return NewSemantic(), nil
	default:
		return nil, rlmerr.New(rlmerr.KindUnknownStrategy, "unknown chunking strategy: "+tag)
	}
}

// ParallelStrategyFor resolves tag and wraps it in the data-parallel
// strategy when the resolved strategy supports it; otherwise it runs
// sequentially.
func ParallelStrategyFor(tag string) (Strategy, error) {
	s, err := StrategyFor(tag)
	if err != nil {
		return nil, err
	}
	if !s.SupportsParallel() {
		return s, nil
	}
	return NewParallel(s), nil
}
