package chunk

import (
	"testing"

	"github.com/rlm-project/rlm/internal/rlmerr"
)

func TestStrategyForKnownTags(t *testing.T) {
	for _, tag := range []string{"fixed", "semantic", "code", ""} {
		if _, err := StrategyFor(tag); err != nil {
			t.Errorf("StrategyFor(%q) returned error: %v", tag, err)
		}
	}
}

func TestStrategyForUnknownTag(t *testing.T) {
	_, err := StrategyFor("bogus")
	if !rlmerr.IsKind(err, rlmerr.KindUnknownStrategy) {
		t.Fatalf("expected UnknownStrategy error, got %v", err)
	}
}
