package reconcile

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

type ignoreList []string

func newIgnoreList(patterns []string) (ignoreList, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return ignoreList(patterns), nil
}

// Match reports whether a logical path is ignored.
func (l ignoreList) Match(p string) bool {
	for _, pattern := range l {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
