package domain

import "context"

// MatchCache maps base titles to resolved entries found across all stores.
type MatchCache map[string]MatchResult

// Lookup finds title by its base title. A title carrying a year only matches
// entries with the same year or none.
func (c MatchCache) Lookup(title string) (MatchResult, bool) {
	m, ok := c[BaseTitle(title)]
	if !ok {
		return ErrorSentinel, false
	}
	if y := TitleYear(title); y > 0 && m.Year > 0 && m.Year != y {
		return ErrorSentinel, false
	}
	return m, true
}

// CacheBuilder rebuilds the match cache from the stores under a root.
type CacheBuilder interface {
	Build(ctx context.Context) (MatchCache, error)
}
