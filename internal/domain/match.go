package domain

type MediaKind string

const (
	MediaTV    MediaKind = "tv"
	MediaMovie MediaKind = "movie"
)

// MatchResult is a resolved metadata entry. The zero value is the error
// sentinel and is written to stores as [Error].
type MatchResult struct {
	Matched bool
	ID      int
	Kind    MediaKind
	Year    int
}

var ErrorSentinel = MatchResult{}
