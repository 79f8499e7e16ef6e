package domain

// Site identifies a list source.
type Site string

const (
	SiteMDBList    Site = "mdblist"
	SiteTrakt      Site = "trakt"
	SiteLetterboxd Site = "letterboxd"
	SiteUnknown    Site = "unknown"
)

// ScrapeTarget is one list URL and the site it belongs to.
type ScrapeTarget struct {
	URL  string
	Site Site
}
