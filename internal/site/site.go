package site

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/varoOP/cinelist/internal/domain"
)

var traktNumericList = regexp.MustCompile(`/users/[^/]+/lists/\d+/?$`)

// Classify maps a list URL to its site by domain substring.
func Classify(rawURL string) domain.Site {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "trakt.tv"):
		return domain.SiteTrakt
	case strings.Contains(u, "letterboxd.com"):
		return domain.SiteLetterboxd
	case strings.Contains(u, "mdblist.com"):
		return domain.SiteMDBList
	default:
		return domain.SiteUnknown
	}
}

func NewTarget(rawURL string) domain.ScrapeTarget {
	rawURL = strings.TrimSpace(rawURL)
	return domain.ScrapeTarget{URL: rawURL, Site: Classify(rawURL)}
}

// Profile describes how a site is paged.
type Profile struct {
	Site domain.Site
	// Window overrides the configured pager window when non-zero.
	Window int
	// StopOnNotFound ends the walk on a 404 past page 1.
	StopOnNotFound bool
	// StallOnRepeats counts a page of only already-seen titles as a stall.
	StallOnRepeats bool
	// SinglePass sites are fetched once and then walked incrementally.
	SinglePass bool
	Timeout    time.Duration
	Headers    map[string]string
}

var profiles = map[domain.Site]Profile{
	domain.SiteMDBList: {
		Site:           domain.SiteMDBList,
		StallOnRepeats: true,
		Timeout:        10 * time.Second,
	},
	domain.SiteTrakt: {
		Site:           domain.SiteTrakt,
		Window:         1,
		StopOnNotFound: true,
		StallOnRepeats: true,
		Timeout:        10 * time.Second,
	},
	domain.SiteLetterboxd: {
		Site:           domain.SiteLetterboxd,
		StopOnNotFound: true,
		SinglePass:     true,
		Timeout:        15 * time.Second,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
			"Referer":         "https://letterboxd.com/",
		},
	},
}

// ProfileFor returns the paging profile of s; ok is false for unsupported sites.
func ProfileFor(s domain.Site) (Profile, bool) {
	p, ok := profiles[s]
	return p, ok
}

// PageURL builds the address of page n (1 based) of a list.
func PageURL(target domain.ScrapeTarget, page int) string {
	base := target.URL
	switch target.Site {
	case domain.SiteMDBList:
		return appendQuery(base, fmt.Sprintf("append=yes&q_current_page=%d", page))
	case domain.SiteTrakt:
		if page <= 1 {
			return base
		}
		if traktNumericList.MatchString(base) {
			return fmt.Sprintf("%s/items?page=%d", strings.TrimRight(base, "/"), page)
		}
		return appendQuery(base, fmt.Sprintf("page=%d", page))
	case domain.SiteLetterboxd:
		if page <= 1 {
			return base
		}
		return fmt.Sprintf("%s/page/%d/", strings.TrimRight(base, "/"), page)
	default:
		return base
	}
}

func appendQuery(base, query string) string {
	if strings.Contains(base, "?") {
		return base + "&" + query
	}
	return base + "?" + query
}
