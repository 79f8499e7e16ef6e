package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/varoOP/cinelist/internal/domain"
)

var mdblistChain = Chain{
	{Name: "movie-title-header", Extract: mdblistHeaders},
}

// mdblistHeaders drops everything from the last "(" and all colons.
func mdblistHeaders(doc *goquery.Document) []string {
	var titles []string
	doc.Find("div.header.movie-title").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if i := strings.LastIndex(text, "("); i >= 0 {
			text = text[:i]
		}
		text = domain.NormalizeTitle(strings.ReplaceAll(text, ":", ""))
		if text != "" {
			titles = append(titles, text)
		}
	})
	return titles
}
