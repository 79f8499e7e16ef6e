package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/varoOP/cinelist/internal/domain"
)

var traktFallback = Chain{
	selectText("titles-link", "a.titles-link h3"),
	{Name: "json-ld", Extract: jsonLDTitles},
}

// traktPage reads the grid items of a list page. Trakt serves the last real
// page again for out-of-range page numbers, so a page made of repeats is
// reported as duplicate content.
func traktPage(doc *goquery.Document, page int) (domain.PageResult, string) {
	items := doc.Find("div.grid-item")
	seen := map[string]struct{}{}
	var titles []string
	duplicates := 0

	items.Each(func(_ int, item *goquery.Selection) {
		h := item.Find("a.titles-link h3").First()
		if h.Length() == 0 {
			return
		}
		title := domain.NormalizeTitle(h.Text())
		year := strings.TrimSpace(item.Find("div.year").First().Text())
		if year != "" {
			title = strings.TrimSpace(strings.ReplaceAll(title, "("+year+")", ""))
		}
		if title == "" {
			return
		}
		if _, ok := seen[title]; ok {
			duplicates++
			return
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	})

	if duplicates > 0 && duplicates >= items.Length()-1 {
		return domain.TerminatePage(page, domain.TerminationDuplicateContent), "grid-item"
	}
	if len(titles) > 0 {
		return domain.TitlePage(page, titles), "grid-item"
	}

	titles, name := traktFallback.Run(doc)
	return domain.TitlePage(page, titles), name
}
