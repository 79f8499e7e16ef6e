package extract

import (
	"github.com/varoOP/cinelist/internal/domain"
)

// Page turns one fetched page of a site into a page result and reports which
// strategy produced the titles.
func Page(site domain.Site, body []byte, page int) (domain.PageResult, string) {
	doc, err := parse(body)
	if err != nil {
		return domain.TitlePage(page, nil), ""
	}

	switch site {
	case domain.SiteTrakt:
		return traktPage(doc, page)
	case domain.SiteLetterboxd:
		titles, name := letterboxdChain.Run(doc)
		return domain.TitlePage(page, titles), name
	case domain.SiteMDBList:
		titles, name := mdblistChain.Run(doc)
		return domain.TitlePage(page, titles), name
	default:
		return domain.TitlePage(page, nil), ""
	}
}

// Rendered extracts titles from a browser-rendered list document.
func Rendered(html string) ([]string, string) {
	doc, err := parse([]byte(html))
	if err != nil {
		return nil, ""
	}
	return renderedChain.Run(doc)
}
