package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"github.com/varoOP/cinelist/internal/domain"
)

// Strategy is one named way of pulling titles out of a document.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) []string
}

// Chain is tried in order; the first strategy yielding any title wins.
type Chain []Strategy

// Run returns the winning titles and the name of the strategy that produced
// them. Both are empty when no strategy matched.
func (c Chain) Run(doc *goquery.Document) ([]string, string) {
	for _, s := range c {
		if titles := s.Extract(doc); len(titles) > 0 {
			return titles, s.Name
		}
	}
	return nil, ""
}

func parse(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// collector accumulates normalized, non-empty, unique titles in order.
type collector struct {
	seen   map[string]struct{}
	titles []string
}

func newCollector() *collector {
	return &collector{seen: map[string]struct{}{}}
}

func (c *collector) add(title string) {
	title = domain.NormalizeTitle(title)
	if title == "" {
		return
	}
	if _, ok := c.seen[title]; ok {
		return
	}
	c.seen[title] = struct{}{}
	c.titles = append(c.titles, title)
}

func withYear(title, year string) string {
	if year == "" {
		return title
	}
	return title + " (" + year + ")"
}

// selectText returns a strategy collecting the text of every match of selector.
func selectText(name, selector string) Strategy {
	return Strategy{
		Name: name,
		Extract: func(doc *goquery.Document) []string {
			c := newCollector()
			doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
				c.add(s.Text())
			})
			return c.titles
		},
	}
}
