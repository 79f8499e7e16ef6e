package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var letterboxdChain = Chain{
	{Name: "film-pair", Extract: filmPairs},
	{Name: "poster-grid", Extract: posterData},
	selectText("linked-film", "a.linked-film"),
	selectText("table-view", "table.film-list td.film-title-wrapper a"),
	selectText("film-detail", "div.film-detail h2.film-title a"),
	{Name: "film-pair-content", Extract: filmPairContent},
	selectText("film-title", "a.film-title"),
	{Name: "json-ld", Extract: jsonLDTitles},
	{Name: "anchor-class", Extract: anchorClasses},
}

var renderedChain = append(Chain{
	{Name: "poster-data", Extract: posterData},
	{Name: "poster-alt", Extract: posterAlt},
}, letterboxdChain...)

// filmPairs reads "if you like this, watch this" comparison lists.
func filmPairs(doc *goquery.Document) []string {
	c := newCollector()
	doc.Find("div.film-pair").Each(func(_ int, pair *goquery.Selection) {
		posters := pair.Find("div.film-poster")
		if posters.Length() == 0 {
			pair.Find("a.linked-film").Each(func(_ int, a *goquery.Selection) {
				c.add(a.Text())
			})
			return
		}
		posters.Each(func(_ int, p *goquery.Selection) {
			if name, ok := p.Attr("data-film-name"); ok {
				c.add(withYear(name, p.AttrOr("data-film-release-year", "")))
			}
		})
	})
	return c.titles
}

func posterData(doc *goquery.Document) []string {
	c := newCollector()
	doc.Find("li.poster-container div.film-poster").Each(func(_ int, p *goquery.Selection) {
		if name, ok := p.Attr("data-film-name"); ok {
			c.add(withYear(name, p.AttrOr("data-film-release-year", "")))
		}
	})
	return c.titles
}

func posterAlt(doc *goquery.Document) []string {
	c := newCollector()
	doc.Find("li.poster-container div.film-poster img").Each(func(_ int, img *goquery.Selection) {
		c.add(img.AttrOr("alt", ""))
	})
	return c.titles
}

func filmPairContent(doc *goquery.Document) []string {
	c := newCollector()
	doc.Find("div.film-pair-content h3.film-title a").Each(func(_ int, a *goquery.Selection) {
		title := a.Text()
		year := strings.TrimSpace(a.Closest("div.film-pair-content").Find("small.metadata").First().Text())
		if year != "" && isDigits(year) {
			title = withYear(strings.TrimSpace(title), year)
		}
		c.add(title)
	})
	return c.titles
}

type itemList struct {
	ItemListElement []struct {
		Item struct {
			Name string `json:"name"`
		} `json:"item"`
	} `json:"itemListElement"`
}

func jsonLDTitles(doc *goquery.Document) []string {
	c := newCollector()
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var list itemList
		if err := json.Unmarshal([]byte(s.Text()), &list); err != nil {
			return
		}
		for _, el := range list.ItemListElement {
			c.add(el.Item.Name)
		}
	})
	return c.titles
}

var filmAnchorClasses = []string{"film-title", "title-alt", "frame", "linked-film"}

// anchorClasses walks the whole tree for anchors carrying any film-related class.
func anchorClasses(doc *goquery.Document) []string {
	c := newCollector()
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasAnyClass(n, filmAnchorClasses) {
			if title := nodeText(n); len([]rune(strings.TrimSpace(title))) > 1 {
				c.add(title)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return c.titles
}

func hasAnyClass(n *html.Node, classes []string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(attr.Val) {
			for _, want := range classes {
				if cls == want {
					return true
				}
			}
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
