package scraper

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/vitor-labes/catalogue-scraper/internal/config"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// ParseListing extracts the title, price and image facets independently and
// pairs them by position. When the counts differ only the first min(count)
// products are returned.
func ParseListing(r io.Reader, sel config.Selectors) ([]domain.Product, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing html: %w", err)
	}

	titles := collectText(doc.Find(sel.Title))
	prices := collectText(doc.Find(sel.Price))

	var images []string
	doc.Find(sel.Image).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr(sel.ImageAttr)
		images = append(images, strings.TrimSpace(src))
	})

	n := min(len(titles), len(prices), len(images))
	if len(titles) != len(prices) || len(titles) != len(images) {
		slog.Warn("facet counts differ, truncating",
			"titles", len(titles),
			"prices", len(prices),
			"images", len(images),
			"products", n,
		)
	}

	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, domain.Product{
			Name:     titles[i],
			Price:    prices[i],
			ImageURL: images[i],
		})
	}

	return products, nil
}

func collectText(s *goquery.Selection) []string {
	out := make([]string, 0, s.Length())
	s.Each(func(_ int, item *goquery.Selection) {
		out = append(out, strippedText(item))
	})
	return out
}

// strippedText joins every text node below the selection with surrounding
// whitespace removed, so "<span>£</span> 12.00" reads "£12.00".
func strippedText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}
