package scraper

import (
	"strings"

	"fizetesi-info/internal/normalize"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseDocument parses fetched markup. It never fails: input the parser
// rejects yields an empty document whose queries match nothing.
func ParseDocument(text string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return emptyDocument()
	}
	return doc
}

func emptyDocument() *goquery.Document {
	return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
}

// selText returns the cleaned text of the first match, or "".
func selText(sel *goquery.Selection, selector string) string {
	if sel == nil || strings.TrimSpace(selector) == "" {
		return ""
	}
	return normalize.CleanText(sel.Find(selector).First().Text())
}

// selAttr returns the trimmed attribute of the first match.
func selAttr(sel *goquery.Selection, selector, attr string) (string, bool) {
	if sel == nil || strings.TrimSpace(selector) == "" {
		return "", false
	}
	v, ok := sel.Find(selector).First().Attr(attr)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
