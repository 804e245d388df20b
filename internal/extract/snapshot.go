// Package extract pulls the few page facts a roast prompt needs out of raw
// HTML: the title, the meta description, the first heading and a short,
// whitespace-collapsed excerpt of the visible body text.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// invisible lists elements whose text never reaches the reader.
const invisible = "script, style, noscript, template"

// Snapshot parses html and returns its PageSnapshot. Missing elements yield
// empty strings; malformed markup is parsed leniently. It never fails.
func Snapshot(html string) domain.PageSnapshot {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.PageSnapshot{}
	}

	meta, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	snap := domain.PageSnapshot{
		Title:           clean(doc.Find("title").First().Text()),
		MetaDescription: clean(meta),
		FirstHeading:    clean(doc.Find("h1").First().Text()),
	}

	doc.Find(invisible).Remove()
	snap.BodyExcerpt = truncate(collapse(doc.Find("body").Text()), domain.BodyExcerptLimit)
	return snap
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// collapse joins whitespace runs into single spaces and NFC-normalises.
func collapse(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
