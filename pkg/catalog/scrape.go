package catalog

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var subjectIDRe = regexp.MustCompile(`/subject/(\d+)/?`)

// ParseTop extracts listing entries from a top-250 page in document order.
// Entries missing an id, title, poster or rating are skipped, so markup
// changes shrink the result instead of failing it.
func ParseTop(body []byte, images ImageRewriter) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: reading top listing: %v", ErrUpstreamParse, err)
	}

	items := make([]Item, 0, 25)
	doc.Find("div.item").Each(func(_ int, s *goquery.Selection) {
		item, ok := parseTopEntry(s)
		if !ok {
			return
		}
		item.Poster = images.Rewrite(item.Poster)
		items = append(items, item)
	})
	return items, nil
}

func parseTopEntry(s *goquery.Selection) (Item, bool) {
	var id string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := subjectIDRe.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})

	img := s.Find("img").First()
	title, _ := img.Attr("alt")
	poster, _ := img.Attr("src")
	rate := strings.TrimSpace(s.Find("span.rating_num").First().Text())

	if id == "" || title == "" || poster == "" || rate == "" {
		return Item{}, false
	}
	return Item{ID: id, Title: title, Poster: poster, Rate: rate}, true
}
