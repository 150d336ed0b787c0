// Package extract finds embedded images in rich-text HTML.
// Rich-text fields are small fragments, so the whole fragment is parsed with
// goquery and every <img src> is reported in document order.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageExtractor lists the image sources embedded in an HTML fragment.
type ImageExtractor struct{}

// New creates an ImageExtractor.
func New() *ImageExtractor {
	return &ImageExtractor{}
}

// Images returns the src of every <img> element in document order.
// A URL that appears twice is reported twice; empty sources are skipped.
func (e *ImageExtractor) Images(html string) ([]string, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var urls []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		urls = append(urls, src)
	})
	return urls, nil
}
