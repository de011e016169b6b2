package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector matches elements that never carry job details in an HTML email.
const noiseSelector = "head, script, style, noscript, img, .footer, .unsubscribe, [style*='display:none'], [style*='display: none']"

// blockSelector matches elements whose text should start on its own line.
const blockSelector = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, table, blockquote"

// HTMLToText converts an HTML email body to cleaned plain text. Anchor targets are kept
// next to their label so links survive the conversion.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return
		}
		label := strings.TrimSpace(s.Text())
		if label == "" || label == href {
			s.SetText(href)
			return
		}
		s.SetText(label + " " + href)
	})

	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n")
		s.AfterHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return CleanText(root.Text()), nil
}
