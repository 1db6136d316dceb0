// Package audit is a post-hoc checker for produced report pages: it parses
// the HTML and flags anything that should never survive sanitization. It
// is a QA backstop for catching pipeline mistakes (an unsanitized column
// wired into a template, say) — the sanitizer remains the security
// boundary, not this.
package audit

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Finding is one violation discovered in a document.
type Finding struct {
	// Tag is the element the problem sits on.
	Tag string
	// Attr is the offending attribute, empty when the element itself is
	// the problem.
	Attr string
	// Detail says what was wrong.
	Detail string
}

func (f Finding) String() string {
	if f.Attr != "" {
		return fmt.Sprintf("<%s %s>: %s", f.Tag, f.Attr, f.Detail)
	}
	return fmt.Sprintf("<%s>: %s", f.Tag, f.Detail)
}

// dangerousElements can execute script or submit data and must never
// appear in a produced page. style is deliberately absent: report pages
// carry their own generated stylesheet.
var dangerousElements = map[string]bool{
	"script": true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"form":   true,
}

// Scan parses an HTML document and returns every violation found:
// script-capable elements, on* event handler attributes, and
// javascript:/data: URLs in href or src anywhere in the document.
func Scan(r io.Reader) ([]Finding, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("audit: parse html: %w", err)
	}

	var findings []Finding
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		tag := strings.ToLower(node.Data)

		if dangerousElements[tag] {
			findings = append(findings, Finding{Tag: tag, Detail: "script-capable element present"})
		}
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			switch {
			case strings.HasPrefix(key, "on"):
				findings = append(findings, Finding{Tag: tag, Attr: key, Detail: "event handler attribute"})
			case key == "href" || key == "src":
				val := strings.ToLower(strings.TrimSpace(attr.Val))
				if strings.HasPrefix(val, "javascript:") || strings.HasPrefix(val, "data:") {
					findings = append(findings, Finding{Tag: tag, Attr: key, Detail: "active url scheme: " + val})
				}
			}
		}
	})
	return findings, nil
}
