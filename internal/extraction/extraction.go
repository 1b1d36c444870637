// Package extraction pulls content out of a parsed page: CSS-selector
// matching, attribute or text retrieval, and output formatting as text,
// HTML (optionally stripped) or markdown.
package extraction

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/williampepple1/scrape-api/pkg/models"
)

// Extractor handles content extraction from parsed pages
type Extractor struct {
	stripper *bluemonday.Policy
}

// NewExtractor creates a new content extractor
func NewExtractor() *Extractor {
	return &Extractor{
		stripper: stripPolicy(),
	}
}

// stripPolicy keeps structural markup but drops every attribute; scripts and
// styles are removed along with their contents.
func stripPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"a", "abbr", "article", "aside", "b", "blockquote", "br", "caption",
		"code", "dd", "div", "dl", "dt", "em", "figcaption", "figure",
		"footer", "h1", "h2", "h3", "h4", "h5", "h6", "header", "hr", "i",
		"li", "main", "nav", "ol", "p", "pre", "section", "small", "span",
		"strong", "sub", "sup", "table", "tbody", "td", "tfoot", "th",
		"thead", "tr", "u", "ul",
	)
	return p
}

// Extract resolves the extraction config against the document and returns
// the formatted content, debug information about the selector match, and the
// first matched element for any follow-up table parsing. With a nil config
// the whole document is formatted.
func (e *Extractor) Extract(doc *goquery.Document, cfg *models.Extraction, format string) (string, *models.ExtractionDebug, *goquery.Selection) {
	if cfg == nil || cfg.Selector == "" {
		return e.formatDocument(doc, format), nil, nil
	}

	matches := doc.Find(cfg.Selector)
	debug := &models.ExtractionDebug{
		SelectorMatched: matches.Length() > 0,
		ElementsFound:   matches.Length(),
		SelectorUsed:    cfg.Selector,
	}
	if matches.Length() == 0 {
		return "", debug, nil
	}

	var content string
	if cfg.Multiple {
		content = e.formatElements(matches, cfg, format)
	} else {
		content = e.formatElement(matches.Eq(0), cfg, format)
	}

	return content, debug, matches.First()
}

// formatDocument renders the whole page in the requested output format.
func (e *Extractor) formatDocument(doc *goquery.Document, format string) string {
	switch format {
	case models.FormatHTML:
		if html, err := goquery.OuterHtml(doc.Find("html")); err == nil && html != "" {
			return html
		}
		html, _ := doc.Html()
		return html
	case models.FormatMarkdown:
		html, err := goquery.OuterHtml(doc.Find("html"))
		if err != nil {
			return normalizeText(doc.Selection)
		}
		return e.toMarkdown(html, doc.Selection)
	default: // json or text
		return normalizeText(doc.Selection)
	}
}

// formatElement renders a single matched element.
func (e *Extractor) formatElement(sel *goquery.Selection, cfg *models.Extraction, format string) string {
	switch format {
	case models.FormatHTML:
		return e.elementHTML(sel, cfg)
	case models.FormatMarkdown:
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			return e.elementValue(sel, cfg)
		}
		return e.toMarkdown(html, sel)
	default: // json or text
		return e.elementValue(sel, cfg)
	}
}

// formatElements renders all matched elements: HTML output concatenates the
// markup, everything else joins values line by line.
func (e *Extractor) formatElements(matches *goquery.Selection, cfg *models.Extraction, format string) string {
	var parts []string
	matches.Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, e.formatElement(sel, cfg, format))
	})

	if format == models.FormatHTML {
		return strings.Join(parts, "")
	}
	return strings.Join(parts, "\n")
}

// elementHTML renders the element's markup, inner or outer, applying the
// strip policy when requested.
func (e *Extractor) elementHTML(sel *goquery.Selection, cfg *models.Extraction) string {
	var html string
	var err error
	if cfg.InnerHTML {
		html, err = sel.Html()
	} else {
		html, err = goquery.OuterHtml(sel)
	}
	if err != nil {
		return ""
	}

	if cfg.Strip {
		html = strings.ReplaceAll(e.stripper.Sanitize(html), "\n", "")
	}
	return html
}

// elementValue returns the attribute value when configured, otherwise the
// element's normalized text.
func (e *Extractor) elementValue(sel *goquery.Selection, cfg *models.Extraction) string {
	if cfg.Attribute != "" {
		value, _ := sel.Attr(cfg.Attribute)
		return value
	}
	return normalizeText(sel)
}

// toMarkdown converts markup to markdown, falling back to plain text when
// conversion fails.
func (e *Extractor) toMarkdown(html string, fallback *goquery.Selection) string {
	markdown, err := md.ConvertString(html)
	if err != nil {
		return normalizeText(fallback)
	}
	return strings.TrimSpace(markdown)
}

// normalizeText returns the selection's text with whitespace runs collapsed.
func normalizeText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
