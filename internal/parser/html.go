package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// TextExtractor turns email bodies into clean plain text
type TextExtractor struct {
	whitespaceRegex *regexp.Regexp
	newlineRegex    *regexp.Regexp
	invisibleRegex  *regexp.Regexp
}

// NewTextExtractor creates a new text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{
		whitespaceRegex: regexp.MustCompile(`[^\S\n]+`),
		newlineRegex:    regexp.MustCompile(`\n{3,}`),
		// Zero-width spaces, soft hyphens and similar
		invisibleRegex: regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{034F}\x{061C}\x{115F}\x{1160}\x{17B4}\x{17B5}\x{180E}\x{2060}-\x{2064}\x{206A}-\x{206F}\x{FE00}-\x{FE0F}\x{FFF0}-\x{FFF8}]+`),
	}
}

// FromHTML converts an HTML body to plain text
func (e *TextExtractor) FromHTML(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, head, meta, link, title").Remove()

	// Block elements start on a new line
	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr, blockquote, table").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	return e.Clean(doc.Text()), nil
}

// Clean normalizes whitespace in plain text, keeping paragraph breaks
func (e *TextExtractor) Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = e.invisibleRegex.ReplaceAllString(text, "")
	text = e.whitespaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	cleanLines := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			// Keep at most one blank line between paragraphs
			if !blank && len(cleanLines) > 0 {
				cleanLines = append(cleanLines, "")
			}
			blank = true
			continue
		}
		blank = false
		cleanLines = append(cleanLines, line)
	}

	text = strings.Join(cleanLines, "\n")
	text = e.newlineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Truncate cuts text to at most max characters without splitting a rune
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}
