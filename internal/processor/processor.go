package processor

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Processor converts crawled HTML to Markdown and strips markup out of page text.
type Processor struct{}

// New creates a new Processor.
func New() *Processor {
	return &Processor{}
}

// Convert transforms HTML content into Markdown.
func (p *Processor) Convert(htmlContent string) (string, error) {
	if htmlContent == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(markdown), nil
}

// ExtractTitle extracts the <title> content from HTML.
func (p *Processor) ExtractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var findTitle func(*html.Node)
	findTitle = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findTitle(c)
		}
	}
	findTitle(doc)

	return strings.TrimSpace(title)
}

// Cleaning substitutions, applied in order. Each is a plain regex replacement,
// so cleaning already-clean text is a no-op.
var (
	reImageMarkdown = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reLinkMarkdown  = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	reBareLink      = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	reTag           = regexp.MustCompile(`<[^>]+>`)
	reFileToken     = regexp.MustCompile(`(?i)\b\w+\.(jpg|jpeg|png|gif|bmp|pdf|doc|docx|xls|xlsx|ppt|pptx|webp)\b`)
	reEmphasis      = regexp.MustCompile(`[*#]+`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// Clean strips HTML tags and markdown artifacts out of page text, keeping link
// text, and collapses all whitespace runs to single spaces.
func Clean(text string) string {
	text = reTag.ReplaceAllString(text, "")
	text = reImageMarkdown.ReplaceAllString(text, "")
	text = reLinkMarkdown.ReplaceAllString(text, "$1")
	text = reBareLink.ReplaceAllString(text, "")
	text = reFileToken.ReplaceAllString(text, "")
	text = reEmphasis.ReplaceAllString(text, "")
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// LooksLikeMarkdown reports whether a fetched page is already markdown,
// judging by Content-Type, URL extension, then content heuristics.
func LooksLikeMarkdown(url, contentType, content string) bool {
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "text/markdown") || strings.HasPrefix(ct, "text/x-markdown") {
		return true
	}

	lowerURL := strings.ToLower(url)
	if strings.HasSuffix(lowerURL, ".md") || strings.HasSuffix(lowerURL, ".markdown") {
		return true
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" || looksLikeHTML(trimmed) {
		return false
	}
	return hasMarkdownPatterns(trimmed)
}

func looksLikeHTML(content string) bool {
	lower := strings.ToLower(content)
	return strings.HasPrefix(lower, "<!doctype") ||
		strings.HasPrefix(lower, "<html") ||
		strings.HasPrefix(lower, "<head") ||
		strings.HasPrefix(lower, "<body")
}

var (
	reHeading  = regexp.MustCompile(`^#{1,6}\s+\S`)
	reListItem = regexp.MustCompile(`(?m)^[\-\*]\s+\S`)
	reMdLink   = regexp.MustCompile(`\[.+?\]\(.+?\)`)
)

func hasMarkdownPatterns(content string) bool {
	return reHeading.MatchString(content) ||
		reListItem.MatchString(content) ||
		reMdLink.MatchString(content)
}
