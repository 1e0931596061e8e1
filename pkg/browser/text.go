package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PageText returns the visible text of the handle's current page.
func PageText(h Handle) (string, error) {
	content, err := h.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return ExtractText(content)
}

// ExtractText renders the human-visible text of an HTML document. Scripts,
// styles and embedded objects are dropped; block elements become line breaks
// and runs of whitespace collapse to a single space.
func ExtractText(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var lines []string
	var line strings.Builder
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.TextNode:
			if words := strings.Fields(n.Data); len(words) > 0 {
				if line.Len() > 0 && !startsWithPunct(n.Data) {
					line.WriteString(" ")
				}
				line.WriteString(strings.Join(words, " "))
			}
			return
		case html.ElementNode:
			tag := strings.ToLower(n.Data)
			if isSkippedElement(tag) || isHidden(n) {
				return
			}
			if tag == "br" {
				flush()
				return
			}
			block := isBlockElement(tag)
			if block {
				flush()
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if block {
				flush()
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()

	return strings.Join(lines, "\n"), nil
}

// DocumentTitle returns the <title> of an HTML document, or "" if absent.
func DocumentTitle(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

func startsWithPunct(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '.', ',', ';', ':', '!', '?', ')':
		return true
	}
	return false
}

// isHidden reports elements the browser would not render
func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "template", "head":
		return true
	}
	return false
}

func isBlockElement(tagName string) bool {
	switch tagName {
	case "div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "dl", "dt", "dd", "button", "label":
		return true
	}
	return false
}
