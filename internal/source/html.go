package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser builds the outline from h1-h6 and keeps paragraph-like text.
// Page chrome (scripts, navigation, headers, footers, asides) is skipped, and
// an <article> or <main> element wins over the whole body when present.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{Title: titleFromFilename(filename)}
	if title := collapse(textContent(findElement(root, "title"))); title != "" {
		doc.Title = title
	}

	out := newOutline()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				out.heading(level, collapse(textContent(n)))
				return
			}
			switch n.Data {
			case "script", "style", "noscript", "template", "nav", "footer", "header", "aside", "form":
				return
			case "pre":
				out.paragraph(strings.Trim(textContent(n), "\n"))
				return
			case "p", "li", "td", "th", "blockquote", "dt", "dd", "figcaption":
				out.paragraph(collapse(textContent(n)))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findElement(root, "article")
	if body == nil {
		body = findElement(root, "main")
	}
	if body == nil {
		body = findElement(root, "body")
	}
	if body == nil {
		body = root
	}
	walk(body)

	doc.Sections = out.sections()
	return doc, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

// collapse folds HTML whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
