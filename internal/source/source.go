// Package source turns uploaded files, pasted text and web pages into plain
// text a model can read. Every format is reduced to a Document: an outline of
// headed sections, flattened back to markdown-ish text for prompting.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupported is returned for file types and content types with no parser.
	ErrUnsupported = errors.New("unsupported source format")
	// ErrEmpty means the source parsed but contains no usable text.
	ErrEmpty = errors.New("source contains no text")
)

// Document is a parsed source.
type Document struct {
	Title    string
	Sections []*Section
}

// Section is a node in the document outline.
type Section struct {
	Heading  string // empty for untitled text
	Text     string
	Page     int // 1-based PDF page, 0 if N/A
	Children []*Section
}

// Text flattens the outline. Headings become markdown headings so the model
// still sees the structure.
func (d *Document) Text() string {
	var sb strings.Builder
	var walk func(s *Section, depth int)
	walk = func(s *Section, depth int) {
		if s.Heading != "" {
			sb.WriteString(strings.Repeat("#", min(depth, 6)))
			sb.WriteString(" ")
			sb.WriteString(s.Heading)
			sb.WriteString("\n\n")
		}
		if s.Text != "" {
			sb.WriteString(s.Text)
			sb.WriteString("\n\n")
		}
		for _, c := range s.Children {
			walk(c, depth+1)
		}
	}
	for _, s := range d.Sections {
		walk(s, 1)
	}
	return strings.TrimSpace(sb.String())
}

// Parser converts raw bytes of one format into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists the file extensions ForFile accepts.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the parser for a filename's extension.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: file extension %q", ErrUnsupported, ext)
	}
}

// IsSupported reports whether ForFile has a parser for filename.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Parse picks a parser by extension and rejects documents without text.
// pdfFallback lets PDF extraction retry with the pdftotext binary.
func Parse(r io.Reader, filename string, pdfFallback bool) (*Document, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pp, ok := p.(*PDFParser); ok {
		pp.FallbackPdftotext = pdfFallback
	}
	return parseWith(p, r, filename)
}

func parseWith(p Parser, r io.Reader, filename string) (*Document, error) {
	doc, err := p.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	if doc.Text() == "" {
		return nil, ErrEmpty
	}
	return doc, nil
}

// FromText wraps pasted text as a Document.
func FromText(title, text string) (*Document, error) {
	if !utf8.ValidString(text) {
		return nil, errors.New("source text is not valid UTF-8")
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}
	if title == "" {
		title = "Pasted text"
	}
	doc, err := (&TextParser{}).Parse(bytes.NewReader([]byte(text)), "")
	if err != nil {
		return nil, err
	}
	doc.Title = title
	return doc, nil
}

// titleFromFilename strips directory and extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
