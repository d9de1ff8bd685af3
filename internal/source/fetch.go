package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

var (
	// ErrTooLarge is returned when a fetched page exceeds the size limit.
	ErrTooLarge = errors.New("source exceeds size limit")
	// ErrInvalidURL rejects URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid url")
)

// Fetcher downloads a web page or document and parses it by content type.
type Fetcher struct {
	client            *http.Client
	maxBytes          int64
	fallbackPdftotext bool
}

func NewFetcher(timeout time.Duration, maxBytes int64, fallbackPdftotext bool) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &Fetcher{
		client:            &http.Client{Timeout: timeout},
		maxBytes:          maxBytes,
		fallbackPdftotext: fallbackPdftotext,
	}
}

// Fetch retrieves rawURL. Only http and https are allowed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "educontent/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,text/markdown,application/pdf;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", u.Redacted(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Redacted(), err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	filename := path.Base(u.Path)
	if filename == "." || filename == "/" {
		filename = u.Host
	}
	p, err := f.parserFor(resp.Header.Get("Content-Type"), filename)
	if err != nil {
		return nil, err
	}
	doc, err := parseWith(p, bytes.NewReader(body), filename)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = u.Host
	}
	return doc, nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// parserFor prefers the declared content type and falls back to the URL's
// file extension when the server sends something generic.
func (f *Fetcher) parserFor(contentType, filename string) (Parser, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return &HTMLParser{}, nil
	case "application/pdf":
		return &PDFParser{FallbackPdftotext: f.fallbackPdftotext}, nil
	case "text/markdown", "text/x-markdown":
		return &MarkdownParser{}, nil
	}
	if IsSupported(filename) {
		p, err := ForFile(filename)
		if pp, ok := p.(*PDFParser); ok {
			pp.FallbackPdftotext = f.fallbackPdftotext
		}
		return p, err
	}
	if strings.HasPrefix(mediaType, "text/") {
		return &TextParser{}, nil
	}
	return nil, fmt.Errorf("%w: content type %q", ErrUnsupported, contentType)
}
