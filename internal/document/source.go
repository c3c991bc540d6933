package document

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Source extracts raw, ordered lines from a document.
//
// A structurally valid but empty document yields zero lines and no error.
type Source interface {
	Name() string
	Lines(ctx context.Context) ([]string, error)
}

// TextSource reads newline separated text from a file or an [io.Reader].
type TextSource struct {
	Path   string
	Reader io.Reader
}

// NewTextSource returns a [TextSource] over r labelled name.
func NewTextSource(name string, r io.Reader) *TextSource {
	return &TextSource{Path: name, Reader: r}
}

func (s *TextSource) Name() string {
	if s.Path == "" {
		return "stdin"
	}
	return s.Path
}

func (s *TextSource) Lines(ctx context.Context) ([]string, error) {
	r, closeFn, err := s.open()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}
	return lines, nil
}

func (s *TextSource) open() (io.Reader, func(), error) {
	if s.Reader != nil {
		return s.Reader, func() {}, nil
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// HTMLSource extracts visible text nodes from an HTML page in document order.
type HTMLSource struct {
	Path   string
	Reader io.Reader
}

// NewHTMLSource returns an [HTMLSource] over r labelled name.
func NewHTMLSource(name string, r io.Reader) *HTMLSource {
	return &HTMLSource{Path: name, Reader: r}
}

func (s *HTMLSource) Name() string { return s.Path }

func (s *HTMLSource) Lines(ctx context.Context) ([]string, error) {
	r := s.Reader
	if r == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open document: %w", err)
		}
		defer f.Close()
		r = f
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html %s: %w", s.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc.Find("head, script, style, noscript, template").Remove()

	var lines []string
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			node := c.Get(0)
			switch node.Type {
			case html.TextNode:
				if text := strings.TrimSpace(node.Data); text != "" {
					lines = append(lines, text)
				}
			case html.ElementNode:
				walk(c)
			}
		})
	}
	walk(doc.Find("body"))
	return lines, nil
}

// Open picks a [Source] for path by extension. "-" reads text from stdin.
func Open(path string) (Source, error) {
	if path == "-" {
		return NewTextSource("stdin", os.Stdin), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return &HTMLSource{Path: path}, nil
	default:
		return &TextSource{Path: path}, nil
	}
}

// Supported reports whether path has an extension [Open] understands.
func Supported(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
