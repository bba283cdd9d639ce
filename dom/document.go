package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// MaxDocumentSize bounds the input accepted by ParseDocument, before and
// after decompression
const MaxDocumentSize = 10 * 1024 * 1024

// ErrNotMarkup is returned by ParseDocument for binary input
var ErrNotMarkup = errors.New("dom: input is not text markup")

// DetectCharset detects the charset of raw markup, defaulting to utf-8.
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// ParseDocument parses a full HTML document, converting it to UTF-8 first.
// Gzip-compressed input is decompressed; other binary input is rejected.
func ParseDocument(data []byte) (*html.Node, error) {
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("document exceeds maximum size of %d bytes", MaxDocumentSize)
	}

	data, err := decodeContent(data)
	if err != nil {
		return nil, err
	}

	r, err := charset.NewReaderLabel(DetectCharset(data), bytes.NewReader(data))
	if err != nil {
		// Unknown label, parse as is
		return parseDocument(data)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// decodeContent sniffs data, inflating gzip and rejecting non-text content.
func decodeContent(data []byte) ([]byte, error) {
	mtype := mimetype.Detect(data)
	if mtype.Is("application/gzip") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip document: %w", err)
		}
		defer zr.Close()

		inflated, err := io.ReadAll(io.LimitReader(zr, MaxDocumentSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to decompress document: %w", err)
		}
		if len(inflated) > MaxDocumentSize {
			return nil, fmt.Errorf("decompressed document exceeds maximum size of %d bytes", MaxDocumentSize)
		}
		data = inflated
		mtype = mimetype.Detect(data)
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: detected %s", ErrNotMarkup, mtype.String())
}

func parseDocument(data []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// NewDocument returns an empty document with html, head and body elements.
func NewDocument() *html.Node {
	doc, _ := html.Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	return doc
}

// DocumentElement returns the <html> element of the tree containing n.
func DocumentElement(n *html.Node) *html.Node {
	root := Root(n)
	if root == nil {
		return nil
	}
	if root.Type == html.ElementNode {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// Body returns the <body> element of the tree containing n, if any.
func Body(n *html.Node) *html.Node {
	return firstByAtom(Root(n), atom.Body)
}

// Head returns the <head> element of the tree containing n, if any.
func Head(n *html.Node) *html.Node {
	return firstByAtom(Root(n), atom.Head)
}

func firstByAtom(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	var found *html.Node
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && c.DataAtom == a {
			found = c
			return false
		}
		return true
	})
	return found
}
