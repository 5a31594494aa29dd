// Package htmldoc loads HTML into goquery documents the way the source site
// needs: Latin-1 fallback for older saved pages, and commented-out tables
// restored as live markup.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
)

// Load reads r fully and parses it. Input that is not valid UTF-8 is decoded
// as Latin-1.
func Load(r io.Reader) (*goquery.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading html: %w", err)
	}
	return LoadBytes(raw)
}

// LoadBytes parses raw HTML
func LoadBytes(raw []byte) (*goquery.Document, error) {
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding latin-1: %w", err)
		}
		raw = decoded
	}

	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	if err := Uncomment(root); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Uncomment replaces every comment node that wraps a table with the markup
// inside it. The site ships secondary tables this way and fills them in with
// script on the client.
func Uncomment(root *html.Node) error {
	var comments []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode && strings.Contains(n.Data, "<table") {
			comments = append(comments, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, c := range comments {
		parent := c.Parent
		if parent == nil {
			continue
		}
		nodes, err := html.ParseFragment(strings.NewReader(c.Data), contextFor(parent))
		if err != nil {
			return fmt.Errorf("parsing commented markup: %w", err)
		}
		for _, n := range nodes {
			parent.InsertBefore(n, c)
		}
		parent.RemoveChild(c)
	}
	return nil
}

// contextFor returns the element fragments are parsed against. Comments can
// sit directly under the document node, which ParseFragment cannot use.
func contextFor(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		return n
	}
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

// Links returns the href of every anchor under sel, in document order,
// resolved against base when base is non-nil. Anchors without href and
// hrefs that fail to parse are skipped.
func Links(sel *goquery.Selection, base *url.URL) []string {
	var out []string
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		if base == nil {
			out = append(out, href)
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		out = append(out, base.ResolveReference(ref).String())
	})
	return out
}
