// Package cssdom exposes the DOM and CSSOM primitives the font-override
// engine runs on: enumerate stylesheets in document order, read rules, edit
// inline styles, and maintain the synthetic override element in head.
//
// The DOM is a golang.org/x/net/html tree addressed through goquery; the
// CSSOM is douceur's rule model. This package is deliberately not a CSS
// engine — it only needs font-family declarations and selector text.
package cssdom

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrAccessDenied reports that a linked stylesheet's rules cannot be read
// directly, the Go analogue of a CORS-restricted CSSOM access.
var ErrAccessDenied = errors.New("stylesheet rules are not accessible")

// SheetLoader resolves a linked stylesheet's href to its CSS text. The host
// decides the access policy: a loader returns ErrAccessDenied for hrefs it
// refuses to load directly (typically cross-origin ones).
type SheetLoader interface {
	Load(href string) ([]byte, error)
}

// Document wraps one parsed HTML page together with its base URL and the
// host's stylesheet access policy.
type Document struct {
	doc    *goquery.Document
	root   *html.Node
	base   *url.URL
	loader SheetLoader
}

// Load parses an HTML page. baseURL (may be empty) resolves relative
// stylesheet hrefs. A nil loader denies direct access to every linked sheet.
func Load(r io.Reader, baseURL string, loader SheetLoader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
	}

	var root *html.Node
	if len(doc.Nodes) > 0 {
		root = doc.Nodes[0]
	}
	return &Document{doc: doc, root: root, base: base, loader: loader}, nil
}

// Base returns the document's base URL, or nil if none was supplied.
func (d *Document) Base() *url.URL {
	return d.base
}

// Find proxies a selector query to the underlying goquery document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Head returns the document's head element, or nil when the page has none.
func (d *Document) Head() *html.Node {
	sel := d.doc.Find("head")
	if len(sel.Nodes) == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// StyleSheets enumerates the document's attached stylesheets in document
// order: every <link rel="stylesheet"> and every <style> element.
func (d *Document) StyleSheets() []*StyleSheet {
	var sheets []*StyleSheet
	d.doc.Find("link,style").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		switch {
		case IsStyleElement(n):
			sheets = append(sheets, newInlineSheet(d, n))
		case IsStylesheetLink(n):
			sheets = append(sheets, newLinkedSheet(d, n))
		}
	})
	return sheets
}

// StyledElements returns every element carrying a style attribute, in
// document order. Elements without inline style cannot need preservation,
// so skipping them is observationally equivalent to a full-document walk.
func (d *Document) StyledElements() []*html.Node {
	return d.doc.Find("[style]").Nodes
}

// ResolveHref makes href absolute against the document base. Unresolvable
// hrefs are returned as written.
func (d *Document) ResolveHref(href string) string {
	if d.base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return d.base.ResolveReference(ref).String()
}

// Render serializes the document back to HTML.
func (d *Document) Render(w io.Writer) error {
	if d.root == nil {
		return errors.New("document has no root node")
	}
	return html.Render(w, d.root)
}

// HTML returns the serialized document as a string.
func (d *Document) HTML() (string, error) {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ParseCSS parses CSS text into douceur's rule model.
func ParseCSS(text string) ([]*css.Rule, error) {
	sheet, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSS: %w", err)
	}
	return sheet.Rules, nil
}

// IsStyleElement reports whether n is a <style> element.
func IsStyleElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == atom.Style
}

// IsStylesheetLink reports whether n is a <link> with a stylesheet relation.
func IsStylesheetLink(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Link {
		return false
	}
	return relContains(Attr(n, "rel"), "stylesheet")
}

// IsPreloadStyleLink reports whether n is a <link rel="preload" as="style">,
// which announces a stylesheet even though it is not one yet.
func IsPreloadStyleLink(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Link {
		return false
	}
	return relContains(Attr(n, "rel"), "preload") &&
		strings.EqualFold(strings.TrimSpace(Attr(n, "as")), "style")
}

func relContains(rel, token string) bool {
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

// Attr returns the value of the named attribute, or "" when absent.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// ElementID returns the element's id attribute.
func ElementID(n *html.Node) string {
	return Attr(n, "id")
}

// TextContent concatenates the direct text children of n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// InlineStyle returns the element's style attribute text.
func InlineStyle(n *html.Node) string {
	return Attr(n, "style")
}

// SetInlineStyle replaces the element's style attribute text.
func SetInlineStyle(n *html.Node, style string) {
	SetAttr(n, "style", style)
}

// IdentifierFor computes the stylesheet identity of a node: the resolved
// href for links, the raw text content for inline <style> blocks.
func IdentifierFor(d *Document, n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.DataAtom == atom.Link {
		return d.ResolveHref(Attr(n, "href"))
	}
	return TextContent(n)
}

// NewStyleElement builds a detached <style> element with the given id and
// CSS text.
func NewStyleElement(id, text string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

// RemoveNode detaches n from its parent, if it has one.
func RemoveNode(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
