package cssdom

import (
	"github.com/aymerick/douceur/css"
	"golang.org/x/net/html"
)

// StyleSheet is a handle on one attached stylesheet. Its rule list may be
// directly readable (inline sheets, same-origin links the host chose to
// load) or denied, in which case Rules returns ErrAccessDenied and callers
// fall back to fetching the href themselves.
type StyleSheet struct {
	// Owner is the <link> or <style> element the sheet belongs to.
	Owner *html.Node
	// Href is the resolved stylesheet URL; empty for inline sheets.
	Href string
	// Media is the sheet's media descriptor as written.
	Media string

	doc    *Document
	inline bool
	loaded bool
	rules  []*css.Rule
	err    error
}

func newInlineSheet(d *Document, owner *html.Node) *StyleSheet {
	s := &StyleSheet{
		Owner:  owner,
		Media:  Attr(owner, "media"),
		doc:    d,
		inline: true,
		loaded: true,
	}
	// Inline sheets parse directly from their text content. An unparsable
	// block degrades to zero rules, matching a browser's empty cssRules.
	rules, err := ParseCSS(TextContent(owner))
	if err == nil {
		s.rules = rules
	}
	return s
}

func newLinkedSheet(d *Document, owner *html.Node) *StyleSheet {
	return &StyleSheet{
		Owner: owner,
		Href:  d.ResolveHref(Attr(owner, "href")),
		Media: Attr(owner, "media"),
		doc:   d,
	}
}

// Rules returns the sheet's ordered style rules, or the access error that
// prevents direct reading. Linked sheets are loaded lazily through the
// document's SheetLoader; the outcome is cached on the handle.
func (s *StyleSheet) Rules() ([]*css.Rule, error) {
	if s.loaded {
		return s.rules, s.err
	}
	s.loaded = true

	if s.doc == nil || s.doc.loader == nil {
		s.err = ErrAccessDenied
		return nil, s.err
	}
	body, err := s.doc.loader.Load(s.Href)
	if err != nil {
		s.err = err
		return nil, s.err
	}
	rules, err := ParseCSS(string(body))
	if err != nil {
		s.err = err
		return nil, s.err
	}
	s.rules = rules
	return s.rules, nil
}

// Inline reports whether the sheet comes from a <style> element.
func (s *StyleSheet) Inline() bool {
	return s.inline
}

// OwnerID returns the id attribute of the owning element.
func (s *StyleSheet) OwnerID() string {
	return ElementID(s.Owner)
}

// Identifier returns the sheet's identity: href for linked sheets, raw text
// content for inline ones.
func (s *StyleSheet) Identifier() string {
	if s.inline {
		return TextContent(s.Owner)
	}
	return s.Href
}
