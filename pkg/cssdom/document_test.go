package cssdom

import (
	"strings"
	"testing"
)

const samplePage = `<html><head>
<link rel="stylesheet" href="/main.css">
<link rel="preload" as="style" href="/later.css">
<link rel="icon" href="/favicon.ico">
<style media="print">p { font-family: serif; }</style>
</head><body>
<style>.a { font-family: Roboto; }</style>
<p style="font-family: Arial">hi</p>
</body></html>`

func loadSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(strings.NewReader(samplePage), "https://example.com/page", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return doc
}

func TestStyleSheets_DocumentOrder(t *testing.T) {
	doc := loadSample(t)

	sheets := doc.StyleSheets()
	if len(sheets) != 3 {
		t.Fatalf("StyleSheets() returned %d sheets, want 3", len(sheets))
	}

	if sheets[0].Href != "https://example.com/main.css" {
		t.Errorf("sheets[0].Href = %q, want resolved main.css", sheets[0].Href)
	}
	if sheets[0].Inline() {
		t.Error("sheets[0].Inline() = true, want false for linked sheet")
	}
	if sheets[1].Media != "print" {
		t.Errorf("sheets[1].Media = %q, want %q", sheets[1].Media, "print")
	}
	if !sheets[2].Inline() {
		t.Error("sheets[2].Inline() = false, want true for style element")
	}
}

func TestStyleSheets_SkipsNonStylesheetLinks(t *testing.T) {
	doc := loadSample(t)

	for _, s := range doc.StyleSheets() {
		if strings.Contains(s.Href, "favicon") || strings.Contains(s.Href, "later.css") {
			t.Errorf("StyleSheets() included non-stylesheet link %q", s.Href)
		}
	}
}

func TestInlineSheetRules(t *testing.T) {
	doc := loadSample(t)
	sheets := doc.StyleSheets()

	rules, err := sheets[2].Rules()
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("Rules() returned %d rules, want 1", len(rules))
	}
	if got := strings.TrimSpace(rules[0].Prelude); got != ".a" {
		t.Errorf("rule selector = %q, want %q", got, ".a")
	}
}

func TestLinkedSheetAccessDeniedWithoutLoader(t *testing.T) {
	doc := loadSample(t)
	sheets := doc.StyleSheets()

	if _, err := sheets[0].Rules(); err != ErrAccessDenied {
		t.Errorf("Rules() error = %v, want ErrAccessDenied", err)
	}
}

func TestIdentifierFor(t *testing.T) {
	doc := loadSample(t)
	sheets := doc.StyleSheets()

	if got := sheets[0].Identifier(); got != "https://example.com/main.css" {
		t.Errorf("linked Identifier() = %q, want resolved href", got)
	}
	if got := sheets[2].Identifier(); !strings.Contains(got, "font-family: Roboto") {
		t.Errorf("inline Identifier() = %q, want raw text content", got)
	}
}

func TestStyledElements(t *testing.T) {
	doc := loadSample(t)

	els := doc.StyledElements()
	if len(els) != 1 {
		t.Fatalf("StyledElements() returned %d elements, want 1", len(els))
	}
	if els[0].Data != "p" {
		t.Errorf("styled element = <%s>, want <p>", els[0].Data)
	}
}

func TestNodeClassifiers(t *testing.T) {
	doc := loadSample(t)

	var foundStylesheet, foundPreload bool
	for _, n := range doc.Find("link").Nodes {
		if IsStylesheetLink(n) {
			foundStylesheet = true
		}
		if IsPreloadStyleLink(n) {
			foundPreload = true
		}
	}
	if !foundStylesheet {
		t.Error("IsStylesheetLink() never matched the rel=stylesheet link")
	}
	if !foundPreload {
		t.Error("IsPreloadStyleLink() never matched the rel=preload as=style link")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	doc := loadSample(t)

	out, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(out, `style="font-family: Arial"`) {
		t.Errorf("HTML() lost the inline style attribute:\n%s", out)
	}
}
