package engine

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/fontshim/fontshim/models"
	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/fetcher"
	"github.com/fontshim/fontshim/pkg/override"
)

func newTestEngine(t *testing.T, page string) (*Engine, *cssdom.Document) {
	t.Helper()
	doc, err := cssdom.Load(strings.NewReader(page), "https://example.com/", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	opts := models.EngineOptions{ReplacementFont: "Twemoji Country Flags", Debug: true}
	return New(doc, opts, fetcher.NewClient(), io.Discard), doc
}

func overrideText(doc *cssdom.Document) string {
	return cssdom.TextContent(override.Element(doc))
}

func newStyleNode(css string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return n
}

func TestStart_EndToEnd(t *testing.T) {
	eng, doc := newTestEngine(t, `<html><head>
<style>.flag-name { font-family: Roboto; }</style>
</head><body><p style="font-family: Arial">x</p></body></html>`)

	stats := eng.Start()

	want := ".flag-name { font-family: 'Twemoji Country Flags', Roboto !important; }\n"
	if got := overrideText(doc); got != want {
		t.Errorf("override text = %q, want %q", got, want)
	}
	if stats.RulesCollected != 1 || stats.RulesEmitted != 1 {
		t.Errorf("stats = %+v, want 1 collected / 1 emitted", stats)
	}
	if stats.InlineFixed != 1 {
		t.Errorf("stats.InlineFixed = %d, want 1", stats.InlineFixed)
	}
	if eng.RunCount() != 1 {
		t.Errorf("RunCount() = %d, want 1", eng.RunCount())
	}
}

func TestMutation_NonStylesheetNodeDoesNotRescan(t *testing.T) {
	eng, doc := newTestEngine(t, `<html><head>
<style>.a { font-family: Foo; }</style>
</head><body></body></html>`)
	eng.Start()
	before := overrideText(doc)

	// Insert a div carrying an inline style: the preserver must run, the
	// collector/builder must not.
	div := &html.Node{
		Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
		Attr: []html.Attribute{{Key: "style", Val: "font-family: Courier"}},
	}
	doc.Find("body").Nodes[0].AppendChild(div)

	stats := eng.HandleMutations([]MutationRecord{{AddedNodes: []*html.Node{div}}})

	if eng.RunCount() != 1 {
		t.Errorf("RunCount() = %d after non-stylesheet mutation, want 1", eng.RunCount())
	}
	if got := overrideText(doc); got != before {
		t.Errorf("override text changed without a stylesheet mutation:\n%q\n%q", before, got)
	}
	if stats.InlineFixed != 1 {
		t.Errorf("stats.InlineFixed = %d, want 1 (new div's inline style)", stats.InlineFixed)
	}
	if got := cssdom.InlineStyle(div); got != "font-family: Courier !important" {
		t.Errorf("div style = %q, want forced priority", got)
	}
}

func TestMutation_NewStylesheetTriggersRescan(t *testing.T) {
	eng, doc := newTestEngine(t, `<html><head>
<style>.a { font-family: Foo; }</style>
</head><body></body></html>`)
	eng.Start()

	added := newStyleNode(".b { font-family: Bar; }")
	doc.Head().AppendChild(added)

	eng.HandleMutations([]MutationRecord{{AddedNodes: []*html.Node{added}}})

	if eng.RunCount() != 2 {
		t.Errorf("RunCount() = %d after new stylesheet, want 2", eng.RunCount())
	}
	got := overrideText(doc)
	if !strings.Contains(got, ".b { font-family: 'Twemoji Country Flags', Bar !important; }") {
		t.Errorf("override text = %q, want .b rule added", got)
	}
	if strings.Index(got, ".a") > strings.Index(got, ".b") {
		t.Errorf("override text = %q, want baseline .a rule preserved first", got)
	}
}

func TestMutation_KnownStylesheetIgnored(t *testing.T) {
	css := ".a { font-family: Foo; }"
	eng, doc := newTestEngine(t, "<html><head><style>"+css+"</style></head><body></body></html>")
	eng.Start()

	// DOM churn re-adds a style node with identical content: its
	// identifier is already known, so no new pass runs.
	readded := newStyleNode(css)
	doc.Head().AppendChild(readded)
	eng.HandleMutations([]MutationRecord{{AddedNodes: []*html.Node{readded}}})

	if eng.RunCount() != 1 {
		t.Errorf("RunCount() = %d after re-added known sheet, want 1", eng.RunCount())
	}
}

func TestMutation_OverrideElementIgnored(t *testing.T) {
	eng, doc := newTestEngine(t, `<html><head>
<style>.a { font-family: Foo; }</style>
</head><body></body></html>`)
	eng.Start()

	// The builder's own element re-entering through the mutation stream
	// must never trigger a pass.
	own := override.Element(doc)
	eng.HandleMutations([]MutationRecord{{AddedNodes: []*html.Node{own}}})

	if eng.RunCount() != 1 {
		t.Errorf("RunCount() = %d after override node mutation, want 1", eng.RunCount())
	}
}

func TestNoSelfReference(t *testing.T) {
	eng, doc := newTestEngine(t, `<html><head>
<style>.a { font-family: Foo; }</style>
</head><body></body></html>`)
	eng.Start()
	first := overrideText(doc)

	// Force a second full pass; the override sheet's own rules must not be
	// re-collected, so the text stays byte-identical.
	added := newStyleNode("/* no font rules */ .c { color: red; }")
	doc.Head().AppendChild(added)
	eng.HandleMutations([]MutationRecord{{AddedNodes: []*html.Node{added}}})

	if eng.RunCount() != 2 {
		t.Fatalf("RunCount() = %d, want 2", eng.RunCount())
	}
	if got := overrideText(doc); got != first {
		t.Errorf("override text grew across passes:\nfirst:  %q\nsecond: %q", first, got)
	}
}

func TestCrossOriginFallbackThroughEngine(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, ".remote { font-family: Lato; }")
	}))
	defer srv.Close()

	page := fmt.Sprintf(`<html><head><link rel="stylesheet" href="%s/theme.css"></head><body></body></html>`, srv.URL)
	eng, doc := newTestEngine(t, page)
	eng.Start()

	got := overrideText(doc)
	if !strings.Contains(got, ".remote { font-family: 'Twemoji Country Flags', Lato !important; }") {
		t.Errorf("override text = %q, want rule recovered via fallback fetch", got)
	}

	// A later pass must not refetch the same href.
	added := newStyleNode(".x { font-family: Foo; }")
	doc.Head().AppendChild(added)
	eng.HandleMutations([]MutationRecord{{AddedNodes: []*html.Node{added}}})

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("stylesheet server hit %d times across passes, want exactly 1", got)
	}
}

func TestInlinePreservation_ExistingElementsOnEveryBatch(t *testing.T) {
	eng, doc := newTestEngine(t, `<html><head></head><body>
<p style="font-family: Arial">x</p>
</body></html>`)

	// No Start: the first thing the engine sees is an unrelated mutation.
	div := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	doc.Find("body").Nodes[0].AppendChild(div)
	stats := eng.HandleMutations([]MutationRecord{{AddedNodes: []*html.Node{div}}})

	if stats.InlineFixed != 1 {
		t.Errorf("stats.InlineFixed = %d, want 1 (pre-existing element reinforced)", stats.InlineFixed)
	}
	p := doc.Find("p").Nodes[0]
	if got := cssdom.InlineStyle(p); got != "font-family: Arial !important" {
		t.Errorf("p style = %q, want forced priority", got)
	}
}
