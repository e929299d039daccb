package extractor

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/fetcher"
)

func docWithLinks(t *testing.T, hrefs ...string) *cssdom.Document {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("<html><head>")
	for _, h := range hrefs {
		fmt.Fprintf(&sb, `<link rel="stylesheet" href="%s">`, h)
	}
	sb.WriteString("</head><body></body></html>")

	// nil loader: every linked sheet is access-denied, like a CORS wall.
	doc, err := cssdom.Load(strings.NewReader(sb.String()), "https://page.example/", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return doc
}

func TestFallbackFetchRecoversRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ".x { font-family: Foo; }")
	}))
	defer srv.Close()

	doc := docWithLinks(t, srv.URL+"/a.css")
	ex := New(fetcher.NewClient())

	rules := ex.Rules(doc.StyleSheets()[0], nil)
	if len(rules) != 1 {
		t.Fatalf("Rules() returned %d rules, want 1", len(rules))
	}
	if got := strings.TrimSpace(rules[0].Prelude); got != ".x" {
		t.Errorf("recovered selector = %q, want %q", got, ".x")
	}
	if !ex.Requested(srv.URL + "/a.css") {
		t.Error("Requested() = false after fallback fetch, want true")
	}
}

func TestFallbackFetchDedup(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, ".x { font-family: Foo; }")
	}))
	defer srv.Close()

	href := srv.URL + "/shared.css"
	doc := docWithLinks(t, href, href)
	ex := New(fetcher.NewClient())
	sheets := doc.StyleSheets()

	first := ex.Rules(sheets[0], nil)
	second := ex.Rules(sheets[1], nil)

	if len(first) != 1 {
		t.Errorf("first Rules() returned %d rules, want 1", len(first))
	}
	if len(second) != 0 {
		t.Errorf("second Rules() returned %d rules, want 0 (href already requested)", len(second))
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hit %d times, want exactly 1", got)
	}
}

func TestFallbackFetchFailureYieldsNoRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	doc := docWithLinks(t, srv.URL+"/missing.css")
	ex := New(fetcher.NewClient())

	if rules := ex.Rules(doc.StyleSheets()[0], nil); len(rules) != 0 {
		t.Errorf("Rules() returned %d rules after failed fetch, want 0", len(rules))
	}
	// The failed href is still recorded: no retry on later passes.
	if !ex.Requested(srv.URL + "/missing.css") {
		t.Error("Requested() = false after failed fetch, want true")
	}
}

func TestNoFallbackWithoutHref(t *testing.T) {
	doc, err := cssdom.Load(strings.NewReader(`<html><head><link rel="stylesheet"></head></html>`), "", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ex := New(fetcher.NewClient())

	if rules := ex.Rules(doc.StyleSheets()[0], nil); len(rules) != 0 {
		t.Errorf("Rules() returned %d rules for hrefless link, want 0", len(rules))
	}
}
