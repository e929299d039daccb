// Package extractor turns a stylesheet handle into its rule list as a
// best-effort operation. It never returns an error to the caller: direct
// access wins, a fallback fetch covers restricted linked sheets, and
// everything else degrades to an empty rule list.
package extractor

import (
	"sync"

	"github.com/aymerick/douceur/css"
	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/fetcher"
)

// Extractor resolves stylesheet rules, keeping an append-only record of
// hrefs already fetched through the fallback path so an unreachable sheet
// costs at most one network request per engine lifetime.
type Extractor struct {
	client *fetcher.Client

	mu        sync.Mutex
	requested map[string]struct{}
}

func New(client *fetcher.Client) *Extractor {
	return &Extractor{
		client:    client,
		requested: make(map[string]struct{}),
	}
}

// Rules returns sheet's ordered style rules. When direct access is denied
// the href is fetched once and parsed; any failure on that path is reported
// through logf (which may be nil) and yields an empty list.
func (e *Extractor) Rules(sheet *cssdom.StyleSheet, logf func(string, ...any)) []*css.Rule {
	rules, err := sheet.Rules()
	if err == nil {
		return rules
	}

	// Fallback applies only to stylesheet-relation links with an href we
	// have not tried before.
	if sheet.Href == "" || !cssdom.IsStylesheetLink(sheet.Owner) {
		return nil
	}
	if !e.markRequested(sheet.Href) {
		return nil
	}

	body, err := e.client.GetCSS(sheet.Href)
	if err != nil {
		logln(logf, "fallback fetch failed for %s: %v", sheet.Href, err)
		return nil
	}
	rules, err = cssdom.ParseCSS(string(body))
	if err != nil {
		logln(logf, "fallback parse failed for %s: %v", sheet.Href, err)
		return nil
	}
	logln(logf, "recovered %d rules for %s via fallback fetch", len(rules), sheet.Href)
	return rules
}

// Requested reports whether href has already gone through the fallback path.
func (e *Extractor) Requested(href string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.requested[href]
	return ok
}

// markRequested records href and reports whether this was its first time.
func (e *Extractor) markRequested(href string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.requested[href]; ok {
		return false
	}
	e.requested[href] = struct{}{}
	return true
}

func logln(logf func(string, ...any), format string, args ...any) {
	if logf != nil {
		logf(format, args...)
	}
}
