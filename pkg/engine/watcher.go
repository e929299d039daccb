package engine

import (
	"golang.org/x/net/html"

	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/override"
)

// MutationRecord is one batch entry from the host's DOM change notification
// stream. Only added nodes matter to the engine.
type MutationRecord struct {
	AddedNodes []*html.Node
}

// HandleMutations processes one batch of DOM mutations. A batch containing
// a genuinely new stylesheet node triggers a full Collector→Builder pass;
// every batch, changed or not, re-runs inline preservation, because an
// element's inline style can change without any stylesheet node being
// inserted.
func (e *Engine) HandleMutations(records []MutationRecord) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := false
	for _, rec := range records {
		for _, n := range rec.AddedNodes {
			if !e.isNewStylesheetNode(n) {
				continue
			}
			changed = true
		}
	}

	var stats Stats
	if changed {
		stats = e.scan()
	}
	stats.InlineFixed = e.preserveAll()
	return stats
}

// isNewStylesheetNode decides whether an added node represents a stylesheet
// the engine has not accounted for yet, and records its identifier if so.
// Callers hold e.mu.
func (e *Engine) isNewStylesheetNode(n *html.Node) bool {
	if n == nil || cssdom.ElementID(n) == override.StyleID {
		return false
	}
	if !cssdom.IsStylesheetLink(n) && !cssdom.IsPreloadStyleLink(n) && !cssdom.IsStyleElement(n) {
		return false
	}
	id := cssdom.IdentifierFor(e.doc, n)
	if id == "" {
		return false
	}
	if _, ok := e.known[id]; ok {
		// DOM churn re-adding a sheet we already processed.
		return false
	}
	e.known[id] = struct{}{}
	return true
}
