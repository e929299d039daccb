// Package override owns the single synthetic stylesheet that layers the
// replacement font ahead of every collected font-family chain.
package override

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/fontshim/fontshim/models"
	"github.com/fontshim/fontshim/pkg/cssdom"
)

// StyleID identifies the override <style> element. At most one element with
// this id exists in a document at any time.
const StyleID = "fontshim-override-d41c"

// Builder rebuilds the override stylesheet from a freshly collected rule
// batch, preserving everything it previously emitted.
type Builder struct {
	font string
}

func NewBuilder(font string) *Builder {
	return &Builder{font: font}
}

// Element returns the document's current override element, or nil.
func Element(doc *cssdom.Document) *html.Node {
	sel := doc.Find("#" + StyleID)
	if len(sel.Nodes) == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// Rebuild merges batch into the override stylesheet and atomically replaces
// the element in head. Baseline rules win over new ones with the same
// selector: a baseline entry is the record that a selector has already been
// handled, even if its original-font content looks stale. Returns the
// number of newly synthesized rules.
//
// The element is removed and recreated rather than edited in place, so the
// full rule corpus is re-parsed as one consistent stylesheet on every
// update.
func (b *Builder) Rebuild(doc *cssdom.Document, batch []models.FontFamilyRule) int {
	existing := Element(doc)
	baseline := cssdom.TextContent(existing)
	seen := baselineSelectors(baseline)

	var sb strings.Builder
	sb.WriteString(baseline)

	added := 0
	for _, rule := range batch {
		sel := strings.TrimSpace(rule.SelectorText)
		if sel == "" {
			continue
		}
		if _, ok := seen[sel]; ok {
			continue
		}
		seen[sel] = struct{}{}
		fmt.Fprintf(&sb, "%s { font-family: '%s', %s !important; }\n", sel, b.font, rule.FontFamily)
		added++
	}

	if sb.Len() == 0 {
		// Nothing ever collected: no override element is created.
		return 0
	}

	head := doc.Head()
	if head == nil {
		// Best effort: without a head there is nowhere to attach the
		// override. The next qualifying mutation retries naturally.
		return 0
	}

	cssdom.RemoveNode(existing)
	head.AppendChild(cssdom.NewStyleElement(StyleID, sb.String()))
	return added
}

// baselineSelectors extracts the selector set already present in the
// override stylesheet's text.
func baselineSelectors(text string) map[string]struct{} {
	seen := make(map[string]struct{})
	if text == "" {
		return seen
	}
	rules, err := cssdom.ParseCSS(text)
	if err != nil {
		return seen
	}
	for _, r := range rules {
		sel := strings.TrimSpace(r.Prelude)
		if sel != "" {
			seen[sel] = struct{}{}
		}
	}
	return seen
}
