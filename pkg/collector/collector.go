// Package collector scans every stylesheet attached to a document and
// filters its rules down to the (selector, font-family) pairs that are
// candidates for an override.
package collector

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"

	"github.com/fontshim/fontshim/models"
	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/diag"
	"github.com/fontshim/fontshim/pkg/extractor"
	"github.com/fontshim/fontshim/pkg/override"
)

// nonVisualMedia lists media types whose stylesheets never affect rendered
// text and are skipped outright.
var nonVisualMedia = map[string]struct{}{
	"print":      {},
	"speech":     {},
	"aural":      {},
	"braille":    {},
	"handheld":   {},
	"projection": {},
	"tty":        {},
}

// Collector produces the font-family rule batch for one scan pass.
type Collector struct {
	font      string
	extractor *extractor.Extractor
}

func New(font string, ex *extractor.Extractor) *Collector {
	return &Collector{font: font, extractor: ex}
}

// Collect walks the document's stylesheets in order and returns every
// pristine font-family rule. One bad sheet never aborts the pass: failures
// are logged with their position and the loop continues.
func (c *Collector) Collect(doc *cssdom.Document, log *diag.Logger, run int) []models.FontFamilyRule {
	sheets := doc.StyleSheets()
	total := len(sheets)

	var collected []models.FontFamilyRule
	for i, sheet := range sheets {
		logf := log.Bind(run, diag.ScanScope, i+1, total)
		collected = append(collected, c.collectSheet(sheet, logf)...)
	}
	return collected
}

func (c *Collector) collectSheet(sheet *cssdom.StyleSheet, logf func(string, ...any)) (rules []models.FontFamilyRule) {
	defer func() {
		if r := recover(); r != nil {
			// A misbehaving sheet costs only its own rules.
			logf("stylesheet processing failed: %v", r)
			rules = nil
		}
	}()

	// Never re-process our own output as a pristine font-family rule.
	if sheet.OwnerID() == override.StyleID {
		return nil
	}
	if _, ok := nonVisualMedia[strings.ToLower(strings.TrimSpace(sheet.Media))]; ok {
		return nil
	}

	for _, rule := range c.extractor.Rules(sheet, logf) {
		if r, ok := c.fontRule(rule); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

// fontRule decides whether one CSS rule is an override candidate.
func (c *Collector) fontRule(rule *css.Rule) (models.FontFamilyRule, bool) {
	// At-rules have no declaration block of their own.
	if rule.Kind != css.QualifiedRule || len(rule.Declarations) == 0 {
		return models.FontFamilyRule{}, false
	}

	family := fontFamilyValue(rule.Declarations)
	if family == "" {
		return models.FontFamilyRule{}, false
	}
	// inherit cannot be combined with a fallback chain.
	if strings.EqualFold(family, "inherit") {
		return models.FontFamilyRule{}, false
	}
	// Rules that already mention the replacement font must not be collected
	// again; this is what makes repeated passes convergent.
	if strings.Contains(strings.ToLower(family), strings.ToLower(c.font)) {
		return models.FontFamilyRule{}, false
	}

	selector := strings.TrimSpace(rule.Prelude)
	if selector == "" {
		return models.FontFamilyRule{}, false
	}
	if _, err := cascadia.ParseGroup(selector); err != nil {
		// An unparsable selector is as good as no selector.
		return models.FontFamilyRule{}, false
	}

	return models.FontFamilyRule{SelectorText: selector, FontFamily: family}, true
}

func fontFamilyValue(decls []*css.Declaration) string {
	for _, d := range decls {
		if strings.EqualFold(d.Property, "font-family") {
			return strings.TrimSpace(d.Value)
		}
	}
	return ""
}
