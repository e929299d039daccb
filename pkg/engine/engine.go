// Package engine wires the font-override pipeline together and drives it
// from DOM mutation batches. One Engine instance exists per monitored
// document; all correctness state (requested CSS files, known stylesheet
// identifiers, run counter) lives on the instance.
package engine

import (
	"io"
	"sync"

	"github.com/fontshim/fontshim/models"
	"github.com/fontshim/fontshim/pkg/collector"
	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/diag"
	"github.com/fontshim/fontshim/pkg/extractor"
	"github.com/fontshim/fontshim/pkg/fetcher"
	"github.com/fontshim/fontshim/pkg/inline"
	"github.com/fontshim/fontshim/pkg/override"
)

// Stats summarizes one completed scan pass.
type Stats struct {
	Stylesheets    int `yaml:"stylesheets"`
	RulesCollected int `yaml:"rules_collected"`
	RulesEmitted   int `yaml:"rules_emitted"`
	InlineFixed    int `yaml:"inline_fixed"`
}

// Engine is the long-lived font-override instance for one document.
//
// Methods serialize internally. The merge policy of the override builder
// (never overwrite an existing selector) is what keeps repeated or
// redundant passes convergent; the mutex only protects Go memory, it is not
// a correctness mechanism.
type Engine struct {
	doc       *cssdom.Document
	opts      models.EngineOptions
	collector *collector.Collector
	builder   *override.Builder
	log       *diag.Logger

	mu       sync.Mutex
	known    map[string]struct{}
	runCount int
}

// New builds an engine for doc, seeding the known-stylesheet set from every
// currently attached sheet. diagSink receives trace output when opts.Debug
// is set (stderr when nil).
func New(doc *cssdom.Document, opts models.EngineOptions, client *fetcher.Client, diagSink io.Writer) *Engine {
	if opts.ReplacementFont == "" {
		opts.ReplacementFont = models.DefaultReplacementFont
	}
	ex := extractor.New(client)
	e := &Engine{
		doc:       doc,
		opts:      opts,
		collector: collector.New(opts.ReplacementFont, ex),
		builder:   override.NewBuilder(opts.ReplacementFont),
		log:       diag.New(opts.Debug, diagSink),
		known:     make(map[string]struct{}),
	}
	for _, sheet := range doc.StyleSheets() {
		if id := sheet.Identifier(); id != "" {
			e.known[id] = struct{}{}
		}
	}
	return e
}

// Start runs the initial full pass: collect, rebuild the override
// stylesheet, and reinforce inline styles across the document.
func (e *Engine) Start() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.scan()
	stats.InlineFixed = e.preserveAll()
	return stats
}

// RunCount returns the number of completed scan passes.
func (e *Engine) RunCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runCount
}

// scan runs one Collector→Builder pass and increments the run counter once
// the pass completes. Callers hold e.mu.
func (e *Engine) scan() Stats {
	run := e.runCount + 1
	sheets := e.doc.StyleSheets()
	rules := e.collector.Collect(e.doc, e.log, run)
	emitted := e.builder.Rebuild(e.doc, rules)
	e.runCount = run
	e.log.Logf(run, diag.ScanScope, len(sheets), len(sheets),
		"pass complete: %d rules collected, %d emitted", len(rules), emitted)
	return Stats{
		Stylesheets:    len(sheets),
		RulesCollected: len(rules),
		RulesEmitted:   emitted,
	}
}

// preserveAll reinforces inline font-family declarations on every styled
// element in the document. Callers hold e.mu.
func (e *Engine) preserveAll() int {
	els := e.doc.StyledElements()
	total := len(els)
	fixed := 0
	for i, el := range els {
		if inline.Preserve(el) {
			fixed++
			e.log.Logf(e.runCount, diag.FixScope, i+1, total,
				"reinforced inline font-family on <%s>", el.Data)
		}
	}
	return fixed
}
