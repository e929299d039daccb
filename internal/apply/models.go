package apply

import (
	"github.com/fontshim/fontshim/pkg/engine"
)

// Job defines a page for a worker to process.
type Job struct {
	URL string
}

// Result holds the outcome of a processed job.
type Result struct {
	URL       string
	FilePath  string
	RunID     int64
	Stats     engine.Stats
	Cached    bool
	Error     error
	ErrorType string
}

// ResultSummary is the YAML view of one result printed after a run.
type ResultSummary struct {
	URL            string `yaml:"url"`
	Status         string `yaml:"status"`
	RunID          int64  `yaml:"run_id,omitempty"`
	FilePath       string `yaml:"file_path,omitempty"`
	Stylesheets    int    `yaml:"stylesheets"`
	RulesCollected int    `yaml:"rules_collected"`
	RulesEmitted   int    `yaml:"rules_emitted"`
	InlineFixed    int    `yaml:"inline_fixed"`
	Error          string `yaml:"error,omitempty"`
}

func summarize(r Result) ResultSummary {
	s := ResultSummary{
		URL:            r.URL,
		Status:         "success",
		RunID:          r.RunID,
		FilePath:       r.FilePath,
		Stylesheets:    r.Stats.Stylesheets,
		RulesCollected: r.Stats.RulesCollected,
		RulesEmitted:   r.Stats.RulesEmitted,
		InlineFixed:    r.Stats.InlineFixed,
	}
	if r.Cached {
		s.Status = "cached"
	}
	if r.Error != nil {
		s.Status = r.ErrorType
		s.Error = r.Error.Error()
	}
	return s
}
