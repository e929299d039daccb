package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEngineOptions_MissingFileUsesDefaults(t *testing.T) {
	opts, err := LoadEngineOptions(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadEngineOptions() error = %v, want nil for missing file", err)
	}
	if opts.ReplacementFont != DefaultReplacementFont {
		t.Errorf("ReplacementFont = %q, want default %q", opts.ReplacementFont, DefaultReplacementFont)
	}
	if opts.Debug {
		t.Error("Debug = true, want false by default")
	}
}

func TestLoadEngineOptions_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fontshim.yaml")
	content := "replacement_font: \"Noto Color Emoji\"\ndebug: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	opts, err := LoadEngineOptions(path)
	if err != nil {
		t.Fatalf("LoadEngineOptions() error = %v", err)
	}
	if opts.ReplacementFont != "Noto Color Emoji" {
		t.Errorf("ReplacementFont = %q, want %q", opts.ReplacementFont, "Noto Color Emoji")
	}
	if !opts.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoadEngineOptions_EmptyFontFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fontshim.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	opts, err := LoadEngineOptions(path)
	if err != nil {
		t.Fatalf("LoadEngineOptions() error = %v", err)
	}
	if opts.ReplacementFont != DefaultReplacementFont {
		t.Errorf("ReplacementFont = %q, want default", opts.ReplacementFont)
	}
}

func TestLoadEngineOptions_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fontshim.yaml")
	if err := os.WriteFile(path, []byte("replacement_font: [unclosed"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadEngineOptions(path); err == nil {
		t.Error("LoadEngineOptions() error = nil for malformed YAML, want error")
	}
}
