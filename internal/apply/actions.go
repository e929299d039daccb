package apply

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/fontshim/fontshim/internal/common"
	"github.com/fontshim/fontshim/models"
	"github.com/fontshim/fontshim/pkg/artifacts"
	"github.com/fontshim/fontshim/pkg/caching"
	"github.com/fontshim/fontshim/pkg/collector"
	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/db"
	"github.com/fontshim/fontshim/pkg/diag"
	"github.com/fontshim/fontshim/pkg/extractor"
	"github.com/fontshim/fontshim/pkg/fetcher"
)

const defaultConfigFile = "fontshim.yaml"

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func engineOptions(c *cli.Context, logger *slog.Logger) models.EngineOptions {
	opts, err := models.LoadEngineOptions(defaultConfigFile)
	if err != nil {
		logger.Warn("Failed to load config file, using defaults", "error", err)
	}
	if c.Bool("debug") {
		opts.Debug = true
	}
	if c.IsSet("font") {
		opts.ReplacementFont = c.String("font")
	}
	return opts
}

// ApplyAction fetches each page, runs the override engine over it, and
// writes the rewritten HTML artifact.
func ApplyAction(c *cli.Context) error {
	logger := newLogger(c)
	startTime := time.Now()

	var maxAge time.Duration
	var err error
	if c.Bool("force-fetch") {
		maxAge = 0
	} else {
		maxAge, err = time.ParseDuration(c.String("max-age"))
		if err != nil {
			logger.Error("invalid max-age duration", "error", err)
			os.Exit(2)
		}
	}

	manager, err := artifacts.NewManager(c.String("output-dir"), maxAge)
	if err != nil {
		logger.Error("failed to initialize artifact manager", "error", err)
		os.Exit(2)
	}

	cache, err := caching.New(manager.CSSCachePath(), maxAge)
	if err != nil {
		logger.Error("failed to initialize CSS cache", "error", err)
		os.Exit(2)
	}

	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	config := &models.ApplyConfig{
		WorkerCount: c.Int("workers"),
	}
	if c.IsSet("urls") {
		config.URLs = strings.Split(c.String("urls"), ",")
	}
	if len(config.URLs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No URLs provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  fontshim apply --urls "https://example.com,https://example.org"`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Need help? Run: fontshim coldstart")
		os.Exit(1)
	}

	sanitizedURLs, invalidURLs := common.SanitizeAndValidateURLs(config.URLs)
	if len(invalidURLs) > 0 {
		fmt.Fprintf(os.Stderr, "Error: %d URL(s) are malformed (even after cleanup):\n", len(invalidURLs))
		for _, badURL := range invalidURLs {
			fmt.Fprintf(os.Stderr, "  - %s\n", badURL)
		}
		os.Exit(1)
	}
	config.URLs = sanitizedURLs

	opts := engineOptions(c, logger)
	logger.Info("Engine options", "replacement_font", opts.ReplacementFont, "debug", opts.Debug)

	allResults := run(logger, config, opts, manager, cache, database, c.Bool("force-fetch"))

	summaries := make([]ResultSummary, 0, len(allResults))
	var successCount, failedCount int
	for _, r := range allResults {
		if r.Error != nil {
			failedCount++
		} else {
			successCount++
		}
		summaries = append(summaries, summarize(r))
	}

	out, err := yaml.Marshal(map[string]any{
		"results":            summaries,
		"total_urls":         len(config.URLs),
		"success":            successCount,
		"failed":             failedCount,
		"total_time_seconds": time.Since(startTime).Seconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	fmt.Print(string(out))

	if failedCount > 0 {
		os.Exit(1)
	}
	return nil
}

// InspectAction runs the collector only and prints the candidate
// (selector, font-family) pairs for one page.
func InspectAction(c *cli.Context) error {
	logger := newLogger(c)

	pageURL := common.SanitizeURL(c.String("url"))
	if pageURL == "" {
		fmt.Fprintln(os.Stderr, "Error: No URL provided")
		fmt.Fprintln(os.Stderr, `Usage: fontshim inspect --url "https://example.com"`)
		os.Exit(1)
	}

	client := fetcher.NewClient()
	htmlBytes, err := client.GetHTML(pageURL)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	loader, err := newSheetLoader(pageURL, client, nil)
	if err != nil {
		return fmt.Errorf("invalid page URL: %w", err)
	}
	doc, err := cssdom.Load(bytes.NewReader(htmlBytes), pageURL, loader)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	opts := engineOptions(c, logger)
	col := collector.New(opts.ReplacementFont, extractor.New(client))
	rules := col.Collect(doc, diag.New(opts.Debug, os.Stderr), 1)

	if len(rules) == 0 {
		fmt.Println("No font-family rules found")
		return nil
	}

	fmt.Printf("%-50s %s\n", "Selector", "Font Family")
	fmt.Println(strings.Repeat("-", 90))
	for _, r := range rules {
		fmt.Printf("%-50s %s\n", r.SelectorText, r.FontFamily)
	}
	fmt.Printf("\nTotal: %d rules\n", len(rules))
	return nil
}
