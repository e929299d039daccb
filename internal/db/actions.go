package db

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	dbpkg "github.com/fontshim/fontshim/pkg/db"
)

// RunsAction lists recent apply runs.
func RunsAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("%-6s %-20s %-8s %-10s %-8s %-8s %-12s %-40s\n",
		"ID", "Created", "Sheets", "Collected", "Emitted", "Inline", "Status", "Page URL")
	fmt.Println(strings.Repeat("-", 120))

	for _, r := range runs {
		fmt.Printf("%-6d %-20s %-8d %-10d %-8d %-8d %-12s %-40s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.StylesheetCount,
			r.RulesCollected,
			r.RulesEmitted,
			r.InlineFixed,
			r.Status,
			r.PageURL,
		)
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'fontshim run <id>' to see details\n")
	return nil
}

// RunAction shows details for one run, including its fallback CSS fetches.
func RunAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := runIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRunByID(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %d\n", run.RunID)
	fmt.Printf("  Page URL:        %s\n", run.PageURL)
	fmt.Printf("  Created:         %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Stylesheets:     %d\n", run.StylesheetCount)
	fmt.Printf("  Rules collected: %d\n", run.RulesCollected)
	fmt.Printf("  Rules emitted:   %d\n", run.RulesEmitted)
	fmt.Printf("  Inline fixed:    %d\n", run.InlineFixed)
	fmt.Printf("  Status:          %s\n", run.Status)
	if run.ErrorMessage != "" {
		fmt.Printf("  Error:           %s\n", run.ErrorMessage)
	}

	fetches, err := database.ListCSSFetches(runID)
	if err != nil {
		return err
	}
	if len(fetches) == 0 {
		fmt.Println("\nNo fallback CSS fetches for this run")
		return nil
	}

	fmt.Printf("\n%-8s %-10s %-10s %-50s\n", "ID", "Status", "Bytes", "CSS URL")
	fmt.Println(strings.Repeat("-", 90))
	for _, f := range fetches {
		fmt.Printf("%-8d %-10s %-10d %-50s\n", f.FetchID, f.Status, f.SizeBytes, f.CSSURL)
	}
	return nil
}

// runIDOrLatest reads the run id argument, defaulting to the newest run.
func runIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.Args().Len() == 0 {
		return database.LatestRunID()
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run id %q: %w", c.Args().First(), err)
	}
	return id, nil
}
