package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/fontshim/fontshim/internal/apply"
	dbcmd "github.com/fontshim/fontshim/internal/db"
	"github.com/fontshim/fontshim/pkg/help"
)

func main() {
	app := &cli.App{
		Name:  "fontshim",
		Usage: "layer a flag-emoji fallback font ahead of every font-family chain on a page",
		Commands: []*cli.Command{
			{
				Name:  "apply",
				Usage: "fetch pages, inject the override stylesheet, and save the rewritten HTML",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "urls", Usage: "comma-separated page URLs"},
					&cli.IntFlag{Name: "workers", Value: 3, Usage: "number of concurrent workers"},
					&cli.StringFlag{Name: "output-dir", Usage: "artifact base directory"},
					&cli.StringFlag{Name: "max-age", Value: "24h", Usage: "reuse artifacts and cached CSS younger than this"},
					&cli.BoolFlag{Name: "force-fetch", Usage: "ignore cached artifacts and refetch everything"},
					&cli.StringFlag{Name: "font", Usage: "replacement font name"},
					&cli.BoolFlag{Name: "debug", Usage: "enable the engine diagnostic trace"},
					&cli.BoolFlag{Name: "quiet", Usage: "only log errors"},
				},
				Action: apply.ApplyAction,
			},
			{
				Name:  "inspect",
				Usage: "list the font-family rules the collector would override on a page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL"},
					&cli.StringFlag{Name: "font", Usage: "replacement font name"},
					&cli.BoolFlag{Name: "debug", Usage: "enable the engine diagnostic trace"},
					&cli.BoolFlag{Name: "quiet", Usage: "only log errors"},
				},
				Action: apply.InspectAction,
			},
			{
				Name:  "runs",
				Usage: "list recorded apply runs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "max runs to list"},
				},
				Action: dbcmd.RunsAction,
			},
			{
				Name:      "run",
				Usage:     "show one run's details and its fallback CSS fetches",
				ArgsUsage: "[run-id]",
				Action:    dbcmd.RunAction,
			},
			{
				Name:  "coldstart",
				Usage: "print the quick-start reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
