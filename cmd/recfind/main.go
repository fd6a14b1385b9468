package main

import (
	"log/slog"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("recfind failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "recfind",
		Usage: "Look up phone numbers, email addresses and names in delimited-text datasets",
		Description: heredoc.Doc(`
			recfind classifies a query as a phone number, an email address or a
			person name, scans every configured dataset for matching records and
			prints a summary. Matches can be saved as a self-contained HTML report.

			Settings are read from the environment and from a .env file in the
			working directory. The dataset catalog is a YAML or JSON file.
		`),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the dataset catalog (overrides DATASETS_CONFIG)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			searchCommand(),
			shellCommand(),
			serveCommand(),
			datasetsCommand(),
		},
	}
}
