// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// searchCommand runs a single catalog search and prints the result list.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search Open Library by title, author or keyword",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, markdown, csv, json)",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to a file instead of stdout",
			},
		},
		Action: r.Search,
	}
}

// shareCommand searches, then saves and hands off the cover of one result.
func shareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "share",
		Usage:     "Save the cover of a search result and share it",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Zero-based position of the book in the result list",
				Value:   0,
			},
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "Copy the share URI to the clipboard",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the saved cover with the default viewer",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the share action as JSON",
			},
		},
		Action: r.Share,
	}
}

// tuiCommand returns the top-level TUI command for interactive searching.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for searching books",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}

// shellCommand returns the line-oriented interactive surface.
func shellCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Search interactively, one query per line",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "history",
				Usage: "Path to the line history file",
				Value: "./tmp/shell_history",
			},
		},
		Action: r.Shell,
	}
}

// serveCommand exposes the search engine over HTTP.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON search API and prometheus metrics",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// historyCommand lists recorded search attempts.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded search attempts",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show records with this status (succeeded, failed, superseded)",
			},
			&cli.StringFlag{
				Name:  "query",
				Usage: "Only show records whose query contains this text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
