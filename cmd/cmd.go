// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Summary format (text, markdown, csv)",
		Value:   "text",
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Action: r.SetupConfig,
			},
		},
	}
}

// importCommand handles document imports and their history.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import album lists from documents into a new playlist",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Import one document (.txt, .html or - for stdin)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Playlist title (defaults to the configured title)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Preview candidates and follow progress in the interactive UI",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print normalized lines and candidates without touching the catalog",
					},
					formatFlag(),
					&cli.StringFlag{
						Name:  "report",
						Usage: "Also write the summary to this file",
					},
				},
				Action: r.ImportRun,
			},
			{
				Name:  "watch",
				Usage: "Import documents dropped into a directory",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "dir"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "existing",
						Usage: "Also import documents already in the directory",
					},
				},
				Action: r.ImportWatch,
			},
			{
				Name:  "history",
				Usage: "List previous imports, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ImportHistory,
			},
			{
				Name:  "show",
				Usage: "Show the summary of one import",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.IntFlag{
						Name:  "preview",
						Usage: "Number of unmatched albums to list (text and markdown)",
					},
				},
				Action: r.ImportShow,
			},
			{
				Name:  "delete",
				Usage: "Remove an import from history",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ImportDelete,
			},
		},
	}
}

// catalogCommand handles direct catalog operations
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Catalog search, login and raw proxy access",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search the catalog for albums and show match scores",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist to score results against",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 8,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CatalogSearch,
			},
			{
				Name:  "login",
				Usage: "Authorize listx with the catalog (OAuth2 + PKCE)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.CatalogLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session and check the catalog proxy",
				Action: r.CatalogStatus,
			},
			{
				Name:  "get",
				Usage: "Direct GET to the catalog proxy, prints the response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.CatalogGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.CatalogPost,
			},
		},
	}
}

// cacheCommand manages the persisted candidate resolution cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear cached album matches",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show how many matches are cached",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Forget every cached match",
				Action: r.CacheClear,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the import HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}
