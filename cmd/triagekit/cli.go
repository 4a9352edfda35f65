package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/triagekit/triagekit/internal/config"
	"github.com/triagekit/triagekit/internal/errors"
	"github.com/triagekit/triagekit/internal/mcp"
	"github.com/triagekit/triagekit/internal/ops"
	"github.com/triagekit/triagekit/internal/sarif"
	"github.com/triagekit/triagekit/internal/toolshed"
)

// appDeps holds the shared dependencies CLI commands operate on.
type appDeps struct {
	database *sql.DB
	cfg      *config.Config
	catalog  *toolshed.Catalog
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(deps *appDeps) *cli.App {
	app := &cli.App{
		Name:    "triagekit",
		Usage:   "Import Toolshed analysis results into the triage finding store",
		Version: Version,
		Commands: []*cli.Command{
			importCmd(deps),
			artifactsCmd(deps),
			findingsCmd(deps),
			runsCmd(deps),
			serveCmd(deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// importCmd creates the import command.
func importCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import result files for one package, or for the whole store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "Package coordinate (type/[namespace/]name/version)"},
			&cli.BoolFlag{Name: "all", Usage: "Scan the entire store"},
			&cli.IntFlag{Name: "maximum", Aliases: []string{"m"}, Usage: "Maximum number of objects to attempt"},
		},
		Action: func(c *cli.Context) error {
			importer := sarif.NewImporter(deps.database)
			output, err := ops.Import(c.Context, deps.catalog, deps.database, importer, deps.cfg.Actor, ops.ImportInput{
				Package: c.String("package"),
				All:     c.Bool("all"),
				Maximum: c.Int("maximum"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// artifactsCmd creates the artifacts command.
func artifactsCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "artifacts",
		Usage: "List a package's stored artifacts classified by role",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Required: true, Usage: "Package coordinate"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Artifacts(c.Context, deps.catalog, ops.ArtifactsInput{
				Package: c.String("package"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// findingsCmd creates the findings command.
func findingsCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "findings",
		Usage:     "List imported findings, or fetch one by ID",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "Filter by package coordinate"},
			&cli.StringFlag{Name: "tool", Aliases: []string{"t"}, Usage: "Filter by tool name"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultFindingLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			// Positional ID argument fetches a single finding.
			if c.NArg() > 0 {
				output, err := ops.GetFinding(deps.database, c.Args().First())
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			output, err := ops.Findings(deps.database, ops.FindingsInput{
				Package: c.String("package"),
				Tool:    c.String("tool"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// runsCmd creates the runs command.
func runsCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recent import batch summaries",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultRunLimit, Usage: "Maximum items to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Runs(deps.database, ops.RunsInput{
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command (MCP stdio server).
func serveCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve read-only triage tools over MCP stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(deps.database, deps.catalog, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := err.(*errors.TriageError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
