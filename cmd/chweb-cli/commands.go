package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	chcli "github.com/chweb/chweb/cli"
	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func newRootCommand(commands ...*cli.Command) *cli.Command {
	return &cli.Command{
		Name:  "chweb-cli",
		Usage: "Run queries through a chweb server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "The chweb server URL.",
				Value:   "http://127.0.0.1:3001",
				Sources: cli.EnvVars("CHWEB_SERVER"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the server.",
				Value: 5 * time.Minute,
			},
		},
		Commands: commands,
	}
}

func newContext(c *cli.Command) *chcli.Context {
	return chcli.NewContext(c.String("server"), c.Duration("timeout"))
}

func newQueryCommand() *cli.Command {
	return &cli.Command{
		Name:        "query",
		Usage:       "Run a SQL statement and print the result",
		Description: "Runs the statement given with --sql, or read from --file (\"-\" for stdin). At most 2000 rows are returned.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "sql",
				Usage: "The statement to run.",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "A file containing the statement to run.",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   fmt.Sprintf("Output format, one of %v.", chcli.OutputFormats),
				Value:   chcli.OutputTable,
				Validator: func(format string) error {
					if !lo.Contains(chcli.OutputFormats, format) {
						return fmt.Errorf("unknown output format %q", format)
					}
					return nil
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			sql, err := readStatement(c)
			if err != nil {
				return err
			}

			interactive := c.String("output") == chcli.OutputTable && isatty.IsTerminal(os.Stdout.Fd())

			resp, err := newContext(c).RunQuery(ctx, sql, interactive)
			if err != nil {
				return err
			}

			return chcli.Render(os.Stdout, resp, c.String("output"))
		},
	}
}

func newPingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check the server can reach ClickHouse",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := newContext(c).Ping(ctx); err != nil {
				return err
			}

			fmt.Println("✅ Server and ClickHouse are reachable.")
			return nil
		},
	}
}

func readStatement(c *cli.Command) (string, error) {
	switch {
	case c.IsSet("sql") && c.IsSet("file"):
		return "", errors.New("use either --sql or --file, not both")
	case c.IsSet("sql"):
		return c.String("sql"), nil
	case c.IsSet("file"):
		var (
			content []byte
			err     error
		)
		if c.String("file") == "-" {
			content, err = io.ReadAll(os.Stdin)
		} else {
			content, err = os.ReadFile(c.String("file"))
		}
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(content), nil
	default:
		return "", errors.New("a statement is required: pass --sql or --file")
	}
}
