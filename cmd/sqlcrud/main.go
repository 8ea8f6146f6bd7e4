package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	sqlcrud "github.com/shakram02/go-sql-crud"
)

func main() {
	// Create context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	app := &cli.App{
		Name:  "sqlcrud",
		Usage: "inspect and query a database through the sqlcrud helper",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dialect",
				Value: "postgres",
				Usage: "database dialect: postgres, mysql, or sqlite",
			},
		},
		Commands: []*cli.Command{
			tablesCmd,
			describeCmd,
			selectCmd,
			queryCmd,
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "sqlcrud: %v\n", err)
		os.Exit(1)
	}
}

// openClient connects using the dialect named by the global flag; connection
// details come from the dialect's environment variables.
func openClient(cctx *cli.Context) (*sqlcrud.Client, error) {
	dialect, err := sqlcrud.DialectByName(cctx.String("dialect"))
	if err != nil {
		return nil, err
	}
	return sqlcrud.Open(cctx.Context, dialect)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var tablesCmd = &cli.Command{
	Name:  "tables",
	Usage: "list all tables in the connected database",
	Action: func(cctx *cli.Context) error {
		client, err := openClient(cctx)
		if err != nil {
			return err
		}
		defer client.Close()

		tables, err := client.ListTables(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(tables)
	},
}

var describeCmd = &cli.Command{
	Name:      "describe",
	Usage:     "show column metadata for a table",
	ArgsUsage: "<table>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expected exactly one table name")
		}

		client, err := openClient(cctx)
		if err != nil {
			return err
		}
		defer client.Close()

		columns, err := client.DescribeTable(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}
		return printJSON(columns)
	},
}

var selectCmd = &cli.Command{
	Name:      "select",
	Usage:     "select rows from a table with an optional equality filter",
	ArgsUsage: "<table>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "filter",
			Usage: "JSON object of column/value equality conditions",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expected exactly one table name")
		}

		var filter map[string]any
		if f := cctx.String("filter"); f != "" {
			if err := json.Unmarshal([]byte(f), &filter); err != nil {
				return fmt.Errorf("invalid filter: %w", err)
			}
		}

		client, err := openClient(cctx)
		if err != nil {
			return err
		}
		defer client.Close()

		rows, err := client.SelectFromTable(cctx.Context, cctx.Args().First(), filter)
		if err != nil {
			return err
		}
		return printJSON(rows)
	},
}

var queryCmd = &cli.Command{
	Name:      "query",
	Usage:     "run a raw read-only query (SELECT, SHOW, DESCRIBE, EXPLAIN)",
	ArgsUsage: "<sql>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expected exactly one query string")
		}

		client, err := openClient(cctx)
		if err != nil {
			return err
		}
		defer client.Close()

		rows, err := client.Query(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}
		return printJSON(rows)
	},
}
