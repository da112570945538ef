package cli

import (
	"context"

	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func createTablesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the sandbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}
			return app.printTables(cmd.Context())
		},
	}
}

func createSchemaCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [table]",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}
			return app.printSchema(cmd.Context(), args[0])
		},
	}
}

func (a *App) printTables(ctx context.Context) error {
	tables, err := a.sandbox.Tables(ctx)
	if err != nil {
		return err
	}

	a.println("📋 Available tables:")
	for _, t := range tables {
		a.printf("  • %s\n", t)
	}
	return nil
}

func (a *App) printSchema(ctx context.Context, table string) error {
	columns, err := a.sandbox.TableSchema(ctx, table)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Column", "Type", "Not Null", "Default", "Primary Key"}}
	for _, c := range columns {
		dflt := ""
		if c.Default != nil {
			dflt = *c.Default
		}
		data = append(data, []string{c.Name, c.Type, yesNo(c.NotNull), dflt, yesNo(c.PrimaryKey)})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}

	a.printf("📋 Table Schema: %s\n\n", table)
	a.println(rendered)
	a.printf("\n💡 Try: %s\n", sandbox.PreviewQuery(table))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
