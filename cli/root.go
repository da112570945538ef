package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version of the sqllab binary
const Version = "0.1.0"

// NewRootCommand builds the command tree around app
func NewRootCommand(app *App) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "sqllab",
		Short: "A single-binary SQL learning lab",
		Long: `sqllab is a single-binary SQL learning lab.

It ships an embedded SQLite sandbox seeded with sample company data
(employees, departments, sales), a set of progressive SQL tutorials and a
read-only query gate: only SELECT statements terminated by a semicolon run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.verbose = verbose
			if app.cfg != nil {
				return nil
			}
			return app.configure(configPath, verbose)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.SetIn(app.in)
	rootCmd.SetOut(app.out)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to sqllab.yml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		createInitCommand(app),
		createQueryCommand(app),
		createValidateCommand(app),
		createShellCommand(app),
		createTablesCommand(app),
		createSchemaCommand(app),
		createTutorialCommand(app),
		createHistoryCommand(app),
		createServeCommand(app),
	)

	return rootCmd
}

// Execute runs the command line against stdin and stdout. A failure is
// reported on errOut before it is returned.
func Execute(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) error {
	app := NewApp(in, out)
	defer app.Close()

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "❌ %s\n", app.describe(err))
		return err
	}
	return nil
}
