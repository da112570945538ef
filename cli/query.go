package cli

import (
	"context"
	"strings"

	"github.com/gear6io/sqllab/pkg/guard"
	"github.com/gear6io/sqllab/server/runner"
	"github.com/spf13/cobra"
)

func createQueryCommand(app *App) *cobra.Command {
	var lesson string

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run a SELECT query against the sandbox",
		Long: `Run one SELECT query against the sandbox database and print the results
as a text table followed by a short analysis of the data.

Only SELECT statements ending with a semicolon are executed. Statements
containing any of ` + strings.Join(guard.Denylist(), ", ") + ` anywhere
in their text are refused.

Examples:
  sqllab query "SELECT * FROM employees;"
  sqllab query "SELECT department, AVG(salary) FROM employees GROUP BY department;"
  sqllab query --lesson joins "SELECT e.first_name, s.product_name FROM employees e JOIN sales s ON e.employee_id = s.employee_id;"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}
			return app.runQuery(cmd.Context(), args[0], lesson, "cli")
		},
	}

	cmd.Flags().StringVarP(&lesson, "lesson", "l", "", "tutorial id to record this attempt against")
	return cmd
}

func createValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [sql]",
		Short: "Check whether a query would be allowed, without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := guard.Validate(args[0])
			if !v.Allowed() {
				return v.Err()
			}
			app.println("✅ Query is valid")
			return nil
		},
	}
}

// runQuery executes one submission and prints its report. A rejected query
// comes back as the verdict's error.
func (a *App) runQuery(ctx context.Context, query, lesson, source string) error {
	out, err := a.runner.Execute(ctx, runner.Request{
		Query:     strings.TrimSpace(query),
		LessonID:  lesson,
		SessionID: a.sessionID,
		Source:    source,
	})
	if err != nil {
		return err
	}
	if !out.Executed() {
		return out.Verdict.Err()
	}

	a.printf("%s", out.Report)
	if a.cfg.Log.Console {
		a.printf("\n⏱️  %s (query %s)\n", out.Duration, out.QueryID)
	}
	if out.Lesson != nil && out.Lesson.Completed {
		a.printf("\n✅ Lesson completed: %s (attempts: %d, score: %d)\n",
			out.Lesson.LessonTitle, out.Lesson.Attempts, out.Lesson.Score)
	}
	return nil
}
