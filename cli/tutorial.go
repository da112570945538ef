package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ErrExampleOutOfRange is returned for an example number a lesson lacks
var ErrExampleOutOfRange = errors.MustNewCode("cli.example_out_of_range")

func createTutorialCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutorial",
		Short: "Browse the SQL tutorials",
	}

	var (
		index int
		run   bool
	)

	example := &cobra.Command{
		Use:   "example [tutorial-id]",
		Short: "Print, and optionally run, an example query of a tutorial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}
			t, err := app.catalog.Get(args[0])
			if err != nil {
				return err
			}
			if index < 1 || index > len(t.Examples) {
				return errors.Newf(ErrExampleOutOfRange, "%s has %d example(s), got %d", t.ID, len(t.Examples), index)
			}

			ex := t.Examples[index-1]
			app.printExample(ex)
			if !run {
				return nil
			}
			app.println()
			return app.runQuery(cmd.Context(), ex.Query, t.ID, "cli")
		},
	}
	example.Flags().IntVarP(&index, "index", "n", 1, "example number, starting at 1")
	example.Flags().BoolVar(&run, "run", false, "run the example and record it against the lesson")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List tutorials in lesson order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.open(cmd.Context()); err != nil {
					return err
				}
				return app.printTutorials(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "show [tutorial-id]",
			Short: "Show a tutorial and its examples",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.open(cmd.Context()); err != nil {
					return err
				}
				t, err := app.catalog.Get(args[0])
				if err != nil {
					return err
				}
				app.printLesson(t)
				return nil
			},
		},
		example,
		&cobra.Command{
			Use:   "progress",
			Short: "Show lesson progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.open(cmd.Context()); err != nil {
					return err
				}
				return app.printProgress(cmd.Context())
			},
		},
	)

	return cmd
}

func (a *App) printTutorials(ctx context.Context) error {
	done, err := a.progress.Completed(ctx)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"#", "ID", "Title", "Level", "Examples", "Done"}}
	for i, t := range a.catalog.List() {
		mark := ""
		if done[t.ID] {
			mark = "✅"
		}
		data = append(data, []string{
			strconv.Itoa(i + 1), t.ID, t.Title, t.Difficulty, strconv.Itoa(len(t.Examples)), mark,
		})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	a.println("📚 SQL Tutorials")
	a.println(rendered)
	return nil
}

func (a *App) printLesson(t tutorial.Tutorial) {
	a.printf("📖 Lesson %d of %d: %s\n\n", a.catalog.Position(t.ID)+1, a.catalog.Len(), t.Title)
	a.println(t.Summary())
	for i, ex := range t.Examples {
		a.printf("\n%d. %s\n%s\n", i+1, ex.Explanation, ex.Query)
	}
}

func (a *App) printExample(ex tutorial.Example) {
	a.printf("💡 Example: %s\n%s\n", ex.Explanation, ex.Query)
}

func (a *App) printProgress(ctx context.Context) error {
	lessons, err := a.progress.List(ctx)
	if err != nil {
		return err
	}
	if len(lessons) == 0 {
		a.println("No lessons attempted yet. Start with: sqllab tutorial show basic_select")
		return nil
	}

	completed := 0
	data := pterm.TableData{{"Lesson", "Title", "Attempts", "Score", "Completed"}}
	for _, l := range lessons {
		when := ""
		if l.Completed {
			completed++
			if l.CompletedAt != nil {
				when = l.CompletedAt.Local().Format("2006-01-02 15:04")
			}
		}
		data = append(data, []string{l.LessonID, l.LessonTitle, strconv.Itoa(l.Attempts), strconv.Itoa(l.Score), when})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	a.println("🎓 Progress")
	a.println(rendered)
	a.println(fmt.Sprintf("\nCompleted %d of %d lessons", completed, a.catalog.Len()))
	return nil
}
