package cli

import (
	"bufio"
	"context"
	"strings"

	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
)

const continuationPrompt = "... "

const shellHelp = `Available commands:
  exit, quit        Exit the shell
  help              Show this help
  \tables           List tables
  \schema <table>   Show the columns of a table
  \lesson <id>      Start a tutorial lesson
  \example          Run the next example of the current lesson
  \progress         Show lesson progress
  \history          Show queries run in this session
  <SQL>;            Run a SELECT query, it may span several lines`

func createShellCommand(app *App) *cobra.Command {
	var lesson string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive SQL shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}
			sh := &shell{app: app, prompt: app.cfg.Shell.Prompt}
			if lesson != "" {
				if err := sh.startLesson(lesson); err != nil {
					return err
				}
			}
			return sh.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&lesson, "lesson", "l", "", "tutorial id to start with")
	return cmd
}

// shell is the read-eval-print loop. Input accumulates until a line ends
// with a semicolon; meta commands are only recognised on an empty buffer.
type shell struct {
	app    *App
	prompt string
	buf    []string
	cursor *tutorial.Cursor
}

func (s *shell) run(ctx context.Context) error {
	a := s.app
	interactive := a.interactive()

	if interactive {
		a.println("🎓 sqllab Interactive Shell")
		a.println("==========================")
		a.println("Type 'exit' or 'quit' to exit")
		a.println("Type 'help' for available commands")
		a.println()
	}

	scanner := bufio.NewScanner(a.in)
	for {
		if interactive {
			a.printf("%s", s.currentPrompt())
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		done, err := s.handleLine(ctx, scanner.Text())
		if err != nil {
			a.printf("❌ %s\n", a.describe(err))
		}
		if done {
			a.println("Goodbye!")
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read shell input")
	}
	if len(s.buf) > 0 {
		a.println("⚠️  Discarded unterminated query, end statements with ;")
	}
	return nil
}

func (s *shell) currentPrompt() string {
	if len(s.buf) > 0 {
		pad := max(len(s.prompt)-len(continuationPrompt), 0)
		return strings.Repeat(" ", pad) + continuationPrompt
	}
	return s.prompt
}

// handleLine consumes one input line; done is true when the shell should exit
func (s *shell) handleLine(ctx context.Context, line string) (done bool, err error) {
	trimmed := strings.TrimSpace(line)

	if len(s.buf) == 0 {
		if trimmed == "" {
			return false, nil
		}
		if handled, done, err := s.meta(ctx, trimmed); handled {
			return done, err
		}
	}

	if trimmed == "" {
		return false, nil
	}
	s.buf = append(s.buf, line)
	if !strings.HasSuffix(trimmed, ";") {
		return false, nil
	}

	query := strings.TrimSpace(strings.Join(s.buf, "\n"))
	s.buf = s.buf[:0]
	return false, s.execute(ctx, query)
}

func (s *shell) meta(ctx context.Context, input string) (handled, done bool, err error) {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "exit", "quit", `\q`:
		return true, true, nil
	case "help", `\?`, `\help`:
		s.app.println(shellHelp)
		return true, false, nil
	case `\tables`:
		return true, false, s.app.printTables(ctx)
	case `\schema`:
		if len(fields) != 2 {
			return true, false, errors.New(`usage: \schema <table>`)
		}
		return true, false, s.app.printSchema(ctx, fields[1])
	case `\lesson`:
		if len(fields) != 2 {
			return true, false, errors.New(`usage: \lesson <tutorial-id>`)
		}
		return true, false, s.startLesson(fields[1])
	case `\example`:
		return true, false, s.nextExample(ctx)
	case `\progress`:
		return true, false, s.app.printProgress(ctx)
	case `\history`:
		s.app.printHistory(s.app.runner.Manager().ListQueries())
		return true, false, nil
	}
	if strings.HasPrefix(input, `\`) {
		return true, false, errors.Errorf("unknown command %s, type help", fields[0])
	}
	return false, false, nil
}

func (s *shell) startLesson(id string) error {
	t, err := s.app.catalog.Get(id)
	if err != nil {
		return err
	}
	s.cursor = tutorial.NewCursor(t)
	s.app.printLesson(t)
	s.app.println("\nType \\example to run the next example, or write your own query.")
	return nil
}

func (s *shell) nextExample(ctx context.Context) error {
	if s.cursor == nil {
		return errors.New(`no lesson started, use \lesson <tutorial-id>`)
	}
	ex, ok := s.cursor.Next()
	if !ok {
		return errors.New("this lesson has no examples")
	}
	s.app.printExample(ex)
	s.app.println()
	return s.execute(ctx, ex.Query)
}

func (s *shell) execute(ctx context.Context, query string) error {
	lesson := ""
	if s.cursor != nil {
		lesson = s.cursor.Tutorial().ID
	}
	return s.app.runQuery(ctx, query, lesson, "shell")
}
