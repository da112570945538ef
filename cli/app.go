package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/config"
	"github.com/gear6io/sqllab/server/progress"
	"github.com/gear6io/sqllab/server/runner"
	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// App carries everything a command needs. Configuration and logging are set
// up before any command runs, the database only when a command asks for it.
type App struct {
	in  io.Reader
	out io.Writer

	cfg     *config.Config
	cfgPath string
	logger  zerolog.Logger
	closer  io.Closer

	sessionID string
	verbose   bool

	sandbox  *sandbox.Sandbox
	catalog  *tutorial.Catalog
	progress *progress.Store
	runner   *runner.Runner
}

// NewApp creates an app reading from in and writing to out
func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		in:        in,
		out:       out,
		logger:    zerolog.Nop(),
		sessionID: uuid.NewString(),
	}
}

// configure loads the configuration and builds the logger
func (a *App) configure(path string, verbose bool) error {
	cfg, found, err := config.Load(path)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Console = true
	}

	logger, closer, err := config.SetupLogger(cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.cfgPath = found
	a.logger = logger
	a.closer = closer

	a.logger.Debug().Str("config", found).Str("session", a.sessionID).Msg("Configuration loaded")
	return nil
}

// useConfig installs an already built configuration, for tests
func (a *App) useConfig(cfg *config.Config) {
	a.cfg = cfg
}

// open brings up the sandbox and the services built on it
func (a *App) open(ctx context.Context) error {
	if a.runner != nil {
		return nil
	}

	catalog, err := tutorial.Load()
	if err != nil {
		return err
	}

	sb, err := sandbox.Open(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return err
	}

	store := progress.NewStore(sb.DB(), a.logger)
	manager := runner.NewExecutionManager(a.logger, a.cfg.Shell.HistorySize)

	a.sandbox = sb
	a.catalog = catalog
	a.progress = store
	a.runner = runner.New(sb, manager, runner.Options{
		Timeout:  a.cfg.Server.RequestTimeout,
		Progress: store,
		Catalog:  catalog,
	}, a.logger)
	return nil
}

// Close releases the database and the log file
func (a *App) Close() error {
	var first error
	if a.sandbox != nil {
		first = a.sandbox.Close()
		a.sandbox = nil
		a.runner = nil
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil && first == nil {
			first = err
		}
		a.closer = nil
	}
	return first
}

// interactive reports whether input comes from a terminal
func (a *App) interactive() bool {
	f, ok := a.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// describe renders err for the learner, with code and context when verbose
func (a *App) describe(err error) string {
	if a.verbose {
		return errors.FormatError(err)
	}
	return err.Error()
}
