// Package runner drives one learner submission from raw text to report:
// the guard decides, the sandbox executes, the formatter renders. Every
// submission gets a ULID and lands in the execution history.
package runner

import (
	"context"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/pkg/guard"
	"github.com/gear6io/sqllab/pkg/report"
	"github.com/gear6io/sqllab/pkg/resultset"
	"github.com/gear6io/sqllab/server/progress"
	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/gear6io/sqllab/utils"
	"github.com/rs/zerolog"
)

// Querier executes a statement and materialises its rows
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (resultset.ResultSet, error)
}

// ProgressRecorder stores lesson attempts
type ProgressRecorder interface {
	RecordAttempt(ctx context.Context, lessonID, title, sessionID string, success bool) (*progress.Lesson, error)
}

// Request is one submission
type Request struct {
	Query     string
	LessonID  string
	SessionID string
	Source    string
}

// Outcome is what a submission produced. Rejected submissions carry only
// the verdict and the query id.
type Outcome struct {
	Verdict  guard.Verdict
	QueryID  string
	Rows     resultset.ResultSet
	Report   string
	Analysis report.Analysis
	Duration time.Duration
	Lesson   *progress.Lesson
}

// Executed reports whether the query reached the database
func (o *Outcome) Executed() bool {
	return o.Verdict.Allowed()
}

// Options configures a Runner
type Options struct {
	// Timeout bounds a single execution, zero means none
	Timeout time.Duration
	// Progress records lesson attempts, Catalog checks lesson ids and titles
	Progress ProgressRecorder
	Catalog  *tutorial.Catalog
}

// Runner executes learner submissions
type Runner struct {
	db      Querier
	manager *ExecutionManager
	opts    Options
	logger  zerolog.Logger
}

// New creates a runner over db recording into manager
func New(db Querier, manager *ExecutionManager, opts Options, logger zerolog.Logger) *Runner {
	return &Runner{
		db:      db,
		manager: manager,
		opts:    opts,
		logger:  logger.With().Str("component", "runner").Logger(),
	}
}

// Manager returns the execution history
func (r *Runner) Manager() *ExecutionManager {
	return r.manager
}

// Run executes query outside of any lesson
func (r *Runner) Run(ctx context.Context, query string) (*Outcome, error) {
	return r.Execute(ctx, Request{Query: query})
}

// Execute validates and, when allowed, executes a submission. A rejection is
// not an error: the outcome's verdict says why. Database failures are
// returned as coded errors carrying the query id.
func (r *Runner) Execute(ctx context.Context, req Request) (*Outcome, error) {
	title, err := r.lessonTitle(req.LessonID)
	if err != nil {
		return nil, err
	}

	id := utils.GenerateULIDString()
	verdict := guard.Validate(req.Query)
	out := &Outcome{Verdict: verdict, QueryID: id}

	if !verdict.Allowed() {
		r.manager.RejectQuery(id, req.Query, req.SessionID, req.Source, verdict.Reason())
		r.logger.Info().
			Str("query_id", id).
			Str("reason", verdict.Reason()).
			Msg("Query rejected")
		out.Lesson = r.recordAttempt(ctx, req, title, false)
		return out, nil
	}

	_, qctx := r.manager.StartQuery(ctx, id, req.Query, req.SessionID, req.Source)
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(qctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := r.db.Query(qctx, req.Query)
	out.Duration = time.Since(start)
	// read before CompleteQuery releases the context
	ctxErr := qctx.Err()

	if cerr := r.manager.CompleteQuery(id, int64(len(rows)), err); cerr != nil {
		r.logger.Warn().Err(cerr).Str("query_id", id).Msg("Query dropped from history before completion")
	}

	if err != nil {
		r.recordAttempt(ctx, req, title, false)
		code := ErrQueryFailed
		switch {
		case errors.Is(ctxErr, context.DeadlineExceeded):
			code = ErrQueryTimeout
		case errors.Is(ctxErr, context.Canceled):
			code = ErrQueryCancelled
		}
		r.logger.Warn().Err(err).Str("query_id", id).Msg("Query failed")
		return nil, errors.New(code, "query execution failed", err).AddContext("query_id", id)
	}

	out.Rows = rows
	out.Report = report.Format(req.Query, rows)
	out.Analysis = report.Analyze(rows)
	out.Lesson = r.recordAttempt(ctx, req, title, true)

	r.logger.Info().
		Str("query_id", id).
		Int("rows", len(rows)).
		Dur("duration", out.Duration).
		Msg("Query executed")
	return out, nil
}

// lessonTitle resolves the lesson of a request, "" when there is none
func (r *Runner) lessonTitle(lessonID string) (string, error) {
	if lessonID == "" || r.opts.Catalog == nil {
		return "", nil
	}
	t, err := r.opts.Catalog.Get(lessonID)
	if err != nil {
		return "", errors.New(ErrUnknownLesson, "unknown lesson", err).AddContext("lesson_id", lessonID)
	}
	return t.Title, nil
}

// recordAttempt stores lesson progress; a failure here never fails the query
func (r *Runner) recordAttempt(ctx context.Context, req Request, title string, success bool) *progress.Lesson {
	if req.LessonID == "" || r.opts.Progress == nil {
		return nil
	}
	lesson, err := r.opts.Progress.RecordAttempt(ctx, req.LessonID, title, req.SessionID, success)
	if err != nil {
		r.logger.Warn().Err(err).Str("lesson_id", req.LessonID).Msg("Failed to record lesson progress")
		return nil
	}
	return lesson
}
