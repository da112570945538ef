package runner

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/pkg/guard"
	"github.com/gear6io/sqllab/pkg/resultset"
	"github.com/gear6io/sqllab/server/config"
	"github.com/gear6io/sqllab/server/progress"
	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRunner(t *testing.T, opts Options) (*Runner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sb := sandbox.NewWithDB(db, zerolog.Nop())
	return New(sb, NewExecutionManager(zerolog.Nop(), 0), opts, zerolog.Nop()), mock
}

func TestRejectedQueriesNeverExecute(t *testing.T) {
	r, mock := newMockRunner(t, Options{})

	queries := []string{
		"DROP TABLE employees;",
		"DELETE FROM sales;",
		"SELECT * FROM updates;",
		"SELECT * FROM employees",
		"PRAGMA table_info(employees);",
		"",
	}
	for _, q := range queries {
		out, err := r.Run(context.Background(), q)
		require.NoError(t, err, q)
		assert.False(t, out.Executed(), q)
		assert.Equal(t, guard.Validate(q), out.Verdict)
		assert.NotEmpty(t, out.QueryID)
		assert.Empty(t, out.Report)
	}

	// no expectations were set, so any statement reaching the driver fails this
	assert.NoError(t, mock.ExpectationsWereMet())

	stats := r.Manager().GetStats()
	assert.Equal(t, len(queries), stats.Rejected)
	assert.Zero(t, stats.Completed)
}

func TestRunFormatsResults(t *testing.T) {
	r, mock := newMockRunner(t, Options{})
	query := "SELECT first_name, salary FROM employees;"

	mock.ExpectQuery(query).WillReturnRows(
		sqlmock.NewRows([]string{"first_name", "salary"}).
			AddRow("John", 95000.0).
			AddRow("Jane", 105000.0))

	out, err := r.Run(context.Background(), query)
	require.NoError(t, err)
	require.True(t, out.Executed())

	assert.Len(t, out.Rows, 2)
	assert.Equal(t, 2, out.Analysis.RowCount)
	assert.Equal(t, []string{"first_name", "salary"}, out.Analysis.Columns)
	assert.Equal(t, []string{"salary"}, out.Analysis.NumericColumns)
	assert.True(t, strings.HasPrefix(out.Report, "📝 Executed Query:\n"+query+"\n\n"))
	assert.Contains(t, out.Report, "first_name | salary")

	info, err := r.Manager().GetQueryInfo(out.QueryID)
	require.NoError(t, err)
	assert.Equal(t, QueryStatusCompleted, info.Status)
	assert.Equal(t, int64(2), info.RowCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDatabaseFailure(t *testing.T) {
	r, mock := newMockRunner(t, Options{})
	query := "SELECT * FROM ghosts;"

	mock.ExpectQuery(query).WillReturnError(fmt.Errorf("no such table: ghosts"))

	out, err := r.Run(context.Background(), query)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrQueryFailed))
	assert.True(t, errors.HasCode(err, sandbox.ErrQueryFailed))

	id := errors.GetContext(err)["query_id"]
	require.NotEmpty(t, id)
	info, ierr := r.Manager().GetQueryInfo(id)
	require.NoError(t, ierr)
	assert.Equal(t, QueryStatusFailed, info.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

type slowQuerier struct{}

func (slowQuerier) Query(ctx context.Context, query string, args ...any) (resultset.ResultSet, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunTimeout(t *testing.T) {
	r := New(slowQuerier{}, NewExecutionManager(zerolog.Nop(), 0), Options{Timeout: 10 * time.Millisecond}, zerolog.Nop())

	_, err := r.Run(context.Background(), "SELECT 1;")
	assert.True(t, errors.HasCode(err, ErrQueryTimeout))
}

func TestRunCancelled(t *testing.T) {
	r := New(slowQuerier{}, NewExecutionManager(zerolog.Nop(), 0), Options{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for len(r.Manager().ListRunningQueries()) == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	_, err := r.Run(ctx, "SELECT 1;")
	assert.True(t, errors.HasCode(err, ErrQueryCancelled))
}

func TestExecuteRecordsLessonProgress(t *testing.T) {
	sb, err := sandbox.Open(context.Background(), config.DatabaseConfig{Path: ":memory:", Seed: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sb.Close() })

	catalog, err := tutorial.Load()
	require.NoError(t, err)
	store := progress.NewStore(sb.DB(), zerolog.Nop())

	r := New(sb, NewExecutionManager(zerolog.Nop(), 0), Options{Progress: store, Catalog: catalog}, zerolog.Nop())
	ctx := context.Background()

	out, err := r.Execute(ctx, Request{Query: "DELETE FROM employees;", LessonID: "basic_select", SessionID: "s1"})
	require.NoError(t, err)
	require.NotNil(t, out.Lesson)
	assert.Equal(t, 1, out.Lesson.Attempts)
	assert.False(t, out.Lesson.Completed)

	out, err = r.Execute(ctx, Request{Query: "SELECT * FROM employees;", LessonID: "basic_select", SessionID: "s1"})
	require.NoError(t, err)
	require.NotNil(t, out.Lesson)
	assert.Equal(t, 2, out.Lesson.Attempts)
	assert.True(t, out.Lesson.Completed)
	assert.Equal(t, "Basic SELECT Statements", out.Lesson.LessonTitle)
	assert.Len(t, out.Rows, 8)

	_, err = r.Execute(ctx, Request{Query: "SELECT 1;", LessonID: "no_such_lesson"})
	assert.True(t, errors.HasCode(err, ErrUnknownLesson))
}

func TestEveryTutorialExampleRuns(t *testing.T) {
	sb, err := sandbox.Open(context.Background(), config.DatabaseConfig{Path: ":memory:", Seed: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sb.Close() })

	catalog, err := tutorial.Load()
	require.NoError(t, err)

	r := New(sb, NewExecutionManager(zerolog.Nop(), 0), Options{}, zerolog.Nop())
	for _, tut := range catalog.List() {
		for _, ex := range tut.Examples {
			out, err := r.Run(context.Background(), ex.Query)
			require.NoError(t, err, ex.Query)
			assert.True(t, out.Executed(), ex.Query)
			assert.NotEmpty(t, out.Rows, ex.Query)
		}
	}
}

func TestRunRefusesTrailingStatement(t *testing.T) {
	sb, err := sandbox.Open(context.Background(), config.DatabaseConfig{Path: ":memory:", Seed: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sb.Close() })

	r := New(sb, NewExecutionManager(zerolog.Nop(), 0), Options{}, zerolog.Nop())
	ctx := context.Background()

	query := "SELECT 1; REPLACE INTO departments(dept_id, dept_name) VALUES (1, 'Renamed');"
	require.True(t, guard.Validate(query).Allowed())

	out, err := r.Run(ctx, query)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.HasCode(err, ErrQueryFailed))
	assert.True(t, errors.HasCode(err, sandbox.ErrMultipleStatements))
	assert.Equal(t, 1, r.Manager().GetStats().Failed)

	out, err = r.Run(ctx, "SELECT dept_name FROM departments WHERE dept_id = 1;")
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	name, _ := out.Rows[0].Get("dept_name")
	assert.Equal(t, "Engineering", name)
}
