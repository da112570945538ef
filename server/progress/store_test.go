package progress

import (
	"context"
	"testing"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/config"
	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	sb, err := sandbox.Open(context.Background(), config.DatabaseConfig{Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sb.Close() })
	return NewStore(sb.DB(), zerolog.Nop())
}

func TestRecordAttemptCreatesAndIncrements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	lesson, err := store.RecordAttempt(ctx, "joins", "JOIN Operations", "s1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, lesson.Attempts)
	assert.False(t, lesson.Completed)
	assert.Nil(t, lesson.CompletedAt)
	assert.NotZero(t, lesson.ID)

	lesson, err = store.RecordAttempt(ctx, "joins", "JOIN Operations", "s2", true)
	require.NoError(t, err)
	assert.Equal(t, 2, lesson.Attempts)
	assert.Equal(t, 1, lesson.Score)
	assert.True(t, lesson.Completed)

	stored, err := store.Get(ctx, "joins")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Attempts)
	assert.Equal(t, 1, stored.Score)
	assert.True(t, stored.Completed)
	assert.Equal(t, "s2", stored.SessionID)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, fixed.Equal(*stored.CompletedAt), "completed at %v", stored.CompletedAt)
}

func TestCompletedAtKeepsFirstSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }
	_, err := store.RecordAttempt(ctx, "advanced", "Advanced Queries", "", true)
	require.NoError(t, err)

	store.now = func() time.Time { return first.Add(time.Hour) }
	lesson, err := store.RecordAttempt(ctx, "advanced", "", "", true)
	require.NoError(t, err)

	assert.Equal(t, 2, lesson.Score)
	assert.Equal(t, "Advanced Queries", lesson.LessonTitle)
	require.NotNil(t, lesson.CompletedAt)
	assert.True(t, first.Equal(*lesson.CompletedAt))
}

func TestRecordAttemptRequiresLesson(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RecordAttempt(context.Background(), "", "x", "", true)
	assert.True(t, errors.HasCode(err, ErrLessonRequired))
}

func TestGetUnknownLesson(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "basic_select")
	assert.True(t, errors.HasCode(err, ErrLessonUnknown))
}

func TestListAndCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lessons, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, lessons)

	_, err = store.RecordAttempt(ctx, "basic_select", "Basic SELECT Statements", "", true)
	require.NoError(t, err)
	_, err = store.RecordAttempt(ctx, "joins", "JOIN Operations", "", false)
	require.NoError(t, err)

	lessons, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "basic_select", lessons[0].LessonID)
	assert.Equal(t, "joins", lessons[1].LessonID)

	done, err := store.Completed(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"basic_select": true}, done)
}
