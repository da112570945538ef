// Package progress records how far the learner got through the tutorials.
package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/sandbox/models"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Lesson is the progress of one tutorial
type Lesson = models.TutorialProgress

// Store persists lesson progress in the sandbox database
type Store struct {
	db     *bun.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore creates a store over an already migrated database
func NewStore(db *bun.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "progress").Logger(),
		now:    time.Now,
	}
}

// RecordAttempt counts one run of a lesson query. The first attempt creates
// the lesson row, a successful one marks the lesson completed and adds a point.
func (s *Store) RecordAttempt(ctx context.Context, lessonID, title, sessionID string, success bool) (*Lesson, error) {
	if lessonID == "" {
		return nil, errors.New(ErrLessonRequired, "lesson id is required", nil)
	}

	var lesson Lesson
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := s.now().UTC()

		err := tx.NewSelect().Model(&lesson).Where("lesson_id = ?", lessonID).Scan(ctx)
		switch {
		case err == sql.ErrNoRows:
			lesson = Lesson{LessonID: lessonID, LessonTitle: title}
			apply(&lesson, sessionID, success, now)
			_, err = tx.NewInsert().Model(&lesson).Exec(ctx)
		case err == nil:
			if title != "" {
				lesson.LessonTitle = title
			}
			apply(&lesson, sessionID, success, now)
			_, err = tx.NewUpdate().Model(&lesson).WherePK().Exec(ctx)
		}
		return err
	})
	if err != nil {
		return nil, errors.New(ErrRecordFailed, "failed to record lesson attempt", err).AddContext("lesson_id", lessonID)
	}

	s.logger.Debug().
		Str("lesson_id", lessonID).
		Bool("success", success).
		Int("attempts", lesson.Attempts).
		Msg("Lesson attempt recorded")
	return &lesson, nil
}

func apply(l *Lesson, sessionID string, success bool, now time.Time) {
	l.Attempts++
	l.SessionID = sessionID
	l.UpdatedAt = now
	if success {
		l.Score++
		if !l.Completed {
			l.Completed = true
			l.CompletedAt = &now
		}
	}
}

// Get returns the progress of one lesson
func (s *Store) Get(ctx context.Context, lessonID string) (*Lesson, error) {
	var lesson Lesson
	err := s.db.NewSelect().Model(&lesson).Where("lesson_id = ?", lessonID).Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, errors.New(ErrLessonUnknown, "no progress recorded for lesson", nil).AddContext("lesson_id", lessonID)
	}
	if err != nil {
		return nil, errors.New(ErrListFailed, "failed to read lesson progress", err).AddContext("lesson_id", lessonID)
	}
	return &lesson, nil
}

// List returns every lesson with recorded progress, oldest first
func (s *Store) List(ctx context.Context) ([]Lesson, error) {
	lessons := make([]Lesson, 0)
	if err := s.db.NewSelect().Model(&lessons).Order("id ASC").Scan(ctx); err != nil {
		return nil, errors.New(ErrListFailed, "failed to list lesson progress", err)
	}
	return lessons, nil
}

// Completed returns the ids of finished lessons
func (s *Store) Completed(ctx context.Context) (map[string]bool, error) {
	lessons, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		if l.Completed {
			done[l.LessonID] = true
		}
	}
	return done, nil
}
