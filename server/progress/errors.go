package progress

import "github.com/gear6io/sqllab/pkg/errors"

// Progress error codes
var (
	ErrLessonRequired = errors.MustNewCode("progress.lesson_required")
	ErrRecordFailed   = errors.MustNewCode("progress.record_failed")
	ErrLessonUnknown  = errors.MustNewCode("progress.not_found")
	ErrListFailed     = errors.MustNewCode("progress.list_failed")
)
