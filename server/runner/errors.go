package runner

import "github.com/gear6io/sqllab/pkg/errors"

// Runner error codes
var (
	ErrQueryNotFound   = errors.MustNewCode("runner.query_not_found")
	ErrQueryNotRunning = errors.MustNewCode("runner.query_not_running")
	ErrQueryFailed     = errors.MustNewCode("runner.query_failed")
	ErrQueryCancelled  = errors.MustNewCode("runner.query_cancelled")
	ErrQueryTimeout    = errors.MustNewCode("runner.query_timeout")
	ErrUnknownLesson   = errors.MustNewCode("runner.unknown_lesson")
)
