package http

import "github.com/gear6io/sqllab/pkg/errors"

// HTTP API error codes
var (
	ErrInvalidBody    = errors.MustNewCode("http.invalid_body")
	ErrQueryRequired  = errors.MustNewCode("http.query_required")
	ErrInvalidQueryID = errors.MustNewCode("http.invalid_query_id")
	ErrListenFailed   = errors.MustNewCode("http.listen_failed")
	ErrShutdownFailed = errors.MustNewCode("http.shutdown_failed")
)
