package guard

import "github.com/gear6io/sqllab/pkg/errors"

var (
	ErrQueryRejected = errors.MustNewCode("guard.query_rejected")
)
