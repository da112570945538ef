package tutorial

import "github.com/gear6io/sqllab/pkg/errors"

// Tutorial catalogue error codes
var (
	ErrCatalogInvalid  = errors.MustNewCode("tutorial.catalog_invalid")
	ErrTutorialMissing = errors.MustNewCode("tutorial.not_found")
	ErrIndexOutOfRange = errors.MustNewCode("tutorial.index_out_of_range")
)
