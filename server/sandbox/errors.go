package sandbox

import "github.com/gear6io/sqllab/pkg/errors"

// Sandbox error codes
var (
	ErrOpenFailed         = errors.MustNewCode("sandbox.open_failed")
	ErrMigrationFailed    = errors.MustNewCode("sandbox.migration_failed")
	ErrSchemaVerification = errors.MustNewCode("sandbox.schema_verification_failed")
	ErrSeedFailed         = errors.MustNewCode("sandbox.seed_failed")
	ErrQueryFailed        = errors.MustNewCode("sandbox.query_failed")
	ErrMultipleStatements = errors.MustNewCode("sandbox.multiple_statements")
	ErrScanFailed         = errors.MustNewCode("sandbox.scan_failed")
	ErrInvalidTableName   = errors.MustNewCode("sandbox.invalid_table_name")
	ErrTableNotFound      = errors.MustNewCode("sandbox.table_not_found")
	ErrCloseFailed        = errors.MustNewCode("sandbox.close_failed")
)
