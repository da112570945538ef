package config

import "github.com/gear6io/sqllab/pkg/errors"

// Config-specific error codes
var (
	ErrConfigFileReadFailed    = errors.MustNewCode("config.file_read_failed")
	ErrConfigFileParseFailed   = errors.MustNewCode("config.file_parse_failed")
	ErrConfigValidationFailed  = errors.MustNewCode("config.validation_failed")
	ErrConfigFileMarshalFailed = errors.MustNewCode("config.file_marshal_failed")
	ErrConfigFileWriteFailed   = errors.MustNewCode("config.file_write_failed")
	ErrDatabasePathRequired    = errors.MustNewCode("config.database_path_required")
	ErrDatabaseTimeoutInvalid  = errors.MustNewCode("config.database_timeout_invalid")
	ErrServerAddressRequired   = errors.MustNewCode("config.server_address_required")
	ErrShellHistoryInvalid     = errors.MustNewCode("config.shell_history_invalid")
	ErrServerHistoryInvalid    = errors.MustNewCode("config.server_history_invalid")

	// Logging-specific error codes
	ErrLogFormatInvalid           = errors.MustNewCode("config.log_format_invalid")
	ErrLogOutputRequired          = errors.MustNewCode("config.log_output_required")
	ErrLogDirectoryCreationFailed = errors.MustNewCode("config.log_directory_creation_failed")
	ErrLogFileOpenFailed          = errors.MustNewCode("config.log_file_open_failed")
	ErrLogFilePathRequired        = errors.MustNewCode("config.log_file_path_required")
	ErrLogFileStatFailed          = errors.MustNewCode("config.log_file_stat_failed")
	ErrLogRotationFailed          = errors.MustNewCode("config.log_rotation_failed")
	ErrLogBackupReadFailed        = errors.MustNewCode("config.log_backup_read_failed")
	ErrLogBackupRemoveFailed      = errors.MustNewCode("config.log_backup_remove_failed")
	ErrLogCleanupFailed           = errors.MustNewCode("config.log_cleanup_failed")
	ErrLogFileWriterSetupFailed   = errors.MustNewCode("config.log_file_writer_setup_failed")
)
