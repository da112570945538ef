package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/rs/zerolog"
)

const backupTimeLayout = "2006-01-02-15-04-05"

// LogFile owns the log file and rotates it by size when opened
type LogFile struct {
	cfg  *LogConfig
	file *os.File
	now  func() time.Time
}

// NewLogFile creates a log file manager for cfg
func NewLogFile(cfg *LogConfig) *LogFile {
	return &LogFile{cfg: cfg, now: time.Now}
}

// CleanupLogFile truncates an existing log file
func CleanupLogFile(filePath string) error {
	if filePath == "" {
		return nil
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.New(ErrLogFileOpenFailed, "failed to open log file for cleanup", err).AddContext("path", filePath)
	}
	return file.Close()
}

// Open returns a writer appending to the log file, rotating it first when it
// has grown past MaxSize megabytes
func (lf *LogFile) Open() (io.Writer, error) {
	if lf.cfg.FilePath == "" {
		return nil, errors.New(ErrLogFilePathRequired, "no log file path specified", nil)
	}

	if err := os.MkdirAll(filepath.Dir(lf.cfg.FilePath), 0755); err != nil {
		return nil, errors.New(ErrLogDirectoryCreationFailed, "failed to create log directory", err).AddContext("path", lf.cfg.FilePath)
	}

	if err := lf.rotateIfNeeded(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(lf.cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.New(ErrLogFileOpenFailed, "failed to open log file", err).AddContext("path", lf.cfg.FilePath)
	}

	lf.file = file
	return file, nil
}

func (lf *LogFile) rotateIfNeeded() error {
	if lf.cfg.MaxSize <= 0 {
		return nil
	}

	info, err := os.Stat(lf.cfg.FilePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.New(ErrLogFileStatFailed, "failed to stat log file", err)
	}

	if info.Size() < int64(lf.cfg.MaxSize)*1024*1024 {
		return nil
	}

	backupPath := fmt.Sprintf("%s.%s", lf.cfg.FilePath, lf.now().Format(backupTimeLayout))
	if err := os.Rename(lf.cfg.FilePath, backupPath); err != nil {
		return errors.New(ErrLogRotationFailed, "failed to rotate log file", err).AddContext("backup_path", backupPath)
	}

	return lf.pruneBackups()
}

// pruneBackups removes rotated files beyond MaxBackups or older than MaxAge days
func (lf *LogFile) pruneBackups() error {
	if lf.cfg.MaxBackups <= 0 && lf.cfg.MaxAge <= 0 {
		return nil
	}

	dir := filepath.Dir(lf.cfg.FilePath)
	base := filepath.Base(lf.cfg.FilePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.New(ErrLogBackupReadFailed, "failed to read log directory", err)
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	var backups []backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base+".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}

	// newest first
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	cutoff := lf.now().AddDate(0, 0, -lf.cfg.MaxAge)
	for i, b := range backups {
		tooMany := lf.cfg.MaxBackups > 0 && i >= lf.cfg.MaxBackups
		tooOld := lf.cfg.MaxAge > 0 && b.modTime.Before(cutoff)
		if !tooMany && !tooOld {
			continue
		}
		if err := os.Remove(b.path); err != nil {
			return errors.New(ErrLogBackupRemoveFailed, "failed to remove old backup", err).AddContext("backup_path", b.path)
		}
	}

	return nil
}

// Close closes the log file if open
func (lf *LogFile) Close() error {
	if lf.file == nil {
		return nil
	}
	err := lf.file.Close()
	lf.file = nil
	return err
}

// SetupLogger creates the application logger. The returned closer releases
// the log file and is never nil.
func SetupLogger(cfg *Config) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer

	if cfg.Log.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	logFile := NewLogFile(&cfg.Log)
	if cfg.Log.FilePath != "" {
		if cfg.Log.Cleanup {
			if err := CleanupLogFile(cfg.Log.FilePath); err != nil {
				return zerolog.Nop(), logFile, errors.New(ErrLogCleanupFailed, "failed to cleanup log file", err)
			}
		}

		w, err := logFile.Open()
		if err != nil {
			return zerolog.Nop(), logFile, errors.New(ErrLogFileWriterSetupFailed, "failed to setup file writer", err)
		}
		if cfg.Log.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
		}
		writers = append(writers, w)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("app", "sqllab").
		Logger()

	return logger, logFile, nil
}
