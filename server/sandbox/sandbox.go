// Package sandbox owns the SQLite database learners query. It creates the
// schema through versioned bun migrations, seeds the sample company data and
// executes learner queries, materialising rows in driver column order.
package sandbox

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/pkg/resultset"
	"github.com/gear6io/sqllab/server/config"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// identifierPattern is what a table name must look like before it is
// interpolated into a PRAGMA
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnInfo describes one column as reported by PRAGMA table_info
type ColumnInfo struct {
	Position   int     `json:"position"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	NotNull    bool    `json:"not_null"`
	Default    *string `json:"default,omitempty"`
	PrimaryKey bool    `json:"primary_key"`
}

// Sandbox is the learner database
type Sandbox struct {
	db     *bun.DB
	logger zerolog.Logger
	path   string
}

// Open opens (creating when needed) the sandbox database described by cfg,
// migrates it to the latest schema and seeds sample data when enabled
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Sandbox, error) {
	if !cfg.IsInMemory() {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, errors.New(ErrOpenFailed, "failed to create database directory", err).AddContext("path", cfg.Path)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", cfg.Path, cfg.BusyTimeout.Milliseconds())
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.New(ErrOpenFailed, "failed to open SQLite database", err).AddContext("path", cfg.Path)
	}

	// every connection to :memory: is a separate database
	if cfg.IsInMemory() {
		sqldb.SetMaxOpenConns(1)
	}

	s := NewWithDB(sqldb, logger)
	s.path = cfg.Path

	if err := sqldb.PingContext(ctx); err != nil {
		s.Close()
		return nil, errors.New(ErrOpenFailed, "failed to connect to SQLite database", err).AddContext("path", cfg.Path)
	}

	if err := s.MigrateToLatest(ctx); err != nil {
		s.Close()
		return nil, err
	}

	if err := s.VerifySchema(ctx); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.Seed {
		if _, err := s.Seed(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}

	s.logger.Info().Str("path", cfg.Path).Msg("Sandbox database ready")
	return s, nil
}

// NewWithDB wraps an already opened handle without migrating or seeding it
func NewWithDB(sqldb *sql.DB, logger zerolog.Logger) *Sandbox {
	return &Sandbox{
		db:     bun.NewDB(sqldb, sqlitedialect.New()),
		logger: logger.With().Str("component", "sandbox").Logger(),
	}
}

// DB returns the underlying bun DB for stores sharing the sandbox file
func (s *Sandbox) DB() *bun.DB {
	return s.db
}

// Path returns the database path, empty for wrapped handles
func (s *Sandbox) Path() string {
	return s.path
}

// Query runs query against the sandbox and materialises every row.
// The statement goes to database/sql untouched so placeholders typed by a
// learner are never rewritten. The driver would run every statement in the
// text, so anything after the first one is refused before execution.
func (s *Sandbox) Query(ctx context.Context, query string, args ...any) (resultset.ResultSet, error) {
	if hasTrailingStatement(query) {
		return nil, errors.New(ErrMultipleStatements, "only one statement can be executed at a time", nil).
			AddContext("query", query)
	}

	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(ErrQueryFailed, "query execution failed", err).AddContext("query", query)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, errors.New(ErrScanFailed, "failed to read query results", err).AddContext("query", query)
	}

	s.logger.Debug().Int("rows", len(result)).Msg("Query executed")
	return result, nil
}

func scanRows(rows *sql.Rows) (resultset.ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make(resultset.ResultSet, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := resultset.NewRow()
		for i, col := range columns {
			v := values[i]
			// TEXT without a declared type comes back as bytes
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row.Set(col, v)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Tables lists the learner-visible tables in name order
func (s *Sandbox) Tables(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := s.db.NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' "+
			"AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'bun_%' ORDER BY name",
	).Scan(ctx, &names)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New(ErrQueryFailed, "failed to list tables", err)
	}
	return names, nil
}

// TableSchema describes the columns of table
func (s *Sandbox) TableSchema(ctx context.Context, table string) ([]ColumnInfo, error) {
	if !identifierPattern.MatchString(table) {
		return nil, errors.New(ErrInvalidTableName, "invalid table name", nil).AddContext("table", table)
	}

	rows, err := s.db.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, table))
	if err != nil {
		return nil, errors.New(ErrQueryFailed, "failed to read table schema", err).AddContext("table", table)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notNull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &primaryKey); err != nil {
			return nil, errors.New(ErrScanFailed, "failed to read table schema", err).AddContext("table", table)
		}

		col := ColumnInfo{
			Position:   cid,
			Name:       name,
			Type:       ctype,
			NotNull:    notNull != 0,
			PrimaryKey: primaryKey > 0,
		}
		if dflt.Valid {
			col.Default = &dflt.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrScanFailed, "failed to read table schema", err).AddContext("table", table)
	}

	if len(columns) == 0 {
		return nil, errors.New(ErrTableNotFound, "table not found", nil).AddContext("table", table)
	}
	return columns, nil
}

// PreviewQuery is the query suggested after showing a table's schema
func PreviewQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT 5;", table)
}

// Close releases the database handle
func (s *Sandbox) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return errors.New(ErrCloseFailed, "failed to close sandbox database", err)
	}
	return nil
}
