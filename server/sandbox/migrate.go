package sandbox

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/sandbox/migrations"
	"github.com/gear6io/sqllab/server/sandbox/models"
	"github.com/uptrace/bun"
)

// Migration interface that all migration files must implement
type Migration interface {
	Version() int
	Name() string
	Description() string
	Up(ctx context.Context, tx bun.Tx) error
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int    `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AppliedAt   string `json:"applied_at"`
}

// expectedTables must exist once all migrations ran
var expectedTables = []string{
	"bun_migrations", "projects", "tutorial_progress", "employees", "departments", "sales",
}

// availableMigrations returns all known migrations in version order
func availableMigrations() []Migration {
	return []Migration{
		&migrations.Migration001{},
	}
}

// MigrateToLatest runs all pending migrations in a single transaction
func (s *Sandbox) MigrateToLatest(ctx context.Context) error {
	currentVersion, err := s.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	var pending []Migration
	for _, m := range availableMigrations() {
		if m.Version() > currentVersion {
			pending = append(pending, m)
		}
	}

	if len(pending) == 0 {
		s.logger.Debug().Int("version", currentVersion).Msg("No pending migrations")
		return nil
	}

	// all migrations succeed or none do
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		for _, m := range pending {
			s.logger.Info().Int("version", m.Version()).Str("name", m.Name()).Msg("Running migration")

			if err := m.Up(ctx, tx); err != nil {
				return errors.New(ErrMigrationFailed, "migration failed", err).
					AddContext("version", strconv.Itoa(m.Version())).
					AddContext("name", m.Name())
			}

			record := &models.Migration{Version: m.Version(), Name: m.Name(), AppliedAt: now}
			if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
				return errors.New(ErrMigrationFailed, "failed to record migration", err).
					AddContext("version", strconv.Itoa(m.Version()))
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Migrations rolled back")
		return err
	}

	s.logger.Info().Int("applied", len(pending)).Msg("Migrations completed")
	return nil
}

// CurrentVersion returns the latest applied migration version, creating
// the bookkeeping table on first use
func (s *Sandbox) CurrentVersion(ctx context.Context) (int, error) {
	exists, err := s.tableExists(ctx, "bun_migrations")
	if err != nil {
		return 0, errors.New(ErrMigrationFailed, "failed to check migrations table", err)
	}

	if !exists {
		if _, err := s.db.NewCreateTable().
			Model((*models.Migration)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return 0, errors.New(ErrMigrationFailed, "failed to create migrations table", err)
		}
		return 0, nil
	}

	var version int
	err = s.db.NewSelect().
		Model((*models.Migration)(nil)).
		Column("version").
		Order("version DESC").
		Limit(1).
		Scan(ctx, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, errors.New(ErrMigrationFailed, "failed to get current version", err)
	}

	return version, nil
}

// MigrationStatus lists the applied migrations
func (s *Sandbox) MigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	exists, err := s.tableExists(ctx, "bun_migrations")
	if err != nil {
		return nil, errors.New(ErrMigrationFailed, "failed to check migrations table", err)
	}
	if !exists {
		return []MigrationStatus{}, nil
	}

	var applied []models.Migration
	if err := s.db.NewSelect().Model(&applied).Order("version ASC").Scan(ctx); err != nil {
		return nil, errors.New(ErrMigrationFailed, "failed to query migrations", err)
	}

	status := make([]MigrationStatus, len(applied))
	for i, m := range applied {
		status[i] = MigrationStatus{
			Version:     m.Version,
			Name:        m.Name,
			Description: "Migration " + strconv.Itoa(m.Version) + ": " + m.Name,
			Status:      "applied",
			AppliedAt:   m.AppliedAt,
		}
	}
	return status, nil
}

// VerifySchema checks that every expected table exists
func (s *Sandbox) VerifySchema(ctx context.Context) error {
	for _, name := range expectedTables {
		exists, err := s.tableExists(ctx, name)
		if err != nil {
			return errors.New(ErrSchemaVerification, "failed to verify table", err).AddContext("table", name)
		}
		if !exists {
			return errors.New(ErrSchemaVerification, "expected table does not exist", nil).AddContext("table", name)
		}
	}
	return nil
}

func (s *Sandbox) tableExists(ctx context.Context, name string) (bool, error) {
	var exists int
	err := s.db.NewRaw("SELECT 1 FROM sqlite_master WHERE type='table' AND name=?", name).Scan(ctx, &exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
