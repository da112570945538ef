package migrations

import (
	"context"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/sandbox/models"
	"github.com/uptrace/bun"
)

// Package-specific error codes for migrations
var (
	MigrationTableCreationFailed = errors.MustNewCode("migrations.table_creation_failed")
	MigrationIndexCreationFailed = errors.MustNewCode("migrations.index_creation_failed")
)

// Migration001 creates the sample company tables and the learner tables
type Migration001 struct{}

// Version returns the migration version
func (m *Migration001) Version() int {
	return 1
}

// Name returns the migration name
func (m *Migration001) Name() string {
	return "initial_sandbox_schema"
}

// Description returns the migration description
func (m *Migration001) Description() string {
	return "Sample company data tables, projects and tutorial progress"
}

// Up runs the migration
func (m *Migration001) Up(ctx context.Context, tx bun.Tx) error {
	if _, err := tx.NewCreateTable().
		Model((*models.Project)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create projects table", err)
	}

	if _, err := tx.NewCreateTable().
		Model((*models.TutorialProgress)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create tutorial_progress table", err)
	}

	// Employees reference their manager
	if _, err := tx.NewCreateTable().
		Model((*models.Employee)(nil)).
		ForeignKey(`("manager_id") REFERENCES "employees" ("employee_id")`).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create employees table", err)
	}

	if _, err := tx.NewCreateTable().
		Model((*models.Department)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create departments table", err)
	}

	if _, err := tx.NewCreateTable().
		Model((*models.Sale)(nil)).
		ForeignKey(`("employee_id") REFERENCES "employees" ("employee_id")`).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create sales table", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department)`,
		`CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_employee ON sales(employee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date)`,
	}
	for _, stmt := range indexes {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.New(MigrationIndexCreationFailed, "failed to create index", err).AddContext("statement", stmt)
		}
	}

	return nil
}
