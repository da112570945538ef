package sandbox

import (
	"context"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/sandbox/models"
	"github.com/uptrace/bun"
)

func managerID(id int64) *int64 { return &id }

// SampleDepartments returns the seeded departments
func SampleDepartments() []models.Department {
	return []models.Department{
		{DeptID: 1, DeptName: "Engineering", Location: "New York", Budget: 2000000},
		{DeptID: 2, DeptName: "Marketing", Location: "Los Angeles", Budget: 800000},
		{DeptID: 3, DeptName: "Sales", Location: "Chicago", Budget: 1200000},
		{DeptID: 4, DeptName: "HR", Location: "New York", Budget: 600000},
		{DeptID: 5, DeptName: "Finance", Location: "Boston", Budget: 900000},
	}
}

// SampleEmployees returns the seeded employees
func SampleEmployees() []models.Employee {
	return []models.Employee{
		{EmployeeID: 1, FirstName: "John", LastName: "Doe", Email: "john.doe@company.com", Department: "Engineering", Salary: 95000, HireDate: "2020-01-15"},
		{EmployeeID: 2, FirstName: "Jane", LastName: "Smith", Email: "jane.smith@company.com", Department: "Engineering", Salary: 105000, HireDate: "2019-03-20", ManagerID: managerID(1)},
		{EmployeeID: 3, FirstName: "Mike", LastName: "Johnson", Email: "mike.johnson@company.com", Department: "Marketing", Salary: 75000, HireDate: "2021-06-10"},
		{EmployeeID: 4, FirstName: "Sarah", LastName: "Williams", Email: "sarah.williams@company.com", Department: "Sales", Salary: 80000, HireDate: "2020-11-05"},
		{EmployeeID: 5, FirstName: "David", LastName: "Brown", Email: "david.brown@company.com", Department: "HR", Salary: 70000, HireDate: "2022-02-14"},
		{EmployeeID: 6, FirstName: "Lisa", LastName: "Davis", Email: "lisa.davis@company.com", Department: "Finance", Salary: 85000, HireDate: "2021-09-30"},
		{EmployeeID: 7, FirstName: "Tom", LastName: "Wilson", Email: "tom.wilson@company.com", Department: "Engineering", Salary: 92000, HireDate: "2020-07-22", ManagerID: managerID(2)},
		{EmployeeID: 8, FirstName: "Emma", LastName: "Garcia", Email: "emma.garcia@company.com", Department: "Marketing", Salary: 68000, HireDate: "2022-01-18", ManagerID: managerID(3)},
	}
}

// SampleSales returns the seeded sales
func SampleSales() []models.Sale {
	return []models.Sale{
		{SaleID: 1, EmployeeID: 2, ProductName: "Software License", SaleAmount: 15000, SaleDate: "2023-01-15", CustomerName: "TechCorp Inc"},
		{SaleID: 2, EmployeeID: 4, ProductName: "Consulting Service", SaleAmount: 25000, SaleDate: "2023-02-20", CustomerName: "StartupXYZ"},
		{SaleID: 3, EmployeeID: 4, ProductName: "Training Package", SaleAmount: 8000, SaleDate: "2023-03-10", CustomerName: "BigCompany Ltd"},
		{SaleID: 4, EmployeeID: 2, ProductName: "Custom Development", SaleAmount: 35000, SaleDate: "2023-03-25", CustomerName: "Enterprise Solutions"},
		{SaleID: 5, EmployeeID: 4, ProductName: "Support Contract", SaleAmount: 12000, SaleDate: "2023-04-05", CustomerName: "Local Business"},
		{SaleID: 6, EmployeeID: 2, ProductName: "Software License", SaleAmount: 18000, SaleDate: "2023-04-18", CustomerName: "Government Agency"},
		{SaleID: 7, EmployeeID: 4, ProductName: "Consulting Service", SaleAmount: 22000, SaleDate: "2023-05-02", CustomerName: "NonProfit Org"},
	}
}

// Seed populates the sample tables unless employees already has rows.
// It reports whether anything was inserted.
func (s *Sandbox) Seed(ctx context.Context) (bool, error) {
	count, err := s.db.NewSelect().Model((*models.Employee)(nil)).Count(ctx)
	if err != nil {
		return false, errors.New(ErrSeedFailed, "failed to count employees", err)
	}
	if count > 0 {
		s.logger.Debug().Int("employees", count).Msg("Sample data already present")
		return false, nil
	}

	departments := SampleDepartments()
	employees := SampleEmployees()
	sales := SampleSales()

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&departments).Exec(ctx); err != nil {
			return errors.New(ErrSeedFailed, "failed to insert departments", err)
		}
		if _, err := tx.NewInsert().Model(&employees).Exec(ctx); err != nil {
			return errors.New(ErrSeedFailed, "failed to insert employees", err)
		}
		if _, err := tx.NewInsert().Model(&sales).Exec(ctx); err != nil {
			return errors.New(ErrSeedFailed, "failed to insert sales", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info().
		Int("departments", len(departments)).
		Int("employees", len(employees)).
		Int("sales", len(sales)).
		Msg("Sample data populated")
	return true, nil
}
