// Package models declares the tables of the sandbox database.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// =============================================================================
// SAMPLE DATA TABLES
// =============================================================================

// Department is a row of the departments table
type Department struct {
	bun.BaseModel `bun:"table:departments"`

	DeptID   int64   `bun:"dept_id,pk" json:"dept_id"`
	DeptName string  `bun:"dept_name,notnull,unique" json:"dept_name"`
	Location string  `bun:"location" json:"location"`
	Budget   float64 `bun:"budget,type:real" json:"budget"`
}

// Employee is a row of the employees table
type Employee struct {
	bun.BaseModel `bun:"table:employees"`

	EmployeeID int64   `bun:"employee_id,pk" json:"employee_id"`
	FirstName  string  `bun:"first_name,notnull" json:"first_name"`
	LastName   string  `bun:"last_name,notnull" json:"last_name"`
	Email      string  `bun:"email,notnull,unique" json:"email"`
	Department string  `bun:"department" json:"department"`
	Salary     float64 `bun:"salary,type:real" json:"salary"`
	HireDate   string  `bun:"hire_date,type:date" json:"hire_date"`
	ManagerID  *int64  `bun:"manager_id" json:"manager_id,omitempty"`
}

// Sale is a row of the sales table
type Sale struct {
	bun.BaseModel `bun:"table:sales"`

	SaleID       int64   `bun:"sale_id,pk" json:"sale_id"`
	EmployeeID   int64   `bun:"employee_id" json:"employee_id"`
	ProductName  string  `bun:"product_name,notnull" json:"product_name"`
	SaleAmount   float64 `bun:"sale_amount,type:real,notnull" json:"sale_amount"`
	SaleDate     string  `bun:"sale_date,type:date,notnull" json:"sale_date"`
	CustomerName string  `bun:"customer_name" json:"customer_name"`
}

// Project is a local codebase registered with the lab, empty until one is added
type Project struct {
	bun.BaseModel `bun:"table:projects"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Name         string     `bun:"name,notnull,unique" json:"name"`
	Path         string     `bun:"path,notnull" json:"path"`
	Description  string     `bun:"description" json:"description"`
	Language     string     `bun:"language" json:"language"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	LastAccessed *time.Time `bun:"last_accessed" json:"last_accessed,omitempty"`
	FileCount    int        `bun:"file_count,notnull,default:0" json:"file_count"`
	LineCount    int        `bun:"line_count,notnull,default:0" json:"line_count"`
}

// =============================================================================
// LEARNER STATE
// =============================================================================

// TutorialProgress tracks one lesson for the local learner
type TutorialProgress struct {
	bun.BaseModel `bun:"table:tutorial_progress"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	LessonID    string     `bun:"lesson_id,notnull,unique" json:"lesson_id"`
	LessonTitle string     `bun:"lesson_title,notnull" json:"lesson_title"`
	Completed   bool       `bun:"completed,notnull,default:false" json:"completed"`
	CompletedAt *time.Time `bun:"completed_at" json:"completed_at,omitempty"`
	Score       int        `bun:"score,notnull,default:0" json:"score"`
	Attempts    int        `bun:"attempts,notnull,default:0" json:"attempts"`
	SessionID   string     `bun:"session_id" json:"session_id"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// =============================================================================
// BOOKKEEPING
// =============================================================================

// Migration records an applied schema migration
type Migration struct {
	bun.BaseModel `bun:"table:bun_migrations"`

	Version   int    `bun:"version,pk,type:integer" json:"version"`
	Name      string `bun:"name,type:text,notnull" json:"name"`
	AppliedAt string `bun:"applied_at,type:text,notnull" json:"applied_at"`
}
