package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the account role
type Role = string

const (
	// RoleAdmin can manage employees and credentials
	RoleAdmin Role = "ADMIN"
	// RoleUser is a regular employee
	RoleUser Role = "USER"
)

// Employee is the person record an account authenticates on behalf of
type Employee struct {
	bun.BaseModel `bun:"table:employees,alias:emp"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	Designation   string     `bun:"designation,notnull" json:"designation"`
	Salary        float64    `bun:"salary,notnull" json:"salary"`
	BirthDate     time.Time  `bun:"birth_date,notnull" json:"birthDate"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

// Account is the login identity, linked to at most one employee
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          Role       `bun:"role,notnull" json:"role"`
	EmployeeID    *int64     `bun:"employee_id,unique,nullzero" json:"employeeId"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

// Experience is one entry of an employee's work history
type Experience struct {
	bun.BaseModel `bun:"table:experiences,alias:xp"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	EmployeeID    int64      `bun:"employee_id,notnull" json:"employeeId"`
	TechStack     string     `bun:"tech_stack,notnull" json:"techStack"`
	Company       string     `bun:"company" json:"company"`
	Years         int        `bun:"years,notnull" json:"years"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

// ExperienceSummary is the total number of years per tech stack
type ExperienceSummary struct {
	TechStack  string `bun:"tech_stack" json:"techStack"`
	TotalYears int    `bun:"total_years" json:"totalYears"`
}

// HasEmployee reports whether the account is linked to an employee record
func (a *Account) HasEmployee() bool {
	return a != nil && a.EmployeeID != nil
}

// LoginResult is what a successful login hands back to the caller
type LoginResult struct {
	Token      string `json:"token"`
	Role       Role   `json:"role"`
	EmployeeID *int64 `json:"employeeId"`
}

// HomeStats is the public summary over all employees
type HomeStats struct {
	TotalEmployees int64   `json:"totalEmployees"`
	NewJoinees     int64   `json:"newJoinees"`
	AvgSalary      float64 `json:"avgSalary"`
}
