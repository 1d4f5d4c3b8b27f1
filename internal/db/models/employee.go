package models

import "time"

// EmployeeStatus is the lifecycle state of an employee record.
type EmployeeStatus string

const (
	// EmployeeActive marks an employee currently on payroll.
	EmployeeActive EmployeeStatus = "active"
	// EmployeeInactive marks an employee excluded from payroll runs.
	EmployeeInactive EmployeeStatus = "inactive"
)

// Employee represents an employee record owned by a tenant.
type Employee struct {
	ID uint64 `gorm:"primaryKey"`
	// UserID is the tenant-owning user this record belongs to.
	UserID      uint64 `gorm:"index;not null"`
	Name        string `gorm:"size:100;not null"`
	Email       string `gorm:"size:255"`
	Phone       string `gorm:"size:30"`
	Department  string `gorm:"size:100"`
	Designation string `gorm:"size:100"`
	// BasicSalary is the monthly base pay.
	BasicSalary float64
	// Allowances is the fixed monthly allowance total.
	Allowances float64
	// Deductions is the fixed monthly deduction total.
	Deductions float64
	// OvertimeRate is the hourly overtime pay rate.
	OvertimeRate float64
	Status       EmployeeStatus `gorm:"type:varchar(20);not null;default:'active'"`
	JoinedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
