package models

import "time"

// PayrollStatus is the lifecycle state of a payroll run.
type PayrollStatus string

const (
	// PayrollDraft allows payslips to be regenerated.
	PayrollDraft PayrollStatus = "draft"
	// PayrollFinalized freezes the run; payslips can no longer change.
	PayrollFinalized PayrollStatus = "finalized"
)

// PayrollRun represents one payroll period for a tenant.
type PayrollRun struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`
	// Month in YYYY-MM format.
	Month  string        `gorm:"size:7;not null;uniqueIndex:idx_payroll_user_month"`
	Status PayrollStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	// TotalGross and TotalNet are sums over the run's payslips.
	TotalGross float64
	TotalNet   float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Payslip is one employee's computed pay inside a payroll run.
type Payslip struct {
	ID           uint64     `gorm:"primaryKey"`
	PayrollRunID uint64     `gorm:"index;not null;uniqueIndex:idx_payslip_run_employee"`
	PayrollRun   PayrollRun `gorm:"foreignKey:PayrollRunID;constraint:OnDelete:CASCADE"`
	EmployeeID   uint64     `gorm:"index;not null;uniqueIndex:idx_payslip_run_employee"`

	BasicSalary      float64
	Allowances       float64
	OvertimeHours    float64
	OvertimeEarnings float64
	// LeaveDeduction is the unpaid leave deduction for the period.
	LeaveDeduction float64
	Deductions     float64
	// GrossPay = BasicSalary + Allowances - LeaveDeduction + OvertimeEarnings.
	GrossPay float64
	// NetPay = GrossPay - Deductions.
	NetPay    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
