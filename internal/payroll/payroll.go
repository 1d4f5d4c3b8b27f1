// Package payroll computes payslips for payroll runs.
package payroll

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crewdesk/crewdesk/internal/db/models"
)

// Sentinel errors returned by run operations.
var (
	// ErrRunFinalized is returned when a finalized run is modified.
	ErrRunFinalized = errors.New("payroll run is finalized")

	// ErrRunNotFound is returned when the payroll run does not exist.
	ErrRunNotFound = errors.New("payroll run not found")

	// ErrNoActiveEmployees is returned when a run has no employees to pay.
	ErrNoActiveEmployees = errors.New("no active employees for payroll run")
)

// Input holds the per-employee variables for one payroll period.
type Input struct {
	OvertimeHours  float64
	LeaveDeduction float64
}

// Compute builds a payslip for one employee.
// Gross pay is basic salary plus allowances minus the unpaid leave deduction
// plus overtime earnings; net pay is gross pay minus fixed deductions.
func Compute(e *models.Employee, in Input) models.Payslip {
	overtimeEarnings := in.OvertimeHours * e.OvertimeRate
	grossPay := e.BasicSalary + e.Allowances - in.LeaveDeduction + overtimeEarnings

	return models.Payslip{
		EmployeeID:       e.ID,
		BasicSalary:      e.BasicSalary,
		Allowances:       e.Allowances,
		OvertimeHours:    in.OvertimeHours,
		OvertimeEarnings: overtimeEarnings,
		LeaveDeduction:   in.LeaveDeduction,
		Deductions:       e.Deductions,
		GrossPay:         grossPay,
		NetPay:           grossPay - e.Deductions,
	}
}

// Generate computes payslips for every active employee of the run's tenant
// and upserts them into the run. Regenerating a draft run replaces existing
// payslips; a finalized run cannot be regenerated. Inputs maps employee IDs
// to period variables, absent entries compute with zero overtime and leave.
func Generate(db *gorm.DB, runID uint64, inputs map[uint64]Input) (*models.PayrollRun, error) {
	if db == nil {
		return nil, errors.New("db handle is nil")
	}

	var run models.PayrollRun
	if err := db.First(&run, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}

		return nil, errors.Wrap(err, "failed to load payroll run")
	}

	if run.Status == models.PayrollFinalized {
		return nil, ErrRunFinalized
	}

	var employees []models.Employee
	err := db.Where("user_id = ? AND status = ?", run.UserID, models.EmployeeActive).
		Order("id asc").
		Find(&employees).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load employees")
	}

	if len(employees) == 0 {
		return nil, ErrNoActiveEmployees
	}

	run.TotalGross = 0
	run.TotalNet = 0

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range employees {
			slip := Compute(&employees[i], inputs[employees[i].ID])
			slip.PayrollRunID = run.ID

			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "payroll_run_id"}, {Name: "employee_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"basic_salary", "allowances", "overtime_hours", "overtime_earnings",
					"leave_deduction", "deductions", "gross_pay", "net_pay", "updated_at",
				}),
			}).Create(&slip).Error
			if err != nil {
				return errors.Wrap(err, "failed to store payslip")
			}

			run.TotalGross += slip.GrossPay
			run.TotalNet += slip.NetPay
		}

		return errors.Wrap(tx.Save(&run).Error, "failed to update payroll run")
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint64("run", run.ID).
		Str("month", run.Month).
		Int("payslips", len(employees)).
		Msg("payroll run generated")

	return &run, nil
}

// Finalize freezes a draft run. Finalizing an already finalized run fails.
func Finalize(db *gorm.DB, runID uint64) (*models.PayrollRun, error) {
	if db == nil {
		return nil, errors.New("db handle is nil")
	}

	var run models.PayrollRun
	if err := db.First(&run, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}

		return nil, errors.Wrap(err, "failed to load payroll run")
	}

	if run.Status == models.PayrollFinalized {
		return nil, ErrRunFinalized
	}

	run.Status = models.PayrollFinalized
	if err := db.Save(&run).Error; err != nil {
		return nil, errors.Wrap(err, "failed to finalize payroll run")
	}

	log.Info().Uint64("run", run.ID).Str("month", run.Month).Msg("payroll run finalized")

	return &run, nil
}
