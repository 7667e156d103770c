package payroll

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildRun wraps computed records into a pending run with aggregate totals.
func BuildRun(records []Record, month, createdBy string, now time.Time) Run {
	run := Run{
		ID:        uuid.NewString(),
		Month:     month,
		Status:    RunStatusPending,
		Records:   records,
		CreatedBy: createdBy,
		CreatedAt: now.UTC(),
	}
	RecomputeTotals(&run)
	return run
}

// RecomputeTotals re-sums the aggregate fields from the current records. Must
// be called after any mutation of run.Records so the totals always equal the
// sum of what is actually there.
func RecomputeTotals(run *Run) {
	totalGross := decimal.Zero
	totalNet := decimal.Zero
	totalEmployee := decimal.Zero
	totalEmployer := decimal.Zero
	for _, record := range run.Records {
		totalGross = totalGross.Add(record.GrossSalary)
		totalNet = totalNet.Add(record.NetPay)
		totalEmployee = totalEmployee.Add(record.StatutoryEmployee)
		totalEmployer = totalEmployer.Add(record.StatutoryEmployer)
	}
	run.TotalGross = totalGross
	run.TotalNet = totalNet
	run.TotalStatutoryEmployee = totalEmployee
	run.TotalStatutoryEmployer = totalEmployer
	run.EmployeeCount = len(run.Records)
}

// Approve moves a pending run to approved. Only approver roles may do so.
func Approve(run *Run, approverID, approverRole string, now time.Time) error {
	if run.Status != RunStatusPending {
		return fmt.Errorf("%w: cannot approve a %s run", ErrInvalidState, run.Status)
	}
	if !CanApprove(approverRole) {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, approverRole)
	}
	approvedAt := now.UTC()
	run.Status = RunStatusApproved
	run.ApprovedBy = approverID
	run.ApprovedAt = &approvedAt
	return nil
}

// Finalize moves an approved run to finalized. Payslip creation and delivery
// happen at the service layer once this transition succeeds.
func Finalize(run *Run, now time.Time) error {
	if run.Status != RunStatusApproved {
		return fmt.Errorf("%w: cannot finalize a %s run", ErrInvalidState, run.Status)
	}
	finalizedAt := now.UTC()
	run.Status = RunStatusFinalized
	run.FinalizedAt = &finalizedAt
	return nil
}

// Summarize builds run-level reporting data, counting warnings per kind.
func Summarize(run Run) RunSummary {
	summary := RunSummary{
		TotalGross:             run.TotalGross,
		TotalNet:               run.TotalNet,
		TotalStatutoryEmployee: run.TotalStatutoryEmployee,
		TotalStatutoryEmployer: run.TotalStatutoryEmployer,
		EmployeeCount:          run.EmployeeCount,
		Warnings:               map[string]int{},
	}
	for _, record := range run.Records {
		for _, warning := range record.Warnings {
			summary.Warnings[warning]++
		}
	}
	return summary
}
