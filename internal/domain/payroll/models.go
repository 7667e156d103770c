package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateTable holds the statutory contribution scheme: a percentage of gross for
// the employee and employer sides, each capped at MaxContribution. Records
// keep their own computed values, so editing the table never rewrites history.
type RateTable struct {
	EmployeeRate    decimal.Decimal `json:"employeeRate"`
	EmployerRate    decimal.Decimal `json:"employerRate"`
	MaxContribution decimal.Decimal `json:"maxContribution"`
}

// Employee is the read model the engine consumes. The roster domain owns the
// full record; payroll only needs identity and the compensation basis.
type Employee struct {
	ID          string          `json:"id"`
	FullName    string          `json:"fullName"`
	Email       string          `json:"email"`
	BasicSalary decimal.Decimal `json:"basicSalary"`
	Allowances  decimal.Decimal `json:"allowances"`
	Status      string          `json:"status"`
}

type Loan struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employeeId"`
	Type             string          `json:"type"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	MonthlyDeduction decimal.Decimal `json:"monthlyDeduction"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type LoanDetail struct {
	LoanID    string          `json:"loanId"`
	Type      string          `json:"type"`
	Deduction decimal.Decimal `json:"deduction"`
}

// Record is one employee's computed pay for one run. Immutable once the run is
// stored; removal of an employee deletes the record and triggers a totals
// recompute on the owning run.
type Record struct {
	EmployeeID        string          `json:"employeeId"`
	FullName          string          `json:"fullName"`
	Email             string          `json:"email"`
	BasicSalary       decimal.Decimal `json:"basicSalary"`
	Allowances        decimal.Decimal `json:"allowances"`
	GrossSalary       decimal.Decimal `json:"grossSalary"`
	StatutoryEmployee decimal.Decimal `json:"statutoryEmployee"`
	StatutoryEmployer decimal.Decimal `json:"statutoryEmployer"`
	LoanDeductions    decimal.Decimal `json:"loanDeductions"`
	LoanDetails       []LoanDetail    `json:"loanDetails,omitempty"`
	TotalDeductions   decimal.Decimal `json:"totalDeductions"`
	NetPay            decimal.Decimal `json:"netPay"`
	Warnings          []string        `json:"warnings,omitempty"`
}

type Run struct {
	ID                     string          `json:"id"`
	Month                  string          `json:"month"`
	Status                 string          `json:"status"`
	Records                []Record        `json:"records,omitempty"`
	TotalGross             decimal.Decimal `json:"totalGross"`
	TotalNet               decimal.Decimal `json:"totalNet"`
	TotalStatutoryEmployee decimal.Decimal `json:"totalStatutoryEmployee"`
	TotalStatutoryEmployer decimal.Decimal `json:"totalStatutoryEmployer"`
	EmployeeCount          int             `json:"employeeCount"`
	CreatedBy              string          `json:"createdBy"`
	CreatedAt              time.Time       `json:"createdAt"`
	ApprovedBy             string          `json:"approvedBy,omitempty"`
	ApprovedAt             *time.Time      `json:"approvedAt,omitempty"`
	FinalizedAt            *time.Time      `json:"finalizedAt,omitempty"`
}

type Payslip struct {
	ID         string          `json:"id"`
	RunID      string          `json:"runId"`
	EmployeeID string          `json:"employeeId"`
	Month      string          `json:"month"`
	GrossPay   decimal.Decimal `json:"grossPay"`
	NetPay     decimal.Decimal `json:"netPay"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type RunSummary struct {
	TotalGross             decimal.Decimal `json:"totalGross"`
	TotalNet               decimal.Decimal `json:"totalNet"`
	TotalStatutoryEmployee decimal.Decimal `json:"totalStatutoryEmployee"`
	TotalStatutoryEmployer decimal.Decimal `json:"totalStatutoryEmployer"`
	EmployeeCount          int             `json:"employeeCount"`
	Warnings               map[string]int  `json:"warnings"`
}
