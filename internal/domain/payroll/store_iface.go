package payroll

import "context"

type LoanFilter struct {
	EmployeeID string
	Status     string
}

type StoreAPI interface {
	ListActiveEmployees(ctx context.Context) ([]Employee, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]*Loan, error)
	GetLoan(ctx context.Context, loanID string) (*Loan, error)
	CreateLoan(ctx context.Context, loan Loan) (string, error)
	GetRateTable(ctx context.Context) (RateTable, error)
	UpdateRateTable(ctx context.Context, rates RateTable) error
	RunExistsForMonth(ctx context.Context, month string) (bool, error)
	InsertRun(ctx context.Context, run Run, loans []*Loan) error
	GetRun(ctx context.Context, runID string) (Run, error)
	GetRunByMonth(ctx context.Context, month string) (Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]Run, error)
	CountRuns(ctx context.Context) (int, error)
	SaveApproval(ctx context.Context, run Run) error
	FinalizeRun(ctx context.Context, run Run) error
	DeleteRun(ctx context.Context, runID string) error
	RemoveEmployeeRecords(ctx context.Context, employeeID string) error
	ListPayslips(ctx context.Context, employeeID string, limit, offset int) ([]Payslip, error)
}
