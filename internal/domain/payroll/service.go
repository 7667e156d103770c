package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// PayslipSender delivers a finalized payslip to the employee. Implemented by
// the notifications service; failures are logged, never fatal to the run.
type PayslipSender interface {
	SendPayslip(ctx context.Context, record Record, month string) error
}

type Service struct {
	store  StoreAPI
	sender PayslipSender
	now    func() time.Time
}

func NewService(store StoreAPI, sender PayslipSender) *Service {
	return &Service{store: store, sender: sender, now: time.Now}
}

// RunPayroll computes and persists the run for month. The engine mutates the
// loaded loans in memory; InsertRun commits records and balances together, so
// a store failure discards both and the ledger is left untouched.
func (s *Service) RunPayroll(ctx context.Context, month, createdBy string) (Run, error) {
	exists, err := s.store.RunExistsForMonth(ctx, month)
	if err != nil {
		return Run{}, err
	}
	if exists {
		return Run{}, fmt.Errorf("%w: %s", ErrRunExists, month)
	}

	employees, err := s.store.ListActiveEmployees(ctx)
	if err != nil {
		return Run{}, err
	}
	loans, err := s.store.ListLoans(ctx, LoanFilter{Status: LoanStatusActive})
	if err != nil {
		return Run{}, err
	}
	rates, err := s.store.GetRateTable(ctx)
	if err != nil {
		return Run{}, err
	}

	records, err := ComputeRun(employees, loans, rates, month)
	if err != nil {
		return Run{}, err
	}
	run := BuildRun(records, month, createdBy, s.now())
	if err := s.store.InsertRun(ctx, run, loans); err != nil {
		return Run{}, err
	}
	slog.Info("payroll run created", "month", month, "runId", run.ID, "employees", run.EmployeeCount)
	return run, nil
}

// RegenerateRun discards any existing run for month — crediting its loan
// deductions back onto the ledger — and computes a fresh pending run.
func (s *Service) RegenerateRun(ctx context.Context, month, createdBy string) (Run, error) {
	existing, err := s.store.GetRunByMonth(ctx, month)
	switch {
	case err == nil:
		if err := s.store.DeleteRun(ctx, existing.ID); err != nil {
			return Run{}, err
		}
		slog.Info("payroll run discarded for regeneration", "month", month, "runId", existing.ID)
	case errors.Is(err, ErrRunNotFound):
	default:
		return Run{}, err
	}
	return s.RunPayroll(ctx, month, createdBy)
}

func (s *Service) Approve(ctx context.Context, runID, approverID, approverRole string) (Run, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if err := Approve(&run, approverID, approverRole, s.now()); err != nil {
		return Run{}, err
	}
	if err := s.store.SaveApproval(ctx, run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Finalize moves an approved run to finalized, creates payslip rows, and
// emails each employee their payslip. Delivery failures are logged and do not
// roll back the finalization.
func (s *Service) Finalize(ctx context.Context, runID string) (Run, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if err := Finalize(&run, s.now()); err != nil {
		return Run{}, err
	}
	if err := s.store.FinalizeRun(ctx, run); err != nil {
		return Run{}, err
	}

	if s.sender != nil {
		for _, record := range run.Records {
			if err := s.sender.SendPayslip(ctx, record, run.Month); err != nil {
				slog.Warn("payslip delivery failed", "employeeId", record.EmployeeID, "month", run.Month, "err", err)
			}
		}
	}
	return run, nil
}

// DeleteRun discards a pending run and credits its loan deductions back.
// Approved and finalized runs are refused; use RegenerateRun to replace them.
func (s *Service) DeleteRun(ctx context.Context, runID string) error {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != RunStatusPending {
		return fmt.Errorf("%w: cannot delete a %s run", ErrInvalidState, run.Status)
	}
	return s.store.DeleteRun(ctx, runID)
}

func (s *Service) GetRun(ctx context.Context, runID string) (Run, error) {
	return s.store.GetRun(ctx, runID)
}

func (s *Service) GetRunByMonth(ctx context.Context, month string) (Run, error) {
	return s.store.GetRunByMonth(ctx, month)
}

func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]Run, int, error) {
	total, err := s.store.CountRuns(ctx)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.store.ListRuns(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) Summary(ctx context.Context, runID string) (RunSummary, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	return Summarize(run), nil
}

func (s *Service) CreateLoan(ctx context.Context, loan Loan) (Loan, error) {
	if loan.TotalAmount.Sign() <= 0 || loan.MonthlyDeduction.Sign() <= 0 {
		return Loan{}, fmt.Errorf("%w: total amount and monthly deduction must be positive", ErrNegativeAmount)
	}
	if loan.RemainingBalance.Sign() == 0 {
		loan.RemainingBalance = loan.TotalAmount
	}
	if loan.RemainingBalance.Sign() < 0 || loan.RemainingBalance.GreaterThan(loan.TotalAmount) {
		return Loan{}, fmt.Errorf("%w: remaining balance must be between zero and the total amount", ErrNegativeAmount)
	}
	loan.Status = LoanStatusActive
	id, err := s.store.CreateLoan(ctx, loan)
	if err != nil {
		return Loan{}, err
	}
	loan.ID = id
	return loan, nil
}

func (s *Service) ListLoans(ctx context.Context, filter LoanFilter) ([]*Loan, error) {
	return s.store.ListLoans(ctx, filter)
}

func (s *Service) GetLoan(ctx context.Context, loanID string) (*Loan, error) {
	return s.store.GetLoan(ctx, loanID)
}

func (s *Service) GetRateTable(ctx context.Context) (RateTable, error) {
	return s.store.GetRateTable(ctx)
}

func (s *Service) UpdateRateTable(ctx context.Context, rates RateTable) error {
	one := decimal.NewFromInt(1)
	if rates.EmployeeRate.Sign() < 0 || rates.EmployeeRate.GreaterThan(one) ||
		rates.EmployerRate.Sign() < 0 || rates.EmployerRate.GreaterThan(one) {
		return fmt.Errorf("%w: rates are fractions between 0 and 1", ErrNegativeAmount)
	}
	if rates.MaxContribution.Sign() < 0 {
		return fmt.Errorf("%w: max contribution must not be negative", ErrNegativeAmount)
	}
	return s.store.UpdateRateTable(ctx, rates)
}

// RemoveEmployee drops the employee's records from stored runs and re-sums the
// affected run totals. Called from the roster deletion flow.
func (s *Service) RemoveEmployee(ctx context.Context, employeeID string) error {
	return s.store.RemoveEmployeeRecords(ctx, employeeID)
}

func (s *Service) ListPayslips(ctx context.Context, employeeID string, limit, offset int) ([]Payslip, error) {
	return s.store.ListPayslips(ctx, employeeID, limit, offset)
}
