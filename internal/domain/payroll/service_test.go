package payroll

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeStore struct {
	employees []Employee
	loans     map[string]*Loan
	rates     RateTable
	runs      map[string]Run
	payslips  []Payslip
}

func newFakePayrollStore() *fakeStore {
	return &fakeStore{
		loans: map[string]*Loan{},
		rates: testRates(),
		runs:  map[string]Run{},
	}
}

func (f *fakeStore) addEmployee(id string, basic, allowances string) {
	f.employees = append(f.employees, Employee{
		ID:          id,
		FullName:    "Employee " + id,
		Email:       id + "@school.test",
		BasicSalary: dec(basic),
		Allowances:  dec(allowances),
		Status:      EmployeeStatusActive,
	})
}

func (f *fakeStore) addLoan(id, employeeID, total, monthly string) {
	f.loans[id] = &Loan{
		ID:               id,
		EmployeeID:       employeeID,
		Type:             "salary_advance",
		TotalAmount:      dec(total),
		MonthlyDeduction: dec(monthly),
		RemainingBalance: dec(total),
		Status:           LoanStatusActive,
	}
}

func (f *fakeStore) ListActiveEmployees(_ context.Context) ([]Employee, error) {
	return f.employees, nil
}

func (f *fakeStore) ListLoans(_ context.Context, filter LoanFilter) ([]*Loan, error) {
	var out []*Loan
	for _, loan := range f.loans {
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		if filter.EmployeeID != "" && loan.EmployeeID != filter.EmployeeID {
			continue
		}
		copied := *loan
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) GetLoan(_ context.Context, loanID string) (*Loan, error) {
	loan, ok := f.loans[loanID]
	if !ok {
		return nil, ErrLoanNotFound
	}
	copied := *loan
	return &copied, nil
}

func (f *fakeStore) CreateLoan(_ context.Context, loan Loan) (string, error) {
	id := fmt.Sprintf("loan-%d", len(f.loans)+1)
	loan.ID = id
	f.loans[id] = &loan
	return id, nil
}

func (f *fakeStore) GetRateTable(_ context.Context) (RateTable, error) { return f.rates, nil }

func (f *fakeStore) UpdateRateTable(_ context.Context, rates RateTable) error {
	f.rates = rates
	return nil
}

func (f *fakeStore) RunExistsForMonth(_ context.Context, month string) (bool, error) {
	for _, run := range f.runs {
		if run.Month == month {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertRun(_ context.Context, run Run, loans []*Loan) error {
	f.runs[run.ID] = run
	for _, loan := range loans {
		if stored, ok := f.loans[loan.ID]; ok {
			stored.RemainingBalance = loan.RemainingBalance
			stored.Status = loan.Status
		}
	}
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (Run, error) {
	run, ok := f.runs[runID]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}

func (f *fakeStore) GetRunByMonth(_ context.Context, month string) (Run, error) {
	for _, run := range f.runs {
		if run.Month == month {
			return run, nil
		}
	}
	return Run{}, ErrRunNotFound
}

func (f *fakeStore) ListRuns(_ context.Context, _, _ int) ([]Run, error) {
	var out []Run
	for _, run := range f.runs {
		out = append(out, run)
	}
	return out, nil
}

func (f *fakeStore) CountRuns(_ context.Context) (int, error) { return len(f.runs), nil }

func (f *fakeStore) SaveApproval(_ context.Context, run Run) error {
	stored, ok := f.runs[run.ID]
	if !ok {
		return ErrRunNotFound
	}
	stored.Status = run.Status
	stored.ApprovedBy = run.ApprovedBy
	stored.ApprovedAt = run.ApprovedAt
	f.runs[run.ID] = stored
	return nil
}

func (f *fakeStore) FinalizeRun(_ context.Context, run Run) error {
	stored, ok := f.runs[run.ID]
	if !ok {
		return ErrRunNotFound
	}
	stored.Status = run.Status
	stored.FinalizedAt = run.FinalizedAt
	f.runs[run.ID] = stored
	for _, record := range stored.Records {
		f.payslips = append(f.payslips, Payslip{
			RunID:      run.ID,
			EmployeeID: record.EmployeeID,
			Month:      run.Month,
			GrossPay:   record.GrossSalary,
			NetPay:     record.NetPay,
		})
	}
	return nil
}

func (f *fakeStore) DeleteRun(_ context.Context, runID string) error {
	run, ok := f.runs[runID]
	if !ok {
		return ErrRunNotFound
	}
	for _, record := range run.Records {
		for _, detail := range record.LoanDetails {
			if loan, ok := f.loans[detail.LoanID]; ok {
				loan.RemainingBalance = loan.RemainingBalance.Add(detail.Deduction)
				loan.Status = LoanStatusActive
			}
		}
	}
	delete(f.runs, runID)
	return nil
}

func (f *fakeStore) RemoveEmployeeRecords(_ context.Context, employeeID string) error {
	for id, run := range f.runs {
		kept := run.Records[:0]
		for _, record := range run.Records {
			if record.EmployeeID != employeeID {
				kept = append(kept, record)
			}
		}
		run.Records = kept
		RecomputeTotals(&run)
		f.runs[id] = run
	}
	return nil
}

func (f *fakeStore) ListPayslips(_ context.Context, employeeID string, _, _ int) ([]Payslip, error) {
	var out []Payslip
	for _, slip := range f.payslips {
		if slip.EmployeeID == employeeID {
			out = append(out, slip)
		}
	}
	return out, nil
}

type fakeSender struct {
	sent []string
}

func (s *fakeSender) SendPayslip(_ context.Context, record Record, month string) error {
	s.sent = append(s.sent, record.EmployeeID+":"+month)
	return nil
}

func TestRunPayrollPersistsRunAndLedger(t *testing.T) {
	store := newFakePayrollStore()
	store.addEmployee("e1", "5000", "500")
	store.addLoan("l1", "e1", "1000", "300")
	svc := NewService(store, &fakeSender{})
	ctx := context.Background()

	run, err := svc.RunPayroll(ctx, "2025-03", "admin")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if run.Status != RunStatusPending || run.EmployeeCount != 1 {
		t.Fatalf("unexpected run %+v", run)
	}
	if !store.loans["l1"].RemainingBalance.Equal(dec("700")) {
		t.Fatalf("expected ledger balance 700, got %s", store.loans["l1"].RemainingBalance)
	}

	if _, err := svc.RunPayroll(ctx, "2025-03", "admin"); !errors.Is(err, ErrRunExists) {
		t.Fatalf("expected ErrRunExists, got %v", err)
	}
}

func TestRegenerateRunDoesNotDoubleDeduct(t *testing.T) {
	store := newFakePayrollStore()
	store.addEmployee("e1", "5000", "500")
	store.addLoan("l1", "e1", "1000", "300")
	svc := NewService(store, &fakeSender{})
	ctx := context.Background()

	first, err := svc.RunPayroll(ctx, "2025-03", "admin")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	second, err := svc.RegenerateRun(ctx, "2025-03", "admin")
	if err != nil {
		t.Fatalf("regenerate error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh run")
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected a single stored run, got %d", len(store.runs))
	}
	// the original deduction is credited back before the rerun deducts again
	if !store.loans["l1"].RemainingBalance.Equal(dec("700")) {
		t.Fatalf("expected ledger balance 700 after regeneration, got %s", store.loans["l1"].RemainingBalance)
	}
}

func TestDeleteRunRestoresLoanBalances(t *testing.T) {
	store := newFakePayrollStore()
	store.addEmployee("e1", "5000", "500")
	store.addLoan("l1", "e1", "300", "300")
	svc := NewService(store, &fakeSender{})
	ctx := context.Background()

	run, err := svc.RunPayroll(ctx, "2025-03", "admin")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if store.loans["l1"].Status != LoanStatusCleared {
		t.Fatalf("expected cleared loan, got %s", store.loans["l1"].Status)
	}

	if err := svc.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	loan := store.loans["l1"]
	if !loan.RemainingBalance.Equal(dec("300")) || loan.Status != LoanStatusActive {
		t.Fatalf("expected loan restored to 300/active, got %s/%s", loan.RemainingBalance, loan.Status)
	}
	if _, err := svc.GetRun(ctx, run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestApproveAndFinalizeDeliversPayslips(t *testing.T) {
	store := newFakePayrollStore()
	store.addEmployee("e1", "5000", "500")
	sender := &fakeSender{}
	svc := NewService(store, sender)
	ctx := context.Background()

	run, err := svc.RunPayroll(ctx, "2025-03", "admin")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if _, err := svc.Finalize(ctx, run.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState finalizing a pending run, got %v", err)
	}

	if _, err := svc.Approve(ctx, run.ID, "u-dir", "director"); err != nil {
		t.Fatalf("approve error: %v", err)
	}
	finalized, err := svc.Finalize(ctx, run.ID)
	if err != nil {
		t.Fatalf("finalize error: %v", err)
	}
	if finalized.Status != RunStatusFinalized {
		t.Fatalf("expected finalized status, got %s", finalized.Status)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "e1:2025-03" {
		t.Fatalf("expected one payslip delivery, got %v", sender.sent)
	}

	slips, err := svc.ListPayslips(ctx, "e1", 10, 0)
	if err != nil {
		t.Fatalf("payslips error: %v", err)
	}
	if len(slips) != 1 {
		t.Fatalf("expected one payslip row, got %d", len(slips))
	}

	if err := svc.DeleteRun(ctx, run.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState deleting a finalized run, got %v", err)
	}
}

func TestApproveRejectsUnauthorizedRole(t *testing.T) {
	store := newFakePayrollStore()
	store.addEmployee("e1", "5000", "500")
	svc := NewService(store, &fakeSender{})
	ctx := context.Background()

	run, err := svc.RunPayroll(ctx, "2025-03", "admin")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if _, err := svc.Approve(ctx, run.ID, "u-acc", "accountant"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	stored, _ := store.GetRun(ctx, run.ID)
	if stored.Status != RunStatusPending {
		t.Fatalf("rejected approval must not change status, got %s", stored.Status)
	}
}

func TestCreateLoanDefaultsAndValidation(t *testing.T) {
	store := newFakePayrollStore()
	svc := NewService(store, &fakeSender{})
	ctx := context.Background()

	loan, err := svc.CreateLoan(ctx, Loan{
		EmployeeID:       "e1",
		Type:             "salary_advance",
		TotalAmount:      dec("1200"),
		MonthlyDeduction: dec("100"),
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if !loan.RemainingBalance.Equal(dec("1200")) || loan.Status != LoanStatusActive {
		t.Fatalf("unexpected defaults: %+v", loan)
	}

	if _, err := svc.CreateLoan(ctx, Loan{EmployeeID: "e1", TotalAmount: dec("-5"), MonthlyDeduction: dec("1")}); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := svc.CreateLoan(ctx, Loan{EmployeeID: "e1", TotalAmount: dec("100"), MonthlyDeduction: dec("10"), RemainingBalance: dec("150")}); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount for balance above total, got %v", err)
	}
}

func TestUpdateRateTableValidation(t *testing.T) {
	store := newFakePayrollStore()
	svc := NewService(store, &fakeSender{})
	ctx := context.Background()

	if err := svc.UpdateRateTable(ctx, RateTable{EmployeeRate: dec("1.5"), EmployerRate: dec("0.05"), MaxContribution: dec("100")}); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected rejection of rate above 1, got %v", err)
	}
	if err := svc.UpdateRateTable(ctx, RateTable{EmployeeRate: dec("0.08"), EmployerRate: dec("0.08"), MaxContribution: dec("2000")}); err != nil {
		t.Fatalf("update error: %v", err)
	}
	if !store.rates.EmployeeRate.Equal(dec("0.08")) {
		t.Fatalf("rates not stored: %+v", store.rates)
	}
}
