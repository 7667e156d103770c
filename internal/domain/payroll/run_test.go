package payroll

import (
	"errors"
	"testing"
	"time"
)

func testRecords(t *testing.T) []Record {
	t.Helper()
	employees := []Employee{
		{ID: "e1", FullName: "Alice Mensah", BasicSalary: dec("5000"), Allowances: dec("500")},
		{ID: "e2", FullName: "Kwame Osei", BasicSalary: dec("3000"), Allowances: dec("200")},
	}
	records, err := ComputeRun(employees, nil, testRates(), "2025-01")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return records
}

func TestBuildRunTotals(t *testing.T) {
	records := testRecords(t)
	run := BuildRun(records, "2025-01", "admin@example.com", time.Now())

	if run.Status != RunStatusPending {
		t.Fatalf("expected pending, got %s", run.Status)
	}
	if run.ID == "" {
		t.Fatal("expected run id")
	}
	if run.EmployeeCount != 2 {
		t.Fatalf("expected 2 employees, got %d", run.EmployeeCount)
	}

	expectedNet := records[0].NetPay.Add(records[1].NetPay)
	if !run.TotalNet.Equal(expectedNet) {
		t.Fatalf("expected total net %s, got %s", expectedNet, run.TotalNet)
	}
	expectedGross := dec("8700")
	if !run.TotalGross.Equal(expectedGross) {
		t.Fatalf("expected total gross %s, got %s", expectedGross, run.TotalGross)
	}
}

func TestRecomputeTotalsAfterRecordRemoval(t *testing.T) {
	records := testRecords(t)
	run := BuildRun(records, "2025-01", "admin@example.com", time.Now())

	run.Records = run.Records[:1]
	RecomputeTotals(&run)

	if run.EmployeeCount != 1 {
		t.Fatalf("expected 1 employee, got %d", run.EmployeeCount)
	}
	if !run.TotalNet.Equal(run.Records[0].NetPay) {
		t.Fatalf("totals not recomputed: %s vs %s", run.TotalNet, run.Records[0].NetPay)
	}
	if !run.TotalGross.Equal(dec("5500")) {
		t.Fatalf("expected gross 5500, got %s", run.TotalGross)
	}
}

func TestApproveTransitions(t *testing.T) {
	run := BuildRun(testRecords(t), "2025-01", "admin@example.com", time.Now())

	if err := Approve(&run, "u1", "staff", time.Now()); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for staff, got %v", err)
	}
	if run.Status != RunStatusPending {
		t.Fatalf("failed approval must not mutate status, got %s", run.Status)
	}

	if err := Approve(&run, "u1", "director", time.Now()); err != nil {
		t.Fatalf("director approval failed: %v", err)
	}
	if run.Status != RunStatusApproved || run.ApprovedBy != "u1" || run.ApprovedAt == nil {
		t.Fatalf("approval not recorded: %+v", run)
	}

	if err := Approve(&run, "u2", "director", time.Now()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double approval, got %v", err)
	}
}

func TestFinalizeRequiresApproval(t *testing.T) {
	run := BuildRun(testRecords(t), "2025-01", "admin@example.com", time.Now())

	if err := Finalize(&run, time.Now()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState finalizing pending run, got %v", err)
	}

	if err := Approve(&run, "u1", "deputy_director", time.Now()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := Finalize(&run, time.Now()); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if run.Status != RunStatusFinalized || run.FinalizedAt == nil {
		t.Fatalf("finalization not recorded: %+v", run)
	}
}

func TestSummarizeCountsWarnings(t *testing.T) {
	employees := []Employee{
		{ID: "e1", FullName: "Over Cap", BasicSalary: dec("50000"), Allowances: dec("0")},
		{ID: "e2", FullName: "Under Water", BasicSalary: dec("100"), Allowances: dec("0")},
	}
	loans := []*Loan{
		{ID: "l1", EmployeeID: "e2", MonthlyDeduction: dec("500"), RemainingBalance: dec("500"), Status: LoanStatusActive},
	}
	records, err := ComputeRun(employees, loans, testRates(), "2025-06")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	run := BuildRun(records, "2025-06", "admin@example.com", time.Now())

	summary := Summarize(run)
	if summary.Warnings[WarningStatutoryCapped] != 1 {
		t.Fatalf("expected 1 capped warning, got %d", summary.Warnings[WarningStatutoryCapped])
	}
	if summary.Warnings[WarningNegativeNet] != 1 {
		t.Fatalf("expected 1 negative net warning, got %d", summary.Warnings[WarningNegativeNet])
	}
	if summary.EmployeeCount != 2 {
		t.Fatalf("expected 2 employees, got %d", summary.EmployeeCount)
	}
}
