package payroll

import "testing"

func TestApplyMonthlyDeduction(t *testing.T) {
	loan := &Loan{ID: "l1", MonthlyDeduction: dec("300"), RemainingBalance: dec("1000"), Status: LoanStatusActive}

	deduction := ApplyMonthlyDeduction(loan)
	if !deduction.Equal(dec("300")) {
		t.Fatalf("expected deduction 300, got %s", deduction)
	}
	if !loan.RemainingBalance.Equal(dec("700")) {
		t.Fatalf("expected balance 700, got %s", loan.RemainingBalance)
	}
	if loan.Status != LoanStatusActive {
		t.Fatalf("expected loan still active, got %s", loan.Status)
	}
}

func TestApplyMonthlyDeductionFinalInstallmentCapped(t *testing.T) {
	loan := &Loan{ID: "l1", MonthlyDeduction: dec("300"), RemainingBalance: dec("120.50"), Status: LoanStatusActive}

	deduction := ApplyMonthlyDeduction(loan)
	if !deduction.Equal(dec("120.50")) {
		t.Fatalf("expected deduction capped at 120.50, got %s", deduction)
	}
	if !loan.RemainingBalance.IsZero() {
		t.Fatalf("expected balance 0, got %s", loan.RemainingBalance)
	}
	if loan.Status != LoanStatusCleared {
		t.Fatalf("expected cleared, got %s", loan.Status)
	}
}

func TestApplyMonthlyDeductionMonotonic(t *testing.T) {
	loan := &Loan{ID: "l1", MonthlyDeduction: dec("300"), RemainingBalance: dec("1000"), Status: LoanStatusActive}

	previous := loan.RemainingBalance
	for i := 0; i < 6; i++ {
		ApplyMonthlyDeduction(loan)
		if loan.RemainingBalance.GreaterThan(previous) {
			t.Fatalf("balance increased: %s -> %s", previous, loan.RemainingBalance)
		}
		if loan.RemainingBalance.Sign() < 0 {
			t.Fatalf("balance went negative: %s", loan.RemainingBalance)
		}
		if (loan.Status == LoanStatusCleared) != (loan.RemainingBalance.Sign() <= 0) {
			t.Fatalf("clearance out of sync: status %s, balance %s", loan.Status, loan.RemainingBalance)
		}
		previous = loan.RemainingBalance
	}
	if loan.Status != LoanStatusCleared {
		t.Fatalf("expected loan cleared after amortization, got %s", loan.Status)
	}
}

func TestApplyMonthlyDeductionSkipsClearedAndDrained(t *testing.T) {
	cleared := &Loan{ID: "l1", MonthlyDeduction: dec("100"), RemainingBalance: dec("500"), Status: LoanStatusCleared}
	if deduction := ApplyMonthlyDeduction(cleared); !deduction.IsZero() {
		t.Fatalf("expected no deduction from cleared loan, got %s", deduction)
	}
	if !cleared.RemainingBalance.Equal(dec("500")) {
		t.Fatalf("cleared loan balance changed: %s", cleared.RemainingBalance)
	}

	drained := &Loan{ID: "l2", MonthlyDeduction: dec("100"), RemainingBalance: dec("0"), Status: LoanStatusActive}
	if deduction := ApplyMonthlyDeduction(drained); !deduction.IsZero() {
		t.Fatalf("expected no deduction from drained loan, got %s", deduction)
	}
}

func TestReverseDeductionReopensLoan(t *testing.T) {
	loan := &Loan{ID: "l1", MonthlyDeduction: dec("300"), RemainingBalance: dec("300"), Status: LoanStatusActive}

	deduction := ApplyMonthlyDeduction(loan)
	if loan.Status != LoanStatusCleared {
		t.Fatalf("expected cleared, got %s", loan.Status)
	}

	ReverseDeduction(loan, deduction)
	if !loan.RemainingBalance.Equal(dec("300")) {
		t.Fatalf("expected balance restored to 300, got %s", loan.RemainingBalance)
	}
	if loan.Status != LoanStatusActive {
		t.Fatalf("expected loan reopened, got %s", loan.Status)
	}
}
