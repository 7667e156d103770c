package payroll

import "github.com/shopspring/decimal"

// ApplyMonthlyDeduction amortizes one installment against the loan. The
// deduction is capped at the remaining balance, so the balance decreases
// monotonically and never goes negative; when it reaches zero the loan flips
// to cleared. Returns the amount actually deducted.
//
// Calling this twice for the same run double-deducts. ComputeRun guarantees
// one call per loan per run.
func ApplyMonthlyDeduction(loan *Loan) decimal.Decimal {
	if loan.Status != LoanStatusActive || loan.RemainingBalance.Sign() <= 0 {
		return decimal.Zero
	}
	deduction := decimal.Min(loan.MonthlyDeduction, loan.RemainingBalance)
	if deduction.Sign() <= 0 {
		return decimal.Zero
	}
	loan.RemainingBalance = loan.RemainingBalance.Sub(deduction)
	if loan.RemainingBalance.Sign() <= 0 {
		loan.Status = LoanStatusCleared
	}
	return deduction
}

// ReverseDeduction credits a previously applied deduction back onto the loan,
// reopening it if the balance climbs back above zero. Used when a stored run
// is discarded so regeneration starts from the pre-run ledger state.
func ReverseDeduction(loan *Loan, deduction decimal.Decimal) {
	if deduction.Sign() <= 0 {
		return
	}
	loan.RemainingBalance = loan.RemainingBalance.Add(deduction)
	if loan.RemainingBalance.Sign() > 0 {
		loan.Status = LoanStatusActive
	}
}
