package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StatutoryContribution returns gross * rate rounded to cents, capped at the
// scheme ceiling. A zero or negative cap disables capping.
func StatutoryContribution(gross, rate, cap decimal.Decimal) decimal.Decimal {
	raw := gross.Mul(rate).Round(2)
	if cap.Sign() > 0 && raw.GreaterThan(cap) {
		return cap
	}
	return raw
}

// ComputeRun computes one payroll run over the active roster. Employees are
// processed in the order given; loans are matched by employee and amortized in
// the order given (the store returns them in stable creation order). The loan
// slice is mutated in place — balances drop and statuses may flip to cleared —
// so the caller must persist records and loans together or discard both.
//
// Validation runs before any mutation: on error the ledger is untouched.
func ComputeRun(employees []Employee, loans []*Loan, rates RateTable, month string) ([]Record, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	if len(employees) == 0 {
		return nil, ErrEmptyRoster
	}
	for _, employee := range employees {
		if employee.BasicSalary.Sign() < 0 || employee.Allowances.Sign() < 0 {
			return nil, fmt.Errorf("%w: employee %s", ErrNegativeAmount, employee.ID)
		}
	}

	records := make([]Record, 0, len(employees))
	for _, employee := range employees {
		record := Record{
			EmployeeID:  employee.ID,
			FullName:    employee.FullName,
			Email:       employee.Email,
			BasicSalary: employee.BasicSalary,
			Allowances:  employee.Allowances,
		}
		record.GrossSalary = employee.BasicSalary.Add(employee.Allowances)
		record.StatutoryEmployee = StatutoryContribution(record.GrossSalary, rates.EmployeeRate, rates.MaxContribution)
		record.StatutoryEmployer = StatutoryContribution(record.GrossSalary, rates.EmployerRate, rates.MaxContribution)
		if record.StatutoryEmployee.Equal(rates.MaxContribution) && rates.MaxContribution.Sign() > 0 {
			record.Warnings = append(record.Warnings, WarningStatutoryCapped)
		}

		record.LoanDeductions = decimal.Zero
		for _, loan := range loans {
			if loan.EmployeeID != employee.ID {
				continue
			}
			deduction := ApplyMonthlyDeduction(loan)
			if deduction.Sign() <= 0 {
				continue
			}
			record.LoanDeductions = record.LoanDeductions.Add(deduction)
			record.LoanDetails = append(record.LoanDetails, LoanDetail{
				LoanID:    loan.ID,
				Type:      loan.Type,
				Deduction: deduction,
			})
		}

		record.TotalDeductions = record.StatutoryEmployee.Add(record.LoanDeductions)
		// Net pay is surfaced as computed, even below zero; the warning lets
		// reviewers catch over-deducted employees before approval.
		record.NetPay = record.GrossSalary.Sub(record.TotalDeductions)
		if record.NetPay.Sign() < 0 {
			record.Warnings = append(record.Warnings, WarningNegativeNet)
		}
		records = append(records, record)
	}
	return records, nil
}
