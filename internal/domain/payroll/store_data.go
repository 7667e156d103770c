package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListActiveEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, full_name, email, basic_salary, allowances, status
    FROM employees
    WHERE status = $1
    ORDER BY full_name, id
  `, EmployeeStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var employee Employee
		if err := rows.Scan(&employee.ID, &employee.FullName, &employee.Email, &employee.BasicSalary, &employee.Allowances, &employee.Status); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (s *Store) ListLoans(ctx context.Context, filter LoanFilter) ([]*Loan, error) {
	query := `
    SELECT id, employee_id, loan_type, total_amount, monthly_deduction, remaining_balance, status, created_at
    FROM loans
    WHERE 1=1
  `
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at, id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*Loan
	for rows.Next() {
		var loan Loan
		if err := rows.Scan(&loan.ID, &loan.EmployeeID, &loan.Type, &loan.TotalAmount, &loan.MonthlyDeduction, &loan.RemainingBalance, &loan.Status, &loan.CreatedAt); err != nil {
			return nil, err
		}
		loans = append(loans, &loan)
	}
	return loans, rows.Err()
}

func (s *Store) GetLoan(ctx context.Context, loanID string) (*Loan, error) {
	var loan Loan
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, loan_type, total_amount, monthly_deduction, remaining_balance, status, created_at
    FROM loans
    WHERE id = $1
  `, loanID).Scan(&loan.ID, &loan.EmployeeID, &loan.Type, &loan.TotalAmount, &loan.MonthlyDeduction, &loan.RemainingBalance, &loan.Status, &loan.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (s *Store) CreateLoan(ctx context.Context, loan Loan) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO loans (employee_id, loan_type, total_amount, monthly_deduction, remaining_balance, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, loan.EmployeeID, loan.Type, loan.TotalAmount, loan.MonthlyDeduction, loan.RemainingBalance, loan.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetRateTable(ctx context.Context) (RateTable, error) {
	var rates RateTable
	err := s.DB.QueryRow(ctx, `
    SELECT employee_rate, employer_rate, max_contribution
    FROM rate_tables
    ORDER BY updated_at DESC
    LIMIT 1
  `).Scan(&rates.EmployeeRate, &rates.EmployerRate, &rates.MaxContribution)
	return rates, err
}

func (s *Store) UpdateRateTable(ctx context.Context, rates RateTable) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE rate_tables
    SET employee_rate = $1, employer_rate = $2, max_contribution = $3, updated_at = now()
  `, rates.EmployeeRate, rates.EmployerRate, rates.MaxContribution)
	return err
}

func (s *Store) RunExistsForMonth(ctx context.Context, month string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_runs WHERE month = $1", month).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertRun persists the run header, its records, the per-record loan detail
// rows, and the amortized loan balances in a single transaction. Rolling back
// leaves the stored ledger exactly as it was before ComputeRun mutated the
// in-memory copy.
func (s *Store) InsertRun(ctx context.Context, run Run, loans []*Loan) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    INSERT INTO payroll_runs (id, month, status, total_gross, total_net, total_statutory_employee, total_statutory_employer, employee_count, created_by, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, run.ID, run.Month, run.Status, run.TotalGross, run.TotalNet, run.TotalStatutoryEmployee, run.TotalStatutoryEmployer, run.EmployeeCount, run.CreatedBy, run.CreatedAt); err != nil {
		return err
	}

	for _, record := range run.Records {
		warningsJSON, err := json.Marshal(record.Warnings)
		if err != nil {
			warningsJSON = []byte("[]")
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_records (run_id, employee_id, full_name, email, basic_salary, allowances, gross_salary, statutory_employee, statutory_employer, loan_deductions, total_deductions, net_pay, warnings_json)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `, run.ID, record.EmployeeID, record.FullName, record.Email, record.BasicSalary, record.Allowances, record.GrossSalary, record.StatutoryEmployee, record.StatutoryEmployer, record.LoanDeductions, record.TotalDeductions, record.NetPay, warningsJSON); err != nil {
			return err
		}
		for _, detail := range record.LoanDetails {
			if _, err := tx.Exec(ctx, `
        INSERT INTO payroll_record_loans (run_id, employee_id, loan_id, loan_type, deduction)
        VALUES ($1,$2,$3,$4,$5)
      `, run.ID, record.EmployeeID, detail.LoanID, detail.Type, detail.Deduction); err != nil {
				return err
			}
		}
	}

	for _, loan := range loans {
		if _, err := tx.Exec(ctx, `
      UPDATE loans SET remaining_balance = $1, status = $2 WHERE id = $3
    `, loan.RemainingBalance, loan.Status, loan.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	return s.loadRun(ctx, "id = $1", runID)
}

func (s *Store) GetRunByMonth(ctx context.Context, month string) (Run, error) {
	return s.loadRun(ctx, "month = $1", month)
}

func (s *Store) loadRun(ctx context.Context, where string, arg any) (Run, error) {
	var run Run
	err := s.DB.QueryRow(ctx, `
    SELECT id, month, status, total_gross, total_net, total_statutory_employee, total_statutory_employer, employee_count,
           created_by, created_at, COALESCE(approved_by, ''), approved_at, finalized_at
    FROM payroll_runs
    WHERE `+where, arg).Scan(
		&run.ID, &run.Month, &run.Status, &run.TotalGross, &run.TotalNet, &run.TotalStatutoryEmployee, &run.TotalStatutoryEmployer, &run.EmployeeCount,
		&run.CreatedBy, &run.CreatedAt, &run.ApprovedBy, &run.ApprovedAt, &run.FinalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}

	records, err := s.listRecords(ctx, run.ID)
	if err != nil {
		return Run{}, err
	}
	run.Records = records
	return run, nil
}

func (s *Store) listRecords(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, full_name, email, basic_salary, allowances, gross_salary, statutory_employee, statutory_employer, loan_deductions, total_deductions, net_pay, warnings_json
    FROM payroll_records
    WHERE run_id = $1
    ORDER BY full_name, employee_id
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var warningsJSON []byte
		if err := rows.Scan(&record.EmployeeID, &record.FullName, &record.Email, &record.BasicSalary, &record.Allowances, &record.GrossSalary, &record.StatutoryEmployee, &record.StatutoryEmployer, &record.LoanDeductions, &record.TotalDeductions, &record.NetPay, &warningsJSON); err != nil {
			return nil, err
		}
		if len(warningsJSON) > 0 {
			if err := json.Unmarshal(warningsJSON, &record.Warnings); err != nil {
				record.Warnings = nil
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	detailRows, err := s.DB.Query(ctx, `
    SELECT employee_id, loan_id, loan_type, deduction
    FROM payroll_record_loans
    WHERE run_id = $1
    ORDER BY loan_id
  `, runID)
	if err != nil {
		return nil, err
	}
	defer detailRows.Close()

	detailsByEmployee := map[string][]LoanDetail{}
	for detailRows.Next() {
		var employeeID string
		var detail LoanDetail
		if err := detailRows.Scan(&employeeID, &detail.LoanID, &detail.Type, &detail.Deduction); err != nil {
			return nil, err
		}
		detailsByEmployee[employeeID] = append(detailsByEmployee[employeeID], detail)
	}
	for i := range records {
		records[i].LoanDetails = detailsByEmployee[records[i].EmployeeID]
	}
	return records, detailRows.Err()
}

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, month, status, total_gross, total_net, total_statutory_employee, total_statutory_employer, employee_count,
           created_by, created_at, COALESCE(approved_by, ''), approved_at, finalized_at
    FROM payroll_runs
    ORDER BY month DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Month, &run.Status, &run.TotalGross, &run.TotalNet, &run.TotalStatutoryEmployee, &run.TotalStatutoryEmployer, &run.EmployeeCount,
			&run.CreatedBy, &run.CreatedAt, &run.ApprovedBy, &run.ApprovedAt, &run.FinalizedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_runs").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) SaveApproval(ctx context.Context, run Run) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs SET status = $1, approved_by = $2, approved_at = $3 WHERE id = $4
  `, run.Status, run.ApprovedBy, run.ApprovedAt, run.ID)
	return err
}

// FinalizeRun flips the status and materializes one payslip row per record in
// the same transaction.
func (s *Store) FinalizeRun(ctx context.Context, run Run) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    UPDATE payroll_runs SET status = $1, finalized_at = $2 WHERE id = $3
  `, run.Status, run.FinalizedAt, run.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO payslips (run_id, employee_id, month, gross_pay, net_pay)
    SELECT run_id, employee_id, $2, gross_salary, net_pay
    FROM payroll_records
    WHERE run_id = $1
    ON CONFLICT (run_id, employee_id) DO NOTHING
  `, run.ID, run.Month); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteRun discards a run and everything derived from it. Loan deductions the
// run applied are credited back from the stored detail rows, reopening loans
// whose balance climbs back above zero, so a regenerated run amortizes from
// the pre-run ledger state instead of double-deducting.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Crediting a positive deduction always leaves the balance above zero,
	// so reversed loans are active again by definition.
	if _, err := tx.Exec(ctx, `
    UPDATE loans l
    SET remaining_balance = l.remaining_balance + d.deduction,
        status = $2
    FROM (
      SELECT loan_id, SUM(deduction) AS deduction
      FROM payroll_record_loans
      WHERE run_id = $1
      GROUP BY loan_id
    ) d
    WHERE l.id = d.loan_id
  `, runID, LoanStatusActive); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payslips WHERE run_id = $1", runID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM payroll_record_loans WHERE run_id = $1", runID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM payroll_records WHERE run_id = $1", runID); err != nil {
		return err
	}
	deleted, err := tx.Exec(ctx, "DELETE FROM payroll_runs WHERE id = $1", runID)
	if err != nil {
		return err
	}
	if deleted.RowsAffected() == 0 {
		return ErrRunNotFound
	}

	return tx.Commit(ctx)
}

// RemoveEmployeeRecords deletes an employee's payroll records (a roster
// deletion cascade) and re-sums the totals of every run that lost a record.
func (s *Store) RemoveEmployeeRecords(ctx context.Context, employeeID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, "SELECT DISTINCT run_id FROM payroll_records WHERE employee_id = $1", employeeID)
	if err != nil {
		return err
	}
	var runIDs []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			rows.Close()
			return err
		}
		runIDs = append(runIDs, runID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payslips WHERE employee_id = $1", employeeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM payroll_record_loans WHERE employee_id = $1", employeeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM payroll_records WHERE employee_id = $1", employeeID); err != nil {
		return err
	}

	for _, runID := range runIDs {
		if _, err := tx.Exec(ctx, `
      UPDATE payroll_runs r
      SET total_gross = t.gross,
          total_net = t.net,
          total_statutory_employee = t.statutory_employee,
          total_statutory_employer = t.statutory_employer,
          employee_count = t.employee_count
      FROM (
        SELECT COALESCE(SUM(gross_salary),0) AS gross,
               COALESCE(SUM(net_pay),0) AS net,
               COALESCE(SUM(statutory_employee),0) AS statutory_employee,
               COALESCE(SUM(statutory_employer),0) AS statutory_employer,
               COUNT(1) AS employee_count
        FROM payroll_records
        WHERE run_id = $1
      ) t
      WHERE r.id = $1
    `, runID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) ListPayslips(ctx context.Context, employeeID string, limit, offset int) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, run_id, employee_id, month, gross_pay, net_pay, created_at
    FROM payslips
    WHERE employee_id = $1
    ORDER BY month DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payslips []Payslip
	for rows.Next() {
		var payslip Payslip
		if err := rows.Scan(&payslip.ID, &payslip.RunID, &payslip.EmployeeID, &payslip.Month, &payslip.GrossPay, &payslip.NetPay, &payslip.CreatedAt); err != nil {
			return nil, err
		}
		payslips = append(payslips, payslip)
	}
	return payslips, rows.Err()
}
