package roster

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = "id, full_name, email, position, basic_salary, allowances, status, created_at, updated_at"

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FullName, &e.Email, &e.Position, &e.BasicSalary, &e.Allowances, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) CreateEmployee(ctx context.Context, employee Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (full_name, email, position, basic_salary, allowances, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, employee.FullName, employee.Email, employee.Position, employee.BasicSalary, employee.Allowances, employee.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	employee, err := scanEmployee(s.DB.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = $1", employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return employee, err
}

func (s *Store) ListEmployees(ctx context.Context, status string, limit, offset int) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees"
	args := []any{limit, offset}
	if status != "" {
		query += " WHERE status = $3"
		args = append(args, status)
	}
	query += " ORDER BY full_name LIMIT $1 OFFSET $2"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, employee)
	}
	return out, rows.Err()
}

func (s *Store) CountEmployees(ctx context.Context, status string) (int, error) {
	query := "SELECT COUNT(1) FROM employees"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, employee Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET full_name = $1, email = $2, position = $3, basic_salary = $4, allowances = $5, status = $6, updated_at = now()
    WHERE id = $7
  `, employee.FullName, employee.Email, employee.Position, employee.BasicSalary, employee.Allowances, employee.Status, employee.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, employeeID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM employees WHERE id = $1", employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) EmployeeEmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM employees WHERE email = $1 AND id::text <> $2)",
		email, excludeID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateStudent(ctx context.Context, student Student) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO students (full_name, class_name, guardian_name, guardian_phone, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, student.FullName, student.ClassName, student.GuardianName, student.GuardianPhone, student.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetStudent(ctx context.Context, studentID string) (Student, error) {
	var st Student
	err := s.DB.QueryRow(ctx, `
    SELECT id, full_name, class_name, guardian_name, guardian_phone, status, created_at
    FROM students WHERE id = $1
  `, studentID).Scan(&st.ID, &st.FullName, &st.ClassName, &st.GuardianName, &st.GuardianPhone, &st.Status, &st.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Student{}, ErrStudentNotFound
	}
	return st, err
}

func (s *Store) ListStudents(ctx context.Context, limit, offset int) ([]Student, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, full_name, class_name, guardian_name, guardian_phone, status, created_at
    FROM students
    ORDER BY full_name
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.FullName, &st.ClassName, &st.GuardianName, &st.GuardianPhone, &st.Status, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM students").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateStudent(ctx context.Context, student Student) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE students
    SET full_name = $1, class_name = $2, guardian_name = $3, guardian_phone = $4, status = $5
    WHERE id = $6
  `, student.FullName, student.ClassName, student.GuardianName, student.GuardianPhone, student.Status, student.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, studentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM students WHERE id = $1", studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}
