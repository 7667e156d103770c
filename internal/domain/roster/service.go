package roster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// PayrollCleaner removes an employee's computed pay history when the employee
// is deleted. Implemented by the payroll service, which also re-sums the
// affected run totals.
type PayrollCleaner interface {
	RemoveEmployee(ctx context.Context, employeeID string) error
}

type Service struct {
	store   StoreAPI
	payroll PayrollCleaner
}

func NewService(store StoreAPI, payroll PayrollCleaner) *Service {
	return &Service{store: store, payroll: payroll}
}

func (s *Service) CreateEmployee(ctx context.Context, employee Employee) (Employee, error) {
	if err := s.validateEmployee(ctx, &employee); err != nil {
		return Employee{}, err
	}
	id, err := s.store.CreateEmployee(ctx, employee)
	if err != nil {
		return Employee{}, err
	}
	employee.ID = id
	return employee, nil
}

func (s *Service) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) ListEmployees(ctx context.Context, status string, limit, offset int) ([]Employee, int, error) {
	total, err := s.store.CountEmployees(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	employees, err := s.store.ListEmployees(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, employee Employee) (Employee, error) {
	if err := s.validateEmployee(ctx, &employee); err != nil {
		return Employee{}, err
	}
	if err := s.store.UpdateEmployee(ctx, employee); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, employee.ID)
}

// DeleteEmployee removes the payroll history first so the run totals are
// consistent before the roster row goes away. Loans disappear with the row.
func (s *Service) DeleteEmployee(ctx context.Context, employeeID string) error {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return err
	}
	if err := s.payroll.RemoveEmployee(ctx, employeeID); err != nil {
		return err
	}
	if err := s.store.DeleteEmployee(ctx, employeeID); err != nil {
		return err
	}
	slog.Info("employee deleted", "employeeId", employeeID)
	return nil
}

func (s *Service) validateEmployee(ctx context.Context, employee *Employee) error {
	employee.FullName = strings.TrimSpace(employee.FullName)
	employee.Email = strings.TrimSpace(strings.ToLower(employee.Email))
	if employee.FullName == "" {
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if employee.Email == "" || !strings.Contains(employee.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if employee.BasicSalary.Sign() < 0 || employee.Allowances.Sign() < 0 {
		return fmt.Errorf("%w: salary components must not be negative", ErrInvalidInput)
	}
	if employee.Status == "" {
		employee.Status = StatusActive
	}
	if employee.Status != StatusActive && employee.Status != StatusInactive {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, employee.Status)
	}

	taken, err := s.store.EmployeeEmailExists(ctx, employee.Email, employee.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

func (s *Service) CreateStudent(ctx context.Context, student Student) (Student, error) {
	if err := validateStudent(&student); err != nil {
		return Student{}, err
	}
	id, err := s.store.CreateStudent(ctx, student)
	if err != nil {
		return Student{}, err
	}
	student.ID = id
	return student, nil
}

func (s *Service) GetStudent(ctx context.Context, studentID string) (Student, error) {
	return s.store.GetStudent(ctx, studentID)
}

func (s *Service) ListStudents(ctx context.Context, limit, offset int) ([]Student, int, error) {
	total, err := s.store.CountStudents(ctx)
	if err != nil {
		return nil, 0, err
	}
	students, err := s.store.ListStudents(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (s *Service) UpdateStudent(ctx context.Context, student Student) (Student, error) {
	if err := validateStudent(&student); err != nil {
		return Student{}, err
	}
	if err := s.store.UpdateStudent(ctx, student); err != nil {
		return Student{}, err
	}
	return s.store.GetStudent(ctx, student.ID)
}

func (s *Service) DeleteStudent(ctx context.Context, studentID string) error {
	return s.store.DeleteStudent(ctx, studentID)
}

func validateStudent(student *Student) error {
	student.FullName = strings.TrimSpace(student.FullName)
	if student.FullName == "" {
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if student.Status == "" {
		student.Status = StatusActive
	}
	if student.Status != StatusActive && student.Status != StatusInactive {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, student.Status)
	}
	return nil
}
