package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	employees map[string]Employee
	students  map[string]Student
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{employees: map[string]Employee{}, students: map[string]Student{}}
}

func (f *fakeStore) id() string {
	f.nextID++
	return string(rune('a' + f.nextID - 1))
}

func (f *fakeStore) CreateEmployee(_ context.Context, employee Employee) (string, error) {
	id := f.id()
	employee.ID = id
	f.employees[id] = employee
	return id, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, employeeID string) (Employee, error) {
	employee, ok := f.employees[employeeID]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return employee, nil
}

func (f *fakeStore) ListEmployees(_ context.Context, status string, _, _ int) ([]Employee, error) {
	var out []Employee
	for _, e := range f.employees {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CountEmployees(_ context.Context, status string) (int, error) {
	list, _ := f.ListEmployees(context.Background(), status, 0, 0)
	return len(list), nil
}

func (f *fakeStore) UpdateEmployee(_ context.Context, employee Employee) error {
	if _, ok := f.employees[employee.ID]; !ok {
		return ErrEmployeeNotFound
	}
	f.employees[employee.ID] = employee
	return nil
}

func (f *fakeStore) DeleteEmployee(_ context.Context, employeeID string) error {
	if _, ok := f.employees[employeeID]; !ok {
		return ErrEmployeeNotFound
	}
	delete(f.employees, employeeID)
	return nil
}

func (f *fakeStore) EmployeeEmailExists(_ context.Context, email, excludeID string) (bool, error) {
	for id, e := range f.employees {
		if e.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateStudent(_ context.Context, student Student) (string, error) {
	id := f.id()
	student.ID = id
	f.students[id] = student
	return id, nil
}

func (f *fakeStore) GetStudent(_ context.Context, studentID string) (Student, error) {
	student, ok := f.students[studentID]
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	return student, nil
}

func (f *fakeStore) ListStudents(_ context.Context, _, _ int) ([]Student, error) {
	var out []Student
	for _, st := range f.students {
		out = append(out, st)
	}
	return out, nil
}

func (f *fakeStore) CountStudents(_ context.Context) (int, error) {
	return len(f.students), nil
}

func (f *fakeStore) UpdateStudent(_ context.Context, student Student) error {
	if _, ok := f.students[student.ID]; !ok {
		return ErrStudentNotFound
	}
	f.students[student.ID] = student
	return nil
}

func (f *fakeStore) DeleteStudent(_ context.Context, studentID string) error {
	if _, ok := f.students[studentID]; !ok {
		return ErrStudentNotFound
	}
	delete(f.students, studentID)
	return nil
}

type fakeCleaner struct {
	removed []string
	err     error
}

func (c *fakeCleaner) RemoveEmployee(_ context.Context, employeeID string) error {
	if c.err != nil {
		return c.err
	}
	c.removed = append(c.removed, employeeID)
	return nil
}

func validEmployee() Employee {
	return Employee{
		FullName:    "Jane Poe",
		Email:       "jane@school.test",
		Position:    "Teacher",
		BasicSalary: decimal.NewFromInt(3000),
		Allowances:  decimal.NewFromInt(200),
	}
}

func TestCreateEmployeeDefaultsAndNormalizes(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeCleaner{})

	input := validEmployee()
	input.FullName = "  Jane Poe "
	input.Email = " Jane@School.Test "
	employee, err := svc.CreateEmployee(context.Background(), input)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if employee.ID == "" || employee.Status != StatusActive {
		t.Fatalf("unexpected employee %+v", employee)
	}
	if employee.FullName != "Jane Poe" || employee.Email != "jane@school.test" {
		t.Fatalf("input not normalized: %+v", employee)
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeCleaner{})
	ctx := context.Background()

	blank := validEmployee()
	blank.FullName = "  "
	if _, err := svc.CreateEmployee(ctx, blank); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}

	badMail := validEmployee()
	badMail.Email = "not-an-address"
	if _, err := svc.CreateEmployee(ctx, badMail); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}

	negative := validEmployee()
	negative.BasicSalary = decimal.NewFromInt(-1)
	if _, err := svc.CreateEmployee(ctx, negative); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative salary, got %v", err)
	}
}

func TestCreateEmployeeRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeCleaner{})
	ctx := context.Background()

	if _, err := svc.CreateEmployee(ctx, validEmployee()); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if _, err := svc.CreateEmployee(ctx, validEmployee()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateEmployeeKeepsOwnEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeCleaner{})
	ctx := context.Background()

	employee, err := svc.CreateEmployee(ctx, validEmployee())
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	employee.Position = "Head Teacher"
	updated, err := svc.UpdateEmployee(ctx, employee)
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if updated.Position != "Head Teacher" {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestDeleteEmployeeCleansPayrollFirst(t *testing.T) {
	store := newFakeStore()
	cleaner := &fakeCleaner{}
	svc := NewService(store, cleaner)
	ctx := context.Background()

	employee, err := svc.CreateEmployee(ctx, validEmployee())
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	if err := svc.DeleteEmployee(ctx, employee.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if len(cleaner.removed) != 1 || cleaner.removed[0] != employee.ID {
		t.Fatalf("payroll cleanup not invoked: %v", cleaner.removed)
	}
	if _, err := svc.GetEmployee(ctx, employee.ID); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected employee gone, got %v", err)
	}
}

func TestDeleteEmployeeAbortsWhenCleanupFails(t *testing.T) {
	store := newFakeStore()
	cleaner := &fakeCleaner{err: errors.New("boom")}
	svc := NewService(store, cleaner)
	ctx := context.Background()

	employee, err := svc.CreateEmployee(ctx, validEmployee())
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if err := svc.DeleteEmployee(ctx, employee.ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	if _, err := svc.GetEmployee(ctx, employee.ID); err != nil {
		t.Fatalf("employee row must survive a failed cleanup, got %v", err)
	}
}

func TestDeleteEmployeeUnknown(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeCleaner{})
	if err := svc.DeleteEmployee(context.Background(), "missing"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestStudentLifecycle(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeCleaner{})
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, Student{FullName: "Sam Roe", ClassName: "Grade 4"})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if student.Status != StatusActive {
		t.Fatalf("expected default active status, got %q", student.Status)
	}

	student.ClassName = "Grade 5"
	if _, err := svc.UpdateStudent(ctx, student); err != nil {
		t.Fatalf("update error: %v", err)
	}

	if err := svc.DeleteStudent(ctx, student.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := svc.GetStudent(ctx, student.ID); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected student gone, got %v", err)
	}

	if _, err := svc.CreateStudent(ctx, Student{FullName: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
