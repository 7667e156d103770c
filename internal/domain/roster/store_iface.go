package roster

import "context"

type StoreAPI interface {
	CreateEmployee(ctx context.Context, employee Employee) (string, error)
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	ListEmployees(ctx context.Context, status string, limit, offset int) ([]Employee, error)
	CountEmployees(ctx context.Context, status string) (int, error)
	UpdateEmployee(ctx context.Context, employee Employee) error
	DeleteEmployee(ctx context.Context, employeeID string) error
	EmployeeEmailExists(ctx context.Context, email, excludeID string) (bool, error)

	CreateStudent(ctx context.Context, student Student) (string, error)
	GetStudent(ctx context.Context, studentID string) (Student, error)
	ListStudents(ctx context.Context, limit, offset int) ([]Student, error)
	CountStudents(ctx context.Context) (int, error)
	UpdateStudent(ctx context.Context, student Student) error
	DeleteStudent(ctx context.Context, studentID string) error
}
