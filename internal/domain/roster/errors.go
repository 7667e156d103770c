package roster

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrEmailTaken       = errors.New("email already in use")
	ErrInvalidInput     = errors.New("invalid input")
)
