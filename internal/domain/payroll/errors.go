package payroll

import "errors"

var (
	ErrEmptyRoster    = errors.New("payroll run requires at least one active employee")
	ErrInvalidMonth   = errors.New("month must be formatted as YYYY-MM")
	ErrNegativeAmount = errors.New("salary amounts must not be negative")
	ErrRunExists      = errors.New("a payroll run already exists for this month")
	ErrRunNotFound    = errors.New("payroll run not found")
	ErrLoanNotFound   = errors.New("loan not found")
	ErrInvalidState   = errors.New("payroll run is not in a state that allows this transition")
	ErrNotAuthorized  = errors.New("role is not permitted to approve payroll runs")
)
