package auth

const (
	RoleDirector       = "director"
	RoleDeputyDirector = "deputy_director"
	RoleAccountant     = "accountant"
	RoleStaff          = "staff"

	UserStatusActive  = "active"
	UserStatusPending = "pending"
)

const (
	PermEmployeesRead  = "roster.employees.read"
	PermEmployeesWrite = "roster.employees.write"
	PermStudentsRead   = "roster.students.read"
	PermStudentsWrite  = "roster.students.write"
	PermLoansRead      = "payroll.loans.read"
	PermLoansWrite     = "payroll.loans.write"
	PermPayrollRead    = "payroll.read"
	PermPayrollRun     = "payroll.run"
	PermPayrollApprove = "payroll.approve"
	PermRatesWrite     = "payroll.rates.write"
)

var RolePermissions = map[string][]string{
	RoleStaff: {
		PermPayrollRead,
	},
	RoleAccountant: {
		PermEmployeesRead,
		PermStudentsRead,
		PermLoansRead,
		PermLoansWrite,
		PermPayrollRead,
		PermPayrollRun,
	},
	RoleDeputyDirector: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermStudentsRead,
		PermStudentsWrite,
		PermLoansRead,
		PermLoansWrite,
		PermPayrollRead,
		PermPayrollRun,
		PermPayrollApprove,
	},
	RoleDirector: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermStudentsRead,
		PermStudentsWrite,
		PermLoansRead,
		PermLoansWrite,
		PermPayrollRead,
		PermPayrollRun,
		PermPayrollApprove,
		PermRatesWrite,
	},
}

func HasPermission(role, permission string) bool {
	for _, granted := range RolePermissions[role] {
		if granted == permission {
			return true
		}
	}
	return false
}
