package notifications

const (
	TypePayslipPublished = "payslip_published"
	TypePayrollApproved  = "payroll_approved"
	TypePayrollFinalized = "payroll_finalized"
	TypeLoanCleared      = "loan_cleared"
)
