package payroll

const (
	RunStatusPending   = "pending"
	RunStatusApproved  = "approved"
	RunStatusFinalized = "finalized"

	LoanStatusActive  = "active"
	LoanStatusCleared = "cleared"

	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"

	WarningNegativeNet     = "negative_net"
	WarningStatutoryCapped = "statutory_capped"
)

// Roles allowed to move a run from pending to approved.
var ApproverRoles = []string{"director", "deputy_director"}

func CanApprove(role string) bool {
	for _, allowed := range ApproverRoles {
		if role == allowed {
			return true
		}
	}
	return false
}
