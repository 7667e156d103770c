package roster

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the authoritative staff record. Payroll consumes a projection of
// the active rows.
type Employee struct {
	ID          string          `json:"id"`
	FullName    string          `json:"fullName"`
	Email       string          `json:"email"`
	Position    string          `json:"position"`
	BasicSalary decimal.Decimal `json:"basicSalary"`
	Allowances  decimal.Decimal `json:"allowances"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Student struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	ClassName     string    `json:"className"`
	GuardianName  string    `json:"guardianName"`
	GuardianPhone string    `json:"guardianPhone"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
