package models

// Table status. CHECK constrained in the tables table.
const (
	TableStatusEmpty  = "empty"
	TableStatusActive = "active"
)

// Session status. CHECK constrained in the table_sessions table.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// KOT status. A KOT only completes when the bill covering it settles.
const (
	KOTStatusActive    = "active"
	KOTStatusCompleted = "completed"
)

// Bill status.
const (
	BillStatusPending = "pending"
	BillStatusSettled = "settled"
)

// Payment modes accepted at settlement. The mode is a tag only.
const (
	PaymentModeUPI    = "UPI"
	PaymentModeCash   = "Cash"
	PaymentModeSwiggy = "Swiggy"
	PaymentModeZomato = "Zomato"
)

// Staff roles.
const (
	RoleManager = "manager"
	RoleCaptain = "captain"
	RoleCashier = "cashier"
)

// IsValidPaymentMode reports whether mode is one of the accepted payment modes.
func IsValidPaymentMode(mode string) bool {
	switch mode {
	case PaymentModeUPI, PaymentModeCash, PaymentModeSwiggy, PaymentModeZomato:
		return true
	}
	return false
}
