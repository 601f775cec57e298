package identity

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can approve absences, validate attendance, run payroll
	RoleEmployee Role = "employee" // Regular employee
)

// Actor is the already-authenticated caller of an engine operation.
// It is passed explicitly to every service call; nothing reads it from ambient state.
type Actor struct {
	UserID     string
	EmployeeID *string
	CompanyID  string
	Role       Role
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleOwner
}

// ActsFor reports whether the actor may operate on the given employee's own data.
func (a Actor) ActsFor(employeeID string) bool {
	if a.IsManager() {
		return true
	}
	return a.EmployeeID != nil && *a.EmployeeID == employeeID
}

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleManager, RoleEmployee:
		return Role(s), true
	default:
		return "", false
	}
}
