package workflow

// Role is the closed set of actor roles recognized by the voucher core.
// Authorization is decided centrally against the capability table below,
// never by ad-hoc string comparisons in handlers.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleApprover Role = "approver"
	RoleClerk    Role = "clerk"
	RoleAuditor  Role = "auditor"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleApprover: true,
	RoleClerk:    true,
	RoleAuditor:  true,
}

// roleCapabilities maps each role to the lifecycle events it may fire.
// Admin is handled in Can() and allowed everything.
var roleCapabilities = map[Role]map[Event]bool{
	RoleApprover: {
		EventApprove:     true,
		EventReject:      true,
		EventCancel:      true,
		EventRequestCode: true,
		EventConfirmCode: true,
	},
	RoleClerk: {
		EventCreate: true,
		EventUpdate: true,
		EventCancel: true,
		EventDelete: true,
	},
	RoleAuditor: {},
}

// ParseRole validates a raw role claim against the closed enum.
func ParseRole(raw string) (Role, bool) {
	r := Role(raw)
	return r, validRoles[r]
}

// Can reports whether the role is permitted to fire the event.
func (r Role) Can(e Event) bool {
	if r == RoleAdmin {
		return true
	}
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	return caps[e]
}

func (r Role) String() string {
	return string(r)
}
