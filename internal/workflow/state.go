package workflow

// State represents a voucher's position in the approval lifecycle
type State string

const (
	StateDraft           State = "draft"
	StatePendingApproval State = "pending_approval"
	StateApproved        State = "approved"
	StateCompleted       State = "completed"
	StateRejected        State = "rejected"
	StateCancelled       State = "cancelled"
)

var validStates = map[State]bool{
	StateDraft:           true,
	StatePendingApproval: true,
	StateApproved:        true,
	StateCompleted:       true,
	StateRejected:        true,
	StateCancelled:       true,
}

// terminal states permit no further transitions
var terminalStates = map[State]bool{
	StateCompleted: true,
	StateRejected:  true,
	StateCancelled: true,
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsTerminal returns true if no event may move the voucher out of this state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// Editable returns true if voucher content may still be changed in this state
func (s State) Editable() bool {
	return s == StateDraft || s == StatePendingApproval
}

func (s State) String() string {
	return string(s)
}
