package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the event is not legal from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotPermitted is returned when the actor's role may not fire the event
	ErrNotPermitted = errors.New("role not permitted to perform this action")
)

// StateNone is the pseudo-state of a voucher that does not exist yet.
// Creation always lands directly in pending_approval; the draft state is
// reachable only for records that entered it through other paths.
const StateNone State = ""

type transition struct {
	from  State
	event Event
}

// transitionTable is the single source of truth for legal lifecycle moves.
// EventDelete maps to StateNone: the record is removed rather than moved.
var transitionTable = map[transition]State{
	{StateNone, EventCreate}: StatePendingApproval,

	{StateDraft, EventUpdate}:           StateDraft,
	{StatePendingApproval, EventUpdate}: StatePendingApproval,

	{StatePendingApproval, EventApprove}: StateApproved,
	{StatePendingApproval, EventReject}:  StateRejected,

	{StateApproved, EventRequestCode}: StateApproved,
	{StateApproved, EventConfirmCode}: StateCompleted,

	{StateDraft, EventCancel}:           StateCancelled,
	{StatePendingApproval, EventCancel}: StateCancelled,
	{StateApproved, EventCancel}:        StateCancelled,

	{StateDraft, EventDelete}: StateNone,
}

// Next resolves the state an event leads to, checking the actor's role first.
// The voucher itself is never touched here; callers apply the result.
func Next(from State, event Event, actor Role) (State, error) {
	if !actor.Can(event) {
		return from, ErrNotPermitted
	}
	to, ok := transitionTable[transition{from, event}]
	if !ok {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// PermittedEvents lists every event legal from the given state, without
// regard to role. Useful for surfacing available actions to callers.
func PermittedEvents(from State) []Event {
	var events []Event
	for t := range transitionTable {
		if t.from == from {
			events = append(events, t.event)
		}
	}
	return events
}
