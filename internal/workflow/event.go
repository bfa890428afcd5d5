package workflow

// Event is a requested action against a voucher's lifecycle
type Event string

const (
	EventCreate      Event = "create"
	EventUpdate      Event = "update"
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventRequestCode Event = "request_code"
	EventConfirmCode Event = "confirm_code"
	EventCancel      Event = "cancel"
	EventDelete      Event = "delete"
)

func (e Event) String() string {
	return string(e)
}
