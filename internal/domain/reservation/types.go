package reservation

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

type Option string

const (
	OptionOneTime      Option = "one_time"
	OptionFixedSlot    Option = "fixed_slot"
	OptionSubscription Option = "subscription"
)

func (o Option) String() string {
	return string(o)
}

func (o Option) IsValid() bool {
	switch o {
	case OptionOneTime, OptionFixedSlot, OptionSubscription:
		return true
	default:
		return false
	}
}
