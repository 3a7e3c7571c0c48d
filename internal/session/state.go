package session

// State is a lifecycle state.
type State int

const (
	StateAbsent State = iota
	StateValid
	StateExpired
	StateRefreshPending
	StateReloginPending
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRefreshPending:
		return "refresh pending"
	case StateReloginPending:
		return "relogin pending"
	case StateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
