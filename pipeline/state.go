package pipeline

// State is the lifecycle state of a Controller
type State int

const (
	Uninitialized State = iota
	Opened
	Running
	Closed
	Failed
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Opened:
		return "Opened"
	case Running:
		return "Running"
	case Closed:
		return "Closed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}
