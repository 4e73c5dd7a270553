package canonical

// State represents the evaluation state of a canonical entry.
type State int32

const (
	// Pending indicates the work has been posted but never demanded.
	Pending State = iota
	// Computing indicates one caller is running the work.
	Computing
	// Realized indicates the work completed and its value is cached.
	Realized
	// Failed indicates the work failed and its error is cached.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Computing:
		return "computing"
	case Realized:
		return "realized"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state can no longer change.
func (s State) IsTerminal() bool {
	return s == Realized || s == Failed
}

// Stats counts entries per state.
type Stats struct {
	Pending   int
	Computing int
	Realized  int
	Failed    int
}

// Total returns the number of posted entries.
func (s Stats) Total() int {
	return s.Pending + s.Computing + s.Realized + s.Failed
}
