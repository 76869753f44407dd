package codec

// State is the position of a Writer or Reader in its job lifecycle.
type State uint8

const (
	StateNew      State = iota // StateNew is a freshly constructed job.
	StatePrepared              // StatePrepared is bound to a context and ready for a pass.
	StateInPass                // StateInPass is consuming or producing records.
	StatePassDone              // StatePassDone has flushed and closed the pass stream.
	StateComplete              // StateComplete has released its resources.
	StateFailed                // StateFailed hit an error; the job must be discarded.
	StateAborted               // StateAborted was discarded by its caller.
)

var stateNames = [...]string{
	StateNew:      "New",
	StatePrepared: "Prepared",
	StateInPass:   "InPass",
	StatePassDone: "PassDone",
	StateComplete: "Complete",
	StateFailed:   "Failed",
	StateAborted:  "Aborted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "Unknown"
}
