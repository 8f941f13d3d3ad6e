package pipeline

// State is a step of a pipeline run.
type State int

const (
	StateStart State = iota
	StateValidating
	StateExtracting
	StateSummarizing
	StateResolvingEmail
	StateComposing
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateStart:          "START",
	StateValidating:     "VALIDATING",
	StateExtracting:     "EXTRACTING",
	StateSummarizing:    "SUMMARIZING",
	StateResolvingEmail: "RESOLVING_EMAIL",
	StateComposing:      "COMPOSING",
	StateDone:           "DONE",
	StateFailed:         "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
