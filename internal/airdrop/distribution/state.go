package distribution

// State of the orchestrator.
type State int

const (
	Idle State = iota
	Connecting
	Connected
	Validating
	Normalizing
	CheckingSolvency
	Submitting
	AwaitingConfirmation
	Succeeded
	Failed
	// Unsettled holds a submitted transaction whose confirmation wait was
	// interrupted. Only Reconcile leaves it.
	Unsettled
)

//nolint:gochecknoglobals
var stateNames = [...]string{
	Idle:                 "idle",
	Connecting:           "connecting",
	Connected:            "connected",
	Validating:           "validating",
	Normalizing:          "normalizing",
	CheckingSolvency:     "checking_solvency",
	Submitting:           "submitting",
	AwaitingConfirmation: "awaiting_confirmation",
	Succeeded:            "succeeded",
	Failed:               "failed",
	Unsettled:            "unsettled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Busy reports whether an operation is in flight. New requests are refused
// while the orchestrator is busy.
func (s State) Busy() bool {
	switch s {
	case Connecting, Validating, Normalizing, CheckingSolvency, Submitting, AwaitingConfirmation:
		return true
	default:
		return false
	}
}

// Terminal reports whether s ends a distribution run.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}
