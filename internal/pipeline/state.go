package pipeline

// State is a step of the request state machine
type State int

const (
	StateStart State = iota
	StateAuthenticated
	StateAnonymous
	StateTenantBound
	StateValidated
	StateProjected
	StateCommitted
	StateRejected
)

var stateNames = map[State]string{
	StateStart:         "start",
	StateAuthenticated: "authenticated",
	StateAnonymous:     "anonymous",
	StateTenantBound:   "tenant_bound",
	StateValidated:     "validated",
	StateProjected:     "projected",
	StateCommitted:     "committed",
	StateRejected:      "rejected",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateRejected
}
