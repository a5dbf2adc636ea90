package sentinel

import "fmt"

// State is the bootstrap progress recorded in HarbomuxVar.
type State int

const (
	// Absent: the variable is not set. Nothing has been launched for this
	// process tree.
	Absent State = iota
	// PreSetup: the launcher armed the sentinel and created the session; the
	// one-time setup has not run yet.
	PreSetup
	// Ready: setup ran inside the session.
	Ready
	// Unknown: the variable holds a value harbomux never writes.
	Unknown
)

const (
	preSetupValue = "pre-setup"
	readyValue    = "1"
)

// Parse maps a raw lookup of HarbomuxVar to a State.
func Parse(value string, present bool) State {
	if !present {
		return Absent
	}
	switch value {
	case preSetupValue:
		return PreSetup
	case readyValue:
		return Ready
	default:
		return Unknown
	}
}

// Value is the string written to the environment for s. Absent and Unknown
// have no value of their own.
func (s State) Value() string {
	switch s {
	case PreSetup:
		return preSetupValue
	case Ready:
		return readyValue
	default:
		return ""
	}
}

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case PreSetup:
		return "pre-setup"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Read returns the current State held in s.
func Read(s Store) State {
	return Parse(s.Lookup(HarbomuxVar))
}

// TransitionError reports a check-then-advance that found the sentinel in an
// unexpected state.
type TransitionError struct {
	Expected State
	Observed State
	Raw      string
}

func (e *TransitionError) Error() string {
	if e.Observed == Unknown {
		return fmt.Sprintf("%s is %q, expected %s", HarbomuxVar, e.Raw, e.Expected)
	}
	return fmt.Sprintf("%s is %s, expected %s", HarbomuxVar, e.Observed, e.Expected)
}

// legal lists the only forward moves the handshake makes.
var legal = map[State]State{
	Absent:   PreSetup,
	PreSetup: Ready,
}

// Advance moves the sentinel in s from `from` to the next state. It fails
// without writing anything when the current value is not `from`.
//
// The check and the write are not atomic. That is fine as long as a single
// process owns each transition, which the handshake guarantees.
func Advance(s Store, from State) (State, error) {
	to, ok := legal[from]
	if !ok {
		return from, fmt.Errorf("no transition out of %s", from)
	}
	raw, present := s.Lookup(HarbomuxVar)
	if observed := Parse(raw, present); observed != from {
		return observed, &TransitionError{Expected: from, Observed: observed, Raw: raw}
	}
	if err := s.Set(HarbomuxVar, to.Value()); err != nil {
		return from, fmt.Errorf("failed to set %s: %w", HarbomuxVar, err)
	}
	return to, nil
}
