package errors

// Outcome is a tagged-union result for a staking operation: either Events is
// populated (success) or Err is set (one of the four Kinds above). The
// operation entry points in staking/* return their events and a
// *StakingError directly rather than an Outcome. Callers switch on Err's Kind rather than string
// matching, mirroring the teacher's event-emission-on-success idiom.
type Outcome struct {
	Events []Event
	Err    *StakingError
}

// Event is the minimal shape an Outcome needs from core/events.Event
// without importing that package (which itself depends on core/types).
type Event interface {
	EventType() string
}

// Ok builds a successful Outcome carrying the events an operation emitted.
func Ok(events ...Event) Outcome {
	return Outcome{Events: events}
}

// Err builds a failed Outcome from a StakingError.
func Err(err *StakingError) Outcome {
	return Outcome{Err: err}
}

// Success reports whether the operation succeeded.
func (o Outcome) Success() bool { return o.Err == nil }

// Halts reports whether the block driver must halt rather than commit.
func (o Outcome) Halts() bool { return o.Err != nil && o.Err.Kind == KindFatal }
