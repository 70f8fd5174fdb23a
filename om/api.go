package om

// FaultPolicy decides how participants deviate from honest behavior.
// It is consulted once for the source's own input and once per
// destination for every relayed value. A policy that returns its
// inputs unchanged and reports nobody faulty describes a fully honest
// run.
//
// Implementations must return one of the four defined Values;
// anything else is rejected with ErrInvalidValue where the value is
// consumed. Policies are shared by all participants of a simulation
// and must be safe for concurrent reads.
type FaultPolicy interface {
	// SourceValue returns the order the source records at the root
	// path as its own input.
	SourceValue() Value
	// RelayValue returns the value relayer actually sends to
	// destination to, for the record keyed by path. An honest relayer
	// returns value unchanged. Returning Unset models a mute
	// participant: the record is still delivered but carries no vote.
	RelayValue(value Value, relayer, to ID, path Path) Value
	// DefaultValue returns the agreed tie-break value. It must be the
	// same for every participant or the agreement guarantees do not
	// hold.
	DefaultValue() Value
	// IsFaulty reports whether id deviates from honest behavior.
	IsFaulty(id ID) bool
}

// MessageSink accepts the messages a participant emits during a send
// round. The simulation driver queues them and delivers at the round
// barrier.
type MessageSink interface {
	Send(from, to ID, path Path, value Value) error
}

// Tracer collects trace logs that capture logical state changes, to
// aid debugging and simulation.
type Tracer interface {
	Log(format string, args ...any)
}
