package om

import "fmt"

// Value is the four-state opinion a participant can hold about the
// source's order.
//
// The zero value is Unset: nothing has been recorded yet. Zero and One
// are the two orders a source can issue. Unknown is produced by the
// majority reduction when neither order reaches a majority; it
// propagates upward but never counts toward either order.
type Value uint8

const (
	Unset Value = iota
	Zero
	One
	Unknown
)

func (v Value) String() string {
	switch v {
	case Unset:
		return "X"
	case Zero:
		return "0"
	case One:
		return "1"
	case Unknown:
		return "?"
	default:
		return fmt.Sprintf("Value(%d)", uint8(v))
	}
}

// Valid reports whether v is one of the four defined states.
func (v Value) Valid() bool {
	return v <= Unknown
}

// IsOrder reports whether v is an order a source can issue, i.e. Zero
// or One. Only orders carry weight in the majority reduction.
func (v Value) IsOrder() bool {
	return v == Zero || v == One
}
